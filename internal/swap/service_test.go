package swap

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
	"github.com/launchblock/amm-api/internal/ws"
)

// fakePoolService backs pool.Service with in-memory snapshots so swap tests
// exercise the real engine without a database.
type fakePoolService struct {
	snapshots map[string]amm.Snapshot
}

func newFakePoolService() *fakePoolService {
	return &fakePoolService{snapshots: make(map[string]amm.Snapshot)}
}

func (f *fakePoolService) seed(t *testing.T, itemID string, tokenReserve, nativeReserve int64) {
	t.Helper()
	f.snapshots[itemID] = amm.Snapshot{
		ItemID:        itemID,
		TokenReserve:  big.NewInt(tokenReserve),
		NativeReserve: big.NewInt(nativeReserve),
		TotalVolume:   big.NewInt(0),
		TotalFees:     big.NewInt(0),
		FeeRate:       amm.DefaultFeeRate,
		Volume24h:     big.NewInt(0),
		LPTotalSupply: big.NewInt(tokenReserve),
	}
}

func (f *fakePoolService) CreatePool(ctx context.Context, itemID string, totalSupply *big.Int) (*pool.Info, error) {
	return nil, nil
}

func (f *fakePoolService) GetPoolInfo(ctx context.Context, itemID string) (*pool.Info, error) {
	return nil, nil
}

func (f *fakePoolService) ListPools(limit, offset int) ([]*pool.Info, error) { return nil, nil }

func (f *fakePoolService) TopPools(limit int) ([]*pool.Info, error) { return nil, nil }

func (f *fakePoolService) SetFeeRate(ctx context.Context, itemID string, rateBps uint32) error {
	return nil
}

func (f *fakePoolService) WithPool(ctx context.Context, itemID string, fn func(p *amm.Pool) error) error {
	s, ok := f.snapshots[itemID]
	if !ok {
		return pool.ErrNotFound
	}
	p, err := amm.FromSnapshot(s)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	f.snapshots[itemID] = p.Snapshot()
	return nil
}

func (f *fakePoolService) ReadPool(itemID string) (*amm.Pool, error) {
	s, ok := f.snapshots[itemID]
	if !ok {
		return nil, pool.ErrNotFound
	}
	return amm.FromSnapshot(s)
}

// MockTradeRepository is a mock implementation of Repository for testing.
type MockTradeRepository struct {
	mock.Mock
}

func (m *MockTradeRepository) Create(trade *Trade) error {
	args := m.Called(trade)
	return args.Error(0)
}

func (m *MockTradeRepository) ListByItem(itemID string, limit int) ([]*Trade, error) {
	args := m.Called(itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Trade), args.Error(1)
}

func (m *MockTradeRepository) ListByTrader(trader string, limit int) ([]*Trade, error) {
	args := m.Called(trader, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Trade), args.Error(1)
}

type capturingPublisher struct {
	updates []ws.PoolUpdate
}

func (c *capturingPublisher) PublishPoolUpdate(update ws.PoolUpdate) {
	c.updates = append(c.updates, update)
}

func TestExecuteBuy(t *testing.T) {
	pools := newFakePoolService()
	pools.seed(t, "item-1", 1_000_000, 1_000_000)
	repo := new(MockTradeRepository)
	publisher := &capturingPublisher{}
	svc := NewService(pools, repo, publisher)

	repo.On("Create", mock.AnythingOfType("*swap.Trade")).Return(nil)

	resp, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID:    "item-1",
		Trader:    "alice",
		Direction: DirectionBuy,
		AmountIn:  "1000",
	})
	require.NoError(t, err)

	assert.Equal(t, "997", resp.AmountOut)
	assert.Equal(t, "3", resp.Fee)
	// Price impact is a percentage: 1.0 to 1001000/999003 is a 0.1999% move.
	assert.Equal(t, "0.1999", resp.PriceImpact.String())

	s := pools.snapshots["item-1"]
	assert.Equal(t, "1001000", s.NativeReserve.String())
	assert.Equal(t, "999003", s.TokenReserve.String())

	require.Len(t, publisher.updates, 1)
	assert.Equal(t, "pool_update", publisher.updates[0].Type)
	assert.Equal(t, "999003", publisher.updates[0].TokenReserve)
	repo.AssertExpectations(t)
}

func TestExecuteSell(t *testing.T) {
	pools := newFakePoolService()
	pools.seed(t, "item-1", 1_000_000, 1_000_000)
	svc := NewService(pools, nil, nil)

	resp, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID:    "item-1",
		Trader:    "bob",
		Direction: DirectionSell,
		AmountIn:  "1000",
	})
	require.NoError(t, err)

	assert.Equal(t, "997", resp.AmountOut)
	s := pools.snapshots["item-1"]
	assert.Equal(t, "1001000", s.TokenReserve.String())
	assert.Equal(t, "999003", s.NativeReserve.String())
}

func TestExecuteSlippageLeavesStateUntouched(t *testing.T) {
	pools := newFakePoolService()
	pools.seed(t, "item-1", 1_000_000, 1_000_000)
	repo := new(MockTradeRepository)
	publisher := &capturingPublisher{}
	svc := NewService(pools, repo, publisher)

	_, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID:       "item-1",
		Trader:       "alice",
		Direction:    DirectionBuy,
		AmountIn:     "1000",
		MinAmountOut: "998",
	})
	assert.ErrorIs(t, err, amm.ErrSlippageExceeded)

	s := pools.snapshots["item-1"]
	assert.Equal(t, "1000000", s.NativeReserve.String())
	assert.Empty(t, publisher.updates)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestExecuteValidation(t *testing.T) {
	svc := NewService(newFakePoolService(), nil, nil)

	_, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID: "item-1", Trader: "alice", Direction: "short", AmountIn: "1000",
	})
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = svc.Execute(context.Background(), &ExecuteRequest{
		ItemID: "item-1", Trader: "alice", Direction: DirectionBuy, AmountIn: "12.5",
	})
	assert.ErrorIs(t, err, ErrMalformedAmount)

	_, err = svc.Execute(context.Background(), &ExecuteRequest{
		ItemID: "item-1", Trader: "alice", Direction: DirectionBuy, AmountIn: "-3",
	})
	assert.ErrorIs(t, err, ErrMalformedAmount)
}

func TestExecuteUnknownPool(t *testing.T) {
	svc := NewService(newFakePoolService(), nil, nil)

	_, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID: "missing", Trader: "alice", Direction: DirectionBuy, AmountIn: "1000",
	})
	assert.ErrorIs(t, err, pool.ErrNotFound)
}

func TestEstimateMatchesExecution(t *testing.T) {
	pools := newFakePoolService()
	pools.seed(t, "item-1", 1_000_000, 1_000_000)
	svc := NewService(pools, nil, nil)

	est, err := svc.Estimate(context.Background(), &EstimateRequest{
		ItemID: "item-1", Direction: DirectionBuy, AmountIn: "1000",
	})
	require.NoError(t, err)

	// The rendered impact keeps the engine's percent scale: the pool price
	// moves from 1.0 to 1001000/999003, a 0.1999% change.
	assert.Equal(t, "0.1999", est.PriceImpact.String())

	// Estimation must not move reserves.
	assert.Equal(t, "1000000", pools.snapshots["item-1"].NativeReserve.String())

	exec, err := svc.Execute(context.Background(), &ExecuteRequest{
		ItemID: "item-1", Trader: "alice", Direction: DirectionBuy, AmountIn: "1000",
	})
	require.NoError(t, err)

	assert.Equal(t, est.AmountOut, exec.AmountOut)
	assert.Equal(t, est.Fee, exec.Fee)
	assert.True(t, est.PriceImpact.Equal(exec.PriceImpact))
}

func TestEstimateUnknownPool(t *testing.T) {
	svc := NewService(newFakePoolService(), nil, nil)

	_, err := svc.Estimate(context.Background(), &EstimateRequest{
		ItemID: "missing", Direction: DirectionSell, AmountIn: "1000",
	})
	assert.ErrorIs(t, err, pool.ErrNotFound)
}

func TestRecentTrades(t *testing.T) {
	repo := new(MockTradeRepository)
	svc := NewService(newFakePoolService(), repo, nil)

	trades := []*Trade{{ItemID: "item-1", Trader: "alice", Direction: DirectionBuy}}
	repo.On("ListByItem", "item-1", 20).Return(trades, nil)

	got, err := svc.RecentTrades("item-1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTradesByTrader(t *testing.T) {
	repo := new(MockTradeRepository)
	svc := NewService(newFakePoolService(), repo, nil)

	trades := []*Trade{{ItemID: "item-1", Trader: "alice", Direction: DirectionBuy}}
	repo.On("ListByTrader", "alice", 20).Return(trades, nil)

	got, err := svc.TradesByTrader("alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Trader)
}
