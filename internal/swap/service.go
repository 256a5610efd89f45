package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
	"github.com/launchblock/amm-api/internal/ws"
)

var (
	// ErrInvalidDirection is returned for a direction other than buy or sell.
	ErrInvalidDirection = errors.New("direction must be buy or sell")
	// ErrMalformedAmount is returned when a request amount is not a
	// non-negative decimal integer.
	ErrMalformedAmount = errors.New("malformed amount")
)

// ExecuteRequest describes a swap to run against an item's pool.
type ExecuteRequest struct {
	ItemID       string    `json:"item_id" binding:"required"`
	Trader       string    `json:"trader" binding:"required"`
	Direction    Direction `json:"direction" binding:"required"`
	AmountIn     string    `json:"amount_in" binding:"required"`
	MinAmountOut string    `json:"min_amount_out"`
}

// ExecuteResponse reports the settled amounts of a swap.
type ExecuteResponse struct {
	ItemID      string          `json:"item_id"`
	Direction   Direction       `json:"direction"`
	AmountIn    string          `json:"amount_in"`
	AmountOut   string          `json:"amount_out"`
	Fee         string          `json:"fee"`
	PriceImpact decimal.Decimal `json:"price_impact"`
	NewPrice    decimal.Decimal `json:"new_price"`
}

// EstimateRequest asks what a swap would return without executing it.
type EstimateRequest struct {
	ItemID    string    `json:"item_id" binding:"required"`
	Direction Direction `json:"direction" binding:"required"`
	AmountIn  string    `json:"amount_in" binding:"required"`
}

// EstimateResponse is the projected outcome of a swap.
type EstimateResponse struct {
	ItemID      string          `json:"item_id"`
	Direction   Direction       `json:"direction"`
	AmountIn    string          `json:"amount_in"`
	AmountOut   string          `json:"amount_out"`
	Fee         string          `json:"fee"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}

// Publisher pushes pool snapshots to subscribed clients. *ws.Hub implements
// it; a nil publisher disables broadcasting.
type Publisher interface {
	PublishPoolUpdate(update ws.PoolUpdate)
}

// Service executes swaps and produces read-only estimates.
type Service interface {
	Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error)
	Estimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error)
	RecentTrades(itemID string, limit int) ([]*Trade, error)
	TradesByTrader(trader string, limit int) ([]*Trade, error)
}

type service struct {
	pools     pool.Service
	repo      Repository
	publisher Publisher
}

// NewService creates a swap service. repo and publisher may be nil; the trade
// log and broadcasting are then disabled.
func NewService(pools pool.Service, repo Repository, publisher Publisher) Service {
	return &service{pools: pools, repo: repo, publisher: publisher}
}

// Execute runs the swap under the pool's lock. The pool state, the trade log
// row, and the broadcast all reflect the same committed outcome; on any
// engine error nothing is persisted.
func (s *service) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	if req.Direction != DirectionBuy && req.Direction != DirectionSell {
		return nil, ErrInvalidDirection
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("amount_in: %w", err)
	}
	var minOut *big.Int
	if req.MinAmountOut != "" {
		if minOut, err = parseAmount(req.MinAmountOut); err != nil {
			return nil, fmt.Errorf("min_amount_out: %w", err)
		}
	}

	var (
		result   *amm.SwapResult
		snapshot amm.Snapshot
		newPrice float64
	)
	err = s.pools.WithPool(ctx, req.ItemID, func(p *amm.Pool) error {
		var swapErr error
		if req.Direction == DirectionBuy {
			result, swapErr = p.SwapNativeForTokens(amountIn, minOut)
		} else {
			result, swapErr = p.SwapTokensForNative(amountIn, minOut)
		}
		if swapErr != nil {
			return swapErr
		}
		snapshot = p.Snapshot()
		newPrice = p.CurrentPrice()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTrade(req, result)
	s.broadcast(snapshot, newPrice)

	logrus.WithFields(logrus.Fields{
		"item_id":    req.ItemID,
		"direction":  req.Direction,
		"amount_in":  req.AmountIn,
		"amount_out": result.AmountOut.String(),
	}).Info("Swap executed")

	return &ExecuteResponse{
		ItemID:      req.ItemID,
		Direction:   req.Direction,
		AmountIn:    amountIn.String(),
		AmountOut:   result.AmountOut.String(),
		Fee:         result.Fee.String(),
		PriceImpact: impactPercent(result.PriceImpact),
		NewPrice:    decimal.NewFromFloat(newPrice).Round(18),
	}, nil
}

// Estimate simulates the swap against current reserves without touching
// stored state. It uses the same fee-inclusive formula as Execute, so the
// projected output matches what an immediate execution would settle.
func (s *service) Estimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	if req.Direction != DirectionBuy && req.Direction != DirectionSell {
		return nil, ErrInvalidDirection
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("amount_in: %w", err)
	}

	p, err := s.pools.ReadPool(req.ItemID)
	if err != nil {
		return nil, err
	}
	result, err := p.EstimateSwap(amountIn, req.Direction == DirectionBuy)
	if err != nil {
		return nil, err
	}

	return &EstimateResponse{
		ItemID:      req.ItemID,
		Direction:   req.Direction,
		AmountIn:    amountIn.String(),
		AmountOut:   result.AmountOut.String(),
		Fee:         result.Fee.String(),
		PriceImpact: impactPercent(result.PriceImpact),
	}, nil
}

func (s *service) RecentTrades(itemID string, limit int) ([]*Trade, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByItem(itemID, limit)
}

func (s *service) TradesByTrader(trader string, limit int) ([]*Trade, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByTrader(trader, limit)
}

// recordTrade appends to the trade log. The swap already committed, so a log
// failure is reported but does not fail the request.
func (s *service) recordTrade(req *ExecuteRequest, result *amm.SwapResult) {
	if s.repo == nil {
		return
	}
	trade := &Trade{
		ItemID:      req.ItemID,
		Trader:      req.Trader,
		Direction:   req.Direction,
		AmountIn:    req.AmountIn,
		AmountOut:   result.AmountOut.String(),
		Fee:         result.Fee.String(),
		PriceImpact: result.PriceImpact,
	}
	if err := s.repo.Create(trade); err != nil {
		logrus.WithError(err).WithField("item_id", req.ItemID).Error("Failed to record trade")
	}
}

func (s *service) broadcast(snapshot amm.Snapshot, price float64) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishPoolUpdate(ws.PoolUpdate{
		Type:          "pool_update",
		ItemID:        snapshot.ItemID,
		TokenReserve:  snapshot.TokenReserve.String(),
		NativeReserve: snapshot.NativeReserve.String(),
		Price:         price,
		Volume24h:     snapshot.Volume24h.String(),
		LPTotalSupply: snapshot.LPTotalSupply.String(),
	})
}

// impactPercent renders the engine's price impact, already a percentage,
// with 4 decimals.
func impactPercent(impact float64) decimal.Decimal {
	return decimal.NewFromFloat(impact).Round(4)
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return v, nil
}
