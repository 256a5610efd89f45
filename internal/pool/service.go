package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/cache"
)

var (
	// ErrNotFound is returned when no pool exists for the item.
	ErrNotFound = errors.New("pool not found")
	// ErrAlreadyExists is returned when a pool for the item already exists.
	ErrAlreadyExists = errors.New("pool already exists")
)

const infoCacheTTL = 5 * time.Second

// Info is the read-model of a pool returned by queries.
type Info struct {
	ItemID        string          `json:"item_id"`
	TokenReserve  string          `json:"token_reserve"`
	NativeReserve string          `json:"native_reserve"`
	TotalVolume   string          `json:"total_volume"`
	TotalFees     string          `json:"total_fees"`
	FeeRate       uint32          `json:"fee_rate"`
	Price         decimal.Decimal `json:"price"`
	Volume24h     string          `json:"volume_24h"`
	LPTotalSupply string          `json:"lp_total_supply"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// Service owns the item-id to pool mapping and serializes every mutation of
// the same pool behind a per-item lock. Pools on different items proceed
// concurrently.
type Service interface {
	CreatePool(ctx context.Context, itemID string, totalSupply *big.Int) (*Info, error)
	GetPoolInfo(ctx context.Context, itemID string) (*Info, error)
	ListPools(limit, offset int) ([]*Info, error)
	TopPools(limit int) ([]*Info, error)
	SetFeeRate(ctx context.Context, itemID string, rateBps uint32) error
	// WithPool loads the pool, runs fn against it under the item lock, and
	// persists the resulting state only if fn succeeds. On any error the
	// stored state is untouched.
	WithPool(ctx context.Context, itemID string, fn func(p *amm.Pool) error) error
	// ReadPool returns a detached engine pool for read-only estimation.
	ReadPool(itemID string) (*amm.Pool, error)
}

type service struct {
	repo  Repository
	cache *cache.Client
	locks sync.Map // itemID -> *sync.Mutex
}

// NewService creates a pool service. The cache client may be nil; caching is
// then disabled.
func NewService(repo Repository, cacheClient *cache.Client) Service {
	return &service{repo: repo, cache: cacheClient}
}

func (s *service) lockFor(itemID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(itemID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreatePool applies the listing rule: 20% of the item supply on the token
// side, matched 1:1 by the native side. Called once per item by the listing
// workflow.
func (s *service) CreatePool(ctx context.Context, itemID string, totalSupply *big.Int) (*Info, error) {
	mu := s.lockFor(itemID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.repo.GetByItemID(itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup pool: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	p, err := amm.NewPool(itemID, totalSupply)
	if err != nil {
		return nil, err
	}
	record := NewRecord(p.Snapshot())
	if err := s.repo.Create(record); err != nil {
		return nil, fmt.Errorf("persist pool: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"item_id":       itemID,
		"token_reserve": record.TokenReserve,
	}).Info("Pool created")

	return infoFromPool(p), nil
}

func (s *service) GetPoolInfo(ctx context.Context, itemID string) (*Info, error) {
	key := infoCacheKey(itemID)
	if s.cache != nil {
		var cached Info
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logrus.WithError(err).WithField("item_id", itemID).Warn("Pool info cache read failed")
		}
	}

	p, err := s.ReadPool(itemID)
	if err != nil {
		return nil, err
	}
	info := infoFromPool(p)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, info, infoCacheTTL); err != nil {
			logrus.WithError(err).WithField("item_id", itemID).Warn("Pool info cache write failed")
		}
	}
	return info, nil
}

func (s *service) ListPools(limit, offset int) ([]*Info, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	records, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	return infosFromRecords(records)
}

func (s *service) TopPools(limit int) ([]*Info, error) {
	if limit <= 0 {
		limit = 10
	}
	records, err := s.repo.GetTopByVolume(limit)
	if err != nil {
		return nil, err
	}
	return infosFromRecords(records)
}

func (s *service) SetFeeRate(ctx context.Context, itemID string, rateBps uint32) error {
	return s.WithPool(ctx, itemID, func(p *amm.Pool) error {
		return p.SetFeeRate(rateBps)
	})
}

func (s *service) WithPool(ctx context.Context, itemID string, fn func(p *amm.Pool) error) error {
	mu := s.lockFor(itemID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.repo.GetByItemID(itemID)
	if err != nil {
		return fmt.Errorf("lookup pool: %w", err)
	}
	if record == nil {
		return ErrNotFound
	}

	snapshot, err := record.Snapshot()
	if err != nil {
		return fmt.Errorf("decode pool %s: %w", itemID, err)
	}
	p, err := amm.FromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("restore pool %s: %w", itemID, err)
	}

	if err := fn(p); err != nil {
		return err
	}

	record.Apply(p.Snapshot())
	if err := s.repo.Update(record); err != nil {
		return fmt.Errorf("persist pool %s: %w", itemID, err)
	}
	s.invalidate(ctx, itemID)
	return nil
}

func (s *service) ReadPool(itemID string) (*amm.Pool, error) {
	record, err := s.repo.GetByItemID(itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup pool: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	snapshot, err := record.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", itemID, err)
	}
	return amm.FromSnapshot(snapshot)
}

func (s *service) invalidate(ctx context.Context, itemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, infoCacheKey(itemID)); err != nil {
		logrus.WithError(err).WithField("item_id", itemID).Warn("Pool info cache invalidation failed")
	}
}

func infoCacheKey(itemID string) string {
	return "pool:info:" + itemID
}

func infoFromPool(p *amm.Pool) *Info {
	s := p.Snapshot()
	price := decimal.Zero
	if s.TokenReserve.Sign() > 0 {
		price = decimal.NewFromBigInt(s.NativeReserve, 0).
			DivRound(decimal.NewFromBigInt(s.TokenReserve, 0), 18)
	}
	return &Info{
		ItemID:        s.ItemID,
		TokenReserve:  s.TokenReserve.String(),
		NativeReserve: s.NativeReserve.String(),
		TotalVolume:   s.TotalVolume.String(),
		TotalFees:     s.TotalFees.String(),
		FeeRate:       s.FeeRate,
		Price:         price,
		Volume24h:     s.Volume24h.String(),
		LPTotalSupply: s.LPTotalSupply.String(),
		LastUpdated:   s.LastUpdated,
	}
}

func infosFromRecords(records []*Record) ([]*Info, error) {
	infos := make([]*Info, 0, len(records))
	for _, record := range records {
		snapshot, err := record.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("decode pool %s: %w", record.ItemID, err)
		}
		p, err := amm.FromSnapshot(snapshot)
		if err != nil {
			return nil, fmt.Errorf("restore pool %s: %w", record.ItemID, err)
		}
		infos = append(infos, infoFromPool(p))
	}
	return infos, nil
}
