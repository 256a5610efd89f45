package liquidity

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
	"github.com/launchblock/amm-api/internal/ws"
)

var (
	// ErrNoPosition is returned when the provider holds no shares in the pool.
	ErrNoPosition = errors.New("no liquidity position for provider")
	// ErrMalformedAmount is returned when a request amount is not a
	// non-negative decimal integer.
	ErrMalformedAmount = errors.New("malformed amount")
)

// AddRequest describes a liquidity deposit. The native side is derived from
// the current pool ratio, bounded by MaxNativeAmount when set.
type AddRequest struct {
	ItemID          string `json:"item_id" binding:"required"`
	Provider        string `json:"provider" binding:"required"`
	TokenAmount     string `json:"token_amount" binding:"required"`
	MaxNativeAmount string `json:"max_native_amount"`
}

// AddResponse reports the settled deposit.
type AddResponse struct {
	ItemID       string `json:"item_id"`
	Provider     string `json:"provider"`
	TokenAmount  string `json:"token_amount"`
	NativeAmount string `json:"native_amount"`
	LPMinted     string `json:"lp_minted"`
	TotalShares  string `json:"total_shares"`
}

// RemoveRequest describes a withdrawal of LP shares.
type RemoveRequest struct {
	ItemID    string `json:"item_id" binding:"required"`
	Provider  string `json:"provider" binding:"required"`
	LPTokens  string `json:"lp_tokens" binding:"required"`
	MinNative string `json:"min_native"`
	MinTokens string `json:"min_tokens"`
}

// RemoveResponse reports the settled withdrawal.
type RemoveResponse struct {
	ItemID          string `json:"item_id"`
	Provider        string `json:"provider"`
	LPBurned        string `json:"lp_burned"`
	NativeOut       string `json:"native_out"`
	TokenOut        string `json:"token_out"`
	RemainingShares string `json:"remaining_shares"`
}

// Publisher pushes pool snapshots to subscribed clients. *ws.Hub implements
// it; a nil publisher disables broadcasting.
type Publisher interface {
	PublishPoolUpdate(update ws.PoolUpdate)
}

// Service manages liquidity deposits and withdrawals with per-provider
// position bookkeeping.
type Service interface {
	Add(ctx context.Context, req *AddRequest) (*AddResponse, error)
	Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error)
	Positions(provider string) ([]*Position, error)
	// RequiredNative quotes the native amount a deposit of tokenAmount
	// would currently require.
	RequiredNative(itemID string, tokenAmount *big.Int) (*big.Int, error)
}

type service struct {
	pools     pool.Service
	repo      Repository
	publisher Publisher
}

// NewService creates a liquidity service.
func NewService(pools pool.Service, repo Repository, publisher Publisher) Service {
	return &service{pools: pools, repo: repo, publisher: publisher}
}

// Add deposits tokens plus the ratio-derived native amount. The engine
// mutation, the position upsert, and the pool persistence run under the
// item's lock; a failing step leaves the stored pool untouched.
func (s *service) Add(ctx context.Context, req *AddRequest) (*AddResponse, error) {
	tokenAmount, err := parseAmount(req.TokenAmount)
	if err != nil {
		return nil, fmt.Errorf("token_amount: %w", err)
	}
	var maxNative *big.Int
	if req.MaxNativeAmount != "" {
		if maxNative, err = parseAmount(req.MaxNativeAmount); err != nil {
			return nil, fmt.Errorf("max_native_amount: %w", err)
		}
	}

	var (
		result      *amm.AddLiquidityResult
		snapshot    amm.Snapshot
		price       float64
		totalShares *big.Int
	)
	err = s.pools.WithPool(ctx, req.ItemID, func(p *amm.Pool) error {
		required, reqErr := p.RequiredNativeAmount(tokenAmount)
		if reqErr != nil {
			return reqErr
		}
		if maxNative != nil && required.Cmp(maxNative) > 0 {
			return amm.ErrSlippageExceeded
		}

		var addErr error
		if result, addErr = p.AddLiquidity(tokenAmount); addErr != nil {
			return addErr
		}

		totalShares, addErr = s.upsertPosition(req.Provider, req.ItemID, tokenAmount, result)
		if addErr != nil {
			return addErr
		}
		snapshot = p.Snapshot()
		price = p.CurrentPrice()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(snapshot, price)
	logrus.WithFields(logrus.Fields{
		"item_id":   req.ItemID,
		"provider":  req.Provider,
		"lp_minted": result.LPMinted.String(),
	}).Info("Liquidity added")

	return &AddResponse{
		ItemID:       req.ItemID,
		Provider:     req.Provider,
		TokenAmount:  tokenAmount.String(),
		NativeAmount: result.NativeAmount.String(),
		LPMinted:     result.LPMinted.String(),
		TotalShares:  totalShares.String(),
	}, nil
}

// Remove burns LP shares for a proportional withdrawal. The provider must
// own at least the burned shares; the ownership check runs before the
// engine mutation.
func (s *service) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error) {
	lpTokens, err := parseAmount(req.LPTokens)
	if err != nil {
		return nil, fmt.Errorf("lp_tokens: %w", err)
	}
	minNative, err := parseOptional(req.MinNative, "min_native")
	if err != nil {
		return nil, err
	}
	minTokens, err := parseOptional(req.MinTokens, "min_tokens")
	if err != nil {
		return nil, err
	}

	var (
		result    *amm.RemoveLiquidityResult
		snapshot  amm.Snapshot
		price     float64
		remaining *big.Int
	)
	err = s.pools.WithPool(ctx, req.ItemID, func(p *amm.Pool) error {
		position, posErr := s.repo.Get(req.Provider, req.ItemID)
		if posErr != nil {
			return fmt.Errorf("lookup position: %w", posErr)
		}
		if position == nil {
			return ErrNoPosition
		}
		owned, posErr := parseAmount(position.Shares)
		if posErr != nil {
			return fmt.Errorf("decode position shares: %w", posErr)
		}
		if owned.Cmp(lpTokens) < 0 {
			return amm.ErrInsufficientShares
		}

		var removeErr error
		if result, removeErr = p.RemoveLiquidity(lpTokens, minNative, minTokens); removeErr != nil {
			return removeErr
		}

		remaining = new(big.Int).Sub(owned, lpTokens)
		if remaining.Sign() == 0 {
			if removeErr = s.repo.Delete(position); removeErr != nil {
				return fmt.Errorf("close position: %w", removeErr)
			}
		} else {
			position.Shares = remaining.String()
			if removeErr = s.repo.Update(position); removeErr != nil {
				return fmt.Errorf("update position: %w", removeErr)
			}
		}
		snapshot = p.Snapshot()
		price = p.CurrentPrice()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(snapshot, price)
	logrus.WithFields(logrus.Fields{
		"item_id":   req.ItemID,
		"provider":  req.Provider,
		"lp_burned": lpTokens.String(),
	}).Info("Liquidity removed")

	return &RemoveResponse{
		ItemID:          req.ItemID,
		Provider:        req.Provider,
		LPBurned:        lpTokens.String(),
		NativeOut:       result.NativeOut.String(),
		TokenOut:        result.TokenOut.String(),
		RemainingShares: remaining.String(),
	}, nil
}

func (s *service) Positions(provider string) ([]*Position, error) {
	return s.repo.ListByProvider(provider)
}

func (s *service) RequiredNative(itemID string, tokenAmount *big.Int) (*big.Int, error) {
	p, err := s.pools.ReadPool(itemID)
	if err != nil {
		return nil, err
	}
	return p.RequiredNativeAmount(tokenAmount)
}

// upsertPosition credits minted shares and contributed amounts to the
// provider's position, creating it on first deposit. Returns the provider's
// share balance after the credit.
func (s *service) upsertPosition(provider, itemID string, tokenAmount *big.Int, result *amm.AddLiquidityResult) (*big.Int, error) {
	position, err := s.repo.Get(provider, itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup position: %w", err)
	}
	if position == nil {
		position = &Position{
			Provider:          provider,
			ItemID:            itemID,
			Shares:            result.LPMinted.String(),
			TokenContributed:  tokenAmount.String(),
			NativeContributed: result.NativeAmount.String(),
		}
		if err := s.repo.Create(position); err != nil {
			return nil, fmt.Errorf("create position: %w", err)
		}
		return new(big.Int).Set(result.LPMinted), nil
	}

	shares, err := addStored(position.Shares, result.LPMinted)
	if err != nil {
		return nil, fmt.Errorf("decode position shares: %w", err)
	}
	tokenTotal, err := addStored(position.TokenContributed, tokenAmount)
	if err != nil {
		return nil, fmt.Errorf("decode token contribution: %w", err)
	}
	nativeTotal, err := addStored(position.NativeContributed, result.NativeAmount)
	if err != nil {
		return nil, fmt.Errorf("decode native contribution: %w", err)
	}

	position.Shares = shares.String()
	position.TokenContributed = tokenTotal.String()
	position.NativeContributed = nativeTotal.String()
	if err := s.repo.Update(position); err != nil {
		return nil, fmt.Errorf("update position: %w", err)
	}
	return shares, nil
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

func addStored(stored string, delta *big.Int) (*big.Int, error) {
	base := new(big.Int)
	if stored != "" {
		v, ok := new(big.Int).SetString(stored, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedAmount, stored)
		}
		base = v
	}
	return base.Add(base, delta), nil
}

func parseOptional(s, field string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return v, nil
}
