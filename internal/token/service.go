package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/launchblock/amm-api/internal/pool"
)

var (
	// ErrNotFound is returned when no token exists for the item.
	ErrNotFound = errors.New("token not found")
	// ErrAlreadyExists is returned when the item id is already registered.
	ErrAlreadyExists = errors.New("token already registered")
	// ErrAlreadyListed is returned when listing a token that has a pool.
	ErrAlreadyListed = errors.New("token already listed")
	// ErrMalformedSupply is returned when the total supply is not a
	// positive decimal integer.
	ErrMalformedSupply = errors.New("malformed total supply")
)

// RegisterRequest describes a new item token.
type RegisterRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	Creator     string `json:"creator" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ContentHash string `json:"content_hash"`
	TotalSupply string `json:"total_supply" binding:"required"`
}

// Service manages the token registry and the listing step that opens a pool.
type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*Token, error)
	Get(itemID string) (*Token, error)
	List(limit, offset int) ([]*Token, error)
	ListByCreator(creator string, limit, offset int) ([]*Token, error)
	ListByStatus(status Status, limit, offset int) ([]*Token, error)
	// ListToken opens the item's pool and flips the token to listed.
	ListToken(ctx context.Context, itemID string) (*Token, error)
}

type service struct {
	repo  Repository
	pools pool.Service
}

// NewService creates a token service.
func NewService(repo Repository, pools pool.Service) Service {
	return &service{repo: repo, pools: pools}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*Token, error) {
	supply, ok := new(big.Int).SetString(req.TotalSupply, 10)
	if !ok || supply.Sign() <= 0 {
		return nil, ErrMalformedSupply
	}

	existing, err := s.repo.GetByItemID(req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	tok := &Token{
		ItemID:      req.ItemID,
		Creator:     req.Creator,
		Title:       req.Title,
		Description: req.Description,
		ContentHash: req.ContentHash,
		TotalSupply: supply.String(),
		Status:      StatusPending,
	}
	if err := s.repo.Create(tok); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"item_id": tok.ItemID,
		"creator": tok.Creator,
	}).Info("Token registered")
	return tok, nil
}

func (s *service) Get(itemID string) (*Token, error) {
	tok, err := s.repo.GetByItemID(itemID)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNotFound
	}
	return tok, nil
}

func (s *service) List(limit, offset int) ([]*Token, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.List(limit, offset)
}

func (s *service) ListByCreator(creator string, limit, offset int) ([]*Token, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByCreator(creator, limit, offset)
}

func (s *service) ListByStatus(status Status, limit, offset int) ([]*Token, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByStatus(status, limit, offset)
}

// ListToken seeds the pool with a fifth of the token supply at an initial
// 1:1 price, then marks the token listed. The pool creation is the
// authoritative step; a token whose pool exists cannot be listed twice.
func (s *service) ListToken(ctx context.Context, itemID string) (*Token, error) {
	tok, err := s.Get(itemID)
	if err != nil {
		return nil, err
	}
	if tok.Status == StatusListed {
		return nil, ErrAlreadyListed
	}

	supply, ok := new(big.Int).SetString(tok.TotalSupply, 10)
	if !ok || supply.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedSupply, tok.TotalSupply)
	}

	if _, err := s.pools.CreatePool(ctx, itemID, supply); err != nil {
		if errors.Is(err, pool.ErrAlreadyExists) {
			return nil, ErrAlreadyListed
		}
		return nil, err
	}

	now := time.Now()
	tok.Status = StatusListed
	tok.ListedAt = &now
	if err := s.repo.Update(tok); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	logrus.WithField("item_id", itemID).Info("Token listed")
	return tok, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
