package swap

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines trade log persistence operations.
type Repository interface {
	Create(trade *Trade) error
	ListByItem(itemID string, limit int) ([]*Trade, error)
	ListByTrader(trader string, limit int) ([]*Trade, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed trade repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(trade *Trade) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return r.db.Create(trade).Error
}

func (r *repository) ListByItem(itemID string, limit int) ([]*Trade, error) {
	if itemID == "" {
		return nil, errors.New("itemID cannot be empty")
	}
	var trades []*Trade
	err := r.db.Where("item_id = ?", itemID).
		Order("created_at DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

func (r *repository) ListByTrader(trader string, limit int) ([]*Trade, error) {
	if trader == "" {
		return nil, errors.New("trader cannot be empty")
	}
	var trades []*Trade
	err := r.db.Where("trader = ?", trader).
		Order("created_at DESC").Limit(limit).Find(&trades).Error
	return trades, err
}
