package liquidity

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines liquidity position persistence operations.
type Repository interface {
	Create(position *Position) error
	Get(provider, itemID string) (*Position, error)
	Update(position *Position) error
	Delete(position *Position) error
	ListByProvider(provider string) ([]*Position, error)
	ListByItem(itemID string) ([]*Position, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed position repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(position *Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Create(position).Error
}

func (r *repository) Get(provider, itemID string) (*Position, error) {
	if provider == "" || itemID == "" {
		return nil, errors.New("provider and itemID cannot be empty")
	}

	var position Position
	err := r.db.Where("provider = ? AND item_id = ?", provider, itemID).First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &position, nil
}

func (r *repository) Update(position *Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Save(position).Error
}

// Delete removes the row outright. A closed position must not shadow the
// provider/item slot, or a later deposit would trip the unique index.
func (r *repository) Delete(position *Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Unscoped().Delete(position).Error
}

func (r *repository) ListByProvider(provider string) ([]*Position, error) {
	if provider == "" {
		return nil, errors.New("provider cannot be empty")
	}
	var positions []*Position
	err := r.db.Where("provider = ?", provider).Order("item_id").Find(&positions).Error
	return positions, err
}

func (r *repository) ListByItem(itemID string) ([]*Position, error) {
	if itemID == "" {
		return nil, errors.New("itemID cannot be empty")
	}
	var positions []*Position
	err := r.db.Where("item_id = ?", itemID).Order("provider").Find(&positions).Error
	return positions, err
}
