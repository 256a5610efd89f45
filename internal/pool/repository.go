package pool

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines pool persistence operations.
type Repository interface {
	Create(record *Record) error
	GetByItemID(itemID string) (*Record, error)
	Update(record *Record) error
	List(limit, offset int) ([]*Record, error)
	GetTopByVolume(limit int) ([]*Record, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed pool repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(record *Record) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.db.Create(record).Error
}

func (r *repository) GetByItemID(itemID string) (*Record, error) {
	if itemID == "" {
		return nil, errors.New("itemID cannot be empty")
	}

	var record Record
	err := r.db.Where("item_id = ?", itemID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) Update(record *Record) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.db.Save(record).Error
}

func (r *repository) List(limit, offset int) ([]*Record, error) {
	var records []*Record
	err := r.db.Limit(limit).Offset(offset).Order("item_id").Find(&records).Error
	return records, err
}

// GetTopByVolume orders pools by their 24h volume. The volume column is a
// numeric string, so the cast keeps the ordering numeric rather than lexical.
func (r *repository) GetTopByVolume(limit int) ([]*Record, error) {
	var records []*Record
	err := r.db.Order("CAST(volume_24h AS DECIMAL) DESC").Limit(limit).Find(&records).Error
	return records, err
}
