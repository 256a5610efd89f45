package token

import (
	"errors"

	"gorm.io/gorm"
)

// Repository defines token persistence operations.
type Repository interface {
	Create(token *Token) error
	GetByItemID(itemID string) (*Token, error)
	Update(token *Token) error
	List(limit, offset int) ([]*Token, error)
	ListByCreator(creator string, limit, offset int) ([]*Token, error)
	ListByStatus(status Status, limit, offset int) ([]*Token, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed token repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(token *Token) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	return r.db.Create(token).Error
}

func (r *repository) GetByItemID(itemID string) (*Token, error) {
	if itemID == "" {
		return nil, errors.New("itemID cannot be empty")
	}

	var token Token
	err := r.db.Where("item_id = ?", itemID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *repository) Update(token *Token) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	return r.db.Save(token).Error
}

func (r *repository) List(limit, offset int) ([]*Token, error) {
	var tokens []*Token
	err := r.db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (r *repository) ListByCreator(creator string, limit, offset int) ([]*Token, error) {
	if creator == "" {
		return nil, errors.New("creator cannot be empty")
	}
	var tokens []*Token
	err := r.db.Where("creator = ?", creator).
		Limit(limit).Offset(offset).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (r *repository) ListByStatus(status Status, limit, offset int) ([]*Token, error) {
	var tokens []*Token
	err := r.db.Where("status = ?", status).
		Limit(limit).Offset(offset).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}
