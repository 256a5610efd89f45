package token

import (
	"time"

	"gorm.io/gorm"
)

// Status tracks where an item token is in its lifecycle.
type Status string

const (
	// StatusPending means the token is registered but has no pool yet.
	StatusPending Status = "pending"
	// StatusListed means a pool exists and the token is tradeable.
	StatusListed Status = "listed"
)

// Token is a registered item token. Supplies are decimal strings, matching
// the pool record columns.
type Token struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ItemID        string         `json:"item_id" gorm:"uniqueIndex;not null;size:64"`
	Creator       string         `json:"creator" gorm:"not null;size:64;index"`
	Title         string         `json:"title" gorm:"not null;size:200"`
	Description   string         `json:"description" gorm:"size:2000"`
	ContentHash   string         `json:"content_hash" gorm:"size:128"`
	TotalSupply   string         `json:"total_supply" gorm:"type:numeric(40,0);not null"`
	Status        Status         `json:"status" gorm:"not null;size:10;default:'pending';index"`
	ListedAt      *time.Time     `json:"listed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the token model.
func (Token) TableName() string {
	return "tokens"
}

// BeforeCreate hook to validate token identity fields.
func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.ItemID == "" || t.Creator == "" || t.Title == "" {
		return gorm.ErrInvalidData
	}
	return nil
}
