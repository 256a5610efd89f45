package liquidity

import (
	"time"

	"gorm.io/gorm"
)

// Position tracks how many LP shares a provider holds in one item's pool.
// Shares and contributed amounts are decimal strings, matching the pool
// record columns.
type Position struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Provider          string    `json:"provider" gorm:"not null;size:64;index:idx_provider_item,unique"`
	ItemID            string    `json:"item_id" gorm:"not null;size:64;index:idx_provider_item,unique"`
	Shares            string    `json:"shares" gorm:"type:numeric(40,0);not null"`
	TokenContributed  string    `json:"token_contributed" gorm:"type:numeric(40,0)"`
	NativeContributed string    `json:"native_contributed" gorm:"type:numeric(40,0)"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the table name for the position model.
func (Position) TableName() string {
	return "liquidity_positions"
}

// BeforeCreate hook to reject positions without owner or pool identity.
func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.Provider == "" || p.ItemID == "" {
		return gorm.ErrInvalidData
	}
	return nil
}
