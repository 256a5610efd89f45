package swap

import (
	"time"

	"gorm.io/gorm"
)

// Direction says which side of the pool the trader paid into.
type Direction string

const (
	// DirectionBuy spends native currency and receives item tokens.
	DirectionBuy Direction = "buy"
	// DirectionSell spends item tokens and receives native currency.
	DirectionSell Direction = "sell"
)

// Trade is one executed swap, recorded after the pool state change commits.
type Trade struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ItemID      string         `json:"item_id" gorm:"not null;size:64;index"`
	Trader      string         `json:"trader" gorm:"not null;size:64;index"`
	Direction   Direction      `json:"direction" gorm:"not null;size:4"`
	AmountIn    string         `json:"amount_in" gorm:"type:numeric(40,0);not null"`
	AmountOut   string         `json:"amount_out" gorm:"type:numeric(40,0);not null"`
	Fee         string         `json:"fee" gorm:"type:numeric(40,0);not null"`
	PriceImpact float64        `json:"price_impact"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the trade model.
func (Trade) TableName() string {
	return "trades"
}
