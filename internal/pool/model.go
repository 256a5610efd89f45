package pool

import (
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/launchblock/amm-api/internal/amm"
)

// Record is the persisted form of a pool. Reserve, volume, fee, and share
// balances are stored as decimal strings so the full unsigned 128-bit range
// survives the database round trip.
type Record struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	ItemID           string         `json:"item_id" gorm:"uniqueIndex;not null;size:64"`
	TokenReserve     string         `json:"token_reserve" gorm:"type:numeric(40,0);not null"`
	NativeReserve    string         `json:"native_reserve" gorm:"type:numeric(40,0);not null"`
	TotalVolume      string         `json:"total_volume" gorm:"type:numeric(40,0)"`
	TotalFees        string         `json:"total_fees" gorm:"type:numeric(40,0)"`
	FeeRate          uint32         `json:"fee_rate" gorm:"not null;default:30"`
	Volume24h        string         `json:"volume_24h" gorm:"column:volume_24h;type:numeric(40,0)"`
	LPTotalSupply    string         `json:"lp_total_supply" gorm:"type:numeric(40,0)"`
	LastVolumeUpdate time.Time      `json:"last_volume_update"`
	LastUpdated      time.Time      `json:"last_updated"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for the pool record.
func (Record) TableName() string {
	return "pools"
}

// BeforeCreate hook to reject records without an item id.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ItemID == "" {
		return gorm.ErrInvalidData
	}
	return nil
}

// Snapshot converts the record into engine state.
func (r *Record) Snapshot() (amm.Snapshot, error) {
	s := amm.Snapshot{
		ItemID:           r.ItemID,
		FeeRate:          r.FeeRate,
		LastUpdated:      r.LastUpdated,
		LastVolumeUpdate: r.LastVolumeUpdate,
	}
	var err error
	if s.TokenReserve, err = parseAmount(r.TokenReserve); err != nil {
		return amm.Snapshot{}, fmt.Errorf("token reserve: %w", err)
	}
	if s.NativeReserve, err = parseAmount(r.NativeReserve); err != nil {
		return amm.Snapshot{}, fmt.Errorf("native reserve: %w", err)
	}
	if s.TotalVolume, err = parseAmount(r.TotalVolume); err != nil {
		return amm.Snapshot{}, fmt.Errorf("total volume: %w", err)
	}
	if s.TotalFees, err = parseAmount(r.TotalFees); err != nil {
		return amm.Snapshot{}, fmt.Errorf("total fees: %w", err)
	}
	if s.Volume24h, err = parseAmount(r.Volume24h); err != nil {
		return amm.Snapshot{}, fmt.Errorf("24h volume: %w", err)
	}
	if s.LPTotalSupply, err = parseAmount(r.LPTotalSupply); err != nil {
		return amm.Snapshot{}, fmt.Errorf("lp total supply: %w", err)
	}
	return s, nil
}

// Apply writes engine state back into the record, preserving row identity.
func (r *Record) Apply(s amm.Snapshot) {
	r.ItemID = s.ItemID
	r.TokenReserve = s.TokenReserve.String()
	r.NativeReserve = s.NativeReserve.String()
	r.TotalVolume = s.TotalVolume.String()
	r.TotalFees = s.TotalFees.String()
	r.FeeRate = s.FeeRate
	r.Volume24h = s.Volume24h.String()
	r.LPTotalSupply = s.LPTotalSupply.String()
	r.LastVolumeUpdate = s.LastVolumeUpdate
	r.LastUpdated = s.LastUpdated
}

// NewRecord builds a fresh record from engine state.
func NewRecord(s amm.Snapshot) *Record {
	r := &Record{}
	r.Apply(s)
	return r
}

// parseAmount parses a stored decimal string; empty means zero.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	return v, nil
}
