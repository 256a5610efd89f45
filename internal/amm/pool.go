// Package amm implements the constant-product pricing and liquidity engine.
// A Pool holds the two reserve balances for one listed item paired against
// the native asset and exposes swap, liquidity, and estimation operations.
// All value-changing math is exact unsigned 128-bit integer arithmetic;
// floating point appears only on the read-only estimation path.
//
// The engine never moves real assets. Every operation computes reserve
// deltas and returned amounts; the caller is responsible for executing the
// matching transfers. Operations are all-or-nothing: on any error the pool
// state is untouched.
//
// A Pool is not safe for concurrent use. Callers must serialize all
// operations on the same pool; operations on different pools are independent.
package amm

import (
	"fmt"
	"math/big"
	"time"
)

// volumeWindow is the span of the coarse-reset 24h volume window.
const volumeWindow = 24 * time.Hour

// listingReservePercent is the share of an item's total supply seeded into
// the pool at listing time.
const listingReservePercent = 20

// Clock supplies the current time. Injectable so the 24h window logic is
// testable without wall-clock waits.
type Clock func() time.Time

// Pool is the reserve state for one listed item paired against the native
// asset. Construct with NewPool or FromSnapshot; fields are unexported so
// every mutation goes through an operation that preserves the invariants.
type Pool struct {
	itemID        string
	tokenReserve  *big.Int
	nativeReserve *big.Int
	totalVolume   *big.Int
	totalFees     *big.Int
	feeRate       uint32
	lastUpdated   time.Time

	volume24h        *big.Int
	lastVolumeUpdate time.Time

	lpTotalSupply *big.Int

	clock Clock
}

// Snapshot is a detached copy of a pool's full state, used to persist and
// rehydrate pools across the storage boundary.
type Snapshot struct {
	ItemID           string
	TokenReserve     *big.Int
	NativeReserve    *big.Int
	TotalVolume      *big.Int
	TotalFees        *big.Int
	FeeRate          uint32
	LastUpdated      time.Time
	Volume24h        *big.Int
	LastVolumeUpdate time.Time
	LPTotalSupply    *big.Int
}

// NewPool creates the pool for a freshly listed item. The pool is funded
// with 20% of the item's total supply on the token side and an equal native
// amount (1:1 initial price). Initial LP supply is sqrt(tokenReserve *
// nativeReserve), matching the first-liquidity convention.
func NewPool(itemID string, totalSupply *big.Int) (*Pool, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: empty item id", ErrZeroAmount)
	}
	if !isPositive(totalSupply) {
		return nil, fmt.Errorf("%w: total supply", ErrZeroAmount)
	}
	if !inUint128Range(totalSupply) {
		return nil, fmt.Errorf("%w: total supply %s", ErrArithmeticOverflow, totalSupply)
	}

	tokenReserve, err := mulDiv(totalSupply, big.NewInt(listingReservePercent), bigHundred)
	if err != nil {
		return nil, err
	}
	if tokenReserve.Sign() == 0 {
		return nil, fmt.Errorf("%w: total supply %s too small to fund a pool", ErrZeroAmount, totalSupply)
	}
	nativeReserve := clone(tokenReserve)

	lpSupply := new(big.Int).Mul(tokenReserve, nativeReserve)
	lpSupply.Sqrt(lpSupply)

	now := time.Now()
	return &Pool{
		itemID:           itemID,
		tokenReserve:     tokenReserve,
		nativeReserve:    nativeReserve,
		totalVolume:      new(big.Int),
		totalFees:        new(big.Int),
		feeRate:          DefaultFeeRate,
		lastUpdated:      now,
		volume24h:        new(big.Int),
		lastVolumeUpdate: now,
		lpTotalSupply:    lpSupply,
		clock:            time.Now,
	}, nil
}

// FromSnapshot rehydrates a pool from persisted state.
func FromSnapshot(s Snapshot) (*Pool, error) {
	if s.ItemID == "" {
		return nil, fmt.Errorf("%w: empty item id", ErrZeroAmount)
	}
	for name, v := range map[string]*big.Int{
		"token reserve":   s.TokenReserve,
		"native reserve":  s.NativeReserve,
		"total volume":    s.TotalVolume,
		"total fees":      s.TotalFees,
		"24h volume":      s.Volume24h,
		"lp total supply": s.LPTotalSupply,
	} {
		if v != nil && !inUint128Range(v) {
			return nil, fmt.Errorf("%w: %s %s", ErrArithmeticOverflow, name, v)
		}
	}
	if s.FeeRate > feeDenominator {
		return nil, ErrInvalidFeeRate
	}
	return &Pool{
		itemID:           s.ItemID,
		tokenReserve:     clone(s.TokenReserve),
		nativeReserve:    clone(s.NativeReserve),
		totalVolume:      clone(s.TotalVolume),
		totalFees:        clone(s.TotalFees),
		feeRate:          s.FeeRate,
		lastUpdated:      s.LastUpdated,
		volume24h:        clone(s.Volume24h),
		lastVolumeUpdate: s.LastVolumeUpdate,
		lpTotalSupply:    clone(s.LPTotalSupply),
		clock:            time.Now,
	}, nil
}

// Snapshot returns a detached copy of the pool state.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		ItemID:           p.itemID,
		TokenReserve:     clone(p.tokenReserve),
		NativeReserve:    clone(p.nativeReserve),
		TotalVolume:      clone(p.totalVolume),
		TotalFees:        clone(p.totalFees),
		FeeRate:          p.feeRate,
		LastUpdated:      p.lastUpdated,
		Volume24h:        clone(p.volume24h),
		LastVolumeUpdate: p.lastVolumeUpdate,
		LPTotalSupply:    clone(p.lpTotalSupply),
	}
}

// ItemID returns the identifier of the listed item this pool prices.
func (p *Pool) ItemID() string { return p.itemID }

// Reserves returns copies of the current token and native reserves.
func (p *Pool) Reserves() (tokenReserve, nativeReserve *big.Int) {
	return clone(p.tokenReserve), clone(p.nativeReserve)
}

// FeeRate returns the current fee rate in basis points.
func (p *Pool) FeeRate() uint32 { return p.feeRate }

// LPTotalSupply returns a copy of the outstanding LP share supply.
func (p *Pool) LPTotalSupply() *big.Int { return clone(p.lpTotalSupply) }

// TotalVolume returns a copy of the lifetime traded amount.
func (p *Pool) TotalVolume() *big.Int { return clone(p.totalVolume) }

// TotalFees returns a copy of the lifetime collected fees.
func (p *Pool) TotalFees() *big.Int { return clone(p.totalFees) }

// Volume24h returns a copy of the volume inside the current 24h window.
func (p *Pool) Volume24h() *big.Int { return clone(p.volume24h) }

// LastUpdated returns the time of the last completed mutation.
func (p *Pool) LastUpdated() time.Time { return p.lastUpdated }

// SetFeeRate changes the fee applied to future trades. Already settled
// trades are unaffected.
func (p *Pool) SetFeeRate(rateBps uint32) error {
	if rateBps > feeDenominator {
		return ErrInvalidFeeRate
	}
	p.feeRate = rateBps
	p.lastUpdated = p.clock()
	return nil
}

// SetClock replaces the pool's time source.
func (p *Pool) SetClock(c Clock) {
	if c != nil {
		p.clock = c
	}
}

// Initialized reports whether both reserves are funded. A pool is either
// uninitialized or fully funded; there is no partial state.
func (p *Pool) Initialized() bool {
	return p.tokenReserve.Sign() > 0 && p.nativeReserve.Sign() > 0
}

// CurrentPrice returns the spot price of the item in native units. Zero if
// the pool is unfunded.
func (p *Pool) CurrentPrice() float64 {
	if !p.Initialized() {
		return 0
	}
	native, _ := new(big.Float).SetInt(p.nativeReserve).Float64()
	token, _ := new(big.Float).SetInt(p.tokenReserve).Float64()
	return native / token
}

// recordVolume accumulates traded amount into the lifetime counter and the
// coarse 24h window. The window resets wholesale at the first trade after
// 24h; it is not a sliding histogram.
func (p *Pool) recordVolume(amount *big.Int, now time.Time) {
	p.totalVolume = saturatingAdd(p.totalVolume, amount)
	if now.Sub(p.lastVolumeUpdate) >= volumeWindow {
		p.volume24h = clone(amount)
		p.lastVolumeUpdate = now
	} else {
		p.volume24h = saturatingAdd(p.volume24h, amount)
	}
}
