package amm

import (
	"fmt"
	"math/big"
)

// feeDenominator represents 100% in basis points.
const feeDenominator = 10000

// DefaultFeeRate is the fee charged per trade unless overridden, in basis
// points (30 = 0.30%).
const DefaultFeeRate uint32 = 30

// maxUint128 is the largest value a reserve, volume, fee, or share balance
// may take. Treat as read-only.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

var (
	bigZero           = big.NewInt(0)
	bigFeeDenominator = big.NewInt(feeDenominator)
	bigHundred        = big.NewInt(100)
)

// MaxUint128 returns a copy of the 128-bit range ceiling.
func MaxUint128() *big.Int {
	return new(big.Int).Set(maxUint128)
}

func inUint128Range(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(maxUint128) <= 0
}

// checkedAdd returns a+b or ErrArithmeticOverflow if the sum leaves the
// 128-bit range.
func checkedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if !inUint128Range(sum) {
		return nil, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, a, b)
	}
	return sum, nil
}

// checkedSub returns a-b or ErrArithmeticOverflow if the result would be
// negative.
func checkedSub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("%w: %s - %s underflows", ErrArithmeticOverflow, a, b)
	}
	return new(big.Int).Sub(a, b), nil
}

// saturatingAdd returns a+b clamped to the 128-bit ceiling.
func saturatingAdd(a, b *big.Int) *big.Int {
	sum := new(big.Int).Add(a, b)
	if sum.Cmp(maxUint128) > 0 {
		return new(big.Int).Set(maxUint128)
	}
	return sum
}

// mulDiv returns a*b/den with floor division. The intermediate product is
// unbounded; the quotient must fit the 128-bit range.
func mulDiv(a, b, den *big.Int) (*big.Int, error) {
	if den.Sign() == 0 {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmeticOverflow)
	}
	q := new(big.Int).Mul(a, b)
	q.Div(q, den)
	if !inUint128Range(q) {
		return nil, fmt.Errorf("%w: quotient %s", ErrArithmeticOverflow, q)
	}
	return q, nil
}

// feeFor returns amount*rate/10000 with floor division.
func feeFor(amount *big.Int, rateBps uint32) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(int64(rateBps)))
	return fee.Div(fee, bigFeeDenominator)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
