package amm

import (
	"fmt"
	"math/big"
)

// SwapResult reports the outcome of an executed or simulated swap.
type SwapResult struct {
	// AmountOut is the computed output amount the caller must transfer.
	AmountOut *big.Int
	// Fee is the input-side fee retained by the pool.
	Fee *big.Int
	// PriceImpact is the relative price move caused by the trade, in percent.
	PriceImpact float64
}

// swapOutcome carries the intermediate values of a swap computation so that
// execution and estimation share the exact same arithmetic.
type swapOutcome struct {
	fee           *big.Int
	amountOut     *big.Int
	newReserveIn  *big.Int // includes the full input amount, fee included
	newReserveOut *big.Int
	priceImpact   float64
}

// computeSwap runs the fee-inclusive constant-product formula for a swap of
// amountIn against the (reserveIn, reserveOut) orientation. The fee is
// deducted from the input before the invariant is applied, so fee revenue
// compounds into the reserves; the full input amount lands on the input side.
//
//	fee     = amountIn * feeRate / 10000
//	netIn   = amountIn - fee
//	out     = reserveOut - (reserveIn * reserveOut) / (reserveIn + netIn)
//
// All divisions are floor divisions. The output reserve never drops below
// one unit, so a pool cannot be drained through a swap.
func (p *Pool) computeSwap(reserveIn, reserveOut, amountIn *big.Int) (*swapOutcome, error) {
	newReserveIn, err := checkedAdd(reserveIn, amountIn)
	if err != nil {
		return nil, err
	}

	fee := feeFor(amountIn, p.feeRate)
	netIn := new(big.Int).Sub(amountIn, fee)

	k := new(big.Int).Mul(reserveIn, reserveOut)
	denominator := new(big.Int).Add(reserveIn, netIn)
	newReserveOut := new(big.Int).Div(k, denominator)
	if newReserveOut.Sign() == 0 {
		// Keep the last unit in place rather than draining the reserve.
		newReserveOut.SetInt64(1)
	}
	amountOut, err := checkedSub(reserveOut, newReserveOut)
	if err != nil {
		return nil, err
	}

	initialPrice := ratio(reserveIn, reserveOut)
	finalPrice := ratio(newReserveIn, newReserveOut)
	impact := 0.0
	if initialPrice != 0 {
		impact = (finalPrice - initialPrice) / initialPrice * 100
		if impact < 0 {
			impact = -impact
		}
	}

	return &swapOutcome{
		fee:           fee,
		amountOut:     amountOut,
		newReserveIn:  newReserveIn,
		newReserveOut: newReserveOut,
		priceImpact:   impact,
	}, nil
}

// SwapNativeForTokens executes a purchase of the item token with nativeIn
// native units. Fails with ErrSlippageExceeded if the computed output is
// below minTokensOut (nil means no minimum). On any failure the pool state
// is unchanged.
func (p *Pool) SwapNativeForTokens(nativeIn, minTokensOut *big.Int) (*SwapResult, error) {
	if !isPositive(nativeIn) {
		return nil, fmt.Errorf("%w: native amount", ErrInsufficientInput)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}

	out, err := p.computeSwap(p.nativeReserve, p.tokenReserve, nativeIn)
	if err != nil {
		return nil, err
	}
	if minTokensOut != nil && out.amountOut.Cmp(minTokensOut) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrSlippageExceeded, out.amountOut, minTokensOut)
	}
	newTotalFees, err := checkedAdd(p.totalFees, out.fee)
	if err != nil {
		return nil, err
	}

	now := p.clock()
	p.nativeReserve = out.newReserveIn
	p.tokenReserve = out.newReserveOut
	p.totalFees = newTotalFees
	p.recordVolume(nativeIn, now)
	p.lastUpdated = now

	return &SwapResult{
		AmountOut:   out.amountOut,
		Fee:         out.fee,
		PriceImpact: out.priceImpact,
	}, nil
}

// SwapTokensForNative executes a sale of tokenAmount item tokens for native
// units. Mirror of SwapNativeForTokens with the reserve roles swapped.
func (p *Pool) SwapTokensForNative(tokenAmount, minNativeOut *big.Int) (*SwapResult, error) {
	if !isPositive(tokenAmount) {
		return nil, fmt.Errorf("%w: token amount", ErrInsufficientInput)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}

	out, err := p.computeSwap(p.tokenReserve, p.nativeReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	if minNativeOut != nil && out.amountOut.Cmp(minNativeOut) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrSlippageExceeded, out.amountOut, minNativeOut)
	}
	newTotalFees, err := checkedAdd(p.totalFees, out.fee)
	if err != nil {
		return nil, err
	}

	now := p.clock()
	p.tokenReserve = out.newReserveIn
	p.nativeReserve = out.newReserveOut
	p.totalFees = newTotalFees
	p.recordVolume(tokenAmount, now)
	p.lastUpdated = now

	return &SwapResult{
		AmountOut:   out.amountOut,
		Fee:         out.fee,
		PriceImpact: out.priceImpact,
	}, nil
}

// EstimateSwap simulates a swap of amountIn without mutating the pool. The
// estimate uses the same fee-inclusive arithmetic as execution, so it matches
// what an immediate swap would return.
func (p *Pool) EstimateSwap(amountIn *big.Int, isNative bool) (*SwapResult, error) {
	if !isPositive(amountIn) {
		return nil, fmt.Errorf("%w: amount in", ErrInsufficientInput)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}

	var out *swapOutcome
	var err error
	if isNative {
		out, err = p.computeSwap(p.nativeReserve, p.tokenReserve, amountIn)
	} else {
		out, err = p.computeSwap(p.tokenReserve, p.nativeReserve, amountIn)
	}
	if err != nil {
		return nil, err
	}
	return &SwapResult{
		AmountOut:   out.amountOut,
		Fee:         out.fee,
		PriceImpact: out.priceImpact,
	}, nil
}

// PriceImpact returns the relative price move, in percent, that a swap of
// amountIn would cause. Read-only; reserves, volume, and fees are untouched.
func (p *Pool) PriceImpact(amountIn *big.Int, isNative bool) (float64, error) {
	res, err := p.EstimateSwap(amountIn, isNative)
	if err != nil {
		return 0, err
	}
	return res.PriceImpact, nil
}

// ratio returns a/b as float64. Estimation-path only.
func ratio(a, b *big.Int) float64 {
	if b.Sign() == 0 {
		return 0
	}
	af, _ := new(big.Float).SetInt(a).Float64()
	bf, _ := new(big.Float).SetInt(b).Float64()
	return af / bf
}
