package amm

import (
	"fmt"
	"math/big"
)

// AddLiquidityResult reports the effect of a liquidity deposit.
type AddLiquidityResult struct {
	// LPMinted is the number of LP shares minted to the provider.
	LPMinted *big.Int
	// NativeAmount is the native amount the provider must supply alongside
	// the tokens, derived from the current reserve ratio.
	NativeAmount *big.Int
}

// RemoveLiquidityResult reports the amounts returned for burned LP shares.
type RemoveLiquidityResult struct {
	NativeOut *big.Int
	TokenOut  *big.Int
}

// RequiredNativeAmount returns the native amount that must accompany a
// deposit of tokenAmount at the current reserve ratio.
func (p *Pool) RequiredNativeAmount(tokenAmount *big.Int) (*big.Int, error) {
	if !isPositive(tokenAmount) {
		return nil, fmt.Errorf("%w: token amount", ErrZeroAmount)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}
	return mulDiv(tokenAmount, p.nativeReserve, p.tokenReserve)
}

// AddLiquidity deposits tokenAmount of the item plus the ratio-derived
// native amount, minting LP shares. Shares are the minimum of the two
// proportional ratios, so rounding in the supplied ratio can never mint more
// than the smaller contribution justifies.
func (p *Pool) AddLiquidity(tokenAmount *big.Int) (*AddLiquidityResult, error) {
	if !isPositive(tokenAmount) {
		return nil, fmt.Errorf("%w: token amount", ErrZeroAmount)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}

	nativeAmount, err := mulDiv(tokenAmount, p.nativeReserve, p.tokenReserve)
	if err != nil {
		return nil, err
	}

	byToken, err := mulDiv(tokenAmount, p.lpTotalSupply, p.tokenReserve)
	if err != nil {
		return nil, err
	}
	minted := byToken
	if nativeAmount.Sign() > 0 {
		byNative, err := mulDiv(nativeAmount, p.lpTotalSupply, p.nativeReserve)
		if err != nil {
			return nil, err
		}
		if byNative.Cmp(minted) < 0 {
			minted = byNative
		}
	} else {
		minted = new(big.Int)
	}

	newTokenReserve, err := checkedAdd(p.tokenReserve, tokenAmount)
	if err != nil {
		return nil, err
	}
	newNativeReserve, err := checkedAdd(p.nativeReserve, nativeAmount)
	if err != nil {
		return nil, err
	}
	newSupply, err := checkedAdd(p.lpTotalSupply, minted)
	if err != nil {
		return nil, err
	}

	p.tokenReserve = newTokenReserve
	p.nativeReserve = newNativeReserve
	p.lpTotalSupply = newSupply
	p.lastUpdated = p.clock()

	return &AddLiquidityResult{
		LPMinted:     minted,
		NativeAmount: nativeAmount,
	}, nil
}

// RemoveLiquidity burns lpTokens shares and returns the proportional slice
// of both reserves. Reserves already include accrued fees, so providers
// capture fee revenue automatically. A full withdrawal that empties both
// reserves is permitted; a removal that would burn the last share while
// reserves remain positive is rejected with ErrOrphanedReserves.
func (p *Pool) RemoveLiquidity(lpTokens, minNative, minTokens *big.Int) (*RemoveLiquidityResult, error) {
	if !isPositive(lpTokens) {
		return nil, fmt.Errorf("%w: lp tokens", ErrZeroAmount)
	}
	if !p.Initialized() {
		return nil, ErrPoolNotInitialized
	}
	if lpTokens.Cmp(p.lpTotalSupply) > 0 {
		return nil, fmt.Errorf("%w: burning %s of %s outstanding", ErrInsufficientShares, lpTokens, p.lpTotalSupply)
	}

	nativeOut, err := mulDiv(p.nativeReserve, lpTokens, p.lpTotalSupply)
	if err != nil {
		return nil, err
	}
	tokenOut, err := mulDiv(p.tokenReserve, lpTokens, p.lpTotalSupply)
	if err != nil {
		return nil, err
	}

	if minNative != nil && nativeOut.Cmp(minNative) < 0 {
		return nil, fmt.Errorf("%w: native out %s below minimum %s", ErrSlippageExceeded, nativeOut, minNative)
	}
	if minTokens != nil && tokenOut.Cmp(minTokens) < 0 {
		return nil, fmt.Errorf("%w: token out %s below minimum %s", ErrSlippageExceeded, tokenOut, minTokens)
	}

	newNativeReserve, err := checkedSub(p.nativeReserve, nativeOut)
	if err != nil {
		return nil, err
	}
	newTokenReserve, err := checkedSub(p.tokenReserve, tokenOut)
	if err != nil {
		return nil, err
	}
	newSupply, err := checkedSub(p.lpTotalSupply, lpTokens)
	if err != nil {
		return nil, err
	}
	if newSupply.Sign() == 0 && (newNativeReserve.Sign() > 0 || newTokenReserve.Sign() > 0) {
		return nil, ErrOrphanedReserves
	}

	p.nativeReserve = newNativeReserve
	p.tokenReserve = newTokenReserve
	p.lpTotalSupply = newSupply
	p.lastUpdated = p.clock()

	return &RemoveLiquidityResult{
		NativeOut: nativeOut,
		TokenOut:  tokenOut,
	}, nil
}
