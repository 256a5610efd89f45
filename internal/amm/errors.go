package amm

import "errors"

var (
	// ErrPoolNotInitialized is returned when a trade is attempted against a
	// pool whose reserves are zero.
	ErrPoolNotInitialized = errors.New("pool not initialized")

	// ErrZeroAmount is returned when a required input amount is zero or nil.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientInput is returned when a swap input amount is zero or nil.
	ErrInsufficientInput = errors.New("insufficient input amount")

	// ErrSlippageExceeded is returned when a computed output is below the
	// caller-specified minimum.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// ErrInsufficientShares is returned when a liquidity removal requests more
	// LP shares than are outstanding.
	ErrInsufficientShares = errors.New("insufficient LP shares")

	// ErrArithmeticOverflow is returned when a reserve, fee, or share value
	// would leave the unsigned 128-bit range, or a division by zero would occur.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrOrphanedReserves is returned when a removal would burn the last
	// outstanding LP share while reserves remain positive, leaving funds with
	// no claimants.
	ErrOrphanedReserves = errors.New("removal would orphan pool reserves")

	// ErrInvalidFeeRate is returned when a fee rate above 10000 basis points
	// is requested.
	ErrInvalidFeeRate = errors.New("fee rate exceeds 10000 basis points")
)
