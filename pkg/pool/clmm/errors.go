package clmm

import "errors"

var (
	// ErrDeserialization reports malformed or undersized account bytes.
	ErrDeserialization = errors.New("deserialization error")
	// ErrNotInitialized reports a call made before the required sub-state was populated.
	ErrNotInitialized = errors.New("not initialized")
	// ErrDirectionMismatch reports a mint pair that is not the pool's pair.
	ErrDirectionMismatch = errors.New("direction mismatch")
	// ErrArithmetic reports overflow or underflow. It is never clamped.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrInsufficientLiquidity reports a window that cannot fill the requested amount.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrBoundaryLimitation reports a current tick outside the discoverable range.
	ErrBoundaryLimitation = errors.New("boundary limitation")
	// ErrInvalidArgument reports a quote request with a zero amount or a
	// slippage tolerance outside [0, 1).
	ErrInvalidArgument = errors.New("invalid argument")
)
