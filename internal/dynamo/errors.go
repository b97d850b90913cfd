package dynamo

import "errors"

// Domain errors for model evaluation and benchmarking.
var (
	// ErrInvalidDimension indicates mismatched vector lengths, an empty
	// tangent space, or a non-positive finite-difference disturbance.
	ErrInvalidDimension = errors.New("dynamo: invalid dimension")

	// ErrToleranceExceeded indicates analytic and numerical derivatives disagree.
	ErrToleranceExceeded = errors.New("dynamo: derivative tolerance exceeded")

	// ErrSubprocessFailure indicates the external reference binary failed.
	ErrSubprocessFailure = errors.New("dynamo: reference subprocess failed")

	// ErrSingularMatrix indicates a factorisation found the matrix singular
	// or not positive definite.
	ErrSingularMatrix = errors.New("dynamo: singular matrix")
)

// DimensionError reports which quantity had the wrong size.
type DimensionError struct {
	What string
	Got  int
	Want int
}

func (e *DimensionError) Unwrap() error {
	return ErrInvalidDimension
}
