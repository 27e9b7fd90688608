package domain

import "errors"

// Sentinel errors for the engine's stable, inspectable failure kinds.
// Callers match them with errors.Is after any number of %w wraps.
var (
	// ErrPairNotFound is returned when an operation references an unknown
	// trading pair.
	ErrPairNotFound = errors.New("pair not found")

	// ErrPriceOutOfRange is returned when a price maps to no bin on the
	// pair's grid.
	ErrPriceOutOfRange = errors.New("price out of bin range")

	// ErrOrderNotFound is returned when an order id does not resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidState is returned when a lifecycle transition is attempted
	// from a state that does not allow it.
	ErrInvalidState = errors.New("invalid order state")

	// ErrInsufficientData is returned when a simulation or statistic is
	// asked to operate on a series shorter than its lookback.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrZeroVariance is returned when a statistic is undefined because the
	// underlying distribution has zero variance. It is a real signal, not a
	// default: skewness must never silently report 0 in this case.
	ErrZeroVariance = errors.New("zero variance")
)
