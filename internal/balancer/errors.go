package balancer

import "errors"

var (
	// ErrInvalidWeights is returned when no weights are supplied.
	ErrInvalidWeights = errors.New("weights must contain at least one positive integer")
	// ErrInvalidMode is returned for a compartment count other than 3 or 4.
	ErrInvalidMode = errors.New("compartments must be 3 or 4")
	// ErrTooManyItems is returned when the item count exceeds the configured ceiling.
	ErrTooManyItems = errors.New("too many items for an exact search")
	// ErrNoSolution is returned when the items cannot be split into equal compartments.
	ErrNoSolution = errors.New("no balanced partition exists for the provided weights")
	// ErrSearchTimeout is returned when the search exceeds its time budget.
	ErrSearchTimeout = errors.New("search exceeded its time budget")
)
