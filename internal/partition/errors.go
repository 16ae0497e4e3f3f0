package partition

import "errors"

var (
	// ErrNoItems is returned when there is nothing to partition.
	ErrNoItems = errors.New("no items to partition")
	// ErrNonPositiveWeight is returned when an item weight is zero or negative.
	ErrNonPositiveWeight = errors.New("item weights must be positive")
	// ErrWeightOverflow is returned when the total weight does not fit in an int.
	ErrWeightOverflow = errors.New("total weight overflows")
	// ErrIndivisibleTotal is returned when the total weight cannot be split evenly across the compartments.
	ErrIndivisibleTotal = errors.New("total weight is not divisible by the compartment count")
	// ErrItemTooLarge is returned when the heaviest item exceeds the per-compartment target.
	ErrItemTooLarge = errors.New("heaviest item exceeds the per-compartment target")
	// ErrIncompleteLayout is returned by Validate when a slot has no compartment.
	ErrIncompleteLayout = errors.New("layout leaves items unassigned")
	// ErrUnbalanced is returned by Validate when a compartment misses the target.
	ErrUnbalanced = errors.New("compartment weight differs from target")
)
