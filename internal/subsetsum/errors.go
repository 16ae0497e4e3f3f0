package subsetsum

import "errors"

var (
	// ErrItemsNotSorted is returned when the item list is not in non-increasing order.
	ErrItemsNotSorted = errors.New("items must be sorted in descending order")
	// ErrLayoutTooSmall is returned when a supplied layout is shorter than the item list.
	ErrLayoutTooSmall = errors.New("layout is shorter than the item list")
)
