// Package subsetsum enumerates, lazily and resumably, every subset of a
// descending-sorted weight list that sums exactly to a target.
//
// An Enumerator writes its picks into a shared compartment.Layout. It only ever
// fills slots that are still unassigned and clears them again when it
// backtracks, so several enumerators can be chained over the same items, each
// seeded with the layout produced by the previous one, without an item ever
// carrying two labels.
//
// The recursion is kept as an explicit chain of search nodes so that Next can
// return a solution and later resume exactly where it stopped.
package subsetsum
