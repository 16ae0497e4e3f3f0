// Package partition splits a list of item weights into three or four
// compartments of equal weight and picks the split whose footwell holds the
// fewest items, breaking ties by the smallest footwell entanglement (the
// product of its weights).
//
// Partitions are produced by chaining subsetsum enumerators, one per
// compartment, each seeded with the layout left by the previous stage.
package partition
