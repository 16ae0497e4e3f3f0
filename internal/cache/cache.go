// Package cache memoises finished partition searches keyed by their input.
//
// Searches are deterministic, so a result for a given multiset of weights and
// compartment count never changes. Keys are xxh3 hashes of the sorted weights;
// the weights themselves are kept alongside each entry so that a hash
// collision is reported as a miss rather than a wrong answer.
package cache

import (
	"encoding/binary"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"
)

type entry[V any] struct {
	weights []int
	mode    uint8
	value   V
}

// Cache is a bounded, concurrency-safe result cache. When it reaches its
// capacity it is emptied wholesale before the next insert.
type Cache[V any] struct {
	capacity int
	entries  *xsync.Map[uint64, entry[V]]
}

// New creates a cache holding at most capacity entries. A capacity of zero
// or less yields a cache that never stores anything.
func New[V any](capacity int) *Cache[V] {
	return &Cache[V]{
		capacity: capacity,
		entries:  xsync.NewMap[uint64, entry[V]](),
	}
}

// Get looks up the value stored for weights under mode.
func (c *Cache[V]) Get(weights []int, mode uint8) (V, bool) {
	var zero V
	if c == nil || c.capacity <= 0 {
		return zero, false
	}
	sorted := normalize(weights)
	e, ok := c.entries.Load(key(sorted, mode))
	if !ok || e.mode != mode || !slices.Equal(e.weights, sorted) {
		return zero, false
	}
	return e.value, true
}

// Put stores value for weights under mode.
func (c *Cache[V]) Put(weights []int, mode uint8, value V) {
	if c == nil || c.capacity <= 0 {
		return
	}
	if c.entries.Size() >= c.capacity {
		c.entries.Clear()
	}
	sorted := normalize(weights)
	c.entries.Store(key(sorted, mode), entry[V]{weights: sorted, mode: mode, value: value})
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Size()
}

func normalize(weights []int) []int {
	sorted := slices.Clone(weights)
	slices.Sort(sorted)
	return sorted
}

func key(sorted []int, mode uint8) uint64 {
	buf := make([]byte, 1, 1+8*len(sorted))
	buf[0] = mode
	for _, w := range sorted {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(w))
	}
	return xxh3.Hash(buf)
}
