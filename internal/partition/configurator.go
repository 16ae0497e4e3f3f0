package partition

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
	"github.com/eugenenazirov/sleigh-balancer/internal/subsetsum"
)

// Configurator generates balanced partitions of a fixed item list into three
// compartments (footwell and both saddles) or four (plus the trunk).
//
// Only the footwell is searched exhaustively by default: for each distinct
// footwell the remaining compartments need a single witness assignment,
// because scoring looks at the footwell alone.
type Configurator struct {
	items      []int
	target     int
	useTrunk   bool
	exhaustive bool
}

// Option configures a Configurator.
type Option func(*Configurator)

// WithExhaustive makes Solutions yield every balanced partition instead of
// one completion per distinct footwell.
func WithExhaustive(enabled bool) Option {
	return func(c *Configurator) {
		c.exhaustive = enabled
	}
}

// New validates items and prepares a Configurator. The input slice is not modified.
func New(items []int, useTrunk bool, opts ...Option) (*Configurator, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	spaces := 3
	if useTrunk {
		spaces = 4
	}

	total := 0
	for i, w := range items {
		if w <= 0 {
			return nil, fmt.Errorf("%w: item %d has weight %d", ErrNonPositiveWeight, i, w)
		}
		if w > math.MaxInt-total {
			return nil, fmt.Errorf("%w: item %d pushes the total past %d", ErrWeightOverflow, i, math.MaxInt)
		}
		total += w
	}
	if total%spaces != 0 {
		return nil, fmt.Errorf("%w: total %d across %d compartments", ErrIndivisibleTotal, total, spaces)
	}
	target := total / spaces

	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b int) int { return cmp.Compare(b, a) })

	if sorted[0] > target {
		return nil, fmt.Errorf("%w: item %d exceeds target %d", ErrItemTooLarge, sorted[0], target)
	}

	c := &Configurator{
		items:    sorted,
		target:   target,
		useTrunk: useTrunk,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Target is the weight every compartment must reach.
func (c *Configurator) Target() int {
	return c.target
}

// Items returns the item list in search order (heaviest first).
func (c *Configurator) Items() []int {
	return slices.Clone(c.items)
}

// Compartments lists the compartments in use.
func (c *Configurator) Compartments() []compartment.Compartment {
	if c.useTrunk {
		return []compartment.Compartment{
			compartment.Footwell, compartment.LeftSaddle, compartment.RightSaddle, compartment.Trunk,
		}
	}
	return []compartment.Compartment{
		compartment.Footwell, compartment.LeftSaddle, compartment.RightSaddle,
	}
}

// Solutions lazily yields balanced packing lists.
func (c *Configurator) Solutions() iter.Seq[PackingList] {
	return func(yield func(PackingList) bool) {
		c.search(c.exhaustive, nil, nil, yield)
	}
}

// SolutionsContext is Solutions bounded by ctx: once ctx is done the
// sequence ends early. Callers check ctx.Err() to tell the two apart.
func (c *Configurator) SolutionsContext(ctx context.Context) iter.Seq[PackingList] {
	return func(yield func(PackingList) bool) {
		c.search(c.exhaustive, nil, contextInterrupt(ctx), func(p PackingList) bool {
			return yield(p) && ctx.Err() == nil
		})
	}
}

// Best returns the packing list with the fewest footwell items, ties broken by
// the smallest footwell entanglement. It reports false when no balanced
// partition exists.
//
// Entanglement saturates at math.MaxUint64, so footwells of equal size whose
// products both overflow compare as equal and the first one found is kept.
func (c *Configurator) Best() (PackingList, bool) {
	best, ok, _ := c.BestContext(context.Background())
	return best, ok
}

// BestContext is Best with cancellation. When ctx is done the search stops
// and ctx.Err() is returned.
func (c *Configurator) BestContext(ctx context.Context) (PackingList, bool, error) {
	var (
		best      PackingList
		found     bool
		bestCount int
		bestQE    uint64
	)

	// A footwell that cannot beat the incumbent is not worth completing.
	skip := func(foot compartment.Layout) bool {
		if !found {
			return false
		}
		if n := foot.Count(compartment.Footwell); n != bestCount {
			return n > bestCount
		}
		return c.packingList(foot).EntanglementOf(compartment.Footwell) >= bestQE
	}

	c.search(false, skip, contextInterrupt(ctx), func(p PackingList) bool {
		n, qe := p.Count(compartment.Footwell), p.EntanglementOf(compartment.Footwell)
		if !found || n < bestCount || (n == bestCount && qe < bestQE) {
			best, found, bestCount, bestQE = p, true, n, qe
		}
		return ctx.Err() == nil
	})

	if err := ctx.Err(); err != nil {
		return PackingList{}, false, err
	}
	return best, found, nil
}

// search composes the enumerators: footwell first, then the left saddle over
// what the footwell left, then either the remainder is the right saddle or a
// third pass splits it into right saddle and trunk. Each stage is seeded with
// the previous stage's snapshot, so no slot is ever labeled twice.
func (c *Configurator) search(
	exhaustive bool,
	skip func(compartment.Layout) bool,
	interrupt func() bool,
	yield func(PackingList) bool,
) {
	var opts []subsetsum.Option
	if interrupt != nil {
		opts = append(opts, subsetsum.WithInterrupt(interrupt))
	}

footwells:
	for foot := range c.enumerator(nil, opts).All(compartment.Footwell) {
		if skip != nil && skip(foot) {
			continue
		}

		for left := range c.enumerator(foot, opts).All(compartment.LeftSaddle) {
			if !c.useTrunk {
				left.Fill(compartment.RightSaddle)
				if !yield(c.packingList(left)) {
					return
				}
				if !exhaustive {
					continue footwells
				}
				continue
			}

			for right := range c.enumerator(left, opts).All(compartment.RightSaddle) {
				right.Fill(compartment.Trunk)
				if !yield(c.packingList(right)) {
					return
				}
				if !exhaustive {
					continue footwells
				}
			}
		}
	}
}

func contextInterrupt(ctx context.Context) func() bool {
	if ctx.Done() == nil {
		return nil
	}
	return func() bool { return ctx.Err() != nil }
}

func (c *Configurator) enumerator(seed compartment.Layout, opts []subsetsum.Option) *subsetsum.Enumerator[int] {
	e, err := subsetsum.New(c.items, c.target, seed, opts...)
	if err != nil {
		// items are sorted by New and every seed is a full-length snapshot
		panic(fmt.Sprintf("partition: %v", err))
	}
	return e
}

func (c *Configurator) packingList(layout compartment.Layout) PackingList {
	return PackingList{
		items:        c.items,
		layout:       layout,
		target:       c.target,
		compartments: c.Compartments(),
	}
}
