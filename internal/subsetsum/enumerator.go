package subsetsum

import (
	"fmt"
	"iter"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
)

// interruptInterval is the number of search steps between two interrupt polls.
const interruptInterval = 1024

// Weight is the set of numeric types an Enumerator can search over.
type Weight interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// State describes where the root of the search currently stands.
type State int

const (
	// Idle means the root frame is comparing items at its cursor.
	Idle State = iota
	// Recursing means the root frame has a live child frame.
	Recursing
	// Exhausted means no further solutions exist.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recursing:
		return "recursing"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures an Enumerator.
type Option func(*options)

type options struct {
	interrupt func() bool
}

// WithInterrupt installs a predicate polled periodically during the search.
// Once it returns true the enumerator reports end-of-sequence.
func WithInterrupt(fn func() bool) Option {
	return func(o *options) {
		o.interrupt = fn
	}
}

// Enumerator produces, one at a time, the layouts in which the newly labeled
// slots of a compartment complete that compartment's weight to the target.
//
// The layout passed to New is shared: Next mutates it in place and hands out
// snapshots. The slice claimed records which slots this enumerator labeled so
// that it never clears a label it did not set.
type Enumerator[W Weight] struct {
	items   []W
	target  W
	layout  compartment.Layout
	claimed []bool

	active    compartment.Compartment
	root      *node[W]
	trivial   bool
	exhausted bool

	interrupt func() bool
	steps     int
	halted    bool
}

// node is one backtracking frame. A non-nil child means the item at cursor
// has been tentatively claimed and the child searches the remainder.
type node[W Weight] struct {
	cursor   int
	residual W
	child    *node[W]
}

// New creates an Enumerator over items, which must be sorted in descending order.
//
// If layout is nil a fresh one is allocated. Otherwise it must be at least as
// long as items; slots already labeled are treated as claimed by an outer search.
func New[W Weight](items []W, target W, layout compartment.Layout, opts ...Option) (*Enumerator[W], error) {
	for i := 1; i < len(items); i++ {
		if items[i] > items[i-1] {
			return nil, fmt.Errorf("%w: position %d (%v) exceeds position %d (%v)",
				ErrItemsNotSorted, i, items[i], i-1, items[i-1])
		}
	}
	if layout == nil {
		layout = make(compartment.Layout, len(items))
	}
	if len(layout) < len(items) {
		return nil, fmt.Errorf("%w: %d slots for %d items", ErrLayoutTooSmall, len(layout), len(items))
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Enumerator[W]{
		items:     items,
		target:    target,
		layout:    layout,
		claimed:   make([]bool, len(items)),
		interrupt: o.interrupt,
	}, nil
}

// Layout exposes the shared layout the enumerator writes into.
func (e *Enumerator[W]) Layout() compartment.Layout {
	return e.layout
}

// State reports the state of the root search frame.
func (e *Enumerator[W]) State() State {
	switch {
	case e.exhausted:
		return Exhausted
	case e.root != nil && e.root.child != nil:
		return Recursing
	default:
		return Idle
	}
}

// Next advances the search for compartment c and returns a snapshot of the
// layout at the next solution, or false once the sequence is exhausted.
//
// Asking for a different compartment than the previous call withdraws this
// enumerator's claims and restarts the search for the new compartment.
func (e *Enumerator[W]) Next(c compartment.Compartment) (compartment.Layout, bool) {
	if !c.Valid() {
		return nil, false
	}
	if c != e.active {
		e.restart(c)
	}
	if e.exhausted {
		return nil, false
	}

	if e.trivial {
		e.trivial = false
		e.exhausted = true
		return e.layout.Clone(), true
	}

	if e.root.next(e, c) {
		return e.layout.Clone(), true
	}
	e.root = nil
	e.exhausted = true
	return nil, false
}

// All returns the remaining solutions for c as a lazy sequence.
func (e *Enumerator[W]) All(c compartment.Compartment) iter.Seq[compartment.Layout] {
	return func(yield func(compartment.Layout) bool) {
		for {
			layout, ok := e.Next(c)
			if !ok || !yield(layout) {
				return
			}
		}
	}
}

// restart discards any search in progress and primes a new one for c.
func (e *Enumerator[W]) restart(c compartment.Compartment) {
	for i, mine := range e.claimed {
		if mine {
			e.layout[i] = compartment.Unassigned
			e.claimed[i] = false
		}
	}
	e.active = c
	e.root = nil
	e.trivial = false
	e.exhausted = false

	residual := e.target
	for i, item := range e.items {
		if e.layout[i] != c {
			continue
		}
		if item > residual {
			e.exhausted = true
			return
		}
		residual -= item
	}

	if residual == 0 {
		e.trivial = true
		return
	}
	e.root = &node[W]{residual: residual}
}

// interrupted polls the interrupt predicate every interruptInterval steps.
// Once it fires the answer sticks, so every frame on the chain unwinds.
func (e *Enumerator[W]) interrupted() bool {
	if e.halted {
		return true
	}
	if e.interrupt == nil {
		return false
	}
	e.steps++
	if e.steps%interruptInterval != 0 {
		return false
	}
	e.halted = e.interrupt()
	return e.halted
}

func (e *Enumerator[W]) claim(i int, c compartment.Compartment) {
	e.layout[i] = c
	e.claimed[i] = true
}

func (e *Enumerator[W]) release(i int) {
	e.layout[i] = compartment.Unassigned
	e.claimed[i] = false
}

// next drives this frame until it or one of its descendants completes a
// solution (true), or until the frame runs past the end of the items (false).
func (n *node[W]) next(e *Enumerator[W], c compartment.Compartment) bool {
	for {
		if e.interrupted() {
			return false
		}

		if n.child != nil {
			if n.child.next(e, c) {
				return true
			}
			// The slot at cursor still holds our claim; the re-entry branch
			// below clears it and moves on.
			n.child = nil
			continue
		}

		if n.cursor >= len(e.items) {
			return false
		}

		if e.layout[n.cursor] != compartment.Unassigned {
			if e.claimed[n.cursor] {
				e.release(n.cursor)
			}
			n.cursor++
			continue
		}

		item := e.items[n.cursor]
		switch {
		case item > n.residual:
			n.cursor++
		case item == n.residual:
			e.claim(n.cursor, c)
			return true
		default:
			e.claim(n.cursor, c)
			n.child = &node[W]{
				cursor:   n.cursor + 1,
				residual: n.residual - item,
			}
		}
	}
}
