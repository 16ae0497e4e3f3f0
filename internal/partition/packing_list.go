package partition

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
)

// PackingList is a complete assignment of every item to a compartment.
type PackingList struct {
	items        []int
	layout       compartment.Layout
	target       int
	compartments []compartment.Compartment
}

// Items returns the weights assigned to c, heaviest first.
func (p PackingList) Items(c compartment.Compartment) []int {
	out := make([]int, 0, p.Count(c))
	for i, have := range p.layout {
		if have == c {
			out = append(out, p.items[i])
		}
	}
	return out
}

// Count returns the number of items assigned to c.
func (p PackingList) Count(c compartment.Compartment) int {
	return p.layout.Count(c)
}

// WeightOf returns the summed weight of c.
func (p PackingList) WeightOf(c compartment.Compartment) int {
	sum := 0
	for i, have := range p.layout {
		if have == c {
			sum += p.items[i]
		}
	}
	return sum
}

// EntanglementOf returns the product of the weights assigned to c.
// An empty compartment has entanglement 1. The product saturates at math.MaxUint64.
func (p PackingList) EntanglementOf(c compartment.Compartment) uint64 {
	product := uint64(1)
	for i, have := range p.layout {
		if have != c {
			continue
		}
		hi, lo := bits.Mul64(product, uint64(p.items[i]))
		if hi != 0 {
			return math.MaxUint64
		}
		product = lo
	}
	return product
}

// Target is the weight every compartment sums to.
func (p PackingList) Target() int {
	return p.target
}

// Compartments lists the compartments this packing list distributes items over.
func (p PackingList) Compartments() []compartment.Compartment {
	out := make([]compartment.Compartment, len(p.compartments))
	copy(out, p.compartments)
	return out
}

// Layout returns a copy of the underlying assignment, parallel to the
// descending item list it was built from.
func (p PackingList) Layout() compartment.Layout {
	return p.layout.Clone()
}

// Validate checks that every item is assigned and every compartment hits the target.
func (p PackingList) Validate() error {
	if len(p.layout) != len(p.items) || !p.layout.Complete() {
		return ErrIncompleteLayout
	}
	for _, c := range p.compartments {
		if w := p.WeightOf(c); w != p.target {
			return fmt.Errorf("%w: %s weighs %d, want %d", ErrUnbalanced, c, w, p.target)
		}
	}
	return nil
}

func (p PackingList) String() string {
	var b strings.Builder
	for i, c := range p.compartments {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s %v", c, p.Items(c))
	}
	return b.String()
}

// WeightOf returns the summed weight of compartment c in p.
func WeightOf(p PackingList, c compartment.Compartment) int {
	return p.WeightOf(c)
}

// EntanglementOf returns the weight product of compartment c in p.
func EntanglementOf(p PackingList, c compartment.Compartment) uint64 {
	return p.EntanglementOf(c)
}
