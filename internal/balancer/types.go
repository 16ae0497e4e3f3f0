package balancer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
	"github.com/eugenenazirov/sleigh-balancer/internal/partition"
)

// Mode selects how many compartments the items are split across.
type Mode int

const (
	ThreeWay Mode = 3
	FourWay  Mode = 4
)

// Modes lists every supported mode in the order reports present them.
var Modes = []Mode{ThreeWay, FourWay}

// ParseMode converts a compartment count into a Mode.
func ParseMode(compartments int) (Mode, error) {
	switch m := Mode(compartments); m {
	case ThreeWay, FourWay:
		return m, nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidMode, compartments)
	}
}

func (m Mode) String() string {
	switch m {
	case ThreeWay:
		return "three"
	case FourWay:
		return "four"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) useTrunk() bool {
	return m == FourWay
}

// Group summarises one compartment of a result.
type Group struct {
	Compartment  compartment.Compartment
	Items        []int
	Weight       int
	Entanglement uint64
}

// Result is the best partition found for one mode.
// Entanglement and FootwellCount describe the footwell, which is what the
// result was optimised for. Partitions is only set by exhaustive searches and
// counts every balanced partition that was scored.
type Result struct {
	Mode          Mode
	Target        int
	Groups        []Group
	FootwellCount int
	Entanglement  uint64
	Partitions    int
	Elapsed       time.Duration
	Cached        bool
}

// clone returns a copy of r that shares no slices with it.
func (r Result) clone() Result {
	groups := make([]Group, len(r.Groups))
	for i, g := range r.Groups {
		g.Items = slices.Clone(g.Items)
		groups[i] = g
	}
	r.Groups = groups
	return r
}

// Outcome pairs a mode with its result or the error that prevented one.
type Outcome struct {
	Mode   Mode
	Result Result
	Err    error
}

// Report carries one Outcome per mode.
type Report struct {
	Outcomes []Outcome
}

// Balancer describes the behaviour required from a partition service.
type Balancer interface {
	Balance(ctx context.Context, weights []int, mode Mode) (Result, error)
	BalanceAll(ctx context.Context, weights []int) (Report, error)
}

func newResult(mode Mode, best partition.PackingList, elapsed time.Duration) Result {
	comps := best.Compartments()
	groups := make([]Group, 0, len(comps))
	for _, c := range comps {
		groups = append(groups, Group{
			Compartment:  c,
			Items:        best.Items(c),
			Weight:       best.WeightOf(c),
			Entanglement: best.EntanglementOf(c),
		})
	}
	return Result{
		Mode:          mode,
		Target:        best.Target(),
		Groups:        groups,
		FootwellCount: best.Count(compartment.Footwell),
		Entanglement:  best.EntanglementOf(compartment.Footwell),
		Elapsed:       elapsed,
	}
}
