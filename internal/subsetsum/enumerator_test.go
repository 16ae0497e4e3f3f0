package subsetsum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
)

const (
	f = compartment.Footwell
	l = compartment.LeftSaddle
	u = compartment.Unassigned
)

func TestNext_Target8(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 8, nil)
	require.NoError(t, err)

	got, ok := e.Next(f)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f, f, u, u}, got)

	got, ok = e.Next(f)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f, u, f, f}, got)

	_, ok = e.Next(f)
	require.False(t, ok)
	require.Equal(t, Exhausted, e.State())
}

func TestNext_Target6(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 6, nil)
	require.NoError(t, err)

	var got []compartment.Layout
	for layout := range e.All(f) {
		got = append(got, layout)
	}

	require.Equal(t, []compartment.Layout{
		{f, u, u, f},
		{u, f, f, f},
	}, got)
}

func TestNext_RespectsExistingClaims(t *testing.T) {
	t.Parallel()

	items := []int{5, 3, 2, 1}
	first, err := New(items, 5, nil)
	require.NoError(t, err)

	seed, ok := first.Next(f)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f, u, u, u}, seed)

	second, err := New(items, 5, seed)
	require.NoError(t, err)

	got, ok := second.Next(l)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f, l, l, u}, got)

	_, ok = second.Next(l)
	require.False(t, ok)
	require.Equal(t, compartment.Layout{f, u, u, u}, second.Layout(), "own claims must be released on exhaustion")
}

func TestNext_SnapshotsAreIndependent(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 8, nil)
	require.NoError(t, err)

	first, ok := e.Next(f)
	require.True(t, ok)
	want := first.Clone()

	_, ok = e.Next(f)
	require.True(t, ok)
	require.Equal(t, want, first)
}

func TestNext_PrelabeledSameCompartmentCounts(t *testing.T) {
	t.Parallel()

	layout := compartment.Layout{u, f, u, u}
	e, err := New([]int{5, 3, 2, 1}, 6, layout)
	require.NoError(t, err)

	var got []compartment.Layout
	for s := range e.All(f) {
		got = append(got, s)
	}

	require.Equal(t, []compartment.Layout{{u, f, f, f}}, got)
	require.Equal(t, compartment.Layout{u, f, u, u}, layout, "pre-existing labels are never cleared")
}

func TestNext_PrelabeledAlreadyAtTarget(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 5, compartment.Layout{f, u, u, u})
	require.NoError(t, err)

	got, ok := e.Next(f)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f, u, u, u}, got)

	_, ok = e.Next(f)
	require.False(t, ok)
}

func TestNext_PrelabeledOverTarget(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 4, compartment.Layout{f, u, u, u})
	require.NoError(t, err)

	_, ok := e.Next(f)
	require.False(t, ok)
	require.Equal(t, Exhausted, e.State())
}

func TestNext_SingleItemEqualToTarget(t *testing.T) {
	t.Parallel()

	e, err := New([]int{7}, 7, nil)
	require.NoError(t, err)

	got, ok := e.Next(f)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{f}, got)

	_, ok = e.Next(f)
	require.False(t, ok)
}

func TestNext_EmptyItems(t *testing.T) {
	t.Parallel()

	e, err := New([]int{}, 3, nil)
	require.NoError(t, err)

	_, ok := e.Next(f)
	require.False(t, ok)
}

func TestNext_UnassignedQueryYieldsNothing(t *testing.T) {
	t.Parallel()

	e, err := New([]int{3, 2, 1}, 3, nil)
	require.NoError(t, err)

	_, ok := e.Next(u)
	require.False(t, ok)
}

func TestNext_SwitchingCompartmentRestarts(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 8, nil)
	require.NoError(t, err)

	_, ok := e.Next(f)
	require.True(t, ok)

	got, ok := e.Next(l)
	require.True(t, ok)
	require.Equal(t, compartment.Layout{l, l, u, u}, got)
}

func TestNext_DuplicatesAreDistinguishedByPosition(t *testing.T) {
	t.Parallel()

	e, err := New([]int{2, 2, 1, 1}, 3, nil)
	require.NoError(t, err)

	var got []compartment.Layout
	for s := range e.All(f) {
		got = append(got, s)
	}

	require.Equal(t, []compartment.Layout{
		{f, u, f, u},
		{f, u, u, f},
		{u, f, f, u},
		{u, f, u, f},
	}, got)
}

func TestNext_SumsMatchTarget(t *testing.T) {
	t.Parallel()

	items := []uint16{11, 10, 9, 8, 7, 5, 4, 3, 2, 1}
	e, err := New(items, 20, nil)
	require.NoError(t, err)

	count := 0
	for layout := range e.All(f) {
		var sum uint16
		for i, c := range layout {
			if c == f {
				sum += items[i]
			}
		}
		require.Equal(t, uint16(20), sum, "layout %v", layout)
		count++
	}
	require.Equal(t, 25, count)
}

func TestState_Transitions(t *testing.T) {
	t.Parallel()

	e, err := New([]int{5, 3, 2, 1}, 8, nil)
	require.NoError(t, err)
	require.Equal(t, Idle, e.State())

	_, ok := e.Next(f)
	require.True(t, ok)
	require.Equal(t, Recursing, e.State())

	for range e.All(f) {
	}
	require.Equal(t, Exhausted, e.State())
	require.Equal(t, "exhausted", e.State().String())
}

func TestNew_RejectsUnsortedItems(t *testing.T) {
	t.Parallel()

	_, err := New([]int{1, 2, 3}, 3, nil)
	require.ErrorIs(t, err, ErrItemsNotSorted)
}

func TestNew_RejectsShortLayout(t *testing.T) {
	t.Parallel()

	_, err := New([]int{3, 2, 1}, 3, make(compartment.Layout, 2))
	require.ErrorIs(t, err, ErrLayoutTooSmall)
}

func TestWithInterrupt_StopsSearch(t *testing.T) {
	t.Parallel()

	items := make([]int, 40)
	for i := range items {
		items[i] = 2
	}
	// An odd target is unreachable with even weights, so only the interrupt ends the search.
	e, err := New(items, 41, nil, WithInterrupt(func() bool { return true }))
	require.NoError(t, err)

	_, ok := e.Next(f)
	require.False(t, ok)
	require.Equal(t, Exhausted, e.State())
}

func BenchmarkEnumerateTwenty(b *testing.B) {
	items := make([]int, 20)
	for i := range items {
		items[i] = 20 - i
	}
	for i := 0; i < b.N; i++ {
		e, err := New(items, 70, nil)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		for range e.All(f) {
		}
	}
}
