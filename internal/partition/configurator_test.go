package partition

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
)

var exampleItems = []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11}

func TestBest_ThreeWay(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, false)
	require.NoError(t, err)
	require.Equal(t, 20, c.Target())

	best, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, []int{11, 9}, best.Items(compartment.Footwell))
	require.Equal(t, uint64(99), best.EntanglementOf(compartment.Footwell))
	require.NoError(t, best.Validate())
}

func TestBest_FourWay(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, true)
	require.NoError(t, err)
	require.Equal(t, 15, c.Target())

	best, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, []int{11, 4}, best.Items(compartment.Footwell))
	require.Equal(t, uint64(44), EntanglementOf(best, compartment.Footwell))
	require.NoError(t, best.Validate())
}

func TestBest_NoSolution(t *testing.T) {
	t.Parallel()

	// Total 12 splits into targets of 4, but neither 3 can ever be topped up.
	c, err := New([]int{3, 3, 2, 2, 2}, false)
	require.NoError(t, err)

	_, ok := c.Best()
	require.False(t, ok)
}

func TestBest_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11}
	c, err := New(items, false)
	require.NoError(t, err)
	_, _ = c.Best()

	require.Equal(t, exampleItems, items)
	require.Equal(t, []int{11, 10, 9, 8, 7, 5, 4, 3, 2, 1}, c.Items())
}

func TestBestContext_Cancelled(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := c.BestContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ok)
}

func TestSolutions_WitnessPerFootwell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		useTrunk bool
		want     int
	}{
		{name: "three compartments", useTrunk: false, want: 24},
		{name: "four compartments", useTrunk: true, want: 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(exampleItems, tc.useTrunk)
			require.NoError(t, err)

			feet := make(map[string]struct{})
			for p := range c.Solutions() {
				require.NoError(t, p.Validate())
				feet[compartmentKey(p, compartment.Footwell)] = struct{}{}
			}
			require.Len(t, feet, tc.want)
		})
	}
}

func TestSolutions_Exhaustive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		useTrunk bool
		want     int
	}{
		{name: "three compartments", useTrunk: false, want: 96},
		{name: "four compartments", useTrunk: true, want: 72},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(exampleItems, tc.useTrunk, WithExhaustive(true))
			require.NoError(t, err)

			seen := make(map[string]struct{})
			for p := range c.Solutions() {
				require.NoError(t, p.Validate())
				seen[p.Layout().String()] = struct{}{}
			}
			require.Len(t, seen, tc.want, "every partition exactly once")
		})
	}
}

func TestSolutions_EveryItemInExactlyOneCompartment(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, true, WithExhaustive(true))
	require.NoError(t, err)

	for p := range c.Solutions() {
		total := 0
		for _, comp := range c.Compartments() {
			require.Equal(t, c.Target(), p.WeightOf(comp))
			total += p.Count(comp)
		}
		require.Equal(t, len(exampleItems), total)
		require.Zero(t, p.Count(compartment.Unassigned))
	}
}

func TestSolutions_StopsEarly(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, false)
	require.NoError(t, err)

	n := 0
	for range c.Solutions() {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
}

func TestSolutionsContext_StopsOnCancel(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, false, WithExhaustive(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	for range c.SolutionsContext(ctx) {
		n++
		cancel()
	}
	require.Equal(t, 1, n)
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSolutionsContext_MatchesSolutions(t *testing.T) {
	t.Parallel()

	c, err := New(exampleItems, true, WithExhaustive(true))
	require.NoError(t, err)

	n := 0
	for range c.SolutionsContext(context.Background()) {
		n++
	}
	require.Equal(t, 72, n)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    []int
		useTrunk bool
		wantErr  error
	}{
		{name: "empty", items: nil, wantErr: ErrNoItems},
		{name: "zero weight", items: []int{3, 0, 3}, wantErr: ErrNonPositiveWeight},
		{name: "negative weight", items: []int{3, -3, 3}, wantErr: ErrNonPositiveWeight},
		{name: "indivisible by three", items: []int{1, 2, 3, 4}, wantErr: ErrIndivisibleTotal},
		{name: "indivisible by four", items: []int{1, 2, 3}, useTrunk: true, wantErr: ErrIndivisibleTotal},
		{name: "item too large", items: []int{7, 1, 1}, wantErr: ErrItemTooLarge},
		{name: "total overflows", items: slices.Repeat([]int{1 << 61}, 11), wantErr: ErrWeightOverflow},
		{name: "total overflows on last item", items: []int{math.MaxInt - 2, 1, 1, 1}, useTrunk: true, wantErr: ErrWeightOverflow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tc.items, tc.useTrunk)
			require.ErrorIs(t, err, tc.wantErr)
			require.Nil(t, c)
		})
	}
}

func TestNew_SingleItemPerCompartment(t *testing.T) {
	t.Parallel()

	c, err := New([]int{4, 4, 4}, false)
	require.NoError(t, err)

	best, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, 1, best.Count(compartment.Footwell))
	require.Equal(t, uint64(4), best.EntanglementOf(compartment.Footwell))
}

func TestBest_SaturatedEntanglement(t *testing.T) {
	t.Parallel()

	items := []int{1 << 33, 1 << 33, 1 << 33, 1 << 33, 1 << 33, 1 << 33}
	c, err := New(items, false)
	require.NoError(t, err)

	best, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, 2, best.Count(compartment.Footwell))
	require.Equal(t, uint64(math.MaxUint64), best.EntanglementOf(compartment.Footwell))
	require.NoError(t, best.Validate())
}

func BenchmarkBestThreeWay(b *testing.B) {
	items := []int{1, 3, 5, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113}
	for i := 0; i < b.N; i++ {
		c, err := New(items, false)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.Best(); !ok {
			b.Fatalf("expected a solution")
		}
	}
}

func compartmentKey(p PackingList, c compartment.Compartment) string {
	layout := p.Layout()
	key := make([]byte, len(layout))
	for i, have := range layout {
		key[i] = '0'
		if have == c {
			key[i] = '1'
		}
	}
	return string(key)
}
