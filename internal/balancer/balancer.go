package balancer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/sleigh-balancer/internal/cache"
	"github.com/eugenenazirov/sleigh-balancer/internal/compartment"
	"github.com/eugenenazirov/sleigh-balancer/internal/metrics"
	"github.com/eugenenazirov/sleigh-balancer/internal/partition"
)

// DefaultMaxItems bounds the exponential search when no ceiling is configured.
const DefaultMaxItems = 64

// Option configures the balancer.
type Option func(*searchBalancer)

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(b *searchBalancer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMaxItems caps the number of items accepted per search. Zero disables the cap.
func WithMaxItems(n int) Option {
	return func(b *searchBalancer) {
		b.maxItems = n
	}
}

// WithTimeout bounds the wall time of a single search. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *searchBalancer) {
		b.timeout = d
	}
}

// WithExhaustive scores every balanced partition instead of pruning footwells
// that cannot beat the incumbent. The answer is the same; the search is slower
// but reports how many partitions exist.
func WithExhaustive(enabled bool) Option {
	return func(b *searchBalancer) {
		b.exhaustive = enabled
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(b *searchBalancer) {
		b.recorder = r
	}
}

// WithCache attaches a result cache.
func WithCache(c *cache.Cache[Result]) Option {
	return func(b *searchBalancer) {
		b.cache = c
	}
}

type searchBalancer struct {
	logger     *zap.Logger
	maxItems   int
	timeout    time.Duration
	exhaustive bool
	recorder   *metrics.Recorder
	cache      *cache.Cache[Result]
}

// New creates a Balancer backed by the exact partition search.
func New(opts ...Option) Balancer {
	b := &searchBalancer{
		logger:   zap.NewNop(),
		maxItems: DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *searchBalancer) Balance(ctx context.Context, weights []int, mode Mode) (Result, error) {
	if _, err := ParseMode(int(mode)); err != nil {
		return Result{}, err
	}
	if len(weights) == 0 {
		return Result{}, ErrInvalidWeights
	}
	if b.maxItems > 0 && len(weights) > b.maxItems {
		b.recorder.ObserveSearch(mode.String(), metrics.OutcomeRejected, len(weights), 0)
		return Result{}, fmt.Errorf("%w: %d items, limit is %d", ErrTooManyItems, len(weights), b.maxItems)
	}

	if b.cache != nil {
		cached, ok := b.cache.Get(weights, b.cacheMode(mode))
		b.recorder.ObserveCacheLookup(ok)
		if ok {
			cached = cached.clone()
			cached.Cached = true
			return cached, nil
		}
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	cfg, err := partition.New(weights, mode.useTrunk(), partition.WithExhaustive(b.exhaustive))
	if err != nil {
		b.recorder.ObserveSearch(mode.String(), metrics.OutcomeRejected, len(weights), time.Since(start))
		return Result{}, err
	}

	var (
		best       partition.PackingList
		ok         bool
		partitions int
	)
	if b.exhaustive {
		best, partitions, ok, err = scan(ctx, cfg)
	} else {
		best, ok, err = cfg.BestContext(ctx)
	}
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			b.recorder.ObserveSearch(mode.String(), metrics.OutcomeTimeout, len(weights), elapsed)
			b.logger.Warn("search timed out",
				zap.Stringer("mode", mode),
				zap.Int("items", len(weights)),
				zap.Duration("elapsed", elapsed),
			)
			return Result{}, fmt.Errorf("%w after %s: %w", ErrSearchTimeout, elapsed, err)
		}
		return Result{}, err
	}
	if !ok {
		b.recorder.ObserveSearch(mode.String(), metrics.OutcomeNoSolution, len(weights), elapsed)
		return Result{}, fmt.Errorf("%w: target %d across %d compartments", ErrNoSolution, cfg.Target(), int(mode))
	}

	result := newResult(mode, best, elapsed)
	result.Partitions = partitions
	b.recorder.ObserveSearch(mode.String(), metrics.OutcomeSolved, len(weights), elapsed)
	b.cache.Put(weights, b.cacheMode(mode), result.clone())

	b.logger.Debug("search completed",
		zap.Stringer("mode", mode),
		zap.Int("items", len(weights)),
		zap.Int("target", result.Target),
		zap.Int("footwell_items", result.FootwellCount),
		zap.Uint64("entanglement", result.Entanglement),
		zap.Int("partitions", result.Partitions),
		zap.Duration("elapsed", elapsed),
	)

	return result, nil
}

// cacheMode keeps exhaustive results apart from pruned ones, since only the
// former carry a partition count.
func (b *searchBalancer) cacheMode(mode Mode) uint8 {
	if b.exhaustive {
		return uint8(mode) | 0x80
	}
	return uint8(mode)
}

// scan walks every balanced partition and keeps the first one with the fewest
// footwell items and, among those, the lowest footwell entanglement.
func scan(ctx context.Context, cfg *partition.Configurator) (partition.PackingList, int, bool, error) {
	var (
		best  partition.PackingList
		found bool
		n     int
	)
	for p := range cfg.SolutionsContext(ctx) {
		n++
		if !found || better(p, best) {
			best, found = p, true
		}
	}
	if err := ctx.Err(); err != nil {
		return partition.PackingList{}, n, false, err
	}
	return best, n, found, nil
}

func better(a, b partition.PackingList) bool {
	ca, cb := a.Count(compartment.Footwell), b.Count(compartment.Footwell)
	if ca != cb {
		return ca < cb
	}
	return a.EntanglementOf(compartment.Footwell) < b.EntanglementOf(compartment.Footwell)
}

// BalanceAll searches every mode concurrently. Failures of an individual mode
// are reported in its Outcome; only cancellation of ctx fails the whole call.
func (b *searchBalancer) BalanceAll(ctx context.Context, weights []int) (Report, error) {
	outcomes := make([]Outcome, len(Modes))

	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range Modes {
		g.Go(func() error {
			result, err := b.Balance(gctx, weights, mode)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			outcomes[i] = Outcome{Mode: mode, Result: result, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return Report{Outcomes: outcomes}, nil
}
