package improvement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/probably/pkg/rng"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

// cancelCheckInterval is how many paired draws a worker makes between
// context checks.
const cancelCheckInterval = 4096

// Report is the full result of an [Estimator] run.
type Report struct {
	Params  Params  `json:"params"  yaml:"params"`
	Summary Summary `json:"summary" yaml:"summary"`

	// Exact is the closed-form probability, set when requested and a1 is an
	// integer no larger than 1e6.
	Exact *float64 `json:"exact,omitempty" yaml:"exact,omitempty"`

	SampleCount int    `json:"sample_count" yaml:"sample_count"`
	Workers     int    `json:"workers"      yaml:"workers"`
	Seed        uint64 `json:"seed"         yaml:"seed"`

	// Lifts holds the relative lift of every pair, in draw order.
	Lifts []float64 `json:"-" yaml:"-"`

	Elapsed time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// Estimator runs the improvement estimate, optionally spread across workers.
// Each worker owns its own generator derived from the seed and its index, so a
// fixed seed and worker count reproduce the same report.
type Estimator struct {
	logger      *slog.Logger
	sampleCount int
	workers     int
	maxIters    int
	seed        uint64
	seeded      bool
	exact       bool
}

// Option configures an [Estimator].
type Option func(*Estimator)

// WithSampleCount sets the number of paired draws. Non-positive values keep
// [DefaultSampleCount].
func WithSampleCount(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.sampleCount = n
		}
	}
}

// WithWorkers sets how many goroutines draw samples. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		e.workers = max(n, 1)
	}
}

// WithSeed fixes the seed of the worker streams.
func WithSeed(seed uint64) Option {
	return func(e *Estimator) {
		e.seed = seed
		e.seeded = true
	}
}

// WithMaxIters sets the rejection cap of each draw.
func WithMaxIters(n int) Option {
	return func(e *Estimator) {
		e.maxIters = n
	}
}

// WithExact also computes [ExactProbability] when a1 is an integer.
func WithExact(enabled bool) Option {
	return func(e *Estimator) {
		e.exact = enabled
	}
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEstimator creates an Estimator with the given options.
func NewEstimator(opts ...Option) *Estimator {
	est := &Estimator{
		logger:      slog.New(slog.DiscardHandler),
		sampleCount: DefaultSampleCount,
		workers:     1,
		maxIters:    sampling.DefaultMaxIters,
	}

	for _, opt := range opts {
		opt(est)
	}

	return est
}

// Estimate draws the paired samples and summarizes them. Workers stop early
// when ctx is canceled; the returned error then wraps ctx.Err().
func (e *Estimator) Estimate(ctx context.Context, params Params) (Report, error) {
	start := time.Now()

	seed := e.seed
	if !e.seeded {
		seed = rng.NewRandom().Uint64()
	}

	count := e.sampleCount
	workers := min(e.workers, count)

	first := sampling.NewBetaSampler(params.A1, params.B1, sampling.WithMaxIters(e.maxIters))
	second := sampling.NewBetaSampler(params.A2, params.B2, sampling.WithMaxIters(e.maxIters))

	samples1 := make([]float64, count)
	samples2 := make([]float64, count)

	group, groupCtx := errgroup.WithContext(ctx)

	for w := range workers {
		lo, hi := chunkBounds(count, workers, w)
		src := rng.Stream(seed, w)

		group.Go(func() error {
			return drawPairs(groupCtx, src, first, second, samples1[lo:hi], samples2[lo:hi])
		})
	}

	err := group.Wait()
	if err != nil {
		return Report{}, fmt.Errorf("estimate improvement: %w", err)
	}

	summary, lifts := summarize(samples1, samples2)

	report := Report{
		Params:      params,
		Summary:     summary,
		SampleCount: count,
		Workers:     workers,
		Seed:        seed,
		Lifts:       lifts,
	}

	if e.exact {
		exact, exactErr := ExactProbability(params)

		switch {
		case exactErr == nil:
			report.Exact = &exact
		case errors.Is(exactErr, ErrNonIntegerShape), errors.Is(exactErr, ErrShapeTooLarge):
			e.logger.DebugContext(ctx, "closed form skipped", "error", exactErr)
		default:
			return Report{}, exactErr
		}
	}

	report.Elapsed = time.Since(start)

	e.logger.DebugContext(ctx, "improvement estimated",
		"samples", count,
		"workers", workers,
		"seed", seed,
		"probability", summary.Probability,
		"elapsed", report.Elapsed,
	)

	return report, nil
}

// drawPairs fills out1 and out2 with draws from first and second, one pair at a time.
func drawPairs(
	ctx context.Context, src rng.Source, first, second sampling.BetaSampler, out1, out2 []float64,
) error {
	for i := range out1 {
		if i%cancelCheckInterval == 0 {
			err := ctx.Err()
			if err != nil {
				return err
			}
		}

		s1, err := first.Sample(src)
		if err != nil {
			return fmt.Errorf("sample first distribution: %w", err)
		}

		s2, err := second.Sample(src)
		if err != nil {
			return fmt.Errorf("sample second distribution: %w", err)
		}

		out1[i], out2[i] = s1, s2
	}

	return nil
}

// chunkBounds splits [0, count) into workers contiguous chunks and returns the
// bounds of chunk index; the first count%workers chunks get one extra element.
func chunkBounds(count, workers, index int) (lo, hi int) {
	size, extra := count/workers, count%workers

	lo = index*size + min(index, extra)
	hi = lo + size

	if index < extra {
		hi++
	}

	return lo, hi
}
