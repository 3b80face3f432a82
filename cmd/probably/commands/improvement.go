package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sumatoshi-tech/probably/pkg/improvement"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/report"
)

const opImprovement = "cli.improvement"

type improvementFlags struct {
	samples  int
	workers  int
	seed     uint64
	maxIters int
	format   string
	chart    string
	exact    bool
}

// NewImprovementCommand creates the improvement command.
func NewImprovementCommand(globals *Globals) *cobra.Command {
	var flags improvementFlags

	cmd := &cobra.Command{
		Use:   "improvement A1 B1 A2 B2",
		Short: "Probability and expected lift of A over B",
		Long: `Estimate P(A > B) for A ~ Beta(A1, B1) and B ~ Beta(A2, B2) by Monte Carlo
sampling, along with the mean and standard deviation of the relative lift A/B - 1.

For a conversion test, use successes + 1 and failures + 1 as the shape parameters.
Unset flags fall back to the sampling section of the config file.`,
		Example: "  probably improvement 121 881 101 901 --exact\n" +
			"  probably improvement 60 40 50 50 --samples 1000000 --workers 8 --format json",
		Args: cobra.ExactArgs(4), //nolint:mnd // four shape parameters
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImprovement(cmd, globals, flags, args)
		},
	}

	cmd.Flags().IntVarP(&flags.samples, "samples", "n", 0, "number of paired draws (default from config)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", -1, "sampling goroutines, 0 for GOMAXPROCS (default from config)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed, 0 for random (default from config)")
	cmd.Flags().IntVar(&flags.maxIters, "max-iters", 0, "rejection attempts per draw (default from config)")
	cmd.Flags().BoolVar(&flags.exact, "exact", false, "also compute the closed-form probability when A1 is an integer")
	cmd.Flags().StringVar(&flags.chart, "chart", "", "write an HTML histogram of the lift to this path")
	formatFlag(cmd, &flags.format)

	return cmd
}

func runImprovement(cmd *cobra.Command, globals *Globals, flags improvementFlags, args []string) error {
	format, err := report.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	shapes, err := parseFloats(args)
	if err != nil {
		return err
	}

	params := improvement.Params{A1: shapes[0], B1: shapes[1], A2: shapes[2], B2: shapes[3]}

	rt, err := setup(globals, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, span := rt.providers.Tracer.Start(cmd.Context(), opImprovement)
	defer span.End()

	span.SetAttributes(
		attribute.Float64("beta.a1", params.A1),
		attribute.Float64("beta.b1", params.B1),
		attribute.Float64("beta.a2", params.A2),
		attribute.Float64("beta.b2", params.B2),
	)

	ctx = observability.WithLogAttrs(ctx,
		slog.Float64("a1", params.A1), slog.Float64("b1", params.B1),
		slog.Float64("a2", params.A2), slog.Float64("b2", params.B2),
	)

	start := time.Now()
	kinds := params.Kinds()
	requests := rt.providers.Requests

	done := requests.TrackInflight(ctx, opImprovement)
	defer done()

	rep, err := improvement.NewEstimator(estimatorOptions(rt, flags)...).Estimate(ctx, params)

	requests.RecordRequest(ctx, observability.Request{
		Op:       opImprovement,
		Density:  observability.DensityVariant(kinds[:]...),
		Status:   observability.Classify(err),
		Duration: time.Since(start),
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	rt.providers.Estimates.Record(ctx, observability.EstimateStats{
		SampleCount: rep.SampleCount,
		Workers:     rep.Workers,
		Probability: rep.Summary.Probability,
		Elapsed:     rep.Elapsed,
		Exact:       rep.Exact != nil,
	})

	span.SetAttributes(attribute.Float64("improvement.probability", rep.Summary.Probability))

	view := report.NewImprovement(rep)

	if flags.chart != "" {
		err = writeChart(flags.chart, rep.Lifts, view)
		if err != nil {
			return err
		}

		rt.providers.Logger.InfoContext(ctx, "lift chart written", "path", flags.chart)
	}

	if format == report.FormatText {
		report.WriteImprovementText(cmd.OutOrStdout(), view)

		return nil
	}

	return report.Write(cmd.OutOrStdout(), format, view)
}

func estimatorOptions(rt *env, flags improvementFlags) []improvement.Option {
	sampling := rt.cfg.Sampling

	samples := sampling.Count
	if flags.samples > 0 {
		samples = flags.samples
	}

	workerCount := sampling.Workers
	if flags.workers >= 0 {
		workerCount = flags.workers
	}

	maxIters := sampling.MaxIters
	if flags.maxIters > 0 {
		maxIters = flags.maxIters
	}

	opts := []improvement.Option{
		improvement.WithSampleCount(samples),
		improvement.WithWorkers(workers(workerCount)),
		improvement.WithMaxIters(maxIters),
		improvement.WithExact(flags.exact),
		improvement.WithLogger(rt.providers.Logger),
	}

	seed := sampling.Seed
	if flags.seed != 0 {
		seed = flags.seed
	}

	if seed != 0 {
		opts = append(opts, improvement.WithSeed(seed))
	}

	return opts
}

func writeChart(path string, lifts []float64, view report.Improvement) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	err = report.WriteLiftChart(file, lifts, view)
	if err != nil {
		_ = file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}

	return nil
}
