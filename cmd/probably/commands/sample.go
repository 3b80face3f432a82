package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/report"
	"github.com/Sumatoshi-tech/probably/pkg/rng"
	"github.com/Sumatoshi-tech/probably/pkg/sampling"
)

const defaultSampleDraws = 10

// sampleOutput is the structured output of the sample command.
type sampleOutput struct {
	A       float64      `json:"a"       yaml:"a"`
	B       float64      `json:"b"       yaml:"b"`
	Seed    uint64       `json:"seed"    yaml:"seed"`
	Box     sampling.Box `json:"box"     yaml:"box"`
	Samples []float64    `json:"samples" yaml:"samples"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(globals *Globals) *cobra.Command {
	var (
		count    int
		seed     uint64
		maxIters int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "sample A B",
		Short: "Draw from a Beta distribution",
		Long: `Draw values from Beta(A, B) with the rejection sampler.

Text output prints one value per line; json and yaml include the seed and the
bounding box the sampler used.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // two shape parameters
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			shapes, err := parseFloats(args)
			if err != nil {
				return err
			}

			rt, err := setup(globals, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer rt.close()

			if seed == 0 {
				seed = rt.cfg.Sampling.Seed
			}

			if seed == 0 {
				seed = rng.NewRandom().Uint64()
			}

			if maxIters <= 0 {
				maxIters = rt.cfg.Sampling.MaxIters
			}

			sampler := sampling.NewBetaSampler(shapes[0], shapes[1], sampling.WithMaxIters(maxIters))

			draws, err := sampler.Draw(rng.New(seed), count)
			if err != nil {
				return err
			}

			rt.providers.Logger.DebugContext(cmd.Context(), "beta samples drawn",
				"a", shapes[0], "b", shapes[1], "count", count, "seed", seed)

			if outFormat != report.FormatText {
				return report.Write(cmd.OutOrStdout(), outFormat, sampleOutput{
					A: shapes[0], B: shapes[1], Seed: seed, Box: sampler.Box(), Samples: draws,
				})
			}

			for _, v := range draws {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
				if err != nil {
					return fmt.Errorf("write sample: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", defaultSampleDraws, "number of draws")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 for random (default from config)")
	cmd.Flags().IntVar(&maxIters, "max-iters", 0, "rejection attempts per draw (default from config)")
	formatFlag(cmd, &format)

	return cmd
}
