package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/pkg/alg/stats"
	"github.com/Sumatoshi-tech/probably/pkg/report"
)

const defaultPDFSteps = 10

// NewPDFCommand creates the pdf command.
func NewPDFCommand() *cobra.Command {
	var (
		steps  int
		at     []float64
		format string
	)

	cmd := &cobra.Command{
		Use:   "pdf A B",
		Short: "Evaluate a Beta density on a grid",
		Long: `Evaluate the density and cumulative probability of Beta(A, B) on an even
grid over [0, 1], or at the points given with --at.

When A + B reaches 1000 the normal approximation is used, as the samplers do.`,
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

			points := at
			if len(points) == 0 {
				if steps < 1 {
					return fmt.Errorf("%w: --steps must be positive, got %d", ErrInvalidArgs, steps)
				}

				points = stats.Range(0, 1, 1/float64(steps))
			}

			table := report.NewDensityTable(shapes[0], shapes[1], points)

			if outFormat == report.FormatText {
				report.WriteDensityText(cmd.OutOrStdout(), table)

				return nil
			}

			return report.Write(cmd.OutOrStdout(), outFormat, table)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", defaultPDFSteps, "number of grid intervals over [0, 1]")
	cmd.Flags().Float64SliceVar(&at, "at", nil, "evaluate at these points instead of a grid")
	formatFlag(cmd, &format)

	return cmd
}
