package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/pkg/report"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe [NUMBER...]",
		Short: "Descriptive statistics of a list of numbers",
		Long: `Print count, sum, mean, median, population variance, standard deviation,
minimum and maximum of the given numbers.

Without arguments the numbers are read from stdin, separated by whitespace or commas.
An empty input yields NaN for every statistic except count and sum.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			fields := args
			if len(fields) == 0 {
				fields, err = readFields(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			values, err := parseFloats(fields)
			if err != nil {
				return err
			}

			desc := report.Describe(values)

			if outFormat == report.FormatText {
				report.WriteDescriptionText(cmd.OutOrStdout(), desc)

				return nil
			}

			return report.Write(cmd.OutOrStdout(), outFormat, desc)
		},
	}

	formatFlag(cmd, &format)

	return cmd
}

// readFields splits r into whitespace or comma separated tokens.
func readFields(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var fields []string

	for scanner.Scan() {
		for token := range strings.SplitSeq(scanner.Text(), ",") {
			if token != "" {
				fields = append(fields, token)
			}
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return fields, nil
}
