// Package main provides the entry point for the probably CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/cmd/probably/commands"
	"github.com/Sumatoshi-tech/probably/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	globals := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "probably",
		Short: "Bayesian A/B test estimates from Beta posteriors",
		Long: `probably estimates how likely one conversion rate beats another.

Commands:
  improvement  Probability and expected lift of A over B
  sample       Draw from a Beta distribution
  pdf          Evaluate a Beta density on a grid
  describe     Descriptive statistics of a list of numbers
  mcp          MCP server on stdio
  serve        HTTP server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "", "config file (default .probably.yaml in the working or home directory)")
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&globals.LogJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(
		commands.NewImprovementCommand(globals),
		commands.NewSampleCommand(globals),
		commands.NewPDFCommand(),
		commands.NewDescribeCommand(),
		commands.NewMCPCommand(globals),
		commands.NewServeCommand(globals),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "probably %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
