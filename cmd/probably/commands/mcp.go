package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/pkg/mcp"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(globals *Globals) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes these tools:
  - probably_improvement: P(A > B) and lift for two Beta posteriors
  - probably_beta_density: Beta density and CDF on a grid
  - probably_describe: descriptive statistics of a list of numbers`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := setup(globals, observability.ModeMCP, func(cfg *observability.Config) {
				// Stdout carries the protocol; logs stay structured on stderr.
				cfg.LogJSON = true

				if debug {
					cfg.LogLevel = slog.LevelDebug
					cfg.DebugTrace = true
				}
			})
			if err != nil {
				return err
			}
			defer rt.close()

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  rt.providers.Logger,
				Metrics: rt.providers.Requests,
				Tracer:  rt.providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
