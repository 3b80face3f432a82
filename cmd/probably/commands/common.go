// Package commands implements the probably CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/pkg/config"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/report"
	"github.com/Sumatoshi-tech/probably/pkg/version"
)

// Globals holds the persistent root flags shared by subcommands.
type Globals struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

// ErrInvalidArgs indicates malformed positional arguments.
var ErrInvalidArgs = errors.New("invalid arguments")

// env holds what a command needs after startup: the loaded configuration
// and the observability providers built from it.
type env struct {
	cfg       *config.Config
	providers observability.Providers
}

// setup loads the configuration, applies the global flags, and initializes
// observability for mode.
func setup(globals *Globals, mode observability.AppMode, obsOpts ...func(*observability.Config)) (*env, error) {
	cfg, err := config.LoadConfig(globals.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.FromAppConfig(cfg, mode)
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))

	if globals.LogJSON {
		obsCfg.LogJSON = true
	}

	switch {
	case globals.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case globals.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	for _, opt := range obsOpts {
		opt(&obsCfg)
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &env{cfg: cfg, providers: providers}, nil
}

// close flushes telemetry, logging instead of failing the command.
func (e *env) close() {
	err := e.providers.Shutdown(context.Background())
	if err != nil {
		e.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// workers resolves a worker count where 0 means GOMAXPROCS.
func workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}

	return n
}

// parseFloats parses every argument as a float64.
func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, len(args))

	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidArgs, arg)
		}

		values[i] = v
	}

	return values, nil
}

// formatFlag registers the --format flag on cmd.
func formatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", string(report.FormatText), "output format: text, json or yaml")
}
