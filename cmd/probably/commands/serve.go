package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/probably/internal/server"
	"github.com/Sumatoshi-tech/probably/pkg/observability"
	"github.com/Sumatoshi-tech/probably/pkg/version"
)

// NewServeCommand creates the HTTP server command.
func NewServeCommand(globals *Globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Serve improvement estimates over HTTP.

Routes:
  POST /v1/improvement  JSON body {"a1", "b1", "a2", "b2", "samples", "seed", "exact"}
  GET  /metrics         Prometheus metrics
  GET  /healthz         liveness
  GET  /readyz          readiness`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := observability.NewPrometheusRegistry()

			rt, err := setup(globals, observability.ModeServe, func(cfg *observability.Config) {
				cfg.PrometheusRegisterer = registry
			})
			if err != nil {
				return err
			}
			defer rt.close()

			handler, err := server.NewHandler(server.Deps{
				Logger:             rt.providers.Logger,
				Tracer:             rt.providers.Tracer,
				RED:                rt.providers.Requests,
				EstimateMetrics:    rt.providers.Estimates,
				Registry:           registry,
				Version:            version.Version,
				DefaultSampleCount: rt.cfg.Sampling.Count,
				MaxSampleCount:     rt.cfg.Server.MaxSampleCount,
				Workers:            workers(rt.cfg.Sampling.Workers),
				MaxIters:           rt.cfg.Sampling.MaxIters,
			})
			if err != nil {
				return err
			}

			if addr == "" {
				addr = rt.cfg.Server.Addr
			}

			return server.Serve(cmd.Context(), handler, server.Options{
				Addr:         addr,
				ReadTimeout:  rt.cfg.Server.ReadTimeout,
				WriteTimeout: rt.cfg.Server.WriteTimeout,
				Logger:       rt.providers.Logger,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
