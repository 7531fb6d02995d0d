// Package serve implements the serve command, which hosts one dashboard
// session behind an HTTP API.
package serve

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/infrastructure/sse"
	"github.com/north-cloud/webunpack/internal/api"
	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/config"
)

// Command returns the serve command. version is reported by /health.
func Command(version string) *cobra.Command {
	var (
		port     int
		noEvents bool
		pprof    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a dashboard session over HTTP",
		Long: `Serve exposes the export workflow as a JSON API under /api/v1/session,
with live updates on /api/v1/session/events, Prometheus metrics on /metrics
and liveness on /health. Requests authenticate with the same bearer token the
backend expects; the most recent token is used for background polling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return run(cmd.Context(), cfg, version, options{events: !noEvents, pprof: pprof})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "disable the server-sent events stream")
	cmd.Flags().BoolVar(&pprof, "pprof", false, "serve runtime profiles under /debug/pprof")
	return cmd
}

type options struct {
	events bool
	pprof  bool
}

func run(ctx context.Context, cfg *config.Config, version string, opts options) error {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(logger.String("service", cfg.ServiceName()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	holder := &auth.Holder{}
	backend, err := common.NewClient(cfg, common.ConfiguredTokens(cfg, holder), log, rec)
	if err != nil {
		return err
	}

	st := common.OpenStore(ctx, cfg, log)
	defer func() { _ = st.Close() }()

	orch := common.NewOrchestrator(cfg, backend, log, rec, st)
	defer orch.Close()

	var broker sse.Broker
	if opts.events {
		broker = sse.NewBroker(log)
		if err := broker.Start(ctx); err != nil {
			return fmt.Errorf("start event broker: %w", err)
		}
		go api.Forward(ctx, orch, broker, log)
	}

	srv := api.NewServer(api.Deps{
		Config:       cfg,
		Version:      version,
		Orchestrator: orch,
		Backend:      backend,
		Tokens:       holder,
		Broker:       broker,
		Metrics:      rec,
		Store:        st,
		Logger:       log,
		Profiling:    opts.pprof,
	})

	log.Info("Starting dashboard server",
		logger.String("addr", srv.Addr()),
		logger.String("backend", backend.BaseURL()),
		logger.Bool("events", opts.events),
		logger.Bool("pprof", opts.pprof),
	)
	return srv.RunWithGracefulShutdown(ctx)
}
