package common

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/infrastructure/circuitbreaker"
	infraconfig "github.com/north-cloud/webunpack/infrastructure/config"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/infrastructure/retry"
	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/config"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/store"
)

// LoadConfig loads the config file named by --config or CONFIG_PATH and
// applies the global flag overrides.
func LoadConfig() (*config.Config, error) {
	path := Flags.ConfigPath
	if path == "" {
		path = infraconfig.GetConfigPath(config.DefaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if Flags.APIURL != "" {
		cfg.API.BaseURL = Flags.APIURL
	}
	if Flags.Token != "" {
		cfg.Auth.Token = Flags.Token
	}
	if Flags.Debug {
		cfg.Logging.Level = string(logger.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewCommandDeps loads configuration and builds the logger, backend client
// and state store for a command.
func NewCommandDeps(cmd *cobra.Command) (*CommandDeps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewCLI(cfg.Logging.Level, Flags.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	c, err := NewClient(cfg, ConfiguredTokens(cfg), log, nil)
	if err != nil {
		return nil, err
	}

	deps := &CommandDeps{
		Logger: log,
		Config: cfg,
		Client: c,
		Store:  OpenStore(cmd.Context(), cfg, log),
		Out:    cmd.OutOrStdout(),
	}
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("validate deps: %w", err)
	}
	return deps, nil
}

// ConfiguredTokens returns the configured token, with a per-request
// override and the JWT expiry pre-check.
func ConfiguredTokens(cfg *config.Config, extra ...auth.TokenProvider) auth.TokenProvider {
	providers := append([]auth.TokenProvider{auth.FromContext()}, extra...)
	providers = append(providers, auth.Static(cfg.Auth.Token))
	return auth.ExpiryChecked{Provider: auth.Chain(providers...), Skew: cfg.Auth.Skew}
}

// NewClient builds the backend client from cfg.
func NewClient(cfg *config.Config, tokens auth.TokenProvider, log logger.Logger, rec *metrics.Recorder) (*client.Client, error) {
	c, err := client.New(client.Options{
		BaseURL: cfg.API.BaseURL,
		Tokens:  tokens,
		Logger:  log,
		Metrics: rec,
		Retry: retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		},
		Breaker:         NewBreaker(cfg, log, rec),
		Timeout:         cfg.API.Timeout,
		HealthTimeout:   cfg.API.HealthTimeout,
		DownloadTimeout: cfg.API.DownloadTimeout,
		UserAgent:       cfg.API.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	return c, nil
}

// NewBreaker builds the backend circuit breaker. State changes are logged
// and exported as a gauge.
func NewBreaker(cfg *config.Config, log logger.Logger, rec *metrics.Recorder) *circuitbreaker.Breaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		IsFailure:        client.IsBackendFailure,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Backend circuit breaker changed state",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			rec.CircuitOpen(to == circuitbreaker.StateOpen)
		},
	})
}

// NewOrchestrator builds a dashboard session from cfg.
func NewOrchestrator(cfg *config.Config, api dashboard.API, log logger.Logger, rec *metrics.Recorder, st store.Store) *dashboard.Orchestrator {
	return dashboard.New(dashboard.Options{
		API:         api,
		Logger:      log,
		Metrics:     rec,
		Store:       st,
		Interval:    cfg.Polling.Interval,
		MaxDuration: cfg.Polling.MaxDuration,
		TickTimeout: cfg.Polling.TickTimeout,
		PageCap:     cfg.Selection.GeneralPageCap,
	})
}

// OpenStore opens the configured state store. Persisted ids are a
// convenience, so an unavailable store degrades to an in-memory one.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) store.Store {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		log.Warn("State store unavailable, using memory",
			logger.String("driver", cfg.Store.Driver),
			logger.Error(err),
		)
		return store.NewMemory()
	}
	return st
}
