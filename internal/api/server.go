// Package api serves one dashboard session over HTTP for the serve command.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	infragin "github.com/north-cloud/webunpack/infrastructure/gin"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/infrastructure/profiling"
	"github.com/north-cloud/webunpack/infrastructure/sse"
	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/config"
	"github.com/north-cloud/webunpack/internal/dashboard"
)

// BackendProbe reports whether the export backend is reachable.
type BackendProbe interface {
	Health(ctx context.Context) bool
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the server wires together.
type Deps struct {
	Config       *config.Config
	Version      string
	Orchestrator *dashboard.Orchestrator
	Backend      BackendProbe
	// Tokens receives each caller's bearer token for background polling.
	Tokens  *auth.Holder
	Broker  sse.Broker
	Metrics *metrics.Recorder
	// Store is health-checked when it implements Pinger.
	Store  any
	Logger logger.Logger
	// Profiling mounts pprof under /debug/pprof.
	Profiling bool
}

// NewServer builds the dashboard HTTP server. Shutting it down closes the
// orchestrator, which stops any polling session.
func NewServer(deps Deps) *infragin.Server {
	cfg := deps.Config
	h := NewSessionHandler(deps.Orchestrator, deps.Broker, deps.Logger)

	b := infragin.NewServerBuilder(cfg.ServiceName(), cfg.Server.Port).
		WithConfig(infragin.FromServerConfig(cfg.ServiceName(), cfg.Server)).
		WithLogger(deps.Logger).
		WithVersion(deps.Version).
		WithMetrics(deps.Metrics).
		WithBearerAuth(cfg.Auth.Skew).
		WithHealthCheck("backend", infragin.ProbeChecker("export backend", infragin.HealthStatusDegraded, deps.Backend.Health)).
		OnShutdown(deps.Orchestrator.Close).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, h, deps.Tokens)
			if deps.Profiling {
				profiling.Register(router)
			}
		})

	if p, ok := deps.Store.(Pinger); ok {
		b = b.WithHealthCheck("store", infragin.PingChecker("state store", infragin.HealthStatusUnhealthy, p.Ping))
	}
	if deps.Broker != nil {
		b = b.OnDrain(func() { _ = deps.Broker.Stop() })
	}

	return b.Build()
}
