package gin

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/webunpack/infrastructure/jwt"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
)

// ServerBuilder provides a fluent API for building the HTTP server.
type ServerBuilder struct {
	config       *Config
	logger       logger.Logger
	recorder     *metrics.Recorder
	setupRoutes  func(*gin.Engine)
	healthChecks map[string]HealthChecker
	bearer       bool
	bearerSkew   time.Duration
	onShutdown   []func()
	onDrain      []func()
}

// NewServerBuilder starts a builder for serviceName listening on port.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:       NewConfig(serviceName, port),
		healthChecks: make(map[string]HealthChecker),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *ServerBuilder) WithConfig(cfg *Config) *ServerBuilder {
	b.config = cfg
	return b
}

// WithLogger sets the logger.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

// WithDebug enables or disables gin debug mode.
func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the version reported by /health.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithCORSOrigins sets allowed CORS origins.
func (b *ServerBuilder) WithCORSOrigins(origins []string) *ServerBuilder {
	if len(origins) > 0 {
		b.config.CORS.AllowedOrigins = origins
	}
	return b
}

// WithTimeouts sets the read, write and idle timeouts.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithMetrics installs the request metrics middleware and GET /metrics.
func (b *ServerBuilder) WithMetrics(r *metrics.Recorder) *ServerBuilder {
	b.recorder = r
	return b
}

// WithBearerAuth makes /api routes accept an optional bearer token that is
// forwarded to the backend. Expired JWTs are rejected up front.
func (b *ServerBuilder) WithBearerAuth(skew time.Duration) *ServerBuilder {
	b.bearer = true
	b.bearerSkew = skew
	return b
}

// WithHealthCheck adds a named check to /health.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// OnShutdown registers fn to run after the listener has drained.
func (b *ServerBuilder) OnShutdown(fn func()) *ServerBuilder {
	b.onShutdown = append(b.onShutdown, fn)
	return b
}

// OnDrain registers fn to run as soon as shutdown begins, before the
// listener drains. Long-lived streams use it to end their connections.
func (b *ServerBuilder) OnDrain(fn func()) *ServerBuilder {
	b.onDrain = append(b.onDrain, fn)
	return b
}

// WithRoutes sets the route setup function.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}

	wrappedSetup := func(router *gin.Engine) {
		if b.recorder != nil {
			router.Use(b.recorder.Middleware())
			router.GET("/metrics", gin.WrapH(b.recorder.Handler()))
		}
		if b.bearer {
			router.Use(jwt.BearerMiddleware(b.bearerSkew))
		}

		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.healthChecks,
		})

		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	srv := NewServer(b.config, b.logger, wrappedSetup)
	srv.onShutdown = b.onShutdown
	for _, fn := range b.onDrain {
		srv.server.RegisterOnShutdown(fn)
	}
	return srv
}
