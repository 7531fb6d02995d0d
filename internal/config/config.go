// Package config holds the webunpack configuration.
package config

import (
	"time"

	infraconfig "github.com/north-cloud/webunpack/infrastructure/config"
	"github.com/north-cloud/webunpack/internal/store"
)

// Default configuration values.
const (
	defaultServiceName     = "webunpack"
	defaultAPIBaseURL      = "http://localhost:8000"
	defaultAPITimeout      = 30 * time.Second
	defaultHealthTimeout   = 5 * time.Second
	defaultDownloadTimeout = 10 * time.Minute
	defaultUserAgent       = "webunpack-cli"
	defaultAuthSkew        = 30 * time.Second
	defaultPollInterval    = 10 * time.Second
	defaultTickTimeout     = 30 * time.Second
	defaultGeneralPageCap  = 25
	defaultRetryAttempts   = 3
	defaultRetryInitial    = 200 * time.Millisecond
	defaultRetryMax        = 2 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second
	defaultDownloadDir     = "."
	defaultServerPort      = 8095
	defaultLoggingLevel    = "info"
	defaultLoggingFmt      = "console"
)

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is set.
const DefaultConfigPath = "config.yml"

// Config holds the application configuration.
type Config struct {
	API       APIConfig                 `yaml:"api"`
	Auth      AuthConfig                `yaml:"auth"`
	Polling   PollingConfig             `yaml:"polling"`
	Selection SelectionConfig           `yaml:"selection"`
	Retry     RetryConfig               `yaml:"retry"`
	Breaker   BreakerConfig             `yaml:"breaker"`
	Download  DownloadConfig            `yaml:"download"`
	Store     store.Config              `yaml:"store"`
	Server    infraconfig.ServerConfig  `yaml:"server"`
	Logging   infraconfig.LoggingConfig `yaml:"logging"`
}

// APIConfig points at the export backend.
type APIConfig struct {
	BaseURL         string        `env:"WEBUNPACK_API_URL"     yaml:"base_url"`
	Timeout         time.Duration `env:"WEBUNPACK_API_TIMEOUT" yaml:"timeout"`
	HealthTimeout   time.Duration `yaml:"health_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	UserAgent       string        `yaml:"user_agent"`
}

// AuthConfig supplies the bearer token.
type AuthConfig struct {
	Token string `env:"WEBUNPACK_API_TOKEN" yaml:"token"`
	// Skew rejects JWTs this close to expiry before they are sent.
	Skew time.Duration `yaml:"skew"`
}

// PollingConfig tunes the job status loop.
type PollingConfig struct {
	Interval time.Duration `env:"WEBUNPACK_POLL_INTERVAL" yaml:"interval"`
	// MaxDuration stops polling after this long. Zero polls until a terminal status.
	MaxDuration time.Duration `yaml:"max_duration"`
	TickTimeout time.Duration `yaml:"tick_timeout"`
}

// SelectionConfig bounds page selection.
type SelectionConfig struct {
	GeneralPageCap int `yaml:"general_page_cap"`
}

// RetryConfig applies to idempotent backend reads.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	// FailureThreshold consecutive outages open the circuit.
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// DownloadConfig controls where exports are written.
type DownloadConfig struct {
	Dir string `env:"WEBUNPACK_DOWNLOAD_DIR" yaml:"dir"`
}

// Load loads configuration from the specified path. A missing file is fine.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// Default returns a Config with every default applied and no file or
// environment input.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setAPIDefaults(&cfg.API)
	setAuthDefaults(&cfg.Auth)
	setPollingDefaults(&cfg.Polling)
	setSelectionDefaults(&cfg.Selection)
	setRetryDefaults(&cfg.Retry)
	setBreakerDefaults(&cfg.Breaker)
	setDownloadDefaults(&cfg.Download)
	setStoreDefaults(&cfg.Store)
	cfg.Server.SetDefaults(defaultServerPort)
	setLoggingDefaults(&cfg.Logging)
}

func setAPIDefaults(api *APIConfig) {
	if api.BaseURL == "" {
		api.BaseURL = defaultAPIBaseURL
	}
	if api.Timeout == 0 {
		api.Timeout = defaultAPITimeout
	}
	if api.HealthTimeout == 0 {
		api.HealthTimeout = defaultHealthTimeout
	}
	if api.DownloadTimeout == 0 {
		api.DownloadTimeout = defaultDownloadTimeout
	}
	if api.UserAgent == "" {
		api.UserAgent = defaultUserAgent
	}
}

func setAuthDefaults(a *AuthConfig) {
	if a.Skew == 0 {
		a.Skew = defaultAuthSkew
	}
}

func setPollingDefaults(p *PollingConfig) {
	if p.Interval == 0 {
		p.Interval = defaultPollInterval
	}
	if p.TickTimeout == 0 {
		p.TickTimeout = defaultTickTimeout
	}
}

func setSelectionDefaults(s *SelectionConfig) {
	if s.GeneralPageCap == 0 {
		s.GeneralPageCap = defaultGeneralPageCap
	}
}

func setRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = defaultRetryAttempts
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = defaultRetryInitial
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = defaultRetryMax
	}
}

func setBreakerDefaults(b *BreakerConfig) {
	if b.FailureThreshold == 0 {
		b.FailureThreshold = defaultBreakerFailures
	}
	if b.OpenTimeout == 0 {
		b.OpenTimeout = defaultBreakerOpen
	}
}

func setDownloadDefaults(d *DownloadConfig) {
	if d.Dir == "" {
		d.Dir = defaultDownloadDir
	}
}

func setStoreDefaults(s *store.Config) {
	if s.Driver == "" {
		s.Driver = store.DriverFile
	}
	if s.Driver == store.DriverFile && s.Path == "" {
		s.Path = store.DefaultPath()
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = store.DefaultKeyPrefix
	}
}

func setLoggingDefaults(log *infraconfig.LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidateHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("api.timeout", c.API.Timeout); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("polling.interval", c.Polling.Interval); err != nil {
		return err
	}
	if c.Polling.MaxDuration < 0 {
		return &infraconfig.ValidationError{Field: "polling.max_duration", Message: "must not be negative"}
	}
	if c.Breaker.FailureThreshold < 1 {
		return &infraconfig.ValidationError{Field: "breaker.failure_threshold", Message: "must be at least 1"}
	}
	if c.Selection.GeneralPageCap < 1 {
		return &infraconfig.ValidationError{Field: "selection.general_page_cap", Message: "must be at least 1"}
	}
	if err := infraconfig.ValidateOneOf("store.driver", c.Store.Driver,
		store.DriverFile, store.DriverMemory, store.DriverRedis); err != nil {
		return err
	}
	if c.Store.Driver == store.DriverRedis {
		if err := infraconfig.ValidateRequired("store.redis.address", c.Store.Redis.Address); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// ServiceName is reported by /health and used as the logger name.
func (c *Config) ServiceName() string {
	return defaultServiceName
}
