// Package http builds the outbound HTTP clients used to reach the export backend.
package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds standard backend calls.
	DefaultTimeout = 30 * time.Second

	// DefaultHealthTimeout bounds the liveness probe.
	DefaultHealthTimeout = 5 * time.Second

	DefaultMaxIdleConns        = 20
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// ClientConfig configures an HTTP client.
type ClientConfig struct {
	// Timeout is the overall per-request limit. Zero means DefaultTimeout.
	Timeout time.Duration

	// UserAgent, if set, is sent on every request that does not carry one.
	UserAgent string

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration

	// Transport overrides the base transport; tests use it to inject failures.
	Transport http.RoundTripper
}

// NewClient creates an HTTP client with standardized transport settings.
// Every request gets an X-Request-ID unless the caller already set one.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := orDuration(cfg.Timeout, DefaultTimeout)

	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        orInt(cfg.MaxIdleConns, DefaultMaxIdleConns),
			MaxIdleConnsPerHost: orInt(cfg.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost),
			IdleConnTimeout:     orDuration(cfg.IdleConnTimeout, DefaultIdleConnTimeout),
			TLSHandshakeTimeout: orDuration(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
		}
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base:      base,
			userAgent: cfg.UserAgent,
		},
	}
}

// headerTransport stamps correlation and identification headers on outgoing requests.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	needsID := req.Header.Get(HeaderRequestID) == ""
	needsUA := t.userAgent != "" && req.Header.Get("User-Agent") == ""
	if !needsID && !needsUA {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	if needsID {
		clone.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if needsUA {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(clone)
}

func orDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
