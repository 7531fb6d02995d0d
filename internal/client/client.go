// Package client talks to the export backend. Every failure it returns is an
// *APIError carrying a Kind, so callers never classify errors from text.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/north-cloud/webunpack/infrastructure/circuitbreaker"
	infracontext "github.com/north-cloud/webunpack/infrastructure/context"
	infraerrors "github.com/north-cloud/webunpack/infrastructure/errors"
	infrahttp "github.com/north-cloud/webunpack/infrastructure/http"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/infrastructure/retry"
	"github.com/north-cloud/webunpack/internal/auth"
)

// DefaultDownloadTimeout bounds artifact downloads, which can be large.
const DefaultDownloadTimeout = 10 * time.Minute

// ErrBaseURLRequired is returned by New when no backend URL is configured.
var ErrBaseURLRequired = errors.New("backend base URL is required")

// Operation names, used as error ops and metric labels.
const (
	opDiscoverPages    = "discover-pages"
	opScrape           = "scrape"
	opJobStatus        = "job-status"
	opDownload         = "download"
	opMyJobs           = "my-jobs"
	opMe               = "me"
	opContact          = "contact"
	opFeedback         = "feedback"
	opMySubmissions    = "my-submissions"
	opWaitlist         = "waitlist"
	opHealth           = "health"
	opReactifyDiscover = "reactify-discover"
	opReactifyConvert  = "reactify-convert"
	opReactifyStatus   = "reactify-status"
	opReactifyDownload = "reactify-download"
)

// Options configures a Client.
type Options struct {
	BaseURL string

	// Tokens supplies the bearer token for authenticated endpoints.
	Tokens auth.TokenProvider

	// HTTPClient overrides the default transport; tests point it at httptest.
	HTTPClient *http.Client

	Logger  logger.Logger
	Metrics *metrics.Recorder

	// Retry applies to idempotent reads only.
	Retry retry.Config

	// Breaker, when set, fails calls fast while the backend keeps failing.
	// Only Temporary errors count against it.
	Breaker *circuitbreaker.Breaker

	Timeout         time.Duration
	HealthTimeout   time.Duration
	DownloadTimeout time.Duration
	UserAgent       string
}

// Client is the backend API client. It is safe for concurrent use.
type Client struct {
	baseURL         string
	http            *http.Client
	tokens          auth.TokenProvider
	log             logger.Logger
	metrics         *metrics.Recorder
	retry           retry.Config
	breaker         *circuitbreaker.Breaker
	timeout         time.Duration
	healthTimeout   time.Duration
	downloadTimeout time.Duration
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", opts.BaseURL)
	}

	c := &Client{
		baseURL:         base,
		http:            opts.HTTPClient,
		tokens:          opts.Tokens,
		log:             opts.Logger,
		metrics:         opts.Metrics,
		retry:           opts.Retry,
		breaker:         opts.Breaker,
		timeout:         opts.Timeout,
		healthTimeout:   opts.HealthTimeout,
		downloadTimeout: opts.DownloadTimeout,
	}
	if c.timeout <= 0 {
		c.timeout = infrahttp.DefaultTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = infrahttp.DefaultHealthTimeout
	}
	if c.downloadTimeout <= 0 {
		c.downloadTimeout = DefaultDownloadTimeout
	}
	if c.tokens == nil {
		c.tokens = auth.Static("")
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	if c.http == nil {
		// Per-call contexts enforce the shorter limits; the client-wide
		// timeout only has to admit the slowest call.
		c.http = infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:   c.downloadTimeout,
			UserAgent: opts.UserAgent,
		})
	}
	return c, nil
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request.
type call struct {
	op      string
	method  string
	path    string
	body    any
	auth    bool
	timeout time.Duration
	// retried marks idempotent reads.
	retried bool
}

// doJSON performs k and decodes a JSON response body into T.
func doJSON[T any](ctx context.Context, c *Client, k call) (*T, error) {
	var out T
	err := c.do(ctx, k, func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return &APIError{
				Kind:       opKind(k.op),
				Op:         k.op,
				StatusCode: resp.StatusCode,
				Message:    "invalid response from server",
				Cause:      err,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// do runs k, retrying idempotent reads, and records metrics for the whole call.
func (c *Client) do(ctx context.Context, k call, handle func(*http.Response) error) error {
	if k.timeout <= 0 {
		k.timeout = c.timeout
	}

	var payload []byte
	if k.body != nil {
		var err error
		if payload, err = json.Marshal(k.body); err != nil {
			return fmt.Errorf("%s: marshal request: %w", k.op, err)
		}
	}

	var token string
	if k.auth {
		var err error
		if token, err = c.tokens.Token(ctx); err != nil {
			return authError(k.op, err)
		}
	}

	start := time.Now()
	attempt := func(ctx context.Context) error {
		return c.guard(k.op, func() error {
			return c.send(ctx, k, payload, token, handle)
		})
	}

	var err error
	if k.retried {
		err = retry.Do(ctx, c.retry, attempt)
		err = unwrapRetry(err)
	} else {
		err = attempt(ctx)
	}

	c.metrics.ObserveAPICall(k.op, err, time.Since(start))
	return err
}

// guard runs one attempt through the circuit breaker.
func (c *Client) guard(op string, fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	err := c.breaker.Do(fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return &APIError{Kind: KindNetwork, Op: op, Message: MsgBackendUnavailable, Cause: err}
	}
	return err
}

// IsBackendFailure reports whether err says the backend is unavailable
// rather than that the request was refused.
func IsBackendFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

// unwrapRetry surfaces the classified error from the last attempt so callers
// can match on *APIError regardless of retrying.
func unwrapRetry(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return err
}

func authError(op string, err error) error {
	msg := MsgNotAuthenticated
	if errors.Is(err, auth.ErrTokenExpired) {
		msg = "session expired"
	}
	return &APIError{Kind: KindUnauthorized, Op: op, Message: msg, Cause: err}
}

// send performs a single HTTP attempt.
func (c *Client) send(ctx context.Context, k call, payload []byte, token string, handle func(*http.Response) error) error {
	reqCtx, cancel := infracontext.WithTimeout(ctx, k.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, k.method, c.baseURL+k.path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", k.op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(infrahttp.HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("Backend request failed",
			logger.String("method", k.method),
			logger.String("path", k.path),
			logger.String("request_id", requestID),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err),
		)
		return transportError(ctx, k.op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("Backend request",
		logger.String("method", k.method),
		logger.String("path", k.path),
		logger.Int("status", resp.StatusCode),
		logger.String("request_id", requestID),
		logger.Duration("duration", time.Since(start)),
	)

	if parseErr := infraerrors.ParseHTTPError(resp); parseErr != nil {
		var httpErr *infraerrors.HTTPError
		if errors.As(parseErr, &httpErr) {
			return statusError(k.op, httpErr)
		}
		return parseErr
	}

	if err := handle(resp); err != nil {
		if reqCtx.Err() != nil {
			return transportError(ctx, k.op, err)
		}
		return err
	}
	return nil
}

// backendMessageError is returned for 2xx bodies reporting success:false.
func backendMessageError(op, message, fallback string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return &APIError{Kind: opKind(op), Op: op, Message: message}
}

// Health reports whether the backend answers GET /health with a 2xx within
// the health timeout. It never returns an error.
func (c *Client) Health(ctx context.Context) bool {
	err := c.do(ctx, call{
		op:      opHealth,
		method:  http.MethodGet,
		path:    "/health",
		timeout: c.healthTimeout,
	}, func(*http.Response) error { return nil })
	if err != nil {
		c.log.Debug("Backend health check failed", logger.Error(err))
		return false
	}
	return true
}

func pathID(prefix, id string) string {
	return prefix + url.PathEscape(id)
}
