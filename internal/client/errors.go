package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"unicode"

	"github.com/north-cloud/webunpack/infrastructure/circuitbreaker"
	infraerrors "github.com/north-cloud/webunpack/infrastructure/errors"
	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/domain"
)

// Kind classifies a failed backend call.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindInvalidInput  Kind = "invalid_input"
	KindExtraction    Kind = "extraction"
	KindDownload      Kind = "download"
	KindDiscovery     Kind = "discovery"
	KindUnknown       Kind = "unknown"
)

// Backend-facing messages, kept for logs and wrapped errors.
const (
	MsgTimeout            = "Request timeout - please try again"
	MsgNetwork            = "Network error occurred"
	MsgBackendUnavailable = "backend unavailable, not retrying yet"
	MsgDownloadFailed     = "Download failed"
	MsgNotAuthenticated   = "Not authenticated"
	MsgDiscoverFailed     = "Failed to discover pages"
	MsgScrapeFailed       = "Scraping failed"
	MsgConvertFailed      = "Conversion failed"
	MsgJobFailed          = "The export process failed. Please try again."
)

var userMessages = map[Kind]string{
	KindNetwork:       "Unable to connect to the server. Please check your internet connection and try again.",
	KindTimeout:       "The request took too long to complete. Please try again.",
	KindUnauthorized:  "Your session has expired. Please sign in again.",
	KindForbidden:     "You don't have permission to perform this action.",
	KindNotFound:      "The requested resource was not found. Please check the URL and try again.",
	KindQuotaExceeded: "You've reached your usage limit. Please upgrade your plan to continue.",
	KindInvalidInput:  "The URL you entered is not valid. Please check and try again.",
	KindExtraction:    "We couldn't extract content from this website. It may be protected or temporarily unavailable.",
	KindDownload:      "There was an issue preparing your download. Please try again.",
	KindDiscovery:     "We couldn't find pages on this website. Please verify the URL is correct.",
	KindUnknown:       "Something went wrong. Please try again or contact support if the problem persists.",
}

// APIError is a classified backend failure.
type APIError struct {
	Kind       Kind
	Op         string
	StatusCode int
	// Message is the backend's own text. It is logged, never shown.
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return e.Op + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Temporary reports whether another attempt may succeed. A call rejected
// by the open circuit is not worth retrying until the breaker probes again.
func (e *APIError) Temporary() bool {
	if errors.Is(e.Cause, circuitbreaker.ErrOpen) {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	default:
		return e.StatusCode >= http.StatusInternalServerError
	}
}

// KindOf returns the kind of err. Form validation errors are invalid input;
// anything unclassified is KindUnknown.
func KindOf(err error) Kind {
	var apiErr *APIError
	var formErr *domain.FormError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Kind
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrTokenExpired):
		return KindUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &formErr):
		return KindInvalidInput
	default:
		return KindUnknown
	}
}

// UserMessage maps err to the fixed sentence shown to users. Raw backend
// text never reaches this output; local form errors are shown as written.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var formErr *domain.FormError
	if errors.As(err, &formErr) {
		return formErr.Message
	}
	if msg, ok := userMessages[KindOf(err)]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// MessageFor returns the user-facing sentence for kind.
func MessageFor(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// opKind is the kind used for server-side failures of op.
func opKind(op string) Kind {
	switch op {
	case opDiscoverPages, opReactifyDiscover:
		return KindDiscovery
	case opScrape, opReactifyConvert:
		return KindExtraction
	case opDownload, opReactifyDownload:
		return KindDownload
	default:
		return KindUnknown
	}
}

// statusError classifies a non-2xx response.
func statusError(op string, httpErr *infraerrors.HTTPError) *APIError {
	e := &APIError{
		Op:         op,
		StatusCode: httpErr.StatusCode,
		Message:    httpErr.Message,
		Cause:      httpErr,
	}

	switch code := httpErr.StatusCode; {
	case code == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case code == http.StatusForbidden:
		e.Kind = KindForbidden
		if mentionsQuota(httpErr.Message) {
			e.Kind = KindQuotaExceeded
		}
	case code == http.StatusPaymentRequired, code == http.StatusTooManyRequests:
		e.Kind = KindQuotaExceeded
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		e.Kind = KindInvalidInput
	case code == http.StatusNotFound:
		e.Kind = KindNotFound
	default:
		e.Kind = opKind(op)
	}
	return e
}

// transportError classifies a failure to get any response. Cancellation by
// the caller is returned as-is so it can be told apart from a timeout.
func transportError(parent context.Context, op string, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, parent.Err())
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Kind: KindTimeout, Op: op, Message: MsgTimeout, Cause: err}
	}
	return &APIError{Kind: KindNetwork, Op: op, Message: MsgNetwork, Cause: err}
}

func mentionsQuota(msg string) bool {
	return hasAnyPhrase(words(msg), "limit", "limits", "quota", "usage limit")
}

// jobFailureRules are checked in order against the words of a failed job's
// error_message. The bare word "file" deliberately has no rule.
var jobFailureRules = []struct {
	kind    Kind
	phrases []string
}{
	{KindNetwork, []string{"network", "fetch", "connection", "connect"}},
	{KindTimeout, []string{"timeout", "timed out", "timeouterror"}},
	{KindUnauthorized, []string{"unauthorized", "401"}},
	{KindForbidden, []string{"forbidden", "403"}},
	{KindNotFound, []string{"not found", "404"}},
	{KindQuotaExceeded, []string{"limit", "limits", "quota"}},
	{KindInvalidInput, []string{"invalid url", "malformed"}},
	{KindExtraction, []string{"scrape", "scraping", "scraper", "extract", "extraction", "extracting"}},
	{KindDownload, []string{"download", "downloading", "zip"}},
	{KindDiscovery, []string{"discover", "discovery", "pages"}},
}

// JobFailureKind classifies the free-text error_message of a failed job.
// Matching is on whole words; anything unrecognized is an extraction failure.
func JobFailureKind(msg string) Kind {
	w := words(msg)
	for _, rule := range jobFailureRules {
		if hasAnyPhrase(w, rule.phrases...) {
			return rule.kind
		}
	}
	return KindExtraction
}

// ClassifyJobFailure returns the user-facing sentence for a failed job.
func ClassifyJobFailure(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return MsgJobFailed
	}
	return userMessages[JobFailureKind(msg)]
}

// words lowercases s and pads its words with single spaces so phrases can
// be matched on word boundaries.
func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

func hasAnyPhrase(padded string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}
