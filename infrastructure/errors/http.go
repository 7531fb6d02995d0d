// Package errors parses error responses returned by the export backend.
package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	// Message is the backend's own explanation: detail, then message,
	// then "HTTP {code}: {text}".
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ParseHTTPError reads resp.Body and returns an *HTTPError for non-2xx
// responses, or nil otherwise. The caller still owns closing the body.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	fallback := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Message: fallback}
	}

	msg := MessageFromBody(body)
	if msg == "" {
		msg = fallback
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
		Message:    msg,
	}
}

// MessageFromBody extracts a human message from a JSON error body. It
// understands {"detail": "..."}, FastAPI validation lists
// {"detail": [{"msg": "..."}]}, and {"message": "..."}.
func MessageFromBody(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}

	if detail := detailText(payload.Detail); detail != "" {
		return detail
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// GetHTTPStatusCode extracts the status code from an *HTTPError.
func GetHTTPStatusCode(err error) (int, bool) {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode, true
	}
	return 0, false
}
