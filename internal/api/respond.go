package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/dashboard"
)

// ErrorResponse is the body of every failed session request. Session
// carries the state after the failure, including the error banner.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Kind    string              `json:"kind,omitempty"`
	Session *dashboard.Snapshot `json:"session,omitempty"`
}

var kindStatus = map[client.Kind]int{
	client.KindNetwork:       http.StatusBadGateway,
	client.KindTimeout:       http.StatusGatewayTimeout,
	client.KindUnauthorized:  http.StatusUnauthorized,
	client.KindForbidden:     http.StatusForbidden,
	client.KindNotFound:      http.StatusNotFound,
	client.KindQuotaExceeded: http.StatusTooManyRequests,
	client.KindInvalidInput:  http.StatusUnprocessableEntity,
}

// statusFor maps an orchestrator or backend error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrWrongStep),
		errors.Is(err, dashboard.ErrBusy),
		errors.Is(err, dashboard.ErrReset),
		errors.Is(err, dashboard.ErrHistoryLoading),
		errors.Is(err, dashboard.ErrNoCompletedJob):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrInvalidURL),
		errors.Is(err, dashboard.ErrInvalidMode),
		errors.Is(err, dashboard.ErrUnknownPage),
		errors.Is(err, dashboard.ErrNoPages),
		errors.Is(err, dashboard.ErrOverCap),
		errors.Is(err, dashboard.ErrSelectionFull):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrClosed):
		return http.StatusServiceUnavailable
	}

	if code, ok := kindStatus[client.KindOf(err)]; ok {
		return code
	}
	return http.StatusBadGateway
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) || client.KindOf(err) != client.KindUnknown {
		resp.Error = client.UserMessage(err)
		resp.Kind = string(client.KindOf(err))
	}

	snap := h.orch.Snapshot()
	resp.Session = &snap
	c.JSON(statusFor(err), resp)
}

func (h *SessionHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
}
