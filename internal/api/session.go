package api

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/sse"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
)

// SessionHandler exposes one orchestrator over HTTP.
type SessionHandler struct {
	orch   *dashboard.Orchestrator
	broker sse.Broker
	log    logger.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(orch *dashboard.Orchestrator, broker sse.Broker, log logger.Logger) *SessionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionHandler{orch: orch, broker: broker, log: log}
}

// InputRequest is the body of POST /input.
type InputRequest struct {
	URL        string            `json:"url"`
	SiteType   string            `json:"site_type"`
	ScrapeMode domain.ScrapeMode `json:"scrape_mode"`
}

// ToggleRequest is the body of POST /pages/toggle.
type ToggleRequest struct {
	URL string `json:"url" binding:"required"`
}

// ToggleResponse reports the page's new selection state.
type ToggleResponse struct {
	Selected bool               `json:"selected"`
	Session  dashboard.Snapshot `json:"session"`
}

// SelectionRequest is the body of PUT /pages.
type SelectionRequest struct {
	URLs []string `json:"urls"`
}

// HistoryResponse is the body of GET /history.
type HistoryResponse struct {
	Jobs  []domain.ExportJob `json:"jobs"`
	Count int                `json:"count"`
}

func (h *SessionHandler) ok(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Snapshot())
}

// Get returns the current snapshot.
func (h *SessionHandler) Get(c *gin.Context) {
	h.ok(c)
}

// SetInput replaces the URL, platform and mode.
func (h *SessionHandler) SetInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.orch.SetInput(req.URL, req.SiteType, req.ScrapeMode); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Prefill seeds the setup step from url, type and mode query parameters.
func (h *SessionHandler) Prefill(c *gin.Context) {
	if err := h.orch.Prefill(c.Query("url"), c.Query("type"), c.Query("mode")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Validate runs the URL validator on the current input.
func (h *SessionHandler) Validate(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Validate())
}

// Submit leaves the setup step.
func (h *SessionHandler) Submit(c *gin.Context) {
	if err := h.orch.Submit(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// TogglePage flips one page's selection.
func (h *SessionHandler) TogglePage(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	selected, err := h.orch.TogglePage(req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Selected: selected, Session: h.orch.Snapshot()})
}

// SetSelection replaces the whole selection.
func (h *SessionHandler) SetSelection(c *gin.Context) {
	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.orch.SetSelection(req.URLs); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// ConfirmPages submits the selection.
func (h *SessionHandler) ConfirmPages(c *gin.Context) {
	if err := h.orch.ConfirmPages(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Back returns from page selection to setup.
func (h *SessionHandler) Back(c *gin.Context) {
	if err := h.orch.Back(); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Reset returns to setup and stops polling.
func (h *SessionHandler) Reset(c *gin.Context) {
	h.orch.Reset()
	h.ok(c)
}

// DismissError clears the error banner.
func (h *SessionHandler) DismissError(c *gin.Context) {
	h.orch.DismissError()
	h.ok(c)
}

// History returns the caller's jobs, fetched once per opening unless
// refresh=true.
func (h *SessionHandler) History(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	jobs, err := h.orch.History(c.Request.Context(), refresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	if jobs == nil {
		jobs = []domain.ExportJob{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Jobs: jobs, Count: len(jobs)})
}

// CloseHistory hides the history view.
func (h *SessionHandler) CloseHistory(c *gin.Context) {
	h.orch.CloseHistory()
	c.Status(http.StatusNoContent)
}

// Download streams the completed job's archive.
func (h *SessionHandler) Download(c *gin.Context) {
	snap := h.orch.Snapshot()
	if snap.Job == nil || snap.Job.Status != domain.StatusCompleted {
		h.fail(c, dashboard.ErrNoCompletedJob)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": snap.Job.Filename()}))

	if _, _, err := h.orch.Download(c.Request.Context(), c.Writer); err != nil {
		if c.Writer.Written() {
			h.log.Warn("Download interrupted", logger.JobID(snap.Job.ID), logger.Error(err))
			return
		}
		c.Header("Content-Type", "")
		c.Header("Content-Disposition", "")
		h.fail(c, err)
	}
}

// Events streams orchestrator events. The first event carries the current
// snapshot. ?types=job:status,error limits the stream to the listed types.
func (h *SessionHandler) Events(c *gin.Context) {
	if h.broker == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event stream disabled"})
		return
	}

	var opts []sse.ClientOption
	if types := eventTypes(c.Query("types")); len(types) > 0 {
		opts = append(opts, sse.WithTypes(types...))
	}
	sse.Handler(h.broker, h.log, func() any { return h.orch.Snapshot() }, opts...)(c)
}

func eventTypes(raw string) []string {
	var types []string
	for t := range strings.SplitSeq(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
