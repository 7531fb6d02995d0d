package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/north-cloud/webunpack/infrastructure/jwt"
	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/api"
	"github.com/north-cloud/webunpack/internal/auth"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
)

const framerURL = "https://acme.framer.website"

type fakeAPI struct {
	mu         sync.Mutex
	pages      []domain.DiscoveredPage
	scrapeErr  error
	tokens     []string
	status     domain.JobStatus
	historyErr error
}

func (f *fakeAPI) seen(ctx context.Context) {
	token, _ := auth.FromContext().Token(ctx)
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeAPI) DiscoverPages(ctx context.Context, _, _ string) ([]domain.DiscoveredPage, error) {
	f.seen(ctx)
	return f.pages, nil
}

func (f *fakeAPI) Scrape(ctx context.Context, _ domain.ExportRequest) (*domain.ScrapeResponse, error) {
	f.seen(ctx)
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return &domain.ScrapeResponse{Success: true, JobID: "j1"}, nil
}

func (f *fakeAPI) JobStatus(context.Context, string) (*domain.ExportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.ExportJob{Status: f.status}, nil
}

func (f *fakeAPI) MyJobs(ctx context.Context) ([]domain.ExportJob, error) {
	f.seen(ctx)
	return []domain.ExportJob{{ID: "j0", Status: domain.StatusCompleted}}, f.historyErr
}

func (f *fakeAPI) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "zipbytes")
	return int64(n), err
}

type chanTicker struct{ ch chan time.Time }

func (t chanTicker) C() <-chan time.Time { return t.ch }
func (t chanTicker) Stop()               {}

type fixture struct {
	router *gin.Engine
	orch   *dashboard.Orchestrator
	api    *fakeAPI
	tick   chan time.Time
	tokens *auth.Holder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		api:    &fakeAPI{status: domain.StatusCompleted},
		tick:   make(chan time.Time),
		tokens: &auth.Holder{},
	}
	f.orch = dashboard.New(dashboard.Options{
		API:       f.api,
		NewTicker: func(time.Duration) dashboard.Ticker { return chanTicker{ch: f.tick} },
	})
	t.Cleanup(f.orch.Close)

	f.router = gin.New()
	f.router.Use(jwt.BearerMiddleware(0))
	api.SetupRoutes(f.router, api.NewSessionHandler(f.orch, nil, logger.NewNop()), f.tokens)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer caller-token")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSession_SinglePageFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dashboard.StepSetup, decode[dashboard.Snapshot](t, w).Step)

	w = f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{
		URL: framerURL, SiteType: platform.Framer, ScrapeMode: domain.ModeSinglePage,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[dashboard.Snapshot](t, w)
	assert.Equal(t, dashboard.StepResult, snap.Step)
	require.NotNil(t, snap.Job)
	assert.True(t, snap.Polling)

	w = f.do(t, http.MethodGet, "/api/v1/session/download", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "download before completion")

	f.tick <- time.Now()
	require.Eventually(t, func() bool { return !f.orch.Snapshot().Polling }, time.Second, 5*time.Millisecond)

	w = f.do(t, http.MethodGet, "/api/v1/session/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zipbytes", w.Body.String())
	assert.Equal(t, `attachment; filename=exported_site_j1.zip`, w.Header().Get("Content-Disposition"))

	w = f.do(t, http.MethodPost, "/api/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dashboard.StepSetup, decode[dashboard.Snapshot](t, w).Step)
}

func TestSession_ForwardsCallerToken(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{URL: framerURL})
	f.do(t, http.MethodPost, "/api/v1/session/submit", nil)

	f.api.mu.Lock()
	tokens := append([]string(nil), f.api.tokens...)
	f.api.mu.Unlock()
	assert.Equal(t, []string{"caller-token"}, tokens)

	held, err := f.tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "caller-token", held)
}

func TestSession_ErrorStatuses(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{URL: "https://example.com", SiteType: platform.Framer})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[api.ErrorResponse](t, w)
	require.NotNil(t, resp.Session)
	assert.Equal(t, platform.MismatchMessage(platform.Framer), resp.Session.Error)

	w = f.do(t, http.MethodPost, "/api/v1/session/pages/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{URL: framerURL, ScrapeMode: "batch"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/session/pages/toggle", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.api.scrapeErr = &client.APIError{Kind: client.KindQuotaExceeded, Op: "scrape", StatusCode: http.StatusTooManyRequests}
	f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{URL: framerURL})
	w = f.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp = decode[api.ErrorResponse](t, w)
	assert.Equal(t, string(client.KindQuotaExceeded), resp.Kind)
	assert.Equal(t, client.MessageFor(client.KindQuotaExceeded), resp.Error)

	w = f.do(t, http.MethodDelete, "/api/v1/session/error", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dashboard.Snapshot](t, w).Error)
}

func TestSession_PageSelection(t *testing.T) {
	f := newFixture(t)
	for i := range 30 {
		f.api.pages = append(f.api.pages, domain.DiscoveredPage{URL: fmt.Sprintf("https://example.com/p%d", i)})
	}

	f.do(t, http.MethodPost, "/api/v1/session/input", api.InputRequest{
		URL: "https://example.com", SiteType: platform.General, ScrapeMode: domain.ModeMultiPage,
	})
	w := f.do(t, http.MethodPost, "/api/v1/session/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[dashboard.Snapshot](t, w)
	assert.Equal(t, dashboard.StepPageSelection, snap.Step)
	assert.Len(t, snap.Selected, dashboard.DefaultPageCap)

	w = f.do(t, http.MethodPost, "/api/v1/session/pages/toggle", api.ToggleRequest{URL: "https://example.com/p29"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/session/pages", api.SelectionRequest{URLs: []string{"https://example.com/p29"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/session/pages/toggle", api.ToggleRequest{URL: "https://example.com/p0"})
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[api.ToggleResponse](t, w)
	assert.True(t, toggled.Selected)
	assert.Equal(t, []string{"https://example.com/p29", "https://example.com/p0"}, toggled.Session.Selected)

	w = f.do(t, http.MethodPost, "/api/v1/session/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dashboard.StepSetup, decode[dashboard.Snapshot](t, w).Step)
}

func TestSession_PrefillAndValidate(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/session/prefill?url=https://shop.myshopify.com&type=shopify&mode=multi_page", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[dashboard.Snapshot](t, w)
	assert.Equal(t, platform.Shopify, snap.SiteType)
	assert.Equal(t, domain.ModeMultiPage, snap.Mode)

	w = f.do(t, http.MethodPost, "/api/v1/session/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[platform.Result](t, w)
	assert.False(t, result.Valid)
	assert.Equal(t, platform.MsgTestingWarning, result.Warning)
}

func TestSession_History(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/session/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[api.HistoryResponse](t, w)
	assert.Equal(t, 1, history.Count)

	w = f.do(t, http.MethodDelete, "/api/v1/session/history", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	f.api.historyErr = &client.APIError{Kind: client.KindUnauthorized, Op: "my-jobs", StatusCode: http.StatusUnauthorized}
	w = f.do(t, http.MethodGet, "/api/v1/session/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_EventsDisabledWithoutBroker(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/session/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
