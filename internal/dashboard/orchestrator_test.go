package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
	"github.com/north-cloud/webunpack/internal/store"
)

const (
	framerURL  = "https://acme.framer.website"
	generalURL = "https://example.com"
	waitFor    = 2 * time.Second
	pollEvery  = 5 * time.Millisecond
)

type statusReply struct {
	job *domain.ExportJob
	err error
}

// fakeAPI answers JobStatus from a channel so tests decide when each poll
// completes.
type fakeAPI struct {
	mu          sync.Mutex
	pages       []domain.DiscoveredPage
	discoverErr error
	scrapeErr   error
	scrapeReqs  []domain.ExportRequest
	jobs        []domain.ExportJob
	myJobsErr   error
	myJobsCalls int
	archive     string
	downloadErr error
	// historyGate, when set, holds MyJobs until it is closed.
	historyGate chan struct{}

	statuses chan statusReply
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{statuses: make(chan statusReply), archive: "PK-archive"}
}

func (f *fakeAPI) DiscoverPages(_ context.Context, _, _ string) ([]domain.DiscoveredPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages, f.discoverErr
}

func (f *fakeAPI) Scrape(_ context.Context, req domain.ExportRequest) (*domain.ScrapeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrapeReqs = append(f.scrapeReqs, req)
	if f.scrapeErr != nil {
		return nil, f.scrapeErr
	}
	return &domain.ScrapeResponse{Success: true, JobID: fmt.Sprintf("job-%d", len(f.scrapeReqs))}, nil
}

func (f *fakeAPI) JobStatus(ctx context.Context, _ string) (*domain.ExportJob, error) {
	select {
	case r := <-f.statuses:
		return r.job, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeAPI) MyJobs(_ context.Context) ([]domain.ExportJob, error) {
	f.mu.Lock()
	f.myJobsCalls++
	jobs, err, gate := f.jobs, f.myJobsErr, f.historyGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return jobs, err
}

func (f *fakeAPI) setHistory(jobs []domain.ExportJob, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = jobs
	f.historyGate = gate
}

func (f *fakeAPI) Download(_ context.Context, _ string, w io.Writer) (int64, error) {
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	n, err := io.WriteString(w, f.archive)
	return int64(n), err
}

func (f *fakeAPI) requests() []domain.ExportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ExportRequest(nil), f.scrapeReqs...)
}

func (f *fakeAPI) historyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.myJobsCalls
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

// tickerFactory records every ticker the orchestrator creates.
type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

type harness struct {
	o       *Orchestrator
	api     *fakeAPI
	tickers *tickerFactory
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{api: newFakeAPI(), tickers: &tickerFactory{}}
	opts := Options{API: h.api, NewTicker: h.tickers.New}
	if mutate != nil {
		mutate(&opts)
	}
	h.o = New(opts)
	t.Cleanup(h.o.Close)
	return h
}

// tick fires the current ticker and answers the resulting status request.
// Sending blocks until the loop is idle, so a tick also proves the previous
// one was fully applied.
func (h *harness) tick(t *testing.T, status domain.JobStatus, errMsg string) {
	t.Helper()
	h.tickers.last().ch <- time.Now()
	h.api.statuses <- statusReply{job: &domain.ExportJob{Status: status, ErrorMessage: errMsg}}
}

func (h *harness) tickErr(t *testing.T, err error) {
	t.Helper()
	h.tickers.last().ch <- time.Now()
	h.api.statuses <- statusReply{err: err}
}

func (h *harness) submitSingle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.o.SetInput(framerURL, platform.Framer, domain.ModeSinglePage))
	require.NoError(t, h.o.Submit(context.Background()))
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return !h.o.Snapshot().Polling }, waitFor, pollEvery)
}

func pages(n int) []domain.DiscoveredPage {
	out := make([]domain.DiscoveredPage, n)
	for i := range out {
		out[i] = domain.DiscoveredPage{URL: fmt.Sprintf("%s/p%d", generalURL, i), Title: fmt.Sprintf("Page %d", i)}
	}
	return out
}

func TestNew_StartsInSetup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	snap := h.o.Snapshot()

	assert.Equal(t, StepSetup, snap.Step)
	assert.Equal(t, platform.DefaultKey, snap.SiteType)
	assert.Equal(t, domain.DefaultMode, snap.Mode)
	assert.Nil(t, snap.Job)
	assert.False(t, snap.Polling)
	assert.Zero(t, snap.SelectionCap)
}

func TestSubmit_SinglePageGoesStraightToResult(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)

	snap := h.o.Snapshot()
	assert.Equal(t, StepResult, snap.Step)
	require.NotNil(t, snap.Job)
	assert.Equal(t, "job-1", snap.Job.ID)
	assert.Equal(t, domain.StatusPending, snap.Job.Status)
	assert.True(t, snap.Polling)
	assert.Equal(t, 1, h.tickers.count())

	reqs := h.api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ExportRequest{URL: framerURL, SiteType: platform.Framer, ScrapeMode: domain.ModeSinglePage}, reqs[0])
}

func TestSubmit_InvalidURLNeverCallsBackend(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.o.SetInput("https://example.com", platform.Framer, domain.ModeSinglePage))

	err := h.o.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidURL)

	snap := h.o.Snapshot()
	assert.Equal(t, StepSetup, snap.Step)
	assert.Equal(t, platform.MismatchMessage(platform.Framer), snap.Error)
	assert.Empty(t, h.api.requests())
}

func TestSubmit_ScrapeErrorStaysInSetup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.scrapeErr = &client.APIError{Kind: client.KindQuotaExceeded, Op: "scrape", StatusCode: 429}
	require.NoError(t, h.o.SetInput(framerURL, platform.Framer, domain.ModeSinglePage))

	err := h.o.Submit(context.Background())
	require.Error(t, err)

	snap := h.o.Snapshot()
	assert.Equal(t, StepSetup, snap.Step)
	assert.Equal(t, client.MessageFor(client.KindQuotaExceeded), snap.Error)
	assert.False(t, snap.Loading)
	assert.Zero(t, h.tickers.count())
}

func TestSetInput_ClearsErrorAndRevalidates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.o.SetInput("not a url", platform.Framer, ""))
	require.Error(t, h.o.Submit(context.Background()))
	require.NotEmpty(t, h.o.Snapshot().Error)

	require.NoError(t, h.o.SetInput(framerURL, "", ""))
	snap := h.o.Snapshot()
	assert.Empty(t, snap.Error)
	require.NotNil(t, snap.Validation)
	assert.True(t, snap.Validation.Valid)

	require.NoError(t, h.o.SetInput("", "", ""))
	assert.Nil(t, h.o.Snapshot().Validation)

	require.ErrorIs(t, h.o.SetInput(framerURL, "", "batch"), ErrInvalidMode)
}

func TestPrefill_IgnoresUnknownValues(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.o.Prefill(" https://shop.example.com ", "GENERAL", "bogus"))

	snap := h.o.Snapshot()
	assert.Equal(t, "https://shop.example.com", snap.URL)
	assert.Equal(t, platform.General, snap.SiteType)
	assert.Equal(t, domain.DefaultMode, snap.Mode)

	require.NoError(t, h.o.Prefill(framerURL, "myspace", string(domain.ModeMultiPage)))
	snap = h.o.Snapshot()
	assert.Equal(t, platform.General, snap.SiteType)
	assert.Equal(t, domain.ModeMultiPage, snap.Mode)
}

func TestPolling_SingleSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)

	assert.False(t, h.o.StartPolling(), "second start must be a no-op")
	assert.False(t, h.o.StartPolling())
	assert.Equal(t, 1, h.tickers.count())
}

func TestPolling_CompletionStopsSession(t *testing.T) {
	t.Parallel()

	reg := metrics.New(nil)
	h := newHarness(t, func(o *Options) { o.Metrics = reg })
	h.submitSingle(t)

	h.tick(t, domain.StatusProcessing, "")
	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)

	job, err := h.o.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Empty(t, h.o.Snapshot().Error)

	select {
	case h.tickers.last().ch <- time.Now():
		t.Fatal("loop still receiving ticks after completion")
	case <-time.After(20 * time.Millisecond):
	}
	assert.False(t, h.o.StartPolling(), "terminal jobs are not polled again")
}

func TestPolling_IgnoresStatusRegression(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)

	h.tick(t, domain.StatusProcessing, "")
	h.tick(t, domain.StatusPending, "")
	h.tick(t, domain.StatusProcessing, "")

	snap := h.o.Snapshot()
	require.NotNil(t, snap.Job)
	assert.Equal(t, domain.StatusProcessing, snap.Job.Status)
	assert.True(t, snap.Polling)
}

func TestPolling_IgnoresUnrecognizedStatus(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)

	h.tick(t, domain.JobStatus(""), "")
	h.tick(t, domain.JobStatus("queued"), "")
	h.tick(t, domain.StatusPending, "")

	snap := h.o.Snapshot()
	require.NotNil(t, snap.Job)
	assert.Equal(t, domain.StatusPending, snap.Job.Status)
	assert.True(t, snap.Polling)
	assert.Empty(t, snap.Error)

	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)
	assert.Equal(t, domain.StatusCompleted, h.o.Snapshot().Job.Status)
}

func TestPolling_ErrorKeepsPolling(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)

	h.tickErr(t, &client.APIError{Kind: client.KindNetwork, Op: "job-status"})
	require.Eventually(t, func() bool {
		return h.o.Snapshot().Error == client.MessageFor(client.KindNetwork)
	}, waitFor, pollEvery)
	assert.True(t, h.o.Snapshot().Polling)

	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)
	assert.Equal(t, domain.StatusCompleted, h.o.Snapshot().Job.Status)
	assert.Equal(t, 1, h.tickers.count())
}

func TestPolling_FailedJobTranslatesMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend string
		want    string
	}{
		{name: "timeout", backend: "TimeoutError: page load timed out", want: client.MessageFor(client.KindTimeout)},
		{name: "quota", backend: "Monthly quota reached", want: client.MessageFor(client.KindQuotaExceeded)},
		{name: "unrecognized", backend: "Traceback (most recent call last)", want: client.MessageFor(client.KindExtraction)},
		{name: "empty", backend: "", want: client.MsgJobFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, nil)
			h.submitSingle(t)
			h.tick(t, domain.StatusFailed, tt.backend)
			h.waitIdle(t)

			snap := h.o.Snapshot()
			require.NotNil(t, snap.Job)
			assert.Equal(t, domain.StatusFailed, snap.Job.Status)
			assert.Equal(t, tt.want, snap.Job.ErrorMessage)
			assert.Equal(t, tt.want, snap.Error)
		})
	}
}

func TestPolling_MaxDurationEndsSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) { o.MaxDuration = 20 * time.Millisecond })
	h.submitSingle(t)
	h.waitIdle(t)

	snap := h.o.Snapshot()
	assert.Equal(t, MsgPollingExpired, snap.Error)
	assert.Equal(t, domain.StatusPending, snap.Job.Status)
}

func TestReset_StopsPollingAndClears(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)
	h.o.Reset()

	snap := h.o.Snapshot()
	assert.Equal(t, StepSetup, snap.Step)
	assert.Empty(t, snap.URL)
	assert.Nil(t, snap.Job)
	assert.Nil(t, snap.Validation)
	assert.False(t, snap.Polling)
	assert.Equal(t, platform.Framer, snap.SiteType, "platform survives reset")

	_, err := h.o.Wait(context.Background())
	require.ErrorIs(t, err, ErrNoActiveSession)

	h.submitSingle(t)
	assert.Equal(t, 2, h.tickers.count())
	assert.True(t, h.o.Snapshot().Polling)
}

func TestMultiPage_GeneralCap(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.pages = pages(40)
	require.NoError(t, h.o.SetInput(generalURL, platform.General, domain.ModeMultiPage))
	require.NoError(t, h.o.Submit(context.Background()))

	snap := h.o.Snapshot()
	require.Equal(t, StepPageSelection, snap.Step)
	assert.Len(t, snap.Pages, 40)
	assert.Len(t, snap.Selected, DefaultPageCap)
	assert.Equal(t, DefaultPageCap, snap.SelectionCap)
	assert.Equal(t, h.api.pages[0].URL, snap.Selected[0])

	extra := h.api.pages[30].URL
	selected, err := h.o.TogglePage(extra)
	require.ErrorIs(t, err, ErrSelectionFull)
	assert.False(t, selected)
	assert.Len(t, h.o.Snapshot().Selected, DefaultPageCap)

	selected, err = h.o.TogglePage(h.api.pages[0].URL)
	require.NoError(t, err)
	assert.False(t, selected)

	selected, err = h.o.TogglePage(extra)
	require.NoError(t, err)
	assert.True(t, selected)
	assert.Len(t, h.o.Snapshot().Selected, DefaultPageCap)

	_, err = h.o.TogglePage("https://elsewhere.test/")
	require.ErrorIs(t, err, ErrUnknownPage)

	require.NoError(t, h.o.ConfirmPages(context.Background()))
	reqs := h.api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.ModeMultiPage, reqs[0].ScrapeMode)
	assert.Len(t, reqs[0].SelectedPages, DefaultPageCap)
	assert.Equal(t, extra, reqs[0].SelectedPages[DefaultPageCap-1])
	assert.Equal(t, StepResult, h.o.Snapshot().Step)
}

func TestMultiPage_ConfirmGuards(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.pages = pages(30)
	require.NoError(t, h.o.SetInput(generalURL, platform.General, domain.ModeMultiPage))
	require.NoError(t, h.o.Submit(context.Background()))

	require.NoError(t, h.o.SetSelection(nil))
	require.ErrorIs(t, h.o.ConfirmPages(context.Background()), ErrNoPages)
	assert.Equal(t, MsgNoPagesSelected, h.o.Snapshot().Error)

	// Force an over-cap selection the toggles would never allow.
	h.o.mu.Lock()
	for _, p := range h.api.pages {
		h.o.selected = append(h.o.selected, p.URL)
	}
	h.o.mu.Unlock()

	require.ErrorIs(t, h.o.ConfirmPages(context.Background()), ErrOverCap)
	snap := h.o.Snapshot()
	assert.Equal(t, 5, snap.OverCap())
	assert.Equal(t, OverCapMessage(DefaultPageCap, 5), snap.Error)
	assert.Contains(t, snap.Error, "Please deselect 5 pages.")
	assert.Empty(t, h.api.requests())
}

func TestMultiPage_NonGeneralSelectsAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.pages = pages(40)
	require.NoError(t, h.o.SetInput(framerURL, platform.Framer, domain.ModeMultiPage))
	require.NoError(t, h.o.Submit(context.Background()))

	snap := h.o.Snapshot()
	assert.Len(t, snap.Selected, 40)
	assert.Zero(t, snap.SelectionCap)

	require.NoError(t, h.o.Back())
	snap = h.o.Snapshot()
	assert.Equal(t, StepSetup, snap.Step)
	assert.Empty(t, snap.Pages)
	assert.Equal(t, framerURL, snap.URL)
}

func TestMultiPage_DiscoveryError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.discoverErr = &client.APIError{Kind: client.KindDiscovery, Op: "discover-pages"}
	require.NoError(t, h.o.SetInput(framerURL, platform.Framer, domain.ModeMultiPage))

	require.Error(t, h.o.Submit(context.Background()))
	snap := h.o.Snapshot()
	assert.Equal(t, StepSetup, snap.Step)
	assert.Equal(t, client.MessageFor(client.KindDiscovery), snap.Error)
}

func TestSubmit_CanceledCallerLeavesNoBanner(t *testing.T) {
	t.Parallel()

	canceled := fmt.Errorf("scrape: %w", context.Canceled)
	tests := []struct {
		name    string
		mode    domain.ScrapeMode
		siteURL string
		site    string
		set     func(*fakeAPI)
	}{
		{"single page", domain.ModeSinglePage, framerURL, platform.Framer, func(f *fakeAPI) { f.scrapeErr = canceled }},
		{"discovery", domain.ModeMultiPage, generalURL, platform.General, func(f *fakeAPI) { f.discoverErr = canceled }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, nil)
			tt.set(h.api)
			require.NoError(t, h.o.SetInput(tt.siteURL, tt.site, tt.mode))

			err := h.o.Submit(context.Background())
			require.ErrorIs(t, err, context.Canceled)

			snap := h.o.Snapshot()
			assert.Equal(t, StepSetup, snap.Step)
			assert.Empty(t, snap.Error)
			assert.False(t, snap.Loading)
		})
	}
}

func TestWrongStep(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	_, err := h.o.TogglePage(generalURL)
	require.ErrorIs(t, err, ErrWrongStep)
	require.ErrorIs(t, h.o.ConfirmPages(context.Background()), ErrWrongStep)
	require.ErrorIs(t, h.o.Back(), ErrWrongStep)

	h.submitSingle(t)
	require.ErrorIs(t, h.o.SetInput(framerURL, "", ""), ErrWrongStep)
	require.ErrorIs(t, h.o.Submit(context.Background()), ErrWrongStep)
}

func TestHistory_FetchOnceAndRefreshOnCompletion(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.jobs = []domain.ExportJob{{ID: "old", Status: domain.StatusCompleted}}

	jobs, err := h.o.History(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	_, err = h.o.History(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, h.api.historyCalls())

	h.submitSingle(t)
	h.tick(t, domain.StatusCompleted, "")
	require.Eventually(t, func() bool {
		h.o.mu.Lock()
		defer h.o.mu.Unlock()
		return h.o.historyLoaded && !h.o.historyLoading && h.api.historyCalls() == 2
	}, waitFor, pollEvery)

	h.o.CloseHistory()
	_, err = h.o.History(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, h.api.historyCalls())
}

func TestHistory_ClosedViewIsNotRefreshed(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.submitSingle(t)
	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)
	h.o.Close()

	assert.Zero(t, h.api.historyCalls())
}

func TestHistory_CloseDiscardsInFlightFetch(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	gate := make(chan struct{})
	h.api.setHistory([]domain.ExportJob{{ID: "stale", Status: domain.StatusCompleted}}, gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.o.History(context.Background(), false)
	}()
	require.Eventually(t, func() bool { return h.api.historyCalls() == 1 }, waitFor, pollEvery)

	h.o.CloseHistory()
	h.api.setHistory([]domain.ExportJob{{ID: "fresh", Status: domain.StatusCompleted}}, nil)
	close(gate)
	<-done

	jobs, err := h.o.History(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "fresh", jobs[0].ID)
	assert.Equal(t, 2, h.api.historyCalls())
}

func TestHistory_CachedListDuringRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.setHistory([]domain.ExportJob{{ID: "old", Status: domain.StatusCompleted}}, nil)
	_, err := h.o.History(context.Background(), false)
	require.NoError(t, err)

	gate := make(chan struct{})
	h.api.setHistory([]domain.ExportJob{{ID: "new", Status: domain.StatusCompleted}}, gate)
	h.submitSingle(t)
	h.tick(t, domain.StatusCompleted, "")
	require.Eventually(t, func() bool { return h.api.historyCalls() == 2 }, waitFor, pollEvery)

	for _, refresh := range []bool{false, true} {
		jobs, err := h.o.History(context.Background(), refresh)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "old", jobs[0].ID)
	}
	assert.Equal(t, 2, h.api.historyCalls())

	close(gate)
	require.Eventually(t, func() bool {
		jobs, err := h.o.History(context.Background(), false)
		return err == nil && len(jobs) == 1 && jobs[0].ID == "new"
	}, waitFor, pollEvery)
}

func TestHistory_ErrorSurfaces(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.api.myJobsErr = &client.APIError{Kind: client.KindUnauthorized, Op: "my-jobs", StatusCode: 401}

	_, err := h.o.History(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, client.MessageFor(client.KindUnauthorized), h.o.Snapshot().Error)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(o *Options) { o.Store = store.NewMemory() })

	var buf bytes.Buffer
	_, _, err := h.o.Download(context.Background(), &buf)
	require.ErrorIs(t, err, ErrNoCompletedJob)

	h.submitSingle(t)
	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)

	name, n, err := h.o.Download(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "exported_site_job-1.zip", name)
	assert.Equal(t, int64(len(h.api.archive)), n)
	assert.Equal(t, h.api.archive, buf.String())

	dir := t.TempDir()
	path, err := h.o.DownloadTo(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exported_site_job-1.zip"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, h.api.archive, string(data))
}

func TestSubmit_RecordsLastJob(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	h := newHarness(t, func(o *Options) { o.Store = st })
	h.submitSingle(t)

	id, err := st.Get(context.Background(), store.KeyLastJob)
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)
}

func TestSaveFile_RemovesPartialOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	boom := errors.New("stream cut")
	_, err := SaveFile(dir, "x.zip", func(w io.Writer) (int64, error) {
		_, _ = io.WriteString(w, "partial")
		return 7, boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWatch_FollowsExistingJob(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	require.NoError(t, h.o.Watch("abc"))
	assert.Equal(t, StepResult, h.o.Snapshot().Step)

	h.tick(t, domain.StatusCompleted, "")
	job, err := h.o.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", job.ID)
	assert.Equal(t, domain.StatusCompleted, job.Status)

	require.Error(t, h.o.Watch(" "))
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	events, cancel := h.o.Subscribe(64)
	defer cancel()

	h.submitSingle(t)
	h.tick(t, domain.StatusCompleted, "")
	h.waitIdle(t)

	var sawState, sawJob bool
	for !sawJob {
		select {
		case ev := <-events:
			switch ev.Type {
			case EventState:
				sawState = sawState || (ev.Snapshot != nil && ev.Snapshot.Step == StepResult)
			case EventJobStatus:
				sawJob = ev.Job.Status == domain.StatusCompleted
			}
		case <-time.After(waitFor):
			t.Fatal("no job event")
		}
	}
	assert.True(t, sawState)

	h.o.Close()
	for range events {
	}
}

func TestStep_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "setup", StepSetup.String())
	assert.Equal(t, "page-selection", StepPageSelection.String())
	assert.Equal(t, "result", StepResult.String())
	assert.True(t, strings.HasPrefix(Step(9).String(), "step("))

	for _, step := range []Step{StepSetup, StepPageSelection, StepResult} {
		data, err := json.Marshal(Snapshot{Step: step})
		require.NoError(t, err)

		var got Snapshot
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, step, got.Step)
	}

	var s Step
	require.Error(t, s.UnmarshalText([]byte("checkout")))
}
