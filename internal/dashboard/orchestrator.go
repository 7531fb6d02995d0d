// Package dashboard implements the export workflow state machine: input and
// validation, page discovery and selection, job submission, and the single
// polling session that follows a job to completion.
package dashboard

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/infrastructure/metrics"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
	"github.com/north-cloud/webunpack/internal/store"
)

// Defaults.
const (
	DefaultInterval    = 10 * time.Second
	DefaultTickTimeout = 30 * time.Second
	DefaultPageCap     = 25

	historyRefreshTimeout = 30 * time.Second
)

// Errors returned by workflow operations. Each also sets the user-facing
// error banner where it makes sense.
var (
	ErrWrongStep       = errors.New("operation not allowed in the current step")
	ErrBusy            = errors.New("another request is in progress")
	ErrInvalidURL      = errors.New("url failed validation")
	ErrUnknownPage     = errors.New("page was not discovered")
	ErrNoPages         = errors.New("no pages selected")
	ErrOverCap         = errors.New("too many pages selected")
	ErrReset           = errors.New("workflow was reset")
	ErrNoCompletedJob  = errors.New("no completed job to download")
	ErrHistoryLoading  = errors.New("history is already loading")
	ErrClosed          = errors.New("orchestrator is closed")
	ErrNoActiveSession = errors.New("no job to poll")
)

// API is the part of the backend client the orchestrator drives.
type API interface {
	DiscoverPages(ctx context.Context, siteURL, siteType string) ([]domain.DiscoveredPage, error)
	Scrape(ctx context.Context, req domain.ExportRequest) (*domain.ScrapeResponse, error)
	JobStatus(ctx context.Context, jobID string) (*domain.ExportJob, error)
	MyJobs(ctx context.Context) ([]domain.ExportJob, error)
	Download(ctx context.Context, jobID string, w io.Writer) (int64, error)
}

// Options configures an Orchestrator.
type Options struct {
	API     API
	Logger  logger.Logger
	Metrics *metrics.Recorder

	// Store, when set, records the last submitted job id.
	Store store.Store

	Interval time.Duration
	// MaxDuration ends a polling session that has not reached a terminal
	// status. Zero polls indefinitely.
	MaxDuration time.Duration
	TickTimeout time.Duration
	PageCap     int

	// NewTicker replaces time.NewTicker in tests.
	NewTicker TickerFunc
}

// Orchestrator owns one dashboard session. All methods are safe for
// concurrent use; state changes are serialized by a single mutex.
type Orchestrator struct {
	api         API
	log         logger.Logger
	metrics     *metrics.Recorder
	store       store.Store
	interval    time.Duration
	maxDuration time.Duration
	tickTimeout time.Duration
	pageCap     int
	newTicker   TickerFunc

	mu sync.Mutex

	step       Step
	url        string
	siteType   string
	mode       domain.ScrapeMode
	validation *platform.Result
	pages      []domain.DiscoveredPage
	selected   []string
	job        *JobView
	errMsg     string

	// busy is set while a discovery or submission call is in flight.
	busy     bool
	opCancel context.CancelFunc

	// generation changes on every reset so results of calls started before
	// the reset are discarded.
	generation uint64
	session    *pollSession

	historyOpen    bool
	historyLoaded  bool
	historyLoading bool
	history        []domain.ExportJob
	// historyGen changes when the view closes so fetches started before
	// that are dropped.
	historyGen uint64

	subscribers map[int]chan Event
	nextSubID   int
	closed      bool

	background sync.WaitGroup
}

// New creates an Orchestrator in the setup step.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		api:         opts.API,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		store:       opts.Store,
		interval:    opts.Interval,
		maxDuration: opts.MaxDuration,
		tickTimeout: opts.TickTimeout,
		pageCap:     opts.PageCap,
		newTicker:   opts.NewTicker,
		subscribers: make(map[int]chan Event),
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.interval <= 0 {
		o.interval = DefaultInterval
	}
	if o.tickTimeout <= 0 {
		o.tickTimeout = DefaultTickTimeout
	}
	if o.pageCap <= 0 {
		o.pageCap = DefaultPageCap
	}
	if o.newTicker == nil {
		o.newTicker = NewTimeTicker
	}
	o.clearLocked()
	return o
}

// clearLocked returns every transient field to its initial value.
func (o *Orchestrator) clearLocked() {
	o.step = StepSetup
	o.url = ""
	if o.siteType == "" {
		o.siteType = platform.DefaultKey
	}
	if o.mode == "" {
		o.mode = domain.DefaultMode
	}
	o.validation = nil
	o.pages = nil
	o.selected = nil
	o.job = nil
	o.errMsg = ""
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		Step:     o.step,
		URL:      o.url,
		SiteType: o.siteType,
		Mode:     o.mode,
		Pages:    append([]domain.DiscoveredPage(nil), o.pages...),
		Selected: append([]string(nil), o.selected...),
		Error:    o.errMsg,
		Loading:  o.busy,
		Polling:  o.session != nil,
	}
	if o.validation != nil {
		v := *o.validation
		s.Validation = &v
	}
	if o.job != nil {
		j := *o.job
		s.Job = &j
	}
	if o.siteType == platform.General {
		s.SelectionCap = o.pageCap
	}
	return s
}

// Close tears the session down: polling stops, background refreshes finish
// and subscriber channels are closed. Close is idempotent.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.cancelOpLocked()
	done := o.stopPollingLocked()
	o.mu.Unlock()

	if done != nil {
		<-done
	}
	o.background.Wait()

	o.mu.Lock()
	for id, ch := range o.subscribers {
		close(ch)
		delete(o.subscribers, id)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) cancelOpLocked() {
	if o.opCancel != nil {
		o.opCancel()
		o.opCancel = nil
	}
}
