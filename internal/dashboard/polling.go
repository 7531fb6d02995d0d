package dashboard

import (
	"context"
	"errors"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
)

// MsgPollingExpired is shown when a job outlives the polling limit.
const MsgPollingExpired = "The export is taking longer than expected. " +
	"Check your job history later to download it."

const (
	pollResultError   = "error"
	pollResultUnknown = "unknown"
)

// pollSession is one status-polling loop for one job. At most one is
// attached to the orchestrator at a time.
type pollSession struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPolling begins following the current job. It returns false without
// side effects when a session is already active or there is no job in flight.
func (o *Orchestrator) StartPolling() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.startPollingLocked()
}

func (o *Orchestrator) startPollingLocked() bool {
	if o.session != nil || o.closed || o.job == nil || o.job.Status.IsTerminal() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	if o.maxDuration > 0 {
		cancel()
		ctx, cancel = context.WithTimeout(context.Background(), o.maxDuration)
	}

	s := &pollSession{jobID: o.job.ID, cancel: cancel, done: make(chan struct{})}
	o.session = s
	o.metrics.PollingStarted()

	ticker := o.newTicker(o.interval)
	go o.poll(ctx, s, ticker)

	o.log.Info("Polling started", logger.JobID(s.jobID), logger.Duration("interval", o.interval))
	return true
}

// StopPolling detaches the active session, if any. It does not wait for the
// loop to exit.
func (o *Orchestrator) StopPolling() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopPollingLocked()
}

// stopPollingLocked detaches the active session and returns a channel closed
// once its loop has exited, or nil when nothing was polling.
func (o *Orchestrator) stopPollingLocked() <-chan struct{} {
	s := o.session
	if s == nil {
		return nil
	}
	o.detachLocked(s)
	return s.done
}

func (o *Orchestrator) detachLocked(s *pollSession) {
	o.session = nil
	s.cancel()
	o.metrics.PollingStopped()
}

// poll runs one session. Ticks are handled one at a time: a slow status
// request delays the next tick instead of overlapping it.
func (o *Orchestrator) poll(ctx context.Context, s *pollSession, ticker Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.expire(s, ctx.Err())
			return
		case <-ticker.C():
			tickCtx, cancel := context.WithTimeout(ctx, o.tickTimeout)
			job, err := o.api.JobStatus(tickCtx, s.jobID)
			cancel()
			if o.applyTick(s, job, err) {
				return
			}
		}
	}
}

// expire handles a session whose context ended without a terminal status.
func (o *Orchestrator) expire(s *pollSession, cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != s {
		return
	}
	o.detachLocked(s)
	if errors.Is(cause, context.DeadlineExceeded) {
		o.log.Warn("Polling limit reached", logger.JobID(s.jobID), logger.Duration("limit", o.maxDuration))
		o.failLocked(MsgPollingExpired)
	}
	o.publishStateLocked()
}

// applyTick records one poll result and reports whether the session is over.
func (o *Orchestrator) applyTick(s *pollSession, job *domain.ExportJob, err error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != s {
		return true
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		o.metrics.PollTick(pollResultError)
		o.log.Warn("Job status poll failed", logger.JobID(s.jobID), logger.Error(err))
		o.failLocked(client.UserMessage(err))
		o.publishStateLocked()
		return false
	}

	if !job.Status.Known() {
		o.metrics.PollTick(pollResultUnknown)
		o.log.Debug("Ignoring unrecognized status",
			logger.JobID(s.jobID),
			logger.String("received", string(job.Status)),
		)
		return false
	}

	o.metrics.PollTick(string(job.Status))
	if !o.job.Status.CanTransitionTo(job.Status) {
		o.log.Debug("Ignoring out-of-order status",
			logger.JobID(s.jobID),
			logger.String("current", string(o.job.Status)),
			logger.String("received", string(job.Status)),
		)
		return false
	}

	o.job.Status = job.Status
	if job.PagesScraped != nil {
		n := *job.PagesScraped
		o.job.PagesScraped = &n
	}
	if o.job.URL == "" {
		o.job.URL = job.URL
	}
	if o.job.Mode == "" {
		o.job.Mode = job.ScrapeMode
	}

	if job.Status.IsTerminal() {
		o.finishLocked(s, job)
	}

	view := *o.job
	o.publishLocked(Event{Type: EventJobStatus, Job: &view})
	o.publishStateLocked()
	return job.Status.IsTerminal()
}

func (o *Orchestrator) finishLocked(s *pollSession, job *domain.ExportJob) {
	o.detachLocked(s)
	o.metrics.JobTerminal(string(job.Status))

	if job.Status == domain.StatusFailed {
		msg := client.ClassifyJobFailure(job.ErrorMessage)
		o.job.ErrorMessage = msg
		o.failLocked(msg)
		o.log.Warn("Export job failed",
			logger.JobID(s.jobID),
			logger.String("backend_error", job.ErrorMessage),
			logger.String("kind", string(client.JobFailureKind(job.ErrorMessage))),
		)
	} else {
		o.log.Info("Export job completed", logger.JobID(s.jobID))
	}

	if o.historyOpen {
		o.refreshHistoryLocked()
	}
}

// Wait blocks until the active session ends and returns the job as it was
// left. Without a session it returns the current job immediately.
func (o *Orchestrator) Wait(ctx context.Context) (*JobView, error) {
	o.mu.Lock()
	s := o.session
	job := o.jobLocked()
	o.mu.Unlock()

	if s == nil {
		if job == nil {
			return nil, ErrNoActiveSession
		}
		return job, nil
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	job = o.jobLocked()
	if job == nil || job.ID != s.jobID {
		return nil, ErrReset
	}
	return job, nil
}

func (o *Orchestrator) jobLocked() *JobView {
	if o.job == nil {
		return nil
	}
	j := *o.job
	return &j
}
