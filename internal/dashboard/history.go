package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
)

// History opens the history view and returns the caller's jobs. They are
// fetched once per opening; later calls return the cached list unless
// refresh is set. A completed or failed job refreshes an open view, and
// calls made during that refresh get the cached list.
func (o *Orchestrator) History(ctx context.Context, refresh bool) ([]domain.ExportJob, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	o.historyOpen = true
	if o.historyLoaded && (!refresh || o.historyLoading) {
		jobs := slices.Clone(o.history)
		o.mu.Unlock()
		return jobs, nil
	}
	if o.historyLoading {
		o.mu.Unlock()
		return nil, ErrHistoryLoading
	}
	o.historyLoading = true
	gen := o.historyGen
	o.mu.Unlock()

	return o.loadHistory(ctx, gen, true)
}

// CloseHistory hides the history view. The next History call fetches again
// and any fetch still in flight is discarded.
func (o *Orchestrator) CloseHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.historyOpen = false
	o.historyLoaded = false
	o.historyLoading = false
	o.history = nil
	o.historyGen++
}

func (o *Orchestrator) loadHistory(ctx context.Context, gen uint64, surface bool) ([]domain.ExportJob, error) {
	jobs, err := o.api.MyJobs(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.historyGen {
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		return slices.Clone(jobs), nil
	}

	o.historyLoading = false
	if err != nil {
		o.log.Warn("Failed to load job history", logger.Error(err))
		if surface && !errors.Is(err, context.Canceled) {
			o.failLocked(client.UserMessage(err))
		}
		return nil, fmt.Errorf("load history: %w", err)
	}

	o.history = jobs
	o.historyLoaded = true
	return slices.Clone(jobs), nil
}

func (o *Orchestrator) refreshHistoryLocked() {
	if o.historyLoading || o.closed {
		return
	}
	o.historyLoading = true
	gen := o.historyGen

	o.background.Add(1)
	go func() {
		defer o.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historyRefreshTimeout)
		defer cancel()
		_, _ = o.loadHistory(ctx, gen, false)
	}()
}
