package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/north-cloud/webunpack/infrastructure/logger"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
	"github.com/north-cloud/webunpack/internal/store"
)

// ErrInvalidMode is returned for a scrape mode other than single_page or multi_page.
var ErrInvalidMode = errors.New("invalid scrape mode")

// ErrSelectionFull is returned when adding a page would exceed the cap.
var ErrSelectionFull = errors.New("page selection is full")

// MsgNoPagesSelected is shown when confirming an empty selection.
const MsgNoPagesSelected = "Please select at least one page to export"

// OverCapMessage is shown when confirming more pages than the cap allows.
func OverCapMessage(limit, over int) string {
	return fmt.Sprintf("You can select maximum %d pages for universal exporting. Please deselect %d pages.", limit, over)
}

// readyLocked checks that a workflow operation may run in step.
func (o *Orchestrator) readyLocked(step Step) error {
	switch {
	case o.closed:
		return ErrClosed
	case o.busy:
		return ErrBusy
	case o.step != step:
		return fmt.Errorf("%w: currently in %s", ErrWrongStep, o.step)
	}
	return nil
}

// SetInput replaces the URL, platform and mode. Empty siteType or mode keep
// their current values. The URL is revalidated on every change and any
// error banner is cleared.
func (o *Orchestrator) SetInput(rawURL, siteType string, mode domain.ScrapeMode) error {
	if mode != "" && !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.readyLocked(StepSetup); err != nil {
		return err
	}

	o.url = rawURL
	if siteType != "" {
		o.siteType = siteType
	}
	if mode != "" {
		o.mode = mode
	}
	o.errMsg = ""
	o.revalidateLocked()
	o.publishStateLocked()
	return nil
}

// Prefill seeds the setup step from a dashboard link's url, type and mode
// parameters. Unusable values are ignored rather than rejected.
func (o *Orchestrator) Prefill(rawURL, siteType, mode string) error {
	m := domain.ScrapeMode(strings.TrimSpace(mode))
	if !m.Valid() {
		m = ""
	}
	siteType = strings.ToLower(strings.TrimSpace(siteType))
	if _, known := platform.Lookup(siteType); !known {
		siteType = ""
	}
	return o.SetInput(strings.TrimSpace(rawURL), siteType, m)
}

func (o *Orchestrator) revalidateLocked() {
	if strings.TrimSpace(o.url) == "" {
		o.validation = nil
		return
	}
	v := platform.Validate(o.url, o.siteType)
	o.validation = &v
}

// Validate runs the URL validator against the current input.
func (o *Orchestrator) Validate() platform.Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := platform.Validate(o.url, o.siteType)
	o.validation = &v
	o.publishStateLocked()
	return v
}

// Submit leaves the setup step. A multi-page export discovers pages and
// moves to page selection; a single-page export is submitted directly and
// moves to the result step. Validation failures never reach the backend.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()

	if err := o.readyLocked(StepSetup); err != nil {
		o.mu.Unlock()
		return err
	}

	v := platform.Validate(o.url, o.siteType)
	o.validation = &v
	if !v.Valid {
		msg := v.Error
		if msg == "" {
			msg = platform.MsgInvalidURL
		}
		o.failLocked(msg)
		o.publishStateLocked()
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidURL, msg)
	}

	req := domain.ExportRequest{URL: o.url, SiteType: o.siteType, ScrapeMode: o.mode}
	opCtx, gen := o.beginLocked(ctx)
	o.mu.Unlock()

	if req.ScrapeMode == domain.ModeMultiPage {
		return o.discover(opCtx, gen, req)
	}
	return o.export(opCtx, gen, req)
}

// beginLocked marks a backend call as in flight.
func (o *Orchestrator) beginLocked(ctx context.Context) (context.Context, uint64) {
	opCtx, cancel := context.WithCancel(ctx)
	o.busy = true
	o.opCancel = cancel
	o.errMsg = ""
	o.publishStateLocked()
	return opCtx, o.generation
}

// endLocked finishes a call started by beginLocked and reports whether its
// result still applies. A reset in between makes it stale.
func (o *Orchestrator) endLocked(gen uint64) bool {
	if gen != o.generation || o.closed {
		return false
	}
	o.busy = false
	o.cancelOpLocked()
	return true
}

func (o *Orchestrator) discover(ctx context.Context, gen uint64, req domain.ExportRequest) error {
	pages, err := o.api.DiscoverPages(ctx, req.URL, req.SiteType)

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.endLocked(gen) {
		return ErrReset
	}
	if err != nil {
		o.log.Warn("Page discovery failed", logger.String("url", req.URL), logger.Error(err))
		if !errors.Is(err, context.Canceled) {
			o.failLocked(client.UserMessage(err))
		}
		o.publishStateLocked()
		return fmt.Errorf("discover pages: %w", err)
	}

	o.pages = pages
	o.selected = o.initialSelection(pages, req.SiteType)
	o.step = StepPageSelection
	o.log.Info("Pages discovered",
		logger.String("url", req.URL),
		logger.Int("pages", len(pages)),
		logger.Int("selected", len(o.selected)),
	)
	o.publishStateLocked()
	return nil
}

// initialSelection preselects every page, or only the first pageCap pages
// for the universal platform.
func (o *Orchestrator) initialSelection(pages []domain.DiscoveredPage, siteType string) []string {
	n := len(pages)
	if siteType == platform.General && n > o.pageCap {
		n = o.pageCap
	}
	selected := make([]string, 0, n)
	for _, p := range pages[:n] {
		selected = append(selected, p.URL)
	}
	return selected
}

func (o *Orchestrator) export(ctx context.Context, gen uint64, req domain.ExportRequest) error {
	resp, err := o.api.Scrape(ctx, req)
	if err == nil && o.store != nil {
		if serr := o.store.Set(ctx, store.KeyLastJob, resp.JobID); serr != nil {
			o.log.Warn("Failed to record last job", logger.JobID(resp.JobID), logger.Error(serr))
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.endLocked(gen) {
		return ErrReset
	}
	if err != nil {
		o.log.Warn("Export submission failed", logger.String("url", req.URL), logger.Error(err))
		if !errors.Is(err, context.Canceled) {
			o.failLocked(client.UserMessage(err))
		}
		o.publishStateLocked()
		return fmt.Errorf("submit export: %w", err)
	}

	o.job = &JobView{
		ID:     resp.JobID,
		Status: domain.StatusPending,
		URL:    req.URL,
		Mode:   req.ScrapeMode,
	}
	o.step = StepResult
	o.log.Info("Export submitted",
		logger.JobID(resp.JobID),
		logger.String("url", req.URL),
		logger.String("mode", string(req.ScrapeMode)),
		logger.Int("pages", len(req.SelectedPages)),
	)
	o.startPollingLocked()
	o.publishStateLocked()
	return nil
}

func (o *Orchestrator) capAppliesLocked() bool {
	return o.siteType == platform.General
}

func (o *Orchestrator) discoveredLocked(pageURL string) bool {
	return slices.ContainsFunc(o.pages, func(p domain.DiscoveredPage) bool { return p.URL == pageURL })
}

// TogglePage flips the selection of one discovered page and returns whether
// it is now selected. Removals always succeed; an addition at the cap is
// refused with ErrSelectionFull and changes nothing.
func (o *Orchestrator) TogglePage(pageURL string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.readyLocked(StepPageSelection); err != nil {
		return false, err
	}
	if !o.discoveredLocked(pageURL) {
		return false, fmt.Errorf("%w: %s", ErrUnknownPage, pageURL)
	}

	if i := slices.Index(o.selected, pageURL); i >= 0 {
		o.selected = slices.Delete(o.selected, i, i+1)
		o.publishStateLocked()
		return false, nil
	}

	if o.capAppliesLocked() && len(o.selected) >= o.pageCap {
		return false, ErrSelectionFull
	}

	o.selected = append(o.selected, pageURL)
	o.publishStateLocked()
	return true, nil
}

// SetSelection replaces the selection with pageURLs, in order, without
// duplicates. It fails without changes if any page is unknown or the
// result would exceed the cap.
func (o *Orchestrator) SetSelection(pageURLs []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.readyLocked(StepPageSelection); err != nil {
		return err
	}

	selected := make([]string, 0, len(pageURLs))
	for _, u := range pageURLs {
		if !o.discoveredLocked(u) {
			return fmt.Errorf("%w: %s", ErrUnknownPage, u)
		}
		if !slices.Contains(selected, u) {
			selected = append(selected, u)
		}
	}
	if o.capAppliesLocked() && len(selected) > o.pageCap {
		return fmt.Errorf("%w: %d pages, limit %d", ErrSelectionFull, len(selected), o.pageCap)
	}

	o.selected = selected
	o.publishStateLocked()
	return nil
}

// ConfirmPages submits the selected pages and moves to the result step.
func (o *Orchestrator) ConfirmPages(ctx context.Context) error {
	o.mu.Lock()

	if err := o.readyLocked(StepPageSelection); err != nil {
		o.mu.Unlock()
		return err
	}
	if len(o.selected) == 0 {
		o.failLocked(MsgNoPagesSelected)
		o.mu.Unlock()
		return ErrNoPages
	}
	if o.capAppliesLocked() && len(o.selected) > o.pageCap {
		o.failLocked(OverCapMessage(o.pageCap, len(o.selected)-o.pageCap))
		o.mu.Unlock()
		return ErrOverCap
	}

	req := domain.ExportRequest{
		URL:           o.url,
		SiteType:      o.siteType,
		ScrapeMode:    domain.ModeMultiPage,
		SelectedPages: slices.Clone(o.selected),
	}
	opCtx, gen := o.beginLocked(ctx)
	o.mu.Unlock()

	return o.export(opCtx, gen, req)
}

// Back returns from page selection to setup, discarding the discovered
// pages and the selection.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.readyLocked(StepPageSelection); err != nil {
		return err
	}
	o.step = StepSetup
	o.pages = nil
	o.selected = nil
	o.errMsg = ""
	o.publishStateLocked()
	return nil
}

// Reset returns to setup from any step. It stops polling, abandons any
// in-flight call and clears the URL, pages, selection, job, error and
// validation. The platform and mode are kept.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.cancelOpLocked()
	o.busy = false
	o.stopPollingLocked()
	o.clearLocked()
	o.publishStateLocked()
}

// DismissError clears the error banner.
func (o *Orchestrator) DismissError() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.errMsg = ""
	o.publishStateLocked()
}

// Watch follows an existing job, for example one submitted by an earlier
// run. Any current session is stopped first.
func (o *Orchestrator) Watch(jobID string) error {
	if err := client.CheckJobID(jobID); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.busy {
		return ErrBusy
	}

	o.generation++
	o.stopPollingLocked()
	o.clearLocked()
	o.job = &JobView{ID: jobID, Status: domain.StatusPending}
	o.step = StepResult
	o.startPollingLocked()
	o.publishStateLocked()
	return nil
}
