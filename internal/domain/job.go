// Package domain defines the types exchanged with the export backend.
package domain

import (
	"strings"
	"time"
)

// JobStatus is the lifecycle state of an export job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ParseJobStatus normalizes a backend status string.
func ParseJobStatus(s string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(s)))
}

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Known reports whether s is one of the four backend statuses.
func (s JobStatus) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// rank orders statuses so transitions only move forward. Unrecognized
// in-flight values share the pending rank.
func (s JobStatus) rank() int {
	switch s {
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return 0
	}
}

// CanTransitionTo reports whether moving from s to next keeps the status
// monotonic: terminal states never change and in-flight states never regress.
// An unrecognized next status is never accepted.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.IsTerminal() || !next.Known() {
		return false
	}
	return next.rank() >= s.rank()
}

// ScrapeMode selects single-page or multi-page export.
type ScrapeMode string

const (
	ModeSinglePage ScrapeMode = "single_page"
	ModeMultiPage  ScrapeMode = "multi_page"
)

// DefaultMode is the mode preselected for a new export.
const DefaultMode = ModeSinglePage

// Valid reports whether m is a known mode.
func (m ScrapeMode) Valid() bool {
	return m == ModeSinglePage || m == ModeMultiPage
}

// ExportJob is one extraction request as reported by the backend.
type ExportJob struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	URL          string     `json:"url"`
	SiteType     string     `json:"site_type"`
	ScrapeMode   ScrapeMode `json:"scrape_mode"`
	Status       JobStatus  `json:"status"`
	CreatedAt    string     `json:"created_at"`
	DownloadURL  string     `json:"download_url,omitempty"`
	PagesScraped *int       `json:"pages_scraped,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CompletedAt  string     `json:"completed_at,omitempty"`
	FilePath     string     `json:"file_path,omitempty"`
}

// Ref returns the identifier used by status and download endpoints.
func (j ExportJob) Ref() string {
	if j.JobID != "" {
		return j.JobID
	}
	return j.ID
}

// Created parses CreatedAt. Backends emit RFC 3339 or naive ISO timestamps.
func (j ExportJob) Created() (time.Time, bool) {
	return parseTimestamp(j.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExportRequest is the body of POST /scrape.
type ExportRequest struct {
	URL           string     `json:"url"`
	SiteType      string     `json:"site_type"`
	ScrapeMode    ScrapeMode `json:"scrape_mode"`
	SelectedPages []string   `json:"selected_pages,omitempty"`
}

// Normalized drops SelectedPages unless the mode is multi-page.
func (r ExportRequest) Normalized() ExportRequest {
	if r.ScrapeMode != ModeMultiPage {
		r.SelectedPages = nil
	}
	return r
}

// ScrapeResponse is the body returned by POST /scrape.
type ScrapeResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	JobID       string `json:"job_id,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
}

// JobsResponse is the body returned by GET /my-jobs.
type JobsResponse struct {
	Jobs []ExportJob `json:"jobs"`
}

// ExportFilename is the name a completed export is saved under.
func ExportFilename(jobID string) string {
	return "exported_site_" + jobID + ".zip"
}
