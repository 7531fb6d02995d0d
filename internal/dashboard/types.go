package dashboard

import (
	"fmt"

	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
)

// Step is the workflow position.
type Step int

const (
	StepSetup Step = iota
	StepPageSelection
	StepResult
)

var stepNames = [...]string{"setup", "page-selection", "result"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name written by MarshalText.
func (s *Step) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if name == string(b) {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", b)
}

// JobView is the orchestrator's record of the submitted job.
type JobView struct {
	ID           string            `json:"id"`
	Status       domain.JobStatus  `json:"status"`
	URL          string            `json:"url,omitempty"`
	Mode         domain.ScrapeMode `json:"scrape_mode,omitempty"`
	PagesScraped *int              `json:"pages_scraped,omitempty"`
	// ErrorMessage is the translated failure, set only when Status is failed.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Filename is the name the export is saved under.
func (j JobView) Filename() string {
	return domain.ExportFilename(j.ID)
}

// Snapshot is a point-in-time copy of the workflow state.
type Snapshot struct {
	Step       Step                    `json:"step"`
	URL        string                  `json:"url"`
	SiteType   string                  `json:"site_type"`
	Mode       domain.ScrapeMode       `json:"scrape_mode"`
	Validation *platform.Result        `json:"validation,omitempty"`
	Pages      []domain.DiscoveredPage `json:"pages"`
	Selected   []string                `json:"selected_pages"`
	// SelectionCap is the most pages that may be selected; zero means no cap.
	SelectionCap int      `json:"selection_cap,omitempty"`
	Job          *JobView `json:"job,omitempty"`
	Error        string   `json:"error,omitempty"`
	Loading      bool     `json:"loading"`
	Polling      bool     `json:"polling"`
}

// OverCap reports how many selected pages exceed the cap.
func (s Snapshot) OverCap() int {
	if s.SelectionCap == 0 || len(s.Selected) <= s.SelectionCap {
		return 0
	}
	return len(s.Selected) - s.SelectionCap
}
