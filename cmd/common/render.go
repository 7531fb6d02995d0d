package common

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
)

const timeLayout = "2006-01-02 15:04"

// Renderer prints command results as tables, or as JSON with --json.
type Renderer struct {
	out  io.Writer
	json bool
}

// NewRenderer creates a Renderer.
func NewRenderer(out io.Writer, asJSON bool) *Renderer {
	return &Renderer{out: out, json: asJSON}
}

// JSONMode reports whether output is JSON.
func (r *Renderer) JSONMode() bool {
	return r.json
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes a line of prose. It is suppressed in JSON mode.
func (r *Renderer) Printf(format string, args ...any) {
	if r.json {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	return t
}

// Jobs renders export history, newest first as the backend returns it.
func (r *Renderer) Jobs(jobs []domain.ExportJob) error {
	if r.json {
		return r.JSON(jobs)
	}
	if len(jobs) == 0 {
		r.Printf("No exports yet.")
		return nil
	}

	t := r.newTable()
	t.AppendHeader(table.Row{"Job ID", "URL", "Mode", "Status", "Pages", "Created"})
	for _, j := range jobs {
		t.AppendRow(table.Row{j.Ref(), j.URL, j.ScrapeMode, j.Status, optInt(j.PagesScraped), created(j.CreatedAt)})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(jobs)})
	t.Render()
	return nil
}

// Job renders one job's status.
func (r *Renderer) Job(job *domain.ExportJob) error {
	if r.json {
		return r.JSON(job)
	}
	t := r.newTable()
	t.AppendRows([]table.Row{
		{"Job ID", job.Ref()},
		{"Status", job.Status},
		{"URL", job.URL},
		{"Mode", job.ScrapeMode},
		{"Pages scraped", optInt(job.PagesScraped)},
		{"Created", created(job.CreatedAt)},
	})
	if job.ErrorMessage != "" {
		t.AppendRow(table.Row{"Error", job.ErrorMessage})
	}
	t.Render()
	return nil
}

// Pages renders discovered pages with a 1-based index and selection mark.
func (r *Renderer) Pages(pages []domain.DiscoveredPage, selected []string) error {
	if r.json {
		return r.JSON(pages)
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"#", "Selected", "Title", "URL"})
	for i, p := range pages {
		mark := ""
		if slices.Contains(selected, p.URL) {
			mark = "x"
		}
		t.AppendRow(table.Row{i + 1, mark, p.Title, p.URL})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignCenter}})
	t.Render()
	return nil
}

// Validation renders a URL validator verdict.
func (r *Renderer) Validation(rawURL, siteType string, v platform.Result) error {
	if r.json {
		return r.JSON(struct {
			URL      string `json:"url"`
			SiteType string `json:"site_type"`
			platform.Result
		}{rawURL, siteType, v})
	}
	status := "valid"
	if !v.Valid {
		status = "invalid"
	}
	r.Printf("%s (%s): %s", rawURL, siteType, status)
	if v.Error != "" {
		r.Printf("  error: %s", v.Error)
	}
	if v.Warning != "" {
		r.Printf("  warning: %s", v.Warning)
	}
	return nil
}

// Profile renders the signed-in user and their usage.
func (r *Renderer) Profile(p *domain.UserProfile) error {
	if r.json {
		return r.JSON(p)
	}
	r.Printf("%s <%s>", p.Name, p.Email)

	u := p.Usage
	t := r.newTable()
	t.AppendHeader(table.Row{"Feature", "Used", "Limit", "Available"})
	t.AppendRows([]table.Row{
		{"Single-page export", u.SinglePageUsed, u.SinglePageLimit, yesNo(u.CanScrapeSingle)},
		{"Multi-page export", u.MultiPageUsed, u.MultiPageLimit, yesNo(u.CanScrapeMulti)},
		{"Reactify", u.ReactifyUsed, u.ReactifyLimit, yesNo(u.CanReactify)},
	})
	t.Render()
	return nil
}

// Submissions renders contact tickets and feedback, plus the ids this
// machine last submitted.
func (r *Renderer) Submissions(s *domain.UserSubmissions, lastTicket, lastFeedback string) error {
	if r.json {
		return r.JSON(struct {
			*domain.UserSubmissions
			LastTicketID   string `json:"last_ticket_id,omitempty"`
			LastFeedbackID string `json:"last_feedback_id,omitempty"`
		}{s, lastTicket, lastFeedback})
	}

	if len(s.ContactSubmissions) == 0 {
		r.Printf("No support tickets.")
	} else {
		t := r.newTable()
		t.SetTitle("Support tickets")
		t.AppendHeader(table.Row{"Ticket", "Subject", "Status", "Created"})
		for _, c := range s.ContactSubmissions {
			t.AppendRow(table.Row{c.TicketID, c.Subject, c.Status, created(c.CreatedAt)})
		}
		t.Render()
	}

	if len(s.FeedbackSubmissions) == 0 {
		r.Printf("No feedback.")
	} else {
		t := r.newTable()
		t.SetTitle("Feedback")
		t.AppendHeader(table.Row{"Feedback", "Title", "Type", "Priority", "Created"})
		for _, f := range s.FeedbackSubmissions {
			t.AppendRow(table.Row{f.FeedbackID, f.Title, f.FeedbackType, f.Priority, created(f.CreatedAt)})
		}
		t.Render()
	}

	if lastTicket != "" {
		r.Printf("Last ticket submitted here: %s", lastTicket)
	}
	if lastFeedback != "" {
		r.Printf("Last feedback submitted here: %s", lastFeedback)
	}
	return nil
}

// Platforms renders the supported platforms.
func (r *Renderer) Platforms() error {
	rules := platform.Rules()
	if r.json {
		keys := make([]string, len(rules))
		for i, rule := range rules {
			keys[i] = rule.Key
		}
		return r.JSON(keys)
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"Key", "Name", "Maturity"})
	for _, rule := range rules {
		t.AppendRow(table.Row{rule.Key, rule.Name, rule.Maturity})
	}
	t.Render()
	return nil
}

func optInt(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func created(raw string) string {
	if t, ok := (domain.ExportJob{CreatedAt: raw}).Created(); ok {
		return t.Local().Format(timeLayout)
	}
	return raw
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
