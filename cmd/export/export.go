// Package export implements the export command: validate, discover,
// select, submit, follow and optionally download.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/platform"
)

type options struct {
	siteType string
	mode     string
	selectFl string
	all      bool
	noWait   bool
	download bool
	dir      string
	fromLink string
}

// Command returns the export command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "export [url]",
		Short: "Export a website",
		Long: `Export submits a website for extraction and follows the job to completion.

Multi-page exports first discover the site's pages. Without --select or --all
the discovered preselection is used; universal exports are limited to the
first 25 pages.`,
		Example: `  webunpack export https://acme.framer.website
  webunpack export https://example.com --type general --mode multi_page --select 1-10
  webunpack export --from-link "https://app.example/dashboard?url=https://acme.webflow.io&type=webflow"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			if opts.dir == "" {
				opts.dir = deps.Config.Download.Dir
			}

			orch := common.NewOrchestrator(deps.Config, deps.Client, deps.Logger, nil, deps.Store)
			defer orch.Close()

			return run(cmd, orch, deps.Renderer(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.siteType, "type", "t", platform.DefaultKey, "platform the site is built with")
	f.StringVarP(&opts.mode, "mode", "m", string(domain.DefaultMode), "single_page or multi_page")
	f.StringVar(&opts.selectFl, "select", "", "pages to export by number, e.g. 1,3,5-8 (multi_page)")
	f.BoolVar(&opts.all, "all", false, "export every discovered page (multi_page)")
	f.BoolVar(&opts.noWait, "no-wait", false, "submit and exit without following the job")
	f.BoolVar(&opts.download, "download", false, "download the archive when the job completes")
	f.StringVar(&opts.dir, "dir", "", "download directory (default from config)")
	f.StringVar(&opts.fromLink, "from-link", "", "take url, type and mode from a dashboard link")
	cmd.MarkFlagsMutuallyExclusive("select", "all")
	return cmd
}

func run(cmd *cobra.Command, orch *dashboard.Orchestrator, r *common.Renderer, args []string, opts options) error {
	ctx := cmd.Context()

	if err := applyInput(cmd, orch, args, opts); err != nil {
		return err
	}

	snap := orch.Snapshot()
	if snap.Validation != nil && snap.Validation.Warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", snap.Validation.Warning)
	}

	if err := orch.Submit(ctx); err != nil {
		return submitError(orch, err)
	}

	if snap = orch.Snapshot(); snap.Step == dashboard.StepPageSelection {
		if err := selectPages(orch, r, snap, opts); err != nil {
			return err
		}
		if err := orch.ConfirmPages(ctx); err != nil {
			return submitError(orch, err)
		}
		snap = orch.Snapshot()
	}

	job := snap.Job
	if job == nil {
		return errors.New("export was not submitted")
	}
	r.Printf("Submitted export job %s", job.ID)
	if r.JSONMode() && opts.noWait {
		return r.JSON(job)
	}

	if opts.noWait {
		r.Printf("Follow it with: webunpack jobs status %s --watch", job.ID)
		return nil
	}

	final, err := common.FollowJob(ctx, orch, r, cmd.ErrOrStderr())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Interrupted. Resume with: webunpack jobs status %s --watch\n", job.ID)
			return common.ErrSilent
		}
		return err
	}
	return finish(ctx, orch, r, final, opts)
}

func applyInput(cmd *cobra.Command, orch *dashboard.Orchestrator, args []string, opts options) error {
	if opts.fromLink == "" {
		if len(args) == 0 {
			return errors.New("a URL or --from-link is required")
		}
		return orch.SetInput(args[0], opts.siteType, domain.ScrapeMode(opts.mode))
	}

	rawURL, siteType, mode, err := ParseLink(opts.fromLink)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		rawURL = args[0]
	}
	if err := orch.Prefill(rawURL, siteType, mode); err != nil {
		return err
	}

	// Explicit flags win over the link.
	siteType, mode = "", ""
	if cmd.Flags().Changed("type") {
		siteType = opts.siteType
	}
	if cmd.Flags().Changed("mode") {
		mode = opts.mode
	}
	if siteType == "" && mode == "" {
		return nil
	}
	return orch.SetInput(orch.Snapshot().URL, siteType, domain.ScrapeMode(mode))
}

// ParseLink extracts the url, type and mode query parameters of a
// dashboard link.
func ParseLink(link string) (rawURL, siteType, mode string, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", "", fmt.Errorf("parse dashboard link: %w", err)
	}
	q := u.Query()
	if q.Get("url") == "" {
		return "", "", "", errors.New("dashboard link has no url parameter")
	}
	return q.Get("url"), q.Get("type"), q.Get("mode"), nil
}

func selectPages(orch *dashboard.Orchestrator, r *common.Renderer, snap dashboard.Snapshot, opts options) error {
	switch {
	case opts.all:
		urls := make([]string, len(snap.Pages))
		for i, p := range snap.Pages {
			urls[i] = p.URL
		}
		if err := orch.SetSelection(urls); err != nil {
			return fmt.Errorf("%w: use --select to pick at most %d pages", err, snap.SelectionCap)
		}
	case opts.selectFl != "":
		urls, err := ParseSelection(opts.selectFl, snap.Pages)
		if err != nil {
			return err
		}
		if err := orch.SetSelection(urls); err != nil {
			return err
		}
	}

	snap = orch.Snapshot()
	if !r.JSONMode() {
		if err := r.Pages(snap.Pages, snap.Selected); err != nil {
			return err
		}
	}
	r.Printf("Exporting %d of %d discovered pages", len(snap.Selected), len(snap.Pages))
	return nil
}

// submitError prefers the banner the orchestrator set, which is already a
// user-facing sentence.
func submitError(orch *dashboard.Orchestrator, err error) error {
	if msg := orch.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}

func finish(ctx context.Context, orch *dashboard.Orchestrator, r *common.Renderer, job *dashboard.JobView, opts options) error {
	switch job.Status {
	case domain.StatusFailed:
		r.Printf("Export %s failed.", job.ID)
		return common.ErrSilent
	case domain.StatusCompleted:
	default:
		// Polling limit reached before a terminal status.
		r.Printf("Export %s is still %s. Check later with: webunpack jobs status %s", job.ID, job.Status, job.ID)
		return common.ErrSilent
	}

	if r.JSONMode() && !opts.download {
		return r.JSON(job)
	}
	r.Printf("Export %s completed.", job.ID)
	if !opts.download {
		r.Printf("Download it with: webunpack jobs download %s", job.ID)
		return nil
	}

	path, err := orch.DownloadTo(ctx, opts.dir)
	if err != nil {
		return err
	}
	if r.JSONMode() {
		return r.JSON(map[string]string{"job_id": job.ID, "path": path})
	}
	r.Printf("Saved %s", path)
	return nil
}
