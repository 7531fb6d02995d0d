package reactify

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
)

// NewDiscoverCommand creates the reactify discover command.
func NewDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <url>",
		Short: "List the pages of a site that can be converted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			pages, err := deps.Client.ReactifyDiscover(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("discover pages: %w", err)
			}
			return deps.Renderer().Pages(pages, nil)
		},
	}
}

// NewConvertCommand creates the reactify convert command.
func NewConvertCommand() *cobra.Command {
	opts := domain.DefaultConversionOptions()

	cmd := &cobra.Command{
		Use:   "convert <page-url>",
		Short: "Start converting one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			resp, err := deps.Client.ReactifyConvert(cmd.Context(), args[0], opts)
			if err != nil {
				return fmt.Errorf("start conversion: %w", err)
			}

			r := deps.Renderer()
			if r.JSONMode() {
				return r.JSON(resp)
			}
			r.Printf("Conversion %s started.", resp.JobID)
			if resp.EstimatedTime != "" {
				r.Printf("Estimated time: %s", resp.EstimatedTime)
			}
			r.Printf("Check it with: webunpack reactify status %s", resp.JobID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Framework, "framework", opts.Framework, "target framework")
	f.StringVar(&opts.Styling, "styling", opts.Styling, "styling approach")
	f.BoolVar(&opts.TypeScript, "typescript", opts.TypeScript, "generate TypeScript")
	f.StringVar(&opts.OptimizationLevel, "optimization", opts.OptimizationLevel, "optimization level")
	f.BoolVar(&opts.IncludeTests, "tests", opts.IncludeTests, "generate component tests")
	return cmd
}

// NewStatusCommand creates the reactify status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a conversion job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			job, err := deps.Client.ReactifyStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("conversion status: %w", err)
			}

			r := deps.Renderer()
			if r.JSONMode() {
				return r.JSON(job)
			}
			renderJob(cmd.OutOrStdout(), job)
			return nil
		},
	}
}

// NewDownloadCommand creates the reactify download command.
func NewDownloadCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download a converted React project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]
			if err := client.CheckJobID(jobID); err != nil {
				return err
			}

			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			if dir == "" {
				dir = deps.Config.Download.Dir
			}

			ctx := cmd.Context()
			path, err := dashboard.SaveFile(dir, domain.ReactifyFilename(jobID), func(w io.Writer) (int64, error) {
				return deps.Client.ReactifyDownload(ctx, jobID, w)
			})
			if err != nil {
				return err
			}
			deps.Renderer().Printf("Saved %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "download directory (default from config)")
	return cmd
}

func renderJob(out io.Writer, job *domain.ReactifyJob) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Job ID", job.JobID},
		{"Page", job.PageURL},
		{"Status", job.Status},
		{"Components", optInt(job.ComponentsGenerated)},
		{"Size", optSize(job.FileSizeMB)},
		{"Created", job.CreatedAt},
	})
	if job.ErrorMessage != "" {
		t.AppendRow(table.Row{"Error", client.ClassifyJobFailure(job.ErrorMessage)})
	}
	t.Render()
}

func optInt(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

func optSize(mb *float64) string {
	if mb == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f MB", *mb)
}
