package jobs

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/client"
	"github.com/north-cloud/webunpack/internal/dashboard"
	"github.com/north-cloud/webunpack/internal/domain"
)

// NewDownloadCommand creates the jobs download command.
func NewDownloadCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download [job-id]",
		Short: "Download a completed export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			jobID, err := resolveJobID(ctx, deps.Store, args)
			if err != nil {
				return err
			}
			if err := client.CheckJobID(jobID); err != nil {
				return err
			}
			if dir == "" {
				dir = deps.Config.Download.Dir
			}

			path, err := dashboard.SaveFile(dir, domain.ExportFilename(jobID), func(w io.Writer) (int64, error) {
				return deps.Client.Download(ctx, jobID, w)
			})
			if err != nil {
				return err
			}

			r := deps.Renderer()
			if r.JSONMode() {
				return r.JSON(map[string]string{"job_id": jobID, "path": path})
			}
			r.Printf("Saved %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "download directory (default from config)")
	return cmd
}
