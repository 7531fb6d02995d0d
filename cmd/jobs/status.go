package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/domain"
	"github.com/north-cloud/webunpack/internal/store"
)

// ErrNoJobID is returned when no job id was given and none was recorded.
var ErrNoJobID = errors.New("no job id given and no previous export recorded")

// NewStatusCommand creates the jobs status command.
func NewStatusCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show the status of an export",
		Long: `Status shows one export job. Without a job id it shows the most recent
export submitted from this machine. With --watch it polls until the job
completes or fails.`,
		Args: cobra.MaximumNArgs(1),
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

			if !watch {
				job, err := deps.Client.JobStatus(ctx, jobID)
				if err != nil {
					return fmt.Errorf("job status: %w", err)
				}
				return deps.Renderer().Job(job)
			}

			orch := common.NewOrchestrator(deps.Config, deps.Client, deps.Logger, nil, deps.Store)
			defer orch.Close()
			if err := orch.Watch(jobID); err != nil {
				return err
			}

			r := deps.Renderer()
			job, err := common.FollowJob(ctx, orch, r, cmd.ErrOrStderr())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return common.ErrSilent
				}
				return err
			}
			if r.JSONMode() {
				return r.JSON(job)
			}
			if job.Status == domain.StatusFailed {
				r.Printf("Export %s failed: %s", job.ID, job.ErrorMessage)
				return common.ErrSilent
			}
			r.Printf("Export %s is %s.", job.ID, job.Status)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "poll until the job finishes")
	return cmd
}

// resolveJobID returns the job id argument, falling back to the last
// recorded export.
func resolveJobID(ctx context.Context, st store.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := store.GetOptional(ctx, st, store.KeyLastJob)
	if err != nil {
		return "", fmt.Errorf("read last job: %w", err)
	}
	if id == "" {
		return "", ErrNoJobID
	}
	return id, nil
}
