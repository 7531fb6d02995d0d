package jobs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
)

// NewListCommand creates the jobs list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your export history",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			jobs, err := deps.Client.MyJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			return deps.Renderer().Jobs(jobs)
		},
	}
}
