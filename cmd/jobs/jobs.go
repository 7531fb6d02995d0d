// Package jobs implements the jobs command: export history, status and
// download of past exports.
package jobs

import (
	"github.com/spf13/cobra"
)

// Command returns the jobs command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and download your exports",
	}

	cmd.AddCommand(
		NewListCommand(),
		NewStatusCommand(),
		NewDownloadCommand(),
	)
	return cmd
}
