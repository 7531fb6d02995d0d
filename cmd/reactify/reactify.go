// Package reactify implements the reactify commands, which convert a
// single page into a React project.
package reactify

import (
	"github.com/spf13/cobra"
)

// Command returns the reactify command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reactify",
		Short: "Convert a page into a React project",
	}

	cmd.AddCommand(
		NewDiscoverCommand(),
		NewConvertCommand(),
		NewStatusCommand(),
		NewDownloadCommand(),
	)
	return cmd
}
