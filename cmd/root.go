// Package cmd implements the webunpack command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/account"
	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/cmd/export"
	"github.com/north-cloud/webunpack/cmd/health"
	"github.com/north-cloud/webunpack/cmd/jobs"
	"github.com/north-cloud/webunpack/cmd/reactify"
	"github.com/north-cloud/webunpack/cmd/serve"
	"github.com/north-cloud/webunpack/cmd/support"
	"github.com/north-cloud/webunpack/cmd/validate"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "webunpack",
		Short: "Export websites built with no-code platforms",
		Long: `webunpack exports Framer, Webflow and other no-code sites to static
archives through the export backend, and converts single pages to React.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&common.Flags.ConfigPath, "config", "", "config file (default is ./config.yml or $CONFIG_PATH)")
	pf.BoolVar(&common.Flags.Debug, "debug", false, "enable debug logging")
	pf.StringVar(&common.Flags.APIURL, "api-url", "", "backend base URL")
	pf.StringVar(&common.Flags.Token, "token", "", "bearer token for the backend")
	pf.BoolVar(&common.Flags.JSON, "json", false, "print results as JSON")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "webunpack version %s\n", Version)
			},
		},
		validate.Command(),
		export.Command(),
		jobs.Command(),
		account.MeCommand(),
		account.SubmissionsCommand(),
		support.ContactCommand(),
		support.FeedbackCommand(),
		support.WaitlistCommand(),
		health.Command(),
		reactify.Command(),
		serve.Command(Version),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
