// Package account implements the account commands: profile and usage,
// and past support submissions.
package account

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/store"
)

// MeCommand returns the me command.
func MeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your profile and usage limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			profile, err := deps.Client.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			return deps.Renderer().Profile(profile)
		},
	}
}

// SubmissionsCommand returns the submissions command.
func SubmissionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Short: "List your contact tickets and feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			subs, err := deps.Client.MySubmissions(ctx)
			if err != nil {
				return fmt.Errorf("load submissions: %w", err)
			}

			// The recorded ids are only a hint; a store failure is not fatal.
			lastTicket, _ := store.GetOptional(ctx, deps.Store, store.KeyLastTicket)
			lastFeedback, _ := store.GetOptional(ctx, deps.Store, store.KeyLastFeedback)
			return deps.Renderer().Submissions(subs, lastTicket, lastFeedback)
		},
	}
}
