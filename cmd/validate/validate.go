// Package validate implements the validate command.
package validate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
	"github.com/north-cloud/webunpack/internal/platform"
)

// Command returns the validate command. It needs neither config nor
// network access.
func Command() *cobra.Command {
	var (
		siteType      string
		listPlatforms bool
	)

	cmd := &cobra.Command{
		Use:   "validate <url>",
		Short: "Check a URL against a platform's address rules",
		Long: `Validate runs the same checks the dashboard runs before an export:
the URL must parse, and for platform-specific exports its host must match
the platform. Exits 1 when the URL would be rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := common.NewRenderer(cmd.OutOrStdout(), common.Flags.JSON)
			if listPlatforms {
				return r.Platforms()
			}
			if len(args) == 0 {
				return fmt.Errorf("a URL is required")
			}

			key := strings.ToLower(strings.TrimSpace(siteType))
			if _, ok := platform.Lookup(key); !ok {
				return fmt.Errorf("unknown platform %q (see --list-platforms)", siteType)
			}

			v := platform.Validate(args[0], key)
			if err := r.Validation(args[0], key, v); err != nil {
				return err
			}
			if !v.Valid {
				return common.ErrSilent
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&siteType, "type", "t", platform.DefaultKey, "platform the site is built with")
	cmd.Flags().BoolVar(&listPlatforms, "list-platforms", false, "list supported platforms and exit")
	return cmd
}
