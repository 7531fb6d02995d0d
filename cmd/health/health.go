// Package health implements the health command.
package health

import (
	"github.com/spf13/cobra"

	"github.com/north-cloud/webunpack/cmd/common"
)

type result struct {
	BaseURL string `json:"base_url"`
	Online  bool   `json:"online"`
}

// Command returns the health command.
func Command() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether the backend is reachable",
		Long: `Health calls the backend health endpoint with a short timeout and
reports online or offline. With --strict an offline backend exits 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()

			res := result{
				BaseURL: deps.Client.BaseURL(),
				Online:  deps.Client.Health(cmd.Context()),
			}

			r := deps.Renderer()
			if r.JSONMode() {
				if err := r.JSON(res); err != nil {
					return err
				}
			} else {
				r.Printf("%s: %s", res.BaseURL, status(res.Online))
			}

			if strict && !res.Online {
				return common.ErrSilent
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit 1 when the backend is offline")
	return cmd
}

func status(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
