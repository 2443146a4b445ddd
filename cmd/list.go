package cmd

import (
	"fmt"

	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workers in your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			a.progress(cmd, "Fetching workers")
			list, err := d.ListWorkers(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), views.RenderWorkerTable(list))
			return nil
		},
	}
}
