package cmd

import (
	"fmt"

	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show information about the deployed worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			a.progress(cmd, "Fetching worker info")
			info, err := d.Info(cmd.Context())
			if err != nil {
				return err
			}

			rendered, err := views.RenderWorkerInfo(info)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
}
