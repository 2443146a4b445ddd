package cmd

import (
	"fmt"

	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

func newRoutesCmd(a *app) *cobra.Command {
	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Manage the worker routes of a zone",
	}
	routesCmd.PersistentFlags().StringVar(&a.opts.ZoneID, "zone", "", "Cloudflare zone ID")
	_ = routesCmd.MarkPersistentFlagRequired("zone")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the worker routes of a zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			routes, err := d.ListRoutes(cmd.Context(), a.opts.ZoneID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), views.RenderRouteTable(routes))
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Route a URL pattern of a zone to the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			if _, err := d.AddRoute(cmd.Context(), a.opts.ZoneID, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderSuccess(
				fmt.Sprintf("Routed %s to %s", args[0], d.Config().WorkerName)))
			return nil
		},
	}

	routesCmd.AddCommand(listCmd, addCmd)
	return routesCmd
}
