package cmd

import (
	"fmt"

	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

func newKVCmd(a *app) *cobra.Command {
	kvCmd := &cobra.Command{
		Use:   "kv",
		Short: "Manage Workers KV namespaces",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the KV namespaces of your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			namespaces, err := d.ListKVNamespaces(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), views.RenderKVNamespaceTable(namespaces))
			return nil
		},
	}

	var binding string
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a KV namespace",
		Long: `Creates a KV namespace. With --binding the namespace is also added to the
kv_namespaces of the project config under that binding name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.newDeployer()
			if err != nil {
				return err
			}

			namespace, err := d.CreateKVNamespace(cmd.Context(), args[0], binding)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, views.RenderSuccess(fmt.Sprintf("Created KV namespace '%s' (%s)", args[0], namespace.ID)))
			if binding != "" {
				fmt.Fprintln(out, views.RenderSuccess(fmt.Sprintf("Bound as %s in %s", binding, d.Config().Path())))
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&binding, "binding", "", "Add the namespace to the project config under this binding name")

	kvCmd.AddCommand(listCmd, createCmd)
	return kvCmd
}
