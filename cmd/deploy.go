package cmd

import (
	"errors"
	"fmt"

	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

// errInvalidCredentials reports a token the API rejected
var errInvalidCredentials = errors.New("invalid API credentials")

func newDeployCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the worker to Cloudflare",
		Long: `Reads the project config and uploads the worker script with its bindings.
With --dry-run the script and metadata are checked without calling the API.`,
		Args: cobra.NoArgs,
		RunE: a.runDeploy,
	}

	cmd.Flags().BoolVar(&a.opts.DryRun, "dry-run", false, "Validate without deploying")
	cmd.Flags().StringVar(&a.opts.ScriptPath, "script", "", "Deploy this script instead of the configured main script")

	return cmd
}

func (a *app) runDeploy(cmd *cobra.Command, args []string) error {
	d, err := a.newDeployer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !a.opts.DryRun {
		a.progress(cmd, "Verifying API connection")
		ok, err := d.VerifyConnection(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errInvalidCredentials
		}
		if !a.opts.Quiet {
			fmt.Fprintln(out, views.RenderSuccess("API connection verified"))
		}
		a.progress(cmd, "Deploying worker")
	} else {
		a.progress(cmd, "Validating worker")
	}

	result, err := d.Deploy(ctx, a.opts.ScriptPath, a.opts.DryRun)
	if err != nil {
		return err
	}

	a.logger.Info("deploy finished", "worker", result.WorkerName, "dry_run", result.DryRun())
	fmt.Fprint(out, views.RenderDeployResult(result, d.WorkerURL()))
	return nil
}
