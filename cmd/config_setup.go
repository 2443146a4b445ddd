package cmd

import (
	"fmt"
	"os"

	"github.com/cloudflare/cfworker/internal/api"
	"github.com/cloudflare/cfworker/internal/auth"
	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

func newConfigSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config-setup",
		Short: "Interactive setup for Cloudflare credentials",
		Long: `Prompts for the Cloudflare account ID and API token, stores them in .env
and verifies them against the API.`,
		Args: cobra.NoArgs,
		RunE: a.runConfigSetup,
	}
}

func (a *app) runConfigSetup(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	out := cmd.OutOrStdout()
	opts := []auth.Option{auth.WithOutput(out)}
	if in := cmd.InOrStdin(); in != os.Stdin {
		opts = append(opts, auth.WithInput(in))
	}

	mgr := auth.NewManager(wd, opts...)
	creds, err := mgr.Setup()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, views.RenderSuccess("Credentials saved to "+mgr.EnvPath()))

	ok, err := auth.Verify(cmd.Context(), creds,
		api.WithBaseURL(a.v.GetString("api_url")),
		api.WithLogger(a.logger),
	)
	switch {
	case err != nil:
		fmt.Fprintln(out, views.RenderError(fmt.Sprintf("Verification failed: %v", err)))
	case ok:
		fmt.Fprintln(out, views.RenderSuccess("Credentials verified successfully!"))
	default:
		fmt.Fprintln(out, views.RenderError("Credentials verification failed. Please check your API token."))
	}
	return nil
}
