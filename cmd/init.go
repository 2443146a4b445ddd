package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cloudflare/cfworker/internal/config"
	"github.com/cloudflare/cfworker/internal/templates"
	"github.com/cloudflare/cfworker/internal/ui/styles"
	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
)

var placeholderEnv = map[string]string{
	config.AccountIDEnv: "your_account_id_here",
	config.APITokenEnv:  "your_api_token_here",
}

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <worker-name>",
		Short: "Initialize a new worker project",
		Long: `Creates a .cfworker.json config file and a worker.js script from a template.
A placeholder .env file is written when none exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&a.opts.Template, "template", "t", templates.Default,
		fmt.Sprintf("Worker template to use %v", templates.Names()))
	cmd.Flags().BoolVarP(&a.opts.Force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (a *app) runInit(cmd *cobra.Command, workerName string) error {
	script, err := templates.Get(a.opts.Template)
	if err != nil {
		return err
	}

	configPath := a.opts.ConfigPath
	scriptPath := filepath.Join(filepath.Dir(configPath), config.DefaultMainScript)

	if !a.opts.Force {
		for _, path := range []string{configPath, scriptPath} {
			if exists(path) {
				return fmt.Errorf("%s already exists, use --force to overwrite", filepath.Base(path))
			}
		}
	}

	out := cmd.OutOrStdout()

	if _, err := config.CreateDefault(workerName, configPath); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintln(out, views.RenderSuccess("Created "+filepath.Base(configPath)))

	if err := os.WriteFile(scriptPath, script, 0644); err != nil {
		return fmt.Errorf("failed to create worker script: %w", err)
	}
	fmt.Fprintln(out, views.RenderSuccess(fmt.Sprintf("Created %s from '%s' template", config.DefaultMainScript, a.opts.Template)))

	steps := []string{}
	envPath := filepath.Join(filepath.Dir(configPath), config.DotEnvFile)
	if !exists(envPath) {
		if err := config.WriteDotEnv(envPath, placeholderEnv); err != nil {
			return err
		}
		fmt.Fprintln(out, views.RenderSuccess("Created "+config.DotEnvFile+" file"))
		steps = append(steps, "Edit .env and add your Cloudflare credentials")
	}
	steps = append(steps,
		"Edit worker.js to implement your worker logic",
		"Run 'cfworker deploy' to deploy your worker",
	)

	if a.opts.Quiet {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.Warning.Render("Next steps:"))
	for i, step := range steps {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	return nil
}
