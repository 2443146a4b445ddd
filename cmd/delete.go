package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudflare/cfworker/internal/ui/models"
	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errAborted reports a declined confirmation
var errAborted = errors.New("aborted")

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the worker from Cloudflare",
		Long:  `Removes the deployed worker. This action cannot be undone.`,
		Args:  cobra.NoArgs,
		RunE:  a.runDelete,
	}

	cmd.Flags().BoolVarP(&a.opts.AutoYes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// interactive reports whether the command talks to a terminal
func interactive(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

// confirm asks a yes/no question on a plain line, defaulting to no
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	d, err := a.newDeployer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !interactive(cmd) {
		if !a.opts.AutoYes && !confirm(cmd, "Are you sure you want to delete this worker?") {
			return errAborted
		}

		a.progress(cmd, "Deleting worker")
		result, err := d.Delete(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, views.RenderDeleteResult(result))
		return nil
	}

	model := models.NewDeleteModel(ctx, d.Config().WorkerName, d.Delete, a.opts.AutoYes)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(out))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("UI error: %w", err)
	}

	m, ok := final.(models.DeleteModel)
	if !ok {
		return fmt.Errorf("unexpected UI model %T", final)
	}
	if m.Cancelled() {
		return errAborted
	}
	return m.Err()
}
