package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudflare/cfworker/internal/ui/styles"
	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/cloudflare/cfworker/pkg/types"
)

type sessionState int

const (
	stateConfirm sessionState = iota
	stateDeleting
	stateComplete
	stateCancelled
	stateError
)

// ErrInterrupted is returned when the user quits while the deletion request is
// in flight. The worker may or may not have been deleted.
var ErrInterrupted = errors.New("deletion interrupted")

// DeleteFunc performs the deletion once the user confirmed it
type DeleteFunc func(ctx context.Context) (*types.DeleteResult, error)

// DeleteModel asks for confirmation, then deletes the worker behind a spinner
type DeleteModel struct {
	ctx        context.Context
	state      sessionState
	workerName string
	deleteFn   DeleteFunc
	result     *types.DeleteResult
	err        error
	spinner    spinner.Model
}

// NewDeleteModel creates the delete model. With autoYes the confirmation step
// is skipped.
func NewDeleteModel(ctx context.Context, workerName string, deleteFn DeleteFunc, autoYes bool) DeleteModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Highlight

	m := DeleteModel{
		ctx:        ctx,
		state:      stateConfirm,
		workerName: workerName,
		deleteFn:   deleteFn,
		spinner:    s,
	}
	if autoYes {
		m.state = stateDeleting
	}
	return m
}

// Result returns the deletion result, nil unless the deletion completed
func (m DeleteModel) Result() *types.DeleteResult {
	return m.result
}

// Err returns the deletion error
func (m DeleteModel) Err() error {
	return m.err
}

// Cancelled reports whether the user declined the deletion
func (m DeleteModel) Cancelled() bool {
	return m.state == stateCancelled
}

// Init initializes the model
func (m DeleteModel) Init() tea.Cmd {
	if m.state == stateDeleting {
		return tea.Batch(m.spinner.Tick, m.runDeletion())
	}
	return m.spinner.Tick
}

// Update handles messages
func (m DeleteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case deletionCompleteMsg:
		m.state = stateComplete
		m.result = msg.result
		m.err = nil
		return m, tea.Quit

	case deletionErrorMsg:
		m.state = stateError
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m DeleteModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state != stateConfirm {
		if msg.String() == "ctrl+c" {
			if m.state == stateDeleting {
				m.state = stateError
				m.err = ErrInterrupted
			}
			return m, tea.Quit
		}
		return m, nil
	}

	// enter takes the default answer of the [y/N] prompt
	switch msg.String() {
	case "ctrl+c", "q", "esc", "n", "N", "enter":
		m.state = stateCancelled
		return m, tea.Quit

	case "y", "Y":
		m.state = stateDeleting
		return m, m.runDeletion()
	}

	return m, nil
}

func (m DeleteModel) runDeletion() tea.Cmd {
	ctx, deleteFn := m.ctx, m.deleteFn
	return func() tea.Msg {
		result, err := deleteFn(ctx)
		if err != nil {
			return deletionErrorMsg{err: err}
		}
		return deletionCompleteMsg{result: result}
	}
}

// View renders the UI. A cancelled or failed deletion renders nothing; the
// caller reports the returned error.
func (m DeleteModel) View() string {
	var b strings.Builder

	switch m.state {
	case stateConfirm:
		b.WriteString(fmt.Sprintf("Worker: %s\n", styles.Highlight.Render(m.workerName)))
		b.WriteString(views.RenderWarning("This action cannot be undone!"))
		b.WriteString("\n\n")
		b.WriteString("Are you sure you want to delete this worker? [y/N]: ")

	case stateDeleting:
		b.WriteString(fmt.Sprintf("%s Deleting worker...\n", m.spinner.View()))

	case stateComplete:
		b.WriteString(views.RenderDeleteResult(m.result))
		b.WriteString("\n")
	}

	return b.String()
}

// Messages
type deletionCompleteMsg struct {
	result *types.DeleteResult
}

type deletionErrorMsg struct {
	err error
}
