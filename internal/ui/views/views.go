package views

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cloudflare/cfworker/internal/ui/styles"
	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/cloudflare/cloudflare-go"
	json "github.com/goccy/go-json"
)

// NoWorkersMessage is shown by list for an empty account
const NoWorkersMessage = "No workers found in your account."

const notAvailable = "N/A"

// RenderHeader renders the application header
func RenderHeader(subtitle string) string {
	var b strings.Builder
	b.WriteString(styles.Header.Render("☁️  cfworker"))
	b.WriteString("\n")
	if subtitle != "" {
		b.WriteString(styles.Subtitle.Render(subtitle))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProgress renders a progress message
func RenderProgress(message string) string {
	return styles.Info.Render(fmt.Sprintf("⏳ %s...", message))
}

// RenderSuccess renders a success message
func RenderSuccess(message string) string {
	return styles.Success.Render(fmt.Sprintf("✓ %s", message))
}

// RenderError renders an error message as a sentence, so lowercase Go error
// strings read as user-facing text
func RenderError(message string) string {
	return styles.Error.Render(fmt.Sprintf("✗ %s", sentence(message)))
}

func sentence(message string) string {
	r, size := utf8.DecodeRuneInString(message)
	if r == utf8.RuneError {
		return message
	}
	return string(unicode.ToUpper(r)) + message[size:]
}

// RenderWarning renders a warning message
func RenderWarning(message string) string {
	return styles.Warning.Render(fmt.Sprintf("⚠️  %s", message))
}

func field(label, value string) string {
	return fmt.Sprintf("%s%s\n", styles.Label.Render(label), styles.Info.Render(value))
}

// RenderDeployResult renders the outcome of a deploy or of a dry run
func RenderDeployResult(result *types.DeployResult, workerURL string) string {
	var b strings.Builder

	if result.DryRun() {
		b.WriteString(RenderSuccess("Validation successful"))
		b.WriteString("\n")
	} else {
		b.WriteString(RenderSuccess("Worker deployed successfully!"))
		b.WriteString("\n")
	}

	b.WriteString(field("Worker name:", result.WorkerName))
	b.WriteString(field("Script size:", fmt.Sprintf("%d bytes", result.ScriptSize)))

	if result.DryRun() && result.Metadata != nil {
		b.WriteString(field("Main module:", result.Metadata.MainModule))
		b.WriteString(field("Compat date:", result.Metadata.CompatibilityDate))
		b.WriteString(RenderBindings(result.Metadata.Bindings))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(styles.Warning.Render("Your worker is now live at:"))
	b.WriteString("\n")
	b.WriteString(styles.Link.Render(workerURL))
	b.WriteString("\n")

	return b.String()
}

// RenderBindings renders the bindings that would be attached on upload
func RenderBindings(bindings []types.Binding) string {
	if len(bindings) == 0 {
		return field("Bindings:", "none")
	}

	var b strings.Builder
	b.WriteString(field("Bindings:", fmt.Sprintf("%d", len(bindings))))
	for _, binding := range bindings {
		target := binding.Text
		if binding.Type == cloudflare.WorkerKvNamespaceBindingType {
			target = binding.NamespaceID
		}
		b.WriteString(fmt.Sprintf("  • %s %s %s\n",
			styles.Highlight.Render(binding.Name),
			styles.Muted.Render(styles.FormatBindingType(binding.Type)),
			target))
	}
	return b.String()
}

// RenderDeleteResult renders a completed deletion
func RenderDeleteResult(result *types.DeleteResult) string {
	return RenderSuccess(fmt.Sprintf("Worker '%s' deleted successfully", result.WorkerName))
}

// RenderWorkerInfo renders the worker details as indented JSON in a box
func RenderWorkerInfo(info types.Object) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format worker info: %w", err)
	}

	var b strings.Builder
	b.WriteString(RenderSuccess("Worker information:"))
	b.WriteString("\n")
	b.WriteString(styles.Box.Render(string(data)))
	b.WriteString("\n")
	return b.String(), nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			return styles.TableCell
		}).
		Headers(headers...)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// RenderWorkerTable renders the workers of an account
func RenderWorkerTable(list *types.WorkerList) string {
	if list.Count == 0 {
		return styles.Warning.Render(NoWorkersMessage) + "\n"
	}

	t := newTable("Name", "Created", "Modified")
	for _, w := range list.Workers {
		t.Row(orNA(w.ID), orNA(w.CreatedOn), orNA(w.ModifiedOn))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Workers (%d)", list.Count)))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderKVNamespaceTable renders the KV namespaces of an account
func RenderKVNamespaceTable(namespaces []cloudflare.WorkersKVNamespace) string {
	if len(namespaces) == 0 {
		return styles.Warning.Render("No KV namespaces found in your account.") + "\n"
	}

	t := newTable("Title", "ID")
	for _, ns := range namespaces {
		t.Row(orNA(ns.Title), orNA(ns.ID))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("KV Namespaces (%d)", len(namespaces))))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderRouteTable renders the worker routes of a zone
func RenderRouteTable(routes []cloudflare.WorkerRoute) string {
	if len(routes) == 0 {
		return styles.Warning.Render("No routes found in this zone.") + "\n"
	}

	t := newTable("Pattern", "Worker", "ID")
	for _, r := range routes {
		t.Row(r.Pattern, orNA(r.ScriptName), orNA(r.ID))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Routes (%d)", len(routes))))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}
