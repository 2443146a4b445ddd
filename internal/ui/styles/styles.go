package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/cloudflare/cloudflare-go"
)

// Cloudflare color palette
var (
	Orange    = lipgloss.Color("#F38020")
	LightBlue = lipgloss.Color("#3B82F6")
	Green     = lipgloss.Color("#10B981")
	Yellow    = lipgloss.Color("#F59E0B")
	Red       = lipgloss.Color("#EF4444")
	White     = lipgloss.Color("#FFFFFF")
	Gray      = lipgloss.Color("#9CA3AF")
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Orange)

	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Orange).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Orange).
		Padding(0, 2)

	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Width(14)

	Info = lipgloss.NewStyle().
		Foreground(White)

	Success = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Yellow).
		Bold(true)

	Error = lipgloss.NewStyle().
		Foreground(Red).
		Bold(true)

	Muted = lipgloss.NewStyle().
		Foreground(Gray)

	Highlight = lipgloss.NewStyle().
			Foreground(Orange).
			Bold(true)

	Link = lipgloss.NewStyle().
		Foreground(LightBlue).
		Underline(true)
)

// Box styles
var (
	Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(LightBlue).
		Padding(0, 2)

	DangerBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(0, 2)

	SuccessBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Padding(0, 2)
)

// Table cell styles
var (
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Orange).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)

	TableBorder = lipgloss.NewStyle().
			Foreground(Gray)
)

// FormatBindingType formats a binding type for display
func FormatBindingType(bindingType cloudflare.WorkerBindingType) string {
	switch bindingType {
	case cloudflare.WorkerPlainTextBindingType:
		return "Variable"
	case cloudflare.WorkerKvNamespaceBindingType:
		return "KV Namespace"
	default:
		return string(bindingType)
	}
}
