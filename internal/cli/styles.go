package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")
)

type styles struct {
	prompt    lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	dim       lipgloss.Style
	warning   lipgloss.Style
	danger    lipgloss.Style
}

// newStyles binds the palette to w, so colors are only emitted on terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		prompt:    r.NewStyle().Foreground(successColor).Bold(true),
		assistant: r.NewStyle().Foreground(accentColor),
		tool:      r.NewStyle().Foreground(accentColor).Bold(true),
		dim:       r.NewStyle().Foreground(dimColor),
		warning:   r.NewStyle().Foreground(warningColor),
		danger:    r.NewStyle().Foreground(dangerColor).Bold(true),
	}
}
