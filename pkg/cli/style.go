// Package cli provides terminal styling for the headbang command line tools.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Accent  lipgloss.Color // Secondary highlight color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#ff79c6"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle().Foreground(t.Accent),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Header renders a section title line.
func (s Styles) Header(title string) string {
	return s.Title.Render(title)
}

// KeyValue renders one "label: value" line with the label padded to width.
func (s Styles) KeyValue(width int, key string, value any) string {
	pad := strings.Repeat(" ", max(0, width-lipgloss.Width(key)))
	return fmt.Sprintf("  %s%s %s", s.Label.Render(key+":"), pad, s.Value.Render(fmt.Sprint(value)))
}

// Note renders dimmed help text.
func (s Styles) Note(text string) string {
	return s.Help.Render(text)
}
