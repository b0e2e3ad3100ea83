// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output.
const (
	// ColorPrimary is purple, used for titles.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, used for descriptions and secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, used for command names.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

// theme holds the styles of one invocation.
type theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Cmd      lipgloss.Style
}

func newTheme(color bool) theme {
	if !color {
		plain := lipgloss.NewStyle()
		return theme{
			Title:    plain,
			Subtitle: plain,
			Success:  plain,
			Error:    plain,
			Warning:  plain,
			Cmd:      plain,
		}
	}
	return theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Subtitle: lipgloss.NewStyle().Foreground(ColorMuted),
		Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(ColorError),
		Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
		Cmd:      lipgloss.NewStyle().Foreground(ColorHighlight),
	}
}
