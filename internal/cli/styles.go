// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for all wakeup commands.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss to match the detected color profile, which
// disables styling for piped output and NO_COLOR environments.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// titleStyle is used for banners and section titles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// promptStyle is used for the REPL prompt.
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// successStyle is used for success messages.
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")) // Green

	// errorStyle is used for error messages.
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	// warningStyle is used for warnings and cautions.
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	// infoStyle is used for secondary information and hints.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Light gray

	// dimStyle is used for de-emphasized detail lines.
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// highlightStyle is used for values that should stand out, such as
	// the device-flow user code.
	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82")) // Bright green

	// toolBoxStyle draws the bordered box around tool activity.
	toolBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("75")). // Blue
			Padding(0, 1)
)

// renderSeparator renders a horizontal separator of the given width.
func renderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return dimStyle.Render(strings.Repeat("─", width))
}
