// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/wlctl/internal/ui/styles"
	"github.com/jeranaias/wlctl/internal/workflow"
)

// init matches lipgloss to the terminal. NO_COLOR and pipes get plain text.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan).
			MarginBottom(1)

	// SectionStyle is used for section headers within a command
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary).
			MarginTop(1)

	// LabelStyle is used for left-aligned field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(18)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)

	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule. The default width is 60.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("-", w))
}

// RenderField renders one "label  value" status line.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

// RenderEnabled renders the whitelist enforcement state.
func RenderEnabled(enabled bool) string {
	if enabled {
		return SuccessStyle.Render("ENABLED")
	}
	return WarningStyle.Render("DISABLED")
}

// RenderNotice renders a workflow notice with a kind marker.
func RenderNotice(n workflow.Notice) string {
	switch n.Kind {
	case workflow.NoticeSuccess:
		return SuccessStyle.Render("[OK]") + " " + n.Text
	case workflow.NoticeWarning:
		return WarningStyle.Render("[!]") + " " + n.Text
	case workflow.NoticeError:
		return ErrorStyle.Render("[ERROR]") + " " + n.Text
	default:
		return InfoStyle.Render("[-]") + " " + n.Text
	}
}
