// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// FRAME
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Section     lipgloss.Style
	Panel       lipgloss.Style
	Footer      lipgloss.Style
	KeyHint     lipgloss.Style
	KeyDesc     lipgloss.Style

	// ==========================================================================
	// LIST VIEW
	// ==========================================================================

	Enabled  lipgloss.Style
	Disabled lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Online   lipgloss.Style
	Offline  lipgloss.Style
	Empty    lipgloss.Style
	Pending  lipgloss.Style
	Age      lipgloss.Style

	// ==========================================================================
	// ADD VIEW
	// ==========================================================================

	Label      lipgloss.Style
	FieldFocus lipgloss.Style
	FieldBlur  lipgloss.Style
	FormError  lipgloss.Style
	Spinner    lipgloss.Style

	// ==========================================================================
	// NOTICES
	// ==========================================================================

	NoticeInfo    lipgloss.Style
	NoticeSuccess lipgloss.Style
	NoticeWarning lipgloss.Style
	NoticeError   lipgloss.Style
}

// NewTheme detects the terminal and builds the styles.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Section = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginTop(1)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		MarginTop(1)

	t.KeyHint = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.KeyDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// List view
	t.Enabled = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Emerald).
		Padding(0, 1)

	t.Disabled = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	t.Row = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.Selected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(2)

	t.Online = lipgloss.NewStyle().Foreground(Emerald)
	t.Offline = lipgloss.NewStyle().Foreground(TextMuted)
	t.Empty = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).PaddingLeft(2)
	t.Pending = lipgloss.NewStyle().Foreground(Amber)
	t.Age = lipgloss.NewStyle().Foreground(TextMuted)

	// Add view
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Width(8)
	t.FieldFocus = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)
	t.FieldBlur = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.FormError = lipgloss.NewStyle().Foreground(Rose)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	// Notices
	t.NoticeInfo = lipgloss.NewStyle().Foreground(Cyan)
	t.NoticeSuccess = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.NoticeWarning = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.NoticeError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
