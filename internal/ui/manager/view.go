// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package manager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/wlctl/internal/util"
	"github.com/jeranaias/wlctl/internal/workflow"
)

const (
	nameWidth    = 18
	addressWidth = 16
)

// View renders the model.
func (m Model) View() string {
	if m.closed {
		return ""
	}

	var body string
	switch m.out.State {
	case workflow.StateAddEntry:
		body = m.renderForm()
	default:
		body = m.renderList()
	}

	parts := []string{m.renderHeader(), body}
	if n := m.renderNotice(); n != "" {
		parts = append(parts, n)
	}
	parts = append(parts, m.renderFooter())
	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Whitelist Manager")
	if m.out.List == nil {
		return m.theme.Header.Render(title)
	}
	badge := m.theme.Disabled.Render("DISABLED")
	if m.out.List.Enabled {
		badge = m.theme.Enabled.Render("ENABLED")
	}
	return m.theme.Header.Render(title + "  " + badge)
}

// =============================================================================
// LIST VIEW
// =============================================================================

func (m Model) renderList() string {
	var b strings.Builder
	view := m.out.List
	if view == nil {
		return ""
	}

	b.WriteString(m.theme.Section.Render(fmt.Sprintf("PLAYERS (%d)", view.Count)))
	b.WriteString("\n")
	if len(view.Entries) == 0 {
		b.WriteString(m.theme.Empty.Render("No players whitelisted"))
		b.WriteString("\n")
	}
	for i, e := range view.Entries {
		b.WriteString(m.renderEntry(e, m.focus == focusPlayers && i == m.cursor))
		b.WriteString("\n")
	}

	if m.opts.ShowPending && view.Pending != nil {
		b.WriteString(m.renderPending())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderEntry(e workflow.Entry, selected bool) string {
	line := e.Label()
	if e.Online {
		line += " " + m.theme.Online.Render("(online)")
		if !m.opts.Compact {
			line += " " + m.theme.Offline.Render(e.ID.Short())
		}
	}
	if selected {
		return m.theme.Selected.Render("> " + line)
	}
	return m.theme.Row.Render("  " + line)
}

func (m Model) renderPending() string {
	var b strings.Builder
	rows := m.pending()
	now := m.now()

	b.WriteString(m.theme.Section.Render(fmt.Sprintf("RECENT ATTEMPTS (%d)", len(rows))))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(m.theme.Empty.Render("No rejected attempts"))
		return b.String()
	}
	for i, rec := range rows {
		line := fmt.Sprintf("%s %s %s %s",
			m.theme.Pending.Render(util.PadRight(util.Truncate(rec.Name(), nameWidth), nameWidth)),
			m.theme.Offline.Render(rec.ID().Short()),
			util.PadRight(util.Truncate(rec.Address(), addressWidth), addressWidth),
			m.theme.Age.Render(rec.FormattedAge(now)),
		)
		if m.focus == focusPending && i == m.pcursor {
			b.WriteString(m.theme.Selected.Render("> " + line))
		} else {
			b.WriteString(m.theme.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// ADD VIEW
// =============================================================================

func (m Model) renderForm() string {
	field := func(label string, idx int, view string) string {
		style := m.theme.FieldBlur
		if idx == m.field {
			style = m.theme.FieldFocus
		}
		return lipgloss.JoinHorizontal(lipgloss.Center, m.theme.Label.Render(label), style.Render(view))
	}

	parts := []string{
		m.theme.Section.Render("ADD PLAYER"),
		m.theme.KeyDesc.Render("Enter the name of an online player, or their UUID."),
		field("Name", 0, m.nameInput.View()),
		field("UUID", 1, m.tokenInput.View()),
	}
	if m.busy {
		parts = append(parts, m.spinner.View()+" Looking up player...")
	} else if m.out.Form != nil && m.out.Form.Error != "" {
		parts = append(parts, m.theme.FormError.Render(m.out.Form.Error))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// NOTICE AND FOOTER
// =============================================================================

func (m Model) renderNotice() string {
	n := m.out.Notice
	if n.Text == "" {
		return ""
	}
	// The add view shows its own error inline.
	if m.out.State == workflow.StateAddEntry && m.out.Form != nil && n.Text == m.out.Form.Error {
		return ""
	}
	switch n.Kind {
	case workflow.NoticeSuccess:
		return m.theme.NoticeSuccess.Render(n.Text)
	case workflow.NoticeWarning:
		return m.theme.NoticeWarning.Render(n.Text)
	case workflow.NoticeError:
		return m.theme.NoticeError.Render(n.Text)
	default:
		return m.theme.NoticeInfo.Render(n.Text)
	}
}

func (m Model) renderFooter() string {
	if m.out.State == workflow.StateAddEntry {
		return m.theme.Footer.Render(m.help.View(formHelp(m.keys)))
	}
	return m.theme.Footer.Render(m.help.View(listHelp(m.keys)))
}
