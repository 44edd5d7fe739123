// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package manager

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/ui/styles"
	"github.com/jeranaias/wlctl/internal/workflow"
)

// Session is the workflow as driven by the manager.
type Session interface {
	View(ctx context.Context) workflow.Outcome
	Dispatch(ctx context.Context, a workflow.Action) (workflow.Outcome, error)
}

var _ Session = (*workflow.Workflow)(nil)

// focus selects which list the cursor is in.
type focus int

const (
	focusPlayers focus = iota
	focusPending
)

// Options tune what the manager shows.
type Options struct {
	// ShowPending draws the rejected attempts panel.
	ShowPending bool
	// Compact hides identities next to online player names.
	Compact bool
	// Changes signals external state changes. May be nil.
	Changes <-chan struct{}
}

// Model is the Bubble Tea model for one management session.
type Model struct {
	session Session
	opts    Options
	theme   *styles.Theme
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	nameInput  textinput.Model
	tokenInput textinput.Model
	field      int

	out     workflow.Outcome
	cursor  int
	pcursor int
	focus   focus
	busy    bool
	closed  bool

	width  int
	height int
	now    func() time.Time
}

// New creates a manager showing the session's current view.
func New(session Session, opts Options) Model {
	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "online player name"
	name.CharLimit = 32

	token := textinput.New()
	token.Prompt = ""
	token.Placeholder = "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
	token.CharLimit = 36

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	theme := styles.NewTheme()
	sp.Style = theme.Spinner

	return Model{
		session:    session,
		opts:       opts,
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		nameInput:  name,
		tokenInput: token,
		out:        session.View(context.Background()),
		now:        time.Now,
	}
}

// Run starts the manager full screen and blocks until it closes.
func Run(session Session, opts Options) error {
	_, err := tea.NewProgram(New(session, opts), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for external changes.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.opts.Changes)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.busy || m.closed {
			return m, nil
		}
		if m.out.State == workflow.StateAddEntry {
			return m.handleFormKey(msg)
		}
		return m.handleListKey(msg)

	case outcomeMsg:
		return m.handleOutcome(msg)

	case viewMsg:
		// A silent refresh must not wipe the notice of the last action.
		if msg.out.State == m.out.State && msg.out.State == workflow.StateList {
			notice := m.out.Notice
			m.out = msg.out
			m.out.Notice = notice
			m.clamp()
		}
		return m, nil

	case changedMsg:
		cmds := []tea.Cmd{waitForChange(m.opts.Changes)}
		if !m.busy && m.out.State == workflow.StateList {
			cmds = append(cmds, viewCmd(m.session))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.out.State == workflow.StateAddEntry {
		return m.updateInputs(msg)
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.dispatch(workflow.Action{Kind: workflow.ActionClose})

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Switch):
		if m.focus == focusPlayers && len(m.pending()) > 0 {
			m.focus = focusPending
		} else {
			m.focus = focusPlayers
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m.dispatch(workflow.Action{Kind: workflow.ActionToggle})

	case key.Matches(msg, m.keys.Add):
		return m.dispatch(workflow.Action{Kind: workflow.ActionAdd})

	case key.Matches(msg, m.keys.Refresh):
		return m.dispatch(workflow.Action{Kind: workflow.ActionRefresh})

	case key.Matches(msg, m.keys.Remove):
		if m.focus == focusPending {
			if rec, ok := m.selectedPending(); ok {
				return m.dispatch(workflow.Action{Kind: workflow.ActionDismiss, ID: rec.ID()})
			}
			return m, nil
		}
		if entry, ok := m.selectedEntry(); ok {
			return m.dispatch(workflow.Action{Kind: workflow.ActionRemove, ID: entry.ID})
		}
		return m, nil

	case key.Matches(msg, m.keys.Approve):
		if m.focus != focusPending {
			return m, nil
		}
		if rec, ok := m.selectedPending(); ok {
			return m.dispatch(workflow.Action{Kind: workflow.ActionApprove, ID: rec.ID()})
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m.dispatch(workflow.Action{Kind: workflow.ActionClose})

	case key.Matches(msg, m.keys.Cancel):
		return m.dispatch(workflow.Action{Kind: workflow.ActionCancel})

	case key.Matches(msg, m.keys.Submit):
		return m.dispatch(workflow.Action{
			Kind:  workflow.ActionConfirm,
			Name:  m.nameInput.Value(),
			Token: m.tokenInput.Value(),
		})

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		return m.switchField()
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.field == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.tokenInput, cmd = m.tokenInput.Update(msg)
	}
	return m, cmd
}

func (m Model) switchField() (tea.Model, tea.Cmd) {
	m.field = 1 - m.field
	if m.field == 0 {
		m.tokenInput.Blur()
		return m, m.nameInput.Focus()
	}
	m.nameInput.Blur()
	return m, m.tokenInput.Focus()
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) dispatch(a workflow.Action) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, tea.Batch(m.spinner.Tick, dispatchCmd(m.session, a))
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	prev := m.out.State
	m.out = msg.out

	if errors.Is(msg.err, workflow.ErrSessionClosed) || msg.out.State == workflow.StateClosed {
		m.closed = true
		return m, tea.Quit
	}

	switch msg.out.State {
	case workflow.StateAddEntry:
		if prev != workflow.StateAddEntry {
			m.nameInput.Reset()
			m.tokenInput.Reset()
			m.field = 0
			m.tokenInput.Blur()
			return m, m.nameInput.Focus()
		}
	case workflow.StateList:
		m.nameInput.Blur()
		m.tokenInput.Blur()
		m.clamp()
	}
	return m, nil
}

// =============================================================================
// SELECTION
// =============================================================================

func (m Model) entries() []workflow.Entry {
	if m.out.List == nil {
		return nil
	}
	return m.out.List.Entries
}

func (m Model) pending() []attempt.Record {
	if m.out.List == nil || !m.opts.ShowPending {
		return nil
	}
	return m.out.List.Pending
}

func (m Model) selectedEntry() (workflow.Entry, bool) {
	entries := m.entries()
	if m.cursor < 0 || m.cursor >= len(entries) {
		return workflow.Entry{}, false
	}
	return entries[m.cursor], true
}

func (m Model) selectedPending() (attempt.Record, bool) {
	rows := m.pending()
	if m.pcursor < 0 || m.pcursor >= len(rows) {
		return attempt.Record{}, false
	}
	return rows[m.pcursor], true
}

func (m *Model) move(delta int) {
	if m.focus == focusPending {
		m.pcursor += delta
	} else {
		m.cursor += delta
	}
	m.clamp()
}

func (m *Model) clamp() {
	m.cursor = clampIndex(m.cursor, len(m.entries()))
	m.pcursor = clampIndex(m.pcursor, len(m.pending()))
	if m.focus == focusPending && len(m.pending()) == 0 {
		m.focus = focusPlayers
	}
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
