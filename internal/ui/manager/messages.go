// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package manager

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/wlctl/internal/workflow"
)

// outcomeMsg carries the result of a dispatched action.
type outcomeMsg struct {
	out workflow.Outcome
	err error
}

// viewMsg carries a silent re-render.
type viewMsg struct {
	out workflow.Outcome
}

// changedMsg reports that state changed outside the session.
type changedMsg struct{}

func dispatchCmd(s Session, a workflow.Action) tea.Cmd {
	return func() tea.Msg {
		out, err := s.Dispatch(context.Background(), a)
		return outcomeMsg{out: out, err: err}
	}
}

func viewCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		return viewMsg{out: s.View(context.Background())}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}
