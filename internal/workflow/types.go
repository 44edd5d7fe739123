// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"errors"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/identity"
)

var (
	// ErrSessionClosed is returned for any action after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrWrongState is returned when an action is not offered by the
	// current view.
	ErrWrongState = errors.New("action not available in this view")
)

// State is the current view of a session.
type State int

const (
	// StateList shows the whitelist.
	StateList State = iota
	// StateAddEntry shows the add form.
	StateAddEntry
	// StateClosed is terminal.
	StateClosed
)

// String returns the view name.
func (s State) String() string {
	switch s {
	case StateList:
		return "list"
	case StateAddEntry:
		return "add"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// NoticeKind classifies a notice for presentation.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// String returns the notice kind name.
func (k NoticeKind) String() string {
	switch k {
	case NoticeInfo:
		return "info"
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is the one-line feedback shown after an action.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Entry is one whitelisted identity as shown in the list view.
type Entry struct {
	ID     identity.ID
	Name   string
	Online bool
}

// Label returns the live name for online players and the identity
// otherwise.
func (e Entry) Label() string {
	if e.Online && e.Name != "" {
		return e.Name
	}
	return e.ID.String()
}

// ListView is everything needed to draw the list view.
type ListView struct {
	Enabled bool
	Entries []Entry
	Count   int

	// Pending holds recent rejected attempts, newest first. It is nil when
	// no attempt log is attached.
	Pending []attempt.Record
}

// AddForm is the state of the add view.
type AddForm struct {
	Name  string
	Token string
	Error string
}

// Outcome is the result of one action. List is set in StateList and Form
// in StateAddEntry.
type Outcome struct {
	State  State
	Notice Notice
	List   *ListView
	Form   *AddForm
}

// ActionKind names an operator action for Dispatch.
type ActionKind int

const (
	ActionToggle ActionKind = iota
	ActionRemove
	ActionAdd
	ActionRefresh
	ActionClose
	ActionCancel
	ActionConfirm
	ActionApprove
	ActionDismiss
)

// Action is a serialisable operator request.
type Action struct {
	Kind  ActionKind
	ID    identity.ID
	Name  string
	Token string
}
