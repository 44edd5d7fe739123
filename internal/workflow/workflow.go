// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/metrics"
	"github.com/jeranaias/wlctl/internal/whitelist"
)

// DefaultResolveTimeout bounds a name lookup.
const DefaultResolveTimeout = 5 * time.Second

// Workflow is one operator session.
type Workflow struct {
	mu sync.Mutex

	gateway  Gateway
	resolver Resolver
	attempts AttemptLog

	resolveTimeout time.Duration
	logger         *zap.Logger
	metrics        *metrics.Metrics

	state State
	form  AddForm
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithAttemptLog attaches the pending attempt log.
func WithAttemptLog(log AttemptLog) Option {
	return func(w *Workflow) {
		w.attempts = log
	}
}

// WithResolveTimeout bounds name lookups.
func WithResolveTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.resolveTimeout = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// New opens a session in the list view.
func New(gateway Gateway, resolver Resolver, opts ...Option) (*Workflow, error) {
	if gateway == nil {
		return nil, errors.New("whitelist gateway is required")
	}
	if resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	w := &Workflow{
		gateway:        gateway,
		resolver:       resolver,
		resolveTimeout: DefaultResolveTimeout,
		logger:         zap.NewNop(),
		state:          StateList,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// State returns the current view.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View renders the current view without acting. The notice is empty.
func (w *Workflow) View(ctx context.Context) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcomeLocked(ctx, Notice{Kind: NoticeInfo})
}

// Dispatch runs a by kind.
func (w *Workflow) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	switch a.Kind {
	case ActionToggle:
		return w.Toggle(ctx)
	case ActionRemove:
		return w.Remove(ctx, a.ID)
	case ActionAdd:
		return w.Add(ctx)
	case ActionRefresh:
		return w.Refresh(ctx)
	case ActionClose:
		return w.Close()
	case ActionCancel:
		return w.Cancel(ctx)
	case ActionConfirm:
		return w.Confirm(ctx, a.Name, a.Token)
	case ActionApprove:
		return w.Approve(ctx, a.ID)
	case ActionDismiss:
		return w.Dismiss(ctx, a.ID)
	default:
		return w.View(ctx), fmt.Errorf("unknown action %d", a.Kind)
	}
}

// =============================================================================
// LIST VIEW ACTIONS
// =============================================================================

// Toggle flips whether the whitelist is enforced and saves it.
func (w *Workflow) Toggle(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}

	enabled := !w.gateway.Enabled()
	w.gateway.SetEnabled(enabled)
	if err := w.gateway.Persist(); err != nil {
		w.metrics.RecordMutation("toggle", metrics.ResultError)
		w.logger.Error("Failed to save whitelist state", zap.Bool("enabled", enabled), zap.Error(err))
		return w.outcomeLocked(ctx, errorNotice("Failed to save whitelist: %v", err)), nil
	}

	w.metrics.RecordMutation("toggle", metrics.ResultChanged)
	w.logger.Info("Whitelist toggled", zap.Bool("enabled", enabled))
	if enabled {
		return w.outcomeLocked(ctx, Notice{NoticeSuccess, "Whitelist enabled"}), nil
	}
	return w.outcomeLocked(ctx, Notice{NoticeSuccess, "Whitelist disabled"}), nil
}

// Remove drops id from the whitelist.
func (w *Workflow) Remove(ctx context.Context, id identity.ID) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}

	label := w.labelLocked(ctx, id)
	changed, err := whitelist.Remove(w.gateway, id)
	switch {
	case err != nil:
		w.metrics.RecordMutation("remove", metrics.ResultError)
		w.logger.Error("Failed to remove from whitelist", zap.Stringer("uuid", id), zap.Error(err))
		return w.outcomeLocked(ctx, errorNotice("Failed to remove %s: %v", label, err)), nil
	case !changed:
		w.metrics.RecordMutation("remove", metrics.ResultUnchanged)
		return w.outcomeLocked(ctx, Notice{NoticeWarning, label + " was not whitelisted"}), nil
	}

	w.metrics.RecordMutation("remove", metrics.ResultChanged)
	w.logger.Info("Removed from whitelist", zap.Stringer("uuid", id), zap.String("label", label))
	return w.outcomeLocked(ctx, Notice{NoticeSuccess, "Removed " + label + " from whitelist"}), nil
}

// Add opens the add form.
func (w *Workflow) Add(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}

	w.state = StateAddEntry
	w.form = AddForm{}
	return w.outcomeLocked(ctx, Notice{NoticeInfo, "Enter a player name or UUID"}), nil
}

// Refresh redraws the list view.
func (w *Workflow) Refresh(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}
	return w.outcomeLocked(ctx, Notice{NoticeInfo, "Whitelist refreshed"}), nil
}

// Approve whitelists a pending identity and drops it from the attempt log.
func (w *Workflow) Approve(ctx context.Context, id identity.ID) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}
	if w.attempts == nil {
		return w.outcomeLocked(ctx, errorNotice("No attempt log is attached")), nil
	}

	label := w.pendingLabelLocked(ctx, id)
	notice, ok := w.addLocked(id, label)
	if ok {
		w.forgetAttemptLocked(id)
	}
	return w.outcomeLocked(ctx, notice), nil
}

// Dismiss drops a pending identity from the attempt log without
// whitelisting it.
func (w *Workflow) Dismiss(ctx context.Context, id identity.ID) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateList); err != nil {
		return out, err
	}
	if w.attempts == nil {
		return w.outcomeLocked(ctx, errorNotice("No attempt log is attached")), nil
	}

	label := w.pendingLabelLocked(ctx, id)
	if err := w.attempts.Remove(id); err != nil {
		w.logger.Error("Failed to dismiss attempt", zap.Stringer("uuid", id), zap.Error(err))
		return w.outcomeLocked(ctx, errorNotice("Failed to dismiss %s: %v", label, err)), nil
	}
	return w.outcomeLocked(ctx, Notice{NoticeInfo, "Dismissed " + label}), nil
}

// Close ends the session. Every later action fails with ErrSessionClosed.
func (w *Workflow) Close() (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return closedOutcome(), ErrSessionClosed
	}
	w.state = StateClosed
	w.form = AddForm{}
	return Outcome{State: StateClosed, Notice: Notice{NoticeInfo, "Whitelist manager closed"}}, nil
}

// =============================================================================
// ADD VIEW ACTIONS
// =============================================================================

// Cancel leaves the add form without changes.
func (w *Workflow) Cancel(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateAddEntry); err != nil {
		return out, err
	}

	w.state = StateList
	w.form = AddForm{}
	return w.outcomeLocked(ctx, Notice{NoticeInfo, "Add cancelled"}), nil
}

// Confirm resolves the form input and whitelists the result. A non-empty
// token wins over a name. Resolution failures keep the form open with an
// inline error and never reach the gateway.
func (w *Workflow) Confirm(ctx context.Context, name, token string) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, err := w.guardLocked(ctx, StateAddEntry); err != nil {
		return out, err
	}

	name = strings.TrimSpace(name)
	token = strings.TrimSpace(token)
	w.form = AddForm{Name: name, Token: token}

	var (
		id    identity.ID
		label string
	)
	switch {
	case token != "":
		parsed, err := identity.Parse(token)
		if err != nil {
			return w.formErrorLocked(ctx, "Invalid UUID format: "+token), nil
		}
		id = parsed
		label = w.labelLocked(ctx, id)

	case name != "":
		rctx, cancel := context.WithTimeout(ctx, w.resolveTimeout)
		resolved, ok := w.resolver.FindOnlineByName(rctx, name, true)
		timedOut := errors.Is(rctx.Err(), context.DeadlineExceeded)
		cancel()
		if !ok {
			if timedOut {
				return w.formErrorLocked(ctx, "Lookup for "+name+" timed out. Enter their UUID instead."), nil
			}
			return w.formErrorLocked(ctx, name+" is not online. Enter their UUID instead."), nil
		}
		id = resolved
		label = name

	default:
		return w.formErrorLocked(ctx, "Please enter a player name or UUID"), nil
	}

	notice, ok := w.addLocked(id, label)
	if !ok {
		w.form.Error = notice.Text
		return w.outcomeLocked(ctx, notice), nil
	}

	if w.attempts != nil {
		w.forgetAttemptLocked(id)
	}
	w.state = StateList
	w.form = AddForm{}
	return w.outcomeLocked(ctx, notice), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// guardLocked rejects actions from the wrong view.
func (w *Workflow) guardLocked(ctx context.Context, want State) (Outcome, error) {
	if w.state == StateClosed {
		return closedOutcome(), ErrSessionClosed
	}
	if w.state != want {
		return w.outcomeLocked(ctx, errorNotice("Not available in the %s view", w.state)), ErrWrongState
	}
	return Outcome{}, nil
}

// addLocked whitelists id. ok is false only when the gateway failed.
func (w *Workflow) addLocked(id identity.ID, label string) (Notice, bool) {
	changed, err := whitelist.Add(w.gateway, id)
	if err != nil {
		w.metrics.RecordMutation("add", metrics.ResultError)
		w.logger.Error("Failed to add to whitelist", zap.Stringer("uuid", id), zap.Error(err))
		return errorNotice("Failed to add %s: %v", label, err), false
	}
	if !changed {
		w.metrics.RecordMutation("add", metrics.ResultUnchanged)
		return Notice{NoticeWarning, label + " is already whitelisted"}, true
	}
	w.metrics.RecordMutation("add", metrics.ResultChanged)
	w.logger.Info("Added to whitelist", zap.Stringer("uuid", id), zap.String("label", label))
	return Notice{NoticeSuccess, "Added " + label + " to whitelist"}, true
}

func (w *Workflow) forgetAttemptLocked(id identity.ID) {
	if err := w.attempts.Remove(id); err != nil {
		w.logger.Warn("Failed to drop pending attempt", zap.Stringer("uuid", id), zap.Error(err))
	}
}

// labelLocked names id for notices: the live name if online.
func (w *Workflow) labelLocked(ctx context.Context, id identity.ID) string {
	if name, ok := w.resolver.FindOnline(ctx, id); ok && name != "" {
		return name
	}
	return id.String()
}

// pendingLabelLocked prefers the name recorded with the attempt.
func (w *Workflow) pendingLabelLocked(ctx context.Context, id identity.ID) string {
	for _, rec := range w.attempts.List() {
		if rec.ID() == id && rec.Name() != "" {
			return rec.Name()
		}
	}
	return w.labelLocked(ctx, id)
}

func (w *Workflow) formErrorLocked(ctx context.Context, text string) Outcome {
	w.form.Error = text
	return w.outcomeLocked(ctx, Notice{NoticeError, text})
}

// outcomeLocked renders the current view. Presence is looked up on every
// call.
func (w *Workflow) outcomeLocked(ctx context.Context, n Notice) Outcome {
	out := Outcome{State: w.state, Notice: n}
	switch w.state {
	case StateList:
		out.List = w.renderListLocked(ctx)
	case StateAddEntry:
		form := w.form
		out.Form = &form
	}
	return out
}

func (w *Workflow) renderListLocked(ctx context.Context) *ListView {
	ids := w.gateway.Identities().Sorted()
	view := &ListView{
		Enabled: w.gateway.Enabled(),
		Entries: make([]Entry, 0, len(ids)),
		Count:   len(ids),
	}
	for _, id := range ids {
		name, online := w.resolver.FindOnline(ctx, id)
		view.Entries = append(view.Entries, Entry{ID: id, Name: name, Online: online})
	}
	if w.attempts != nil {
		view.Pending = w.attempts.List()
	}
	return view
}

func closedOutcome() Outcome {
	return Outcome{State: StateClosed, Notice: Notice{NoticeError, "Session closed"}}
}

func errorNotice(format string, args ...any) Notice {
	return Notice{Kind: NoticeError, Text: fmt.Sprintf(format, args...)}
}
