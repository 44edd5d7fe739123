// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/jeranaias/wlctl/internal/attempt"
	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/plugin"
	"github.com/jeranaias/wlctl/internal/util"
	"github.com/jeranaias/wlctl/internal/workflow"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

// OnlineCounter reports how many players are connected.
type OnlineCounter interface {
	Count() int
}

// Env is what command handlers run against.
type Env struct {
	Config *config.Config
	Plugin *plugin.Plugin
	Online OnlineCounter
	Out    io.Writer

	// Now is the clock used for attempt ages. Nil means time.Now.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Session is a management session. *workflow.Workflow implements it.
type Session interface {
	View(ctx context.Context) workflow.Outcome
	Dispatch(ctx context.Context, a workflow.Action) (workflow.Outcome, error)
}

// withSession runs fn in a fresh session and closes it afterwards.
func withSession(env *Env, fn func(s Session) (workflow.Outcome, error)) (workflow.Outcome, error) {
	s, err := env.Plugin.OpenSession()
	if err != nil {
		return workflow.Outcome{}, err
	}
	defer func() { _, _ = s.Close() }()
	return fn(s)
}

// report prints the notice of out. Error notices become an ActionError.
func report(env *Env, args Args, command string, out workflow.Outcome) error {
	n := out.Notice
	if n.Kind == workflow.NoticeError {
		return &ActionError{Command: command, Text: n.Text}
	}

	if args.JSON {
		data := ActionData{Result: n.Kind.String(), Message: n.Text}
		if out.List != nil {
			data.Enabled = out.List.Enabled
			data.Whitelisted = out.List.Count
		}
		return NewJSONResponse(command, data).Write(env.Out)
	}
	if !args.Quiet {
		fmt.Fprintln(env.Out, RenderNotice(n))
	}
	return nil
}

// =============================================================================
// TARGET RESOLUTION
// =============================================================================

// splitTarget decides whether the operator typed a UUID or a name.
func splitTarget(target string) (name, token string) {
	if _, err := identity.Parse(target); err == nil {
		return "", target
	}
	return target, ""
}

// findWhitelisted resolves target to a whitelisted identity: a UUID as is,
// or the exact name of an online whitelisted player.
func findWhitelisted(view *workflow.ListView, target string) (identity.ID, bool) {
	if id, err := identity.Parse(target); err == nil {
		return id, true
	}
	if view == nil {
		return identity.Nil, false
	}
	for _, e := range view.Entries {
		if e.Online && identity.MatchName(e.Name, target, true) {
			return e.ID, true
		}
	}
	return identity.Nil, false
}

// findPending resolves target to an identity in the attempt log, by UUID
// or by the name recorded with the attempt.
func findPending(view *workflow.ListView, target string) (identity.ID, bool) {
	if view == nil {
		return identity.Nil, false
	}
	id, err := identity.Parse(target)
	for _, rec := range view.Pending {
		if err == nil && rec.ID() == id {
			return id, true
		}
		if err != nil && identity.MatchName(rec.Name(), target, true) {
			return rec.ID(), true
		}
	}
	return identity.Nil, false
}

// =============================================================================
// WHITELIST COMMANDS
// =============================================================================

// HandleAdd whitelists args.Target, a player name or UUID. Names must
// belong to an online player.
func HandleAdd(ctx context.Context, env *Env, args Args) error {
	out, err := withSession(env, func(s Session) (workflow.Outcome, error) {
		if _, err := s.Dispatch(ctx, workflow.Action{Kind: workflow.ActionAdd}); err != nil {
			return workflow.Outcome{}, err
		}
		name, token := splitTarget(args.Target)
		return s.Dispatch(ctx, workflow.Action{Kind: workflow.ActionConfirm, Name: name, Token: token})
	})
	if err != nil {
		return err
	}
	if out.State == workflow.StateAddEntry && out.Form != nil && out.Form.Error != "" {
		return &ActionError{Command: "add", Text: out.Form.Error}
	}
	return report(env, args, "add", out)
}

// HandleRemove removes args.Target, a UUID or the name of an online
// whitelisted player.
func HandleRemove(ctx context.Context, env *Env, args Args) error {
	out, err := withSession(env, func(s Session) (workflow.Outcome, error) {
		id, ok := findWhitelisted(s.View(ctx).List, args.Target)
		if !ok {
			return workflow.Outcome{}, &NotFoundError{Resource: "whitelisted player", ID: args.Target}
		}
		return s.Dispatch(ctx, workflow.Action{Kind: workflow.ActionRemove, ID: id})
	})
	if err != nil {
		return err
	}
	return report(env, args, "remove", out)
}

// HandleToggle flips whitelist enforcement.
func HandleToggle(ctx context.Context, env *Env, args Args) error {
	out, err := withSession(env, func(s Session) (workflow.Outcome, error) {
		return s.Dispatch(ctx, workflow.Action{Kind: workflow.ActionToggle})
	})
	if err != nil {
		return err
	}
	return report(env, args, "toggle", out)
}

// =============================================================================
// ATTEMPTS
// =============================================================================

// HandleAttempts runs "attempts list|remove|approve|clear".
func HandleAttempts(ctx context.Context, env *Env, args Args) error {
	switch args.Subcommand {
	case "remove":
		return attemptsRemove(env, args)
	case "approve":
		return attemptsApprove(ctx, env, args)
	case "clear":
		return attemptsClear(env, args)
	default:
		return attemptsList(env, args)
	}
}

func attemptsList(env *Env, args Args) error {
	store := env.Plugin.Attempts()
	records := store.List()
	now := env.now()

	if args.JSON {
		data := AttemptsData{
			Capacity: store.Capacity(),
			Count:    len(records),
			Attempts: make([]attempt.Summary, 0, len(records)),
		}
		for _, rec := range records {
			data.Attempts = append(data.Attempts, rec.Summarize(now))
		}
		return NewJSONResponse("attempts", data).Write(env.Out)
	}

	fmt.Fprintln(env.Out, TitleStyle.Render(fmt.Sprintf("RECENT ATTEMPTS (%d/%d)", len(records), store.Capacity())))
	if len(records) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No rejected attempts"))
		return nil
	}
	writeAttempts(env.Out, records, now)
	return nil
}

// writeAttempts prints one aligned row per record.
func writeAttempts(w io.Writer, records []attempt.Record, now time.Time) {
	fmt.Fprintln(w, DimStyle.Render(
		util.PadRight("NAME", 17)+util.PadRight("UUID", 37)+util.PadRight("ADDRESS", 16)+"AGE"))
	for _, rec := range records {
		fmt.Fprintf(w, "%s%s%s%s\n",
			util.PadRight(util.Truncate(rec.Name(), 16), 17),
			util.PadRight(rec.ID().String(), 37),
			util.PadRight(util.Truncate(rec.Address(), 15), 16),
			DimStyle.Render(rec.FormattedAge(now)))
	}
}

func attemptsRemove(env *Env, args Args) error {
	store := env.Plugin.Attempts()
	id, err := identity.Parse(args.Target)
	if err != nil {
		return &UsageError{Reason: "invalid UUID: " + args.Target}
	}
	rec, ok := store.Get(id)
	if !ok {
		return &NotFoundError{Resource: "attempt", ID: args.Target}
	}
	if err := store.Remove(id); err != nil {
		return fmt.Errorf("failed to save attempt log: %w", err)
	}
	return report(env, args, "attempts", workflow.Outcome{
		Notice: workflow.Notice{Kind: workflow.NoticeSuccess, Text: "Forgot attempt by " + rec.Name()},
	})
}

func attemptsApprove(ctx context.Context, env *Env, args Args) error {
	out, err := withSession(env, func(s Session) (workflow.Outcome, error) {
		id, ok := findPending(s.View(ctx).List, args.Target)
		if !ok {
			return workflow.Outcome{}, &NotFoundError{Resource: "attempt", ID: args.Target}
		}
		return s.Dispatch(ctx, workflow.Action{Kind: workflow.ActionApprove, ID: id})
	})
	if err != nil {
		return err
	}
	return report(env, args, "attempts", out)
}

func attemptsClear(env *Env, args Args) error {
	store := env.Plugin.Attempts()
	n := store.Count()
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to save attempt log: %w", err)
	}
	return report(env, args, "attempts", workflow.Outcome{
		Notice: workflow.Notice{Kind: workflow.NoticeSuccess, Text: fmt.Sprintf("Cleared %d attempts", n)},
	})
}

// =============================================================================
// STATUS AND VERSION
// =============================================================================

// HandleStatus summarises the whitelist and the attempt log.
func HandleStatus(env *Env, args Args) error {
	gw := env.Plugin.Gateway()
	store := env.Plugin.Attempts()

	data := StatusData{
		Version:          Version,
		ServerDir:        env.Config.Server.Dir,
		WhitelistFile:    env.Config.WhitelistPath(),
		WhitelistEnabled: gw.Enabled(),
		Whitelisted:      gw.Identities().Len(),
		AttemptsFile:     store.Path(),
		Pending:          store.Count(),
		Capacity:         store.Capacity(),
	}
	if env.Online != nil {
		data.Online = env.Online.Count()
	}
	if err := store.Err(); err != nil {
		data.AttemptLogError = err.Error()
	}

	if args.JSON {
		return NewJSONResponse("status", data).Write(env.Out)
	}

	w := env.Out
	fmt.Fprintln(w, TitleStyle.Render("wlctl status"))
	fmt.Fprintln(w, RenderField("Whitelist", RenderEnabled(data.WhitelistEnabled)))
	fmt.Fprintln(w, RenderField("Whitelisted", fmt.Sprintf("%d", data.Whitelisted)))
	fmt.Fprintln(w, RenderField("Online", fmt.Sprintf("%d", data.Online)))
	fmt.Fprintln(w, RenderField("Pending", fmt.Sprintf("%d / %d", data.Pending, data.Capacity)))
	fmt.Fprintln(w, SectionStyle.Render("Files"))
	fmt.Fprintln(w, RenderField("Server", data.ServerDir))
	fmt.Fprintln(w, RenderField("Whitelist", data.WhitelistFile))
	fmt.Fprintln(w, RenderField("Attempt log", data.AttemptsFile))
	if data.AttemptLogError != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, WarningStyle.Render("[!] Attempt log not saved: "+data.AttemptLogError))
	}
	return nil
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}
