// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/workflow"
)

// =============================================================================
// CONSOLE
// =============================================================================

// ConsolePrompt is shown before every console command.
const ConsolePrompt = "wl> "

const consoleHelp = `Commands:
  list                     Show whitelisted players and recent attempts
  add <name|uuid>          Whitelist a player
  remove <uuid|name>       Remove a player
  approve <uuid|name>      Whitelist a pending player
  dismiss <uuid|name>      Forget a pending attempt
  toggle                   Enable or disable enforcement
  refresh                  Reload and show the list
  help                     This text
  quit                     Leave
`

var consoleCommands = []string{
	"add", "approve", "dismiss", "exit", "help", "list", "quit", "refresh", "remove", "toggle",
}

// Console drives a session from text commands, one line at a time.
type Console struct {
	session Session
	out     io.Writer
	now     func() time.Time
}

// NewConsole creates a console over session writing to out.
func NewConsole(session Session, out io.Writer) *Console {
	return &Console{session: session, out: out, now: time.Now}
}

// Exec runs one command line and reports whether the console is done.
func (c *Console) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, rest := strings.ToLower(fields[0]), strings.Join(fields[1:], " ")

	switch cmd {
	case "help", "?":
		io.WriteString(c.out, consoleHelp)

	case "list", "ls":
		c.printList(c.session.View(ctx).List)

	case "refresh":
		return c.do(ctx, workflow.Action{Kind: workflow.ActionRefresh}, true)

	case "toggle":
		return c.do(ctx, workflow.Action{Kind: workflow.ActionToggle}, false)

	case "add":
		if rest == "" {
			c.notice(workflow.Notice{Kind: workflow.NoticeError, Text: "Usage: add <name|uuid>"})
			return false
		}
		return c.add(ctx, rest)

	case "remove", "rm":
		id, ok := findWhitelisted(c.session.View(ctx).List, rest)
		if !ok {
			c.notice(workflow.Notice{Kind: workflow.NoticeError, Text: "No whitelisted player matches " + quoteOrEmpty(rest)})
			return false
		}
		return c.do(ctx, workflow.Action{Kind: workflow.ActionRemove, ID: id}, false)

	case "approve", "dismiss":
		id, ok := findPending(c.session.View(ctx).List, rest)
		if !ok {
			c.notice(workflow.Notice{Kind: workflow.NoticeError, Text: "No pending attempt matches " + quoteOrEmpty(rest)})
			return false
		}
		kind := workflow.ActionApprove
		if cmd == "dismiss" {
			kind = workflow.ActionDismiss
		}
		return c.do(ctx, workflow.Action{Kind: kind, ID: id}, false)

	case "quit", "exit", "q":
		out, err := c.session.Dispatch(ctx, workflow.Action{Kind: workflow.ActionClose})
		if err == nil {
			c.notice(out.Notice)
		}
		return true

	default:
		c.notice(workflow.Notice{Kind: workflow.NoticeError, Text: fmt.Sprintf("Unknown command %q (type help)", cmd)})
	}
	return false
}

// add opens the form, submits target and always leaves the list view
// showing.
func (c *Console) add(ctx context.Context, target string) bool {
	if _, err := c.session.Dispatch(ctx, workflow.Action{Kind: workflow.ActionAdd}); err != nil {
		return c.failed(err)
	}
	name, token := splitTarget(target)
	out, err := c.session.Dispatch(ctx, workflow.Action{Kind: workflow.ActionConfirm, Name: name, Token: token})
	if err != nil {
		return c.failed(err)
	}
	c.notice(out.Notice)
	if out.State == workflow.StateAddEntry {
		if _, err := c.session.Dispatch(ctx, workflow.Action{Kind: workflow.ActionCancel}); err != nil {
			return c.failed(err)
		}
	}
	return false
}

func (c *Console) do(ctx context.Context, a workflow.Action, showList bool) bool {
	out, err := c.session.Dispatch(ctx, a)
	if err != nil {
		return c.failed(err)
	}
	if showList {
		c.printList(out.List)
	}
	c.notice(out.Notice)
	return false
}

// failed prints err and ends the console once the session is gone.
func (c *Console) failed(err error) bool {
	c.notice(workflow.Notice{Kind: workflow.NoticeError, Text: err.Error()})
	return errors.Is(err, workflow.ErrSessionClosed)
}

func (c *Console) notice(n workflow.Notice) {
	if n.Text == "" {
		return
	}
	fmt.Fprintln(c.out, RenderNotice(n))
}

func (c *Console) printList(view *workflow.ListView) {
	if view == nil {
		return
	}
	fmt.Fprintf(c.out, "Whitelist %s  %s\n", RenderEnabled(view.Enabled), DimStyle.Render(fmt.Sprintf("(%d players)", view.Count)))
	if len(view.Entries) == 0 {
		fmt.Fprintln(c.out, DimStyle.Render("  No players whitelisted"))
	}
	for _, e := range view.Entries {
		if e.Online {
			fmt.Fprintf(c.out, "  %s %s %s\n", e.Label(), DimStyle.Render(e.ID.String()), SuccessStyle.Render("online"))
			continue
		}
		fmt.Fprintf(c.out, "  %s\n", e.Label())
	}

	if view.Pending == nil {
		return
	}
	fmt.Fprintln(c.out, SectionStyle.Render(fmt.Sprintf("Recent attempts (%d)", len(view.Pending))))
	if len(view.Pending) == 0 {
		fmt.Fprintln(c.out, DimStyle.Render("  No rejected attempts"))
		return
	}
	writeAttempts(c.out, view.Pending, c.now())
}

// Complete returns the command words that extend line.
func (c *Console) Complete(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	prefix := strings.ToLower(line)
	var out []string
	for _, cmd := range consoleCommands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	sort.Strings(out)
	return out
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(nothing given)"
	}
	return fmt.Sprintf("%q", s)
}

// =============================================================================
// INTERACTIVE LOOP
// =============================================================================

// RunConsole reads commands with line editing and history until quit,
// Ctrl+C, Ctrl+D or ctx is cancelled.
func RunConsole(ctx context.Context, env *Env) error {
	session, err := env.Plugin.OpenSession()
	if err != nil {
		return err
	}
	console := NewConsole(session, env.Out)
	console.now = env.now

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(console.Complete)

	historyFile := historyPath()
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyFile)

	console.printList(session.View(ctx).List)
	for ctx.Err() == nil {
		input, err := line.Prompt(ConsolePrompt)
		if err != nil {
			// Ctrl+C (liner.ErrPromptAborted), Ctrl+D or a closed stdin.
			fmt.Fprintln(env.Out)
			console.Exec(ctx, "quit")
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if console.Exec(ctx, input) {
			return nil
		}
	}
	console.Exec(ctx, "quit")
	return nil
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "history")
}

func saveHistory(line *liner.State, path string) {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
