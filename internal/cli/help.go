// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
)

// helpTopics are markdown pages for "wlctl help <topic>".
var helpTopics = map[string]string{
	"attempts": `# Rejected connection attempts

Every time the server turns a player away because they are not on the
whitelist, wlctl records **who** tried, **from where** and **when**.
Only the newest attempt per player is kept, and the log holds at most
` + "`attempts.capacity`" + ` players (50 by default). When it is full the
oldest attempt is dropped.

The log lives next to the server in ` + "`whitelist_pending.json`" + ` and is
rewritten after every change.

## Commands

| Command | Effect |
| --- | --- |
| ` + "`wlctl attempts`" + ` | List attempts, newest first |
| ` + "`wlctl attempts approve <uuid>`" + ` | Whitelist the player and forget the attempt |
| ` + "`wlctl attempts remove <uuid>`" + ` | Forget the attempt only |
| ` + "`wlctl attempts clear`" + ` | Forget every attempt |

Attempts are recorded only while ` + "`wlctl serve`" + `, ` + "`wlctl console`" + `
or the manager is running.
`,

	"config": `# Configuration

wlctl reads ` + "`~/.wlctl/config.toml`" + `. Run ` + "`wlctl config init`" + ` to
write one with every default filled in.

` + "```toml" + `
[server]
dir = "/srv/game"
whitelist_file = "whitelist.json"
log_file = "logs/latest.log"

[attempts]
capacity = 50

[metrics]
enabled = true
addr = "127.0.0.1:9464"
` + "```" + `

Every key can be overridden from the environment as
` + "`WLCTL_<SECTION>_<KEY>`" + `, for example ` + "`WLCTL_SERVER_DIR=/srv/game`" + `.

Use ` + "`wlctl config get attempts.capacity`" + ` to print one value.
`,

	"console": `# Console

` + "`wlctl console`" + ` is a line-oriented manager for terminals where the full
screen manager is unwelcome. History is kept in ` + "`~/.wlctl/history`" + `.

| Command | Effect |
| --- | --- |
| ` + "`list`" + ` | Show whitelisted players and recent attempts |
| ` + "`add <name or uuid>`" + ` | Whitelist a player |
| ` + "`remove <uuid or name>`" + ` | Remove a player |
| ` + "`approve <uuid or name>`" + ` | Whitelist a pending player |
| ` + "`dismiss <uuid or name>`" + ` | Forget a pending attempt |
| ` + "`toggle`" + ` | Enable or disable enforcement |
| ` + "`quit`" + ` | Leave |

Names are matched against online players and the attempt log. A player
who is offline must be added by UUID.
`,
}

// HelpTopics returns the topic names in order.
func HelpTopics() []string {
	topics := make([]string, 0, len(helpTopics))
	for t := range helpTopics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// HandleHelp prints the usage text, or a topic page when topic is set.
// Pages are rendered with glamour on a terminal and printed as markdown
// otherwise.
func HandleHelp(w io.Writer, topic string) error {
	if topic == "" {
		PrintUsage(w)
		return nil
	}

	page, ok := helpTopics[topic]
	if !ok {
		return &UsageError{
			Reason:  fmt.Sprintf("no help topic %q", topic),
			Example: "wlctl help " + strings.Join(HelpTopics(), "|"),
		}
	}

	if !IsWriterTTY(w) || !ColorsEnabled() {
		_, err := io.WriteString(w, page)
		return err
	}
	_, err := io.WriteString(w, renderMarkdown(page, GetTerminalWidth()))
	return err
}

// renderMarkdown renders md for the terminal, falling back to the source.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
