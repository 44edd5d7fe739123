// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdConsole
	CmdAttempts
	CmdStatus
	CmdAdd
	CmdRemove
	CmdToggle
	CmdServe
	CmdConfig
	CmdHelp
	CmdVersion
)

// String returns the command as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdConsole:
		return "console"
	case CmdAttempts:
		return "attempts"
	case CmdStatus:
		return "status"
	case CmdAdd:
		return "add"
	case CmdRemove:
		return "remove"
	case CmdToggle:
		return "toggle"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdHelp:
		return "help"
	case CmdVersion:
		return "version"
	default:
		return "unknown"
	}
}

// NeedsPlugin reports whether the command works on the whitelist and so
// needs an activated plugin.
func (c Command) NeedsPlugin() bool {
	switch c {
	case CmdConfig, CmdHelp, CmdVersion:
		return false
	default:
		return true
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool
	Quiet      bool
	Verbose    bool
	ConfigPath string

	// Command-specific
	Subcommand string
	Target     string // player name, UUID, config key or help topic
	Force      bool

	// Raw args (remaining after the command word)
	Raw []string
}

const usageText = `wlctl - whitelist manager for a game server

Usage:
  wlctl                          Start the interactive manager (default)
  wlctl console                  Line-oriented manager with history
  wlctl attempts [list]          Show recent rejected connection attempts
  wlctl attempts remove <uuid>   Forget one attempt
  wlctl attempts approve <uuid>  Whitelist a pending player
  wlctl attempts clear           Forget every attempt
  wlctl status, s                Whitelist and attempt log summary
  wlctl add <name|uuid>          Whitelist a player
  wlctl remove, rm <uuid|name>   Remove a player from the whitelist
  wlctl toggle                   Enable or disable whitelist enforcement
  wlctl serve                    Watch the server and expose /metrics
  wlctl config [show|path|init]  Configuration
  wlctl config get <key>         Print one setting
  wlctl help [topic]             Help topics (attempts, config, console)
  wlctl version                  Version information

Global flags:
  --json            Machine-readable output
  -q, --quiet       Print only errors
  -v, --verbose     Debug logging on stderr
  --config <path>   Use this config file instead of ~/.wlctl/config.toml

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "wlctl version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, parsed, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsed, err
	}
	if len(remaining) == 0 {
		return CmdTUI, parsed, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed, nil

	case "console", "shell":
		return CmdConsole, parsed, nil

	case "attempts", "pending":
		return CmdAttempts, parsed, parseAttemptsArgs(&parsed, remaining)

	case "status", "s":
		return CmdStatus, parsed, nil

	case "add":
		return CmdAdd, parsed, parseTarget(&parsed, remaining, "add", "wlctl add Steve")

	case "remove", "rm":
		return CmdRemove, parsed, parseTarget(&parsed, remaining, "remove", "wlctl remove 069a79f4-44e9-4726-a5be-fca90e38aaf5")

	case "toggle":
		return CmdToggle, parsed, nil

	case "serve":
		return CmdServe, parsed, nil

	case "config":
		return CmdConfig, parsed, parseConfigArgs(&parsed, remaining)

	case "version", "--version":
		return CmdVersion, parsed, nil

	case "help", "-h", "--help":
		p := NewArgParser(remaining)
		parsed.Target = strings.ToLower(p.Subcommand())
		return CmdHelp, parsed, nil

	default:
		return CmdHelp, parsed, &UsageError{
			Reason:  fmt.Sprintf("unknown command %q", cmd),
			Example: "wlctl help",
		}
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var (
		remaining []string
		parsed    Args
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--json":
			parsed.JSON = true
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, parsed, &UsageError{Reason: "--config needs a path", Example: "wlctl --config ./wlctl.toml status"}
			}
			i++
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed, nil
}

func parseTarget(args *Args, remaining []string, command, example string) error {
	p := NewArgParser(remaining)
	if p.PositionalCount() == 0 {
		return &UsageError{Reason: command + " needs a player name or UUID", Example: example}
	}
	if p.PositionalCount() > 1 {
		return &UsageError{Reason: fmt.Sprintf("%s takes one player, got %d", command, p.PositionalCount()), Example: example}
	}
	args.Target = p.Positional(0)
	return nil
}

func parseAttemptsArgs(args *Args, remaining []string) error {
	p := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(p.Subcommand())
	if args.Subcommand == "" {
		args.Subcommand = "list"
	}

	switch args.Subcommand {
	case "list", "ls", "clear":
		if args.Subcommand == "ls" {
			args.Subcommand = "list"
		}
		return nil
	case "remove", "rm", "approve", "dismiss":
		if args.Subcommand == "rm" || args.Subcommand == "dismiss" {
			args.Subcommand = "remove"
		}
		args.Target = p.Positional(1)
		if args.Target == "" {
			return &UsageError{
				Reason:  "attempts " + args.Subcommand + " needs a UUID",
				Example: "wlctl attempts " + args.Subcommand + " 069a79f4-44e9-4726-a5be-fca90e38aaf5",
			}
		}
		return nil
	default:
		return &UsageError{
			Reason:  fmt.Sprintf("unknown attempts subcommand %q", args.Subcommand),
			Example: "wlctl attempts [list|remove <uuid>|approve <uuid>|clear]",
		}
	}
}

func parseConfigArgs(args *Args, remaining []string) error {
	p := NewArgParser(remaining, "force")
	args.Subcommand = strings.ToLower(p.Subcommand())
	args.Force = p.BoolFlag("force")
	if args.Subcommand == "" {
		args.Subcommand = "show"
	}

	switch args.Subcommand {
	case "show", "path", "init":
		return nil
	case "get":
		args.Target = p.Positional(1)
		if args.Target == "" {
			return &UsageError{Reason: "config get needs a key", Example: "wlctl config get attempts.capacity"}
		}
		return nil
	default:
		return &UsageError{
			Reason:  fmt.Sprintf("unknown config subcommand %q", args.Subcommand),
			Example: "wlctl config [show|path|init|get <key>]",
		}
	}
}
