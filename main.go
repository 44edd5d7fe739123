// wlctl - whitelist manager for a game server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/wlctl/internal/cli"
	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/logging"
	"github.com/jeranaias/wlctl/internal/server"
	"github.com/jeranaias/wlctl/internal/sidecar"
	"github.com/jeranaias/wlctl/internal/ui/manager"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	server.Version = Version
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command and returns the process exit code.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err == nil {
		err = dispatch(cmd, args)
	}
	if err == nil {
		return cli.ExitSuccess
	}

	var out io.Writer = os.Stderr
	if args.JSON {
		out = os.Stdout
	}
	cli.DisplayError(out, err, cmd.String(), args.JSON)
	return cli.GetExitCode(err)
}

func dispatch(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		return cli.HandleHelp(os.Stdout, args.Target)
	case cli.CmdVersion:
		return cli.HandleVersion(os.Stdout, args)
	}

	path, err := configPath(args)
	if err != nil {
		return err
	}
	if cmd == cli.CmdConfig && (args.Subcommand == "init" || args.Subcommand == "path") {
		return cli.HandleConfig(os.Stdout, args, config.Default(), path)
	}
	cfg, err := loadConfig(args, path)
	if err != nil {
		return err
	}
	if cmd == cli.CmdConfig {
		return cli.HandleConfig(os.Stdout, args, cfg, path)
	}

	logger, err := newLogger(cmd, args, cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := sidecar.New(cfg, logger.Logger)
	if err != nil {
		return err
	}
	env := &cli.Env{
		Config: cfg,
		Plugin: sc.Plugin(),
		Online: sc.Online(),
		Out:    os.Stdout,
	}

	switch cmd {
	case cli.CmdTUI:
		if err := cli.RequiresTTY("run the whitelist manager"); err != nil {
			return err
		}
		session, err := sc.Plugin().OpenSession()
		if err != nil {
			return err
		}
		return alongside(ctx, sc, func(context.Context) error {
			return manager.Run(session, manager.Options{
				ShowPending: cfg.UI.ShowPending,
				Compact:     cfg.UI.Compact,
				Changes:     sc.Changes(),
			})
		})
	case cli.CmdConsole:
		return alongside(ctx, sc, func(ctx context.Context) error {
			return cli.RunConsole(ctx, env)
		})
	case cli.CmdServe:
		return serve(ctx, sc, cfg, logger.Logger)
	case cli.CmdStatus:
		return cli.HandleStatus(env, args)
	case cli.CmdAttempts:
		return cli.HandleAttempts(ctx, env, args)
	case cli.CmdAdd:
		return cli.HandleAdd(ctx, env, args)
	case cli.CmdRemove:
		return cli.HandleRemove(ctx, env, args)
	case cli.CmdToggle:
		return cli.HandleToggle(ctx, env, args)
	default:
		return fmt.Errorf("unhandled command %s", cmd)
	}
}

// =============================================================================
// SETUP
// =============================================================================

func configPath(args cli.Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// loadConfig reads an explicit --config strictly and the default path
// leniently (a missing file means defaults).
func loadConfig(args cli.Args, path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// newLogger always logs to the rotating file. Full-screen and interactive
// commands keep stderr clear; serve and --verbose also log to stderr.
func newLogger(cmd cli.Command, args cli.Args, cfg *config.Config) (*logging.Logger, error) {
	interactive := cmd == cli.CmdTUI || cmd == cli.CmdConsole
	var console io.Writer
	if cmd == cli.CmdServe || (args.Verbose && !interactive) {
		console = os.Stderr
	}

	logger, err := logging.New(cfg.Log, cfg.LogPath(), console)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	if args.Verbose {
		logger.SetLevel(zap.DebugLevel)
	}
	return logger, nil
}

// =============================================================================
// LONG-RUNNING COMMANDS
// =============================================================================

// alongside runs fn while the sidecar follows the server, and stops the
// sidecar when fn returns.
func alongside(ctx context.Context, sc *sidecar.Sidecar, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- sc.Run(ctx) }()

	err := fn(ctx)
	cancel()
	if runErr := <-errc; err == nil && runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = runErr
	}
	return err
}

func serve(ctx context.Context, sc *sidecar.Sidecar, cfg *config.Config, logger *zap.Logger) error {
	fields := []zap.Field{
		zap.String("server", cfg.Server.Dir),
		zap.String("version", Version),
	}
	if cfg.Metrics.Enabled {
		fields = append(fields, zap.String("status_addr", cfg.Metrics.Addr))
	}
	logger.Info("Watching game server", fields...)

	err := sc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Stopped")
	return nil
}
