// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/wlctl/internal/config"
)

// ConfigValue is the data of "config get --json".
type ConfigValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// HandleConfig runs "config show|path|init|get". cfg is the effective
// configuration and path the file it was (or would be) loaded from.
func HandleConfig(w io.Writer, args Args, cfg *config.Config, path string) error {
	switch args.Subcommand {
	case "path":
		if args.JSON {
			return NewJSONResponse("config", map[string]string{"path": path}).Write(w)
		}
		fmt.Fprintln(w, path)
		return nil

	case "init":
		return configInit(w, args, path)

	case "get":
		v, err := cfg.Get(args.Target)
		if err != nil {
			return &UsageError{Reason: err.Error(), Example: "wlctl config get attempts.capacity"}
		}
		if args.JSON {
			return NewJSONResponse("config", ConfigValue{Key: args.Target, Value: v}).Write(w)
		}
		fmt.Fprintf(w, "%v\n", v)
		return nil

	default:
		return configShow(w, args, cfg)
	}
}

func configShow(w io.Writer, args Args, cfg *config.Config) error {
	if args.JSON {
		return NewJSONResponse("config", cfg).Write(w)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	out := buf.String()
	if IsWriterTTY(w) && ColorsEnabled() {
		out = HighlightTOML(out, GetColorProfile())
	}
	_, err := io.WriteString(w, out)
	return err
}

func configInit(w io.Writer, args Args, path string) error {
	if _, err := os.Stat(path); err == nil && !args.Force {
		return &ActionError{Command: "config", Text: "config already exists at " + path + " (use --force to overwrite)"}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintln(w, SuccessStyle.Render("[OK]")+" Wrote default config to "+path)
	}
	return nil
}
