// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/wlctl/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete wlctl configuration.
type Config struct {
	// Server describes the game server installation wlctl manages.
	Server ServerConfig `toml:"server" json:"server" envPrefix:"SERVER_"`

	// Attempts configures the rejected connection log.
	Attempts AttemptsConfig `toml:"attempts" json:"attempts" envPrefix:"ATTEMPTS_"`

	// Listener configures which rejections are recorded.
	Listener ListenerConfig `toml:"listener" json:"listener" envPrefix:"LISTENER_"`

	// Workflow configures management sessions.
	Workflow WorkflowConfig `toml:"workflow" json:"workflow" envPrefix:"WORKFLOW_"`

	// Log configures the wlctl log file.
	Log LogConfig `toml:"log" json:"log" envPrefix:"LOG_"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" envPrefix:"METRICS_"`

	// UI configures the terminal interface.
	UI UIConfig `toml:"ui" json:"ui" envPrefix:"UI_"`
}

// ServerConfig locates the game server's files.
type ServerConfig struct {
	// Dir is the server working directory. Relative paths resolve against it.
	Dir string `toml:"dir" json:"dir" env:"DIR"`
	// WhitelistFile is the server's whitelist.json.
	WhitelistFile string `toml:"whitelist_file" json:"whitelist_file" env:"WHITELIST_FILE"`
	// LogFile is the server console log followed for connection events.
	LogFile string `toml:"log_file" json:"log_file" env:"LOG_FILE"`
	// JoinPattern, LeavePattern, RejectPattern and ResetPattern are regular
	// expressions with named groups uuid, name, ip and reason.
	JoinPattern   string `toml:"join_pattern" json:"join_pattern" env:"JOIN_PATTERN"`
	LeavePattern  string `toml:"leave_pattern" json:"leave_pattern" env:"LEAVE_PATTERN"`
	RejectPattern string `toml:"reject_pattern" json:"reject_pattern" env:"REJECT_PATTERN"`
	ResetPattern  string `toml:"reset_pattern" json:"reset_pattern" env:"RESET_PATTERN"`
	// WatchDebounceMs collapses bursts of file change events.
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms" env:"WATCH_DEBOUNCE_MS"`
	// ReplayLog rebuilds the online player list from the existing log at startup.
	ReplayLog bool `toml:"replay_log" json:"replay_log" env:"REPLAY_LOG"`
}

// AttemptsConfig configures the rejected connection log.
type AttemptsConfig struct {
	File     string `toml:"file" json:"file" env:"FILE"`
	Capacity int    `toml:"capacity" json:"capacity" env:"CAPACITY"`
}

// ListenerConfig configures rejection filtering and throttling.
type ListenerConfig struct {
	// ReasonMatch is the case-insensitive text a rejection reason must contain.
	ReasonMatch string `toml:"reason_match" json:"reason_match" env:"REASON_MATCH"`
	// RatePerSec bounds how often one identity is recorded. 0 disables the limit.
	RatePerSec float64 `toml:"rate_per_sec" json:"rate_per_sec" env:"RATE_PER_SEC"`
	Burst      int     `toml:"burst" json:"burst" env:"BURST"`
}

// WorkflowConfig configures management sessions.
type WorkflowConfig struct {
	ResolveTimeoutMs int `toml:"resolve_timeout_ms" json:"resolve_timeout_ms" env:"RESOLVE_TIMEOUT_MS"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" env:"LEVEL"`
	// File is the rotated log file. Empty disables file logging.
	File       string `toml:"file" json:"file" env:"FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `toml:"compress" json:"compress" env:"COMPRESS"`
}

// MetricsConfig configures the HTTP status endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" env:"ENABLED"`
	Addr    string `toml:"addr" json:"addr" env:"ADDR"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// ShowPending shows recent rejected attempts under the whitelist.
	ShowPending bool `toml:"show_pending" json:"show_pending" env:"SHOW_PENDING"`
	// Compact hides identities of online players.
	Compact bool `toml:"compact" json:"compact" env:"COMPACT"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Dir:             ".",
			WhitelistFile:   "whitelist.json",
			LogFile:         "logs/latest.log",
			WatchDebounceMs: 250,
			ReplayLog:       true,
		},
		Attempts: AttemptsConfig{
			File:     "whitelist_pending.json",
			Capacity: 50,
		},
		Listener: ListenerConfig{
			ReasonMatch: "whitelist",
			RatePerSec:  0,
			Burst:       5,
		},
		Workflow: WorkflowConfig{
			ResolveTimeoutMs: 5000,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "~/.wlctl/logs/wlctl.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		UI: UIConfig{
			ShowPending: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the wlctl configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".wlctl"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// resolve makes p absolute relative to the server directory.
func (c *Config) resolve(p string) string {
	if p == "" {
		return ""
	}
	p = util.ExpandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(util.ExpandHome(c.Server.Dir), p)
}

// WhitelistPath returns the resolved whitelist file path.
func (c *Config) WhitelistPath() string { return c.resolve(c.Server.WhitelistFile) }

// ServerLogPath returns the resolved server log path.
func (c *Config) ServerLogPath() string { return c.resolve(c.Server.LogFile) }

// AttemptsPath returns the resolved attempt log path.
func (c *Config) AttemptsPath() string { return c.resolve(c.Attempts.File) }

// LogPath returns the resolved wlctl log path, or "" if file logging is off.
func (c *Config) LogPath() string {
	if c.Log.File == "" {
		return ""
	}
	return filepath.Clean(util.ExpandHome(c.Log.File))
}

// ResolveTimeout returns the name lookup timeout.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Workflow.ResolveTimeoutMs) * time.Millisecond
}

// WatchDebounce returns the file watch settle time.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Server.WatchDebounceMs) * time.Millisecond
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// ErrInvalidConfig wraps every error that stems from the config file or
// the environment rather than from I/O on the server directory.
var ErrInvalidConfig = errors.New("invalid config")

// Load loads configuration from ~/.wlctl/config.toml, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %w", ErrInvalidConfig, path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes path over cfg. Keys absent from the file keep their
// current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Server.Dir == "" {
		cfg.Server.Dir = defaults.Server.Dir
	}
	if cfg.Server.WhitelistFile == "" {
		cfg.Server.WhitelistFile = defaults.Server.WhitelistFile
	}
	if cfg.Server.WatchDebounceMs == 0 {
		cfg.Server.WatchDebounceMs = defaults.Server.WatchDebounceMs
	}
	if cfg.Attempts.File == "" {
		cfg.Attempts.File = defaults.Attempts.File
	}
	if cfg.Attempts.Capacity == 0 {
		cfg.Attempts.Capacity = defaults.Attempts.Capacity
	}
	if cfg.Listener.ReasonMatch == "" {
		cfg.Listener.ReasonMatch = defaults.Listener.ReasonMatch
	}
	if cfg.Workflow.ResolveTimeoutMs == 0 {
		cfg.Workflow.ResolveTimeoutMs = defaults.Workflow.ResolveTimeoutMs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = defaults.Metrics.Addr
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# wlctl configuration file")
	fmt.Fprintln(&buf, "# Generated by wlctl - edit with care")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# Relative paths under [server] and [attempts] resolve against server.dir.")
	fmt.Fprintln(&buf, "# Every key can be overridden with WLCTL_<SECTION>_<KEY>, e.g. WLCTL_SERVER_DIR.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Attempts.Capacity < 1 {
		errs = append(errs, ValidationError{"attempts.capacity", "must be at least 1"})
	}
	if c.Attempts.Capacity > 10000 {
		errs = append(errs, ValidationError{"attempts.capacity", "must be at most 10000"})
	}
	if c.Listener.RatePerSec < 0 {
		errs = append(errs, ValidationError{"listener.rate_per_sec", "must not be negative"})
	}
	if c.Listener.RatePerSec > 0 && c.Listener.Burst < 1 {
		errs = append(errs, ValidationError{"listener.burst", "must be at least 1 when rate limiting"})
	}
	if c.Workflow.ResolveTimeoutMs < 100 || c.Workflow.ResolveTimeoutMs > 60000 {
		errs = append(errs, ValidationError{"workflow.resolve_timeout_ms", "must be between 100 and 60000"})
	}
	if c.Server.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{"server.watch_debounce_ms", "must not be negative"})
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{"log", "rotation limits must not be negative"})
	}
	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, ValidationError{"metrics.addr", err.Error()})
		}
	}

	for field, pattern := range map[string]string{
		"server.join_pattern":   c.Server.JoinPattern,
		"server.leave_pattern":  c.Server.LeavePattern,
		"server.reject_pattern": c.Server.RejectPattern,
		"server.reset_pattern":  c.Server.ResetPattern,
	} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, ValidationError{field, err.Error()})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WLCTL_"

// ApplyEnvOverrides applies WLCTL_<SECTION>_<KEY> environment variables,
// e.g. WLCTL_SERVER_DIR or WLCTL_ATTEMPTS_CAPACITY. Unset variables leave
// the current values alone.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using its TOML key, e.g.
// "attempts.capacity".
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if key == "" {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLTag(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTOMLTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// String returns the configuration as indented JSON for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
