// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/plugin"
	"github.com/jeranaias/wlctl/internal/presence"
	"github.com/jeranaias/wlctl/internal/whitelist"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testHost struct {
	gw     *whitelist.Memory
	online *presence.Registry
}

func (h *testHost) Whitelist() (whitelist.Gateway, error) { return h.gw, nil }
func (h *testHost) Presence() identity.Resolver          { return h.online }

type fixture struct {
	host *testHost
	p    *plugin.Plugin
	env  *Env
	out  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	host := &testHost{gw: whitelist.NewMemory(true), online: presence.NewRegistry()}

	p, err := plugin.Activate(host,
		plugin.WithAttemptsPath(filepath.Join(dir, "whitelist_pending.json")),
		plugin.WithRateLimit(0, 0),
		plugin.WithResolveTimeout(time.Second))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.Dir = dir

	out := &bytes.Buffer{}
	return &fixture{
		host: host,
		p:    p,
		out:  out,
		env: &Env{
			Config: cfg,
			Plugin: p,
			Online: host.online,
			Out:    out,
			Now:    func() time.Time { return testNow },
		},
	}
}

func (f *fixture) reject(id identity.ID, name, address string) {
	f.p.Listener().OnConnectionRejected(id, name, address, "You are not whitelisted on this server!")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

func decode(t *testing.T, buf *bytes.Buffer, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// =============================================================================
// ADD / REMOVE / TOGGLE
// =============================================================================

func TestHandleAdd_ByUUID(t *testing.T) {
	f := newFixture(t)
	id := identity.New()

	require.NoError(t, HandleAdd(context.Background(), f.env, Args{Target: id.String()}))
	assert.True(t, f.host.gw.Identities().Has(id))
	assert.Contains(t, f.out.String(), "Added "+id.String()+" to whitelist")
}

func TestHandleAdd_ByOnlineName(t *testing.T) {
	f := newFixture(t)
	steve := identity.New()
	f.host.online.Join(presence.Player{ID: steve, Name: "Steve", Address: "10.0.0.1"})

	require.NoError(t, HandleAdd(context.Background(), f.env, Args{Target: "steve", JSON: true}))
	assert.True(t, f.host.gw.Identities().Has(steve))

	var data ActionData
	env := decode(t, f.out, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "success", data.Result)
	assert.Equal(t, 1, data.Whitelisted)
	assert.True(t, data.Enabled)
}

func TestHandleAdd_OfflineName(t *testing.T) {
	f := newFixture(t)

	err := HandleAdd(context.Background(), f.env, Args{Target: "Herobrine"})
	require.Error(t, err)

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Contains(t, actionErr.Text, "Herobrine is not online")
	assert.Equal(t, ExitGeneralError, GetExitCode(err))
	assert.Equal(t, 0, f.host.gw.Identities().Len())
}

func TestHandleAdd_AlreadyWhitelistedIsAWarning(t *testing.T) {
	f := newFixture(t)
	id := identity.New()
	f.host.gw.Modify(func(s identity.Set) bool { return s.Add(id) })

	require.NoError(t, HandleAdd(context.Background(), f.env, Args{Target: id.String()}))
	assert.Contains(t, f.out.String(), "already whitelisted")
}

func TestHandleAdd_QuietPrintsNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, HandleAdd(context.Background(), f.env, Args{Target: identity.New().String(), Quiet: true}))
	assert.Empty(t, f.out.String())
}

func TestHandleRemove(t *testing.T) {
	f := newFixture(t)
	steve, alex := identity.New(), identity.New()
	f.host.gw.Modify(func(s identity.Set) bool { s.Add(steve); return s.Add(alex) })
	f.host.online.Join(presence.Player{ID: steve, Name: "Steve"})

	require.NoError(t, HandleRemove(context.Background(), f.env, Args{Target: "STEVE"}))
	assert.False(t, f.host.gw.Identities().Has(steve))
	assert.Contains(t, f.out.String(), "Removed Steve from whitelist")

	require.NoError(t, HandleRemove(context.Background(), f.env, Args{Target: alex.String()}))
	assert.Equal(t, 0, f.host.gw.Identities().Len())
}

func TestHandleRemove_UnknownName(t *testing.T) {
	f := newFixture(t)

	err := HandleRemove(context.Background(), f.env, Args{Target: "Alex"})
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHandleToggle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, HandleToggle(context.Background(), f.env, Args{JSON: true}))
	assert.False(t, f.host.gw.Enabled())

	var data ActionData
	decode(t, f.out, &data)
	assert.False(t, data.Enabled)
	assert.Equal(t, "Whitelist disabled", data.Message)
	assert.Equal(t, 1, f.host.gw.Persisted())
}

// =============================================================================
// ATTEMPTS
// =============================================================================

func TestHandleAttempts_List(t *testing.T) {
	f := newFixture(t)
	alex := identity.New()
	f.reject(alex, "Alex", "10.0.0.9")

	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "list"}))
	out := f.out.String()
	assert.Contains(t, out, "RECENT ATTEMPTS (1/50)")
	assert.Contains(t, out, "Alex")
	assert.Contains(t, out, alex.String())
	assert.Contains(t, out, "10.0.0.9")
}

func TestHandleAttempts_ListEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "list"}))
	assert.Contains(t, f.out.String(), "No rejected attempts")
}

func TestHandleAttempts_ListJSON(t *testing.T) {
	f := newFixture(t)
	f.reject(identity.New(), "Alex", "10.0.0.9")
	f.reject(identity.New(), "Sam", "10.0.0.10")

	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "list", JSON: true}))

	var data AttemptsData
	env := decode(t, f.out, &data)
	assert.Equal(t, "attempts", env.Command)
	assert.Equal(t, 50, data.Capacity)
	require.Equal(t, 2, data.Count)
	assert.Len(t, data.Attempts, 2)
}

func TestHandleAttempts_Approve(t *testing.T) {
	f := newFixture(t)
	alex := identity.New()
	f.reject(alex, "Alex", "10.0.0.9")

	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "approve", Target: "alex"}))
	assert.True(t, f.host.gw.Identities().Has(alex))
	assert.Equal(t, 0, f.p.Attempts().Count())
	assert.Contains(t, f.out.String(), "Added Alex to whitelist")
}

func TestHandleAttempts_ApproveUnknown(t *testing.T) {
	f := newFixture(t)
	err := HandleAttempts(context.Background(), f.env, Args{Subcommand: "approve", Target: identity.New().String()})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
	assert.Equal(t, 0, f.host.gw.Identities().Len())
}

func TestHandleAttempts_Remove(t *testing.T) {
	f := newFixture(t)
	alex := identity.New()
	f.reject(alex, "Alex", "10.0.0.9")

	err := HandleAttempts(context.Background(), f.env, Args{Subcommand: "remove", Target: "not-a-uuid"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleAttempts(context.Background(), f.env, Args{Subcommand: "remove", Target: identity.New().String()})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "remove", Target: alex.String()}))
	assert.Equal(t, 0, f.p.Attempts().Count())
	assert.False(t, f.host.gw.Identities().Has(alex), "removing an attempt never whitelists")
	assert.Contains(t, f.out.String(), "Forgot attempt by Alex")
}

func TestHandleAttempts_Clear(t *testing.T) {
	f := newFixture(t)
	f.reject(identity.New(), "Alex", "10.0.0.9")
	f.reject(identity.New(), "Sam", "10.0.0.10")

	require.NoError(t, HandleAttempts(context.Background(), f.env, Args{Subcommand: "clear"}))
	assert.Equal(t, 0, f.p.Attempts().Count())
	assert.Contains(t, f.out.String(), "Cleared 2 attempts")
}

// =============================================================================
// STATUS / VERSION / CONFIG
// =============================================================================

func TestHandleStatus(t *testing.T) {
	f := newFixture(t)
	id := identity.New()
	f.host.gw.Modify(func(s identity.Set) bool { return s.Add(id) })
	f.host.online.Join(presence.Player{ID: id, Name: "Steve"})
	f.reject(identity.New(), "Alex", "10.0.0.9")

	require.NoError(t, HandleStatus(f.env, Args{JSON: true}))

	var data StatusData
	decode(t, f.out, &data)
	assert.True(t, data.WhitelistEnabled)
	assert.Equal(t, 1, data.Whitelisted)
	assert.Equal(t, 1, data.Online)
	assert.Equal(t, 1, data.Pending)
	assert.Equal(t, 50, data.Capacity)
	assert.Equal(t, f.env.Config.WhitelistPath(), data.WhitelistFile)
	assert.Empty(t, data.AttemptLogError)

	f.out.Reset()
	require.NoError(t, HandleStatus(f.env, Args{}))
	assert.Contains(t, f.out.String(), "ENABLED")
	assert.Contains(t, f.out.String(), "1 / 50")
}

func TestHandleVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(&buf, Args{}))
	assert.Contains(t, buf.String(), "wlctl version "+Version)

	buf.Reset()
	require.NoError(t, HandleVersion(&buf, Args{JSON: true}))
	var data VersionData
	decode(t, &buf, &data)
	assert.Equal(t, Version, data.Version)
	assert.NotEmpty(t, data.GoVersion)
}

func TestHandleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlctl", "config.toml")
	cfg := config.Default()
	var buf bytes.Buffer

	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "path"}, cfg, path))
	assert.Equal(t, path+"\n", buf.String())

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "get", Target: "attempts.capacity"}, cfg, path))
	assert.Equal(t, "50\n", buf.String())

	err := HandleConfig(&buf, Args{Subcommand: "get", Target: "attempts.nope"}, cfg, path)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	buf.Reset()
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "show"}, cfg, path))
	assert.Contains(t, buf.String(), "[attempts]")
	assert.Contains(t, buf.String(), "capacity = 50")
}

func TestHandleConfig_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlctl", "config.toml")
	var buf bytes.Buffer

	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "init"}, config.Default(), path))
	assert.Contains(t, buf.String(), "Wrote default config")

	loaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.Attempts.Capacity)

	err = HandleConfig(&buf, Args{Subcommand: "init"}, config.Default(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, os.WriteFile(path, []byte("[attempts]\ncapacity = 7\n"), 0600))
	require.NoError(t, HandleConfig(&buf, Args{Subcommand: "init", Force: true}, config.Default(), path))
	loaded, err = config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.Attempts.Capacity)
}
