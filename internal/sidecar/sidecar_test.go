// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidecar

import (
	"context"
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
	"github.com/jeranaias/wlctl/internal/workflow"
)

const (
	steveID = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
	alexID  = "61699b2e-d327-4a01-9f1e-0ea8c3f06bc6"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0755))

	cfg := config.Default()
	cfg.Server.Dir = dir
	cfg.Server.WatchDebounceMs = 20
	cfg.Log.File = ""
	return cfg
}

func appendLog(t *testing.T, cfg *config.Config, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(cfg.ServerLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func TestNew_ReplaysPresence(t *testing.T) {
	cfg := testConfig(t)
	appendLog(t, cfg,
		"[12:00:00] Steve ("+steveID+") joined from 10.0.0.1",
		"[12:00:05] Alex ("+alexID+") joined from 10.0.0.2",
		"[12:00:09] Alex ("+alexID+") left",
		"[12:00:10] Rejected connection from Herobrine (00000000-0000-4000-8000-000000000001) [10.0.0.9]: not whitelisted",
	)

	sc, err := New(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sc.Online().Count())
	name, ok := sc.Online().FindOnline(context.Background(), identity.MustParse(steveID))
	assert.True(t, ok)
	assert.Equal(t, "Steve", name)
	assert.Equal(t, 0, sc.Plugin().Attempts().Count(), "replay must not record old rejections")
}

func TestNew_SkipToEnd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.ReplayLog = false
	appendLog(t, cfg, "Steve ("+steveID+") joined from 10.0.0.1")

	sc, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Online().Count())
}

func TestNew_MalformedWhitelist(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.WhitelistPath(), []byte("{broken"), 0644))

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, plugin.ErrGatewayUnavailable))

	_, statErr := os.Stat(cfg.AttemptsPath())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestNew_BadPattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.JoinPattern = `(?P<name>\S+) joined`

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestSession_AddOnlinePlayerByName(t *testing.T) {
	cfg := testConfig(t)
	appendLog(t, cfg, "Steve ("+steveID+") joined from 10.0.0.1")

	sc, err := New(cfg, nil)
	require.NoError(t, err)

	session, err := sc.Plugin().OpenSession()
	require.NoError(t, err)

	_, err = session.Add(context.Background())
	require.NoError(t, err)
	out, err := session.Confirm(context.Background(), "steve", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateList, out.State)
	assert.Equal(t, workflow.NoticeSuccess, out.Notice.Kind)

	data, err := os.ReadFile(cfg.WhitelistPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), steveID)
}

func TestRun_RecordsRejectionsAndWatchesWhitelist(t *testing.T) {
	cfg := testConfig(t)
	appendLog(t, cfg, "Server started")

	sc, err := New(cfg, nil, WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	appendLog(t, cfg,
		"Rejected connection from Alex ("+alexID+") [10.0.0.2]: You are not whitelisted on this server!",
		"Rejected connection from Bob (00000000-0000-4000-8000-000000000002) [10.0.0.3]: Server is full",
	)

	require.Eventually(t, func() bool {
		return sc.Plugin().Attempts().Count() == 1
	}, 3*time.Second, 20*time.Millisecond)

	rec := sc.Plugin().Attempts().List()[0]
	assert.Equal(t, "Alex", rec.Name())
	assert.Equal(t, "10.0.0.2", rec.Address())

	// Drain signals so the next one is from the file edit.
	for len(sc.Changes()) > 0 {
		<-sc.Changes()
	}
	require.NoError(t, os.WriteFile(cfg.WhitelistPath(),
		[]byte(`{"enabled":true,"list":["`+steveID+`"]}`), 0644))

	require.Eventually(t, func() bool {
		gw, err := sc.Whitelist()
		return err == nil && gw.Enabled() && gw.Identities().Has(identity.MustParse(steveID))
	}, 3*time.Second, 20*time.Millisecond)
}
