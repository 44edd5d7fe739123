// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package hostlog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wlctl/internal/identity"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) PlayerJoined(_ identity.ID, name, _ string) { r.add("join:" + name) }
func (r *recorder) PlayerLeft(_ identity.ID)                   { r.add("leave") }
func (r *recorder) ConnectionRejected(_ identity.ID, name, _, _ string) {
	r.add("reject:" + name)
}
func (r *recorder) ServerReset() { r.add("reset") }

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func newTestTailer(t *testing.T, path string, rec *recorder) *Tailer {
	t.Helper()
	p, err := NewParser(DefaultPatterns())
	require.NoError(t, err)
	return NewTailer(path, p, rec, WithPollInterval(20*time.Millisecond))
}

func TestTailer_ReplaySkipsRejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path,
		"Server starting",
		"Alex ("+identity.New().String()+") joined",
		"Rejected connection from Steve ("+steveID+"): not whitelisted",
		"noise",
	)

	rec := &recorder{}
	tl := newTestTailer(t, path, rec)
	require.NoError(t, tl.Replay())

	assert.Equal(t, []string{"reset", "join:Alex"}, rec.snapshot())
	info, _ := os.Stat(path)
	assert.Equal(t, info.Size(), tl.Offset())
}

func TestTailer_PartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	line := "Alex (" + identity.New().String() + ") joined"

	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString(line[:10])
	require.NoError(t, err)

	rec := &recorder{}
	tl := newTestTailer(t, path, rec)
	require.NoError(t, tl.read(true))
	assert.Empty(t, rec.snapshot())

	_, err = f.WriteString(line[10:] + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, tl.read(true))
	assert.Equal(t, []string{"join:Alex"}, rec.snapshot())
}

func TestTailer_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "Alex ("+identity.New().String()+") joined", "padding padding padding padding")

	rec := &recorder{}
	tl := newTestTailer(t, path, rec)
	require.NoError(t, tl.SkipToEnd())

	require.NoError(t, os.WriteFile(path, []byte("Server started\n"), 0644))
	require.NoError(t, tl.read(true))
	assert.Equal(t, []string{"reset"}, rec.snapshot())
}

func TestTailer_RunFollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "old line")

	rec := &recorder{}
	tl := newTestTailer(t, path, rec)
	require.NoError(t, tl.SkipToEnd())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()

	appendLines(t, path, "Rejected connection from Steve ("+steveID+") [10.0.0.5]: not whitelisted")

	assert.Eventually(t, func() bool {
		got := rec.snapshot()
		return len(got) == 1 && got[0] == "reject:Steve"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
