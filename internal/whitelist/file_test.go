// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package whitelist

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wlctl/internal/identity"
)

func writeWhitelist(t *testing.T, path string, enabled bool, ids ...identity.ID) {
	t.Helper()
	data, err := json.Marshal(fileState{Enabled: enabled, List: ids})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func readWhitelist(t *testing.T, path string) fileState {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st fileState
	require.NoError(t, json.Unmarshal(data, &st))
	return st
}

func TestOpenFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	gw, err := OpenFile(path)
	require.NoError(t, err)

	assert.False(t, gw.Enabled())
	assert.Equal(t, 0, gw.Identities().Len())
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "opening must not create the file")
}

func TestOpenFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestFileGateway_ModifyPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	a, b := identity.New(), identity.New()
	writeWhitelist(t, path, true, a)

	gw, err := OpenFile(path)
	require.NoError(t, err)
	assert.True(t, gw.Enabled())
	assert.True(t, gw.Identities().Has(a))

	changed, err := Add(gw, b)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = Add(gw, b)
	require.NoError(t, err)
	assert.False(t, changed, "second add is a no-op")

	changed, err = Remove(gw, a)
	require.NoError(t, err)
	assert.True(t, changed)

	st := readWhitelist(t, path)
	assert.True(t, st.Enabled)
	assert.Equal(t, []identity.ID{b}, st.List)
}

func TestFileGateway_ModifySeesExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	gw, err := OpenFile(path)
	require.NoError(t, err)

	// Another writer adds a player after we loaded.
	external, ours := identity.New(), identity.New()
	writeWhitelist(t, path, false, external)

	_, err = Add(gw, ours)
	require.NoError(t, err)

	st := readWhitelist(t, path)
	assert.ElementsMatch(t, []identity.ID{external, ours}, st.List)
}

func TestFileGateway_TogglePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	gw, err := OpenFile(path)
	require.NoError(t, err)

	gw.SetEnabled(true)
	require.NoError(t, gw.Persist())
	assert.True(t, readWhitelist(t, path).Enabled)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	assert.True(t, reopened.Enabled())
}

func TestFileGateway_TogglePersistKeepsOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	writeWhitelist(t, path, true)

	toggler, err := OpenFile(path)
	require.NoError(t, err)
	adder, err := OpenFile(path)
	require.NoError(t, err)

	steve := identity.New()
	_, err = Add(adder, steve)
	require.NoError(t, err)

	toggler.SetEnabled(!toggler.Enabled())
	require.NoError(t, toggler.Persist())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	assert.False(t, reopened.Enabled())
	assert.True(t, reopened.Identities().Has(steve), "toggle must not drop another writer's entry")
	assert.True(t, toggler.Identities().Has(steve))
}

func TestFileGateway_UnsavedToggleSurvivesReread(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	gw, err := OpenFile(path)
	require.NoError(t, err)

	gw.SetEnabled(true)
	require.NoError(t, gw.Reload())
	assert.True(t, gw.Enabled())

	_, err = Add(gw, identity.New())
	require.NoError(t, err)
	require.NoError(t, gw.Persist())

	st := readWhitelist(t, path)
	assert.True(t, st.Enabled)
	assert.Len(t, st.List, 1)

	// Once written, the file is authoritative again.
	writeWhitelist(t, path, false)
	require.NoError(t, gw.Reload())
	assert.False(t, gw.Enabled())
}

func TestFileGateway_ConcurrentModify(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	gw1, err := OpenFile(path)
	require.NoError(t, err)
	gw2, err := OpenFile(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		gw := gw1
		if i%2 == 1 {
			gw = gw2
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Add(gw, identity.New())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, readWhitelist(t, path).List, 20, "no update may be lost")
}

func TestFileGateway_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	writeWhitelist(t, path, false)

	changed := make(chan struct{}, 1)
	gw, err := OpenFile(path,
		WithDebounce(20*time.Millisecond),
		WithOnChange(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Watch(ctx) }()

	id := identity.New()
	require.Eventually(t, func() bool {
		writeWhitelist(t, path, true, id)
		select {
		case <-changed:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, gw.Enabled())
	assert.True(t, gw.Identities().Has(id))

	cancel()
	assert.NoError(t, <-done)
}
