// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attempt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/wlctl/internal/identity"
	"github.com/jeranaias/wlctl/internal/metrics"
)

var base = time.UnixMilli(1_718_035_200_000)

func recAt(id identity.ID, name string, offset time.Duration) Record {
	return NewAt(id, name, base.Add(offset), "127.0.0.1")
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), DefaultFileName)
}

// =============================================================================
// IN-MEMORY BEHAVIOUR
// =============================================================================

func TestStore_Defaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, DefaultCapacity, s.Capacity())
	assert.Equal(t, "", s.Path())
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List())
}

func TestStore_AddOverwritesSameIdentity(t *testing.T) {
	s := NewStore()
	id := identity.New()

	require.NoError(t, s.Add(NewAt(id, "OldName", base, "1.1.1.1")))
	require.NoError(t, s.Add(NewAt(id, "NewName", base.Add(time.Minute), "2.2.2.2")))

	assert.Equal(t, 1, s.Count())
	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "NewName", got.Name())
	assert.Equal(t, "2.2.2.2", got.Address())
	assert.Equal(t, base.Add(time.Minute).UnixMilli(), got.Timestamp().UnixMilli())
}

func TestStore_CapacityBound(t *testing.T) {
	s := NewStore(WithCapacity(5))

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Add(recAt(identity.New(), fmt.Sprintf("p%d", i), time.Duration(i)*time.Second)))
		assert.LessOrEqual(t, s.Count(), s.Capacity())
	}
	assert.Equal(t, 5, s.Count())
}

func TestStore_EvictsOldest(t *testing.T) {
	const capacity = 10
	const extra = 4
	s := NewStore(WithCapacity(capacity))

	ids := make([]identity.ID, capacity+extra)
	for i := range ids {
		ids[i] = identity.New()
		require.NoError(t, s.Add(recAt(ids[i], fmt.Sprintf("p%d", i), time.Duration(i)*time.Second)))
	}

	for i, id := range ids {
		_, ok := s.Get(id)
		if i < extra {
			assert.False(t, ok, "record %d should have been evicted", i)
		} else {
			assert.True(t, ok, "record %d should be retained", i)
		}
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := NewStore()
	offsets := []time.Duration{3 * time.Second, time.Second, 5 * time.Second, 2 * time.Second}
	for i, off := range offsets {
		require.NoError(t, s.Add(recAt(identity.New(), fmt.Sprintf("p%d", i), off)))
	}

	list := s.List()
	require.Len(t, list, len(offsets))
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Timestamp().After(list[i-1].Timestamp()),
			"entry %d is newer than entry %d", i, i-1)
	}
}

func TestStore_TiesOrderedByInsertion(t *testing.T) {
	s := NewStore(WithCapacity(2))
	first, second, third := identity.New(), identity.New(), identity.New()

	require.NoError(t, s.Add(recAt(first, "first", 0)))
	require.NoError(t, s.Add(recAt(second, "second", 0)))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID(), "most recently inserted comes first")
	assert.Equal(t, first, list[1].ID())

	// Eviction drops the tail of List.
	require.NoError(t, s.Add(recAt(third, "third", 0)))
	_, ok := s.Get(first)
	assert.False(t, ok)
	assert.Equal(t, []string{"third", "second"}, names(s.List()))
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := NewStore()
	a, b := identity.New(), identity.New()
	require.NoError(t, s.Add(recAt(a, "a", 0)))
	require.NoError(t, s.Add(recAt(b, "b", time.Second)))

	require.NoError(t, s.Remove(a))
	require.NoError(t, s.Remove(a), "removing an absent identity is a no-op")
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Count())
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := NewStore(WithCapacity(25), WithPath(tempPath(t)))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = s.Add(New(identity.New(), fmt.Sprintf("w%d-%d", w, i), ""))
				_ = s.List()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 25, s.Count())
	reloaded := NewStore(WithCapacity(25), WithPath(s.Path()))
	assert.Equal(t, 25, reloaded.Count())
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	path := tempPath(t)
	s := NewStore(WithPath(path))

	ids := []identity.ID{identity.New(), identity.New(), identity.New()}
	for i, id := range ids {
		require.NoError(t, s.Add(NewAt(id, fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Hour), fmt.Sprintf("10.0.0.%d", i))))
	}

	reloaded := NewStore(WithPath(path))
	assert.Equal(t, s.List(), reloaded.List())
}

func TestStore_FileFormat(t *testing.T) {
	path := tempPath(t)
	s := NewStore(WithPath(path))
	older, newer := identity.New(), identity.New()
	require.NoError(t, s.Add(NewAt(older, "Older", base, "")))
	require.NoError(t, s.Add(NewAt(newer, "Newer", base.Add(time.Second), "198.51.100.4")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, newer.String(), raw[0]["uuid"])
	assert.Equal(t, "Newer", raw[0]["username"])
	assert.Equal(t, float64(base.Add(time.Second).UnixMilli()), raw[0]["timestamp"])
	assert.Equal(t, "198.51.100.4", raw[0]["ip"])
	assert.Equal(t, "unknown", raw[1]["ip"])
	assert.Contains(t, string(data), "\n  {", "file should be pretty-printed")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestStore_MissingFile(t *testing.T) {
	s := NewStore(WithPath(tempPath(t)))
	assert.Equal(t, 0, s.Count())
	assert.NoError(t, s.Err())
}

func TestStore_MalformedFile(t *testing.T) {
	tests := map[string]string{
		"not json":     "{{{",
		"not an array": `{"uuid":"x"}`,
		"bad uuid":     `[{"uuid":"nope","username":"a","timestamp":1}]`,
		"missing uuid": `[{"username":"a","timestamp":1}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := tempPath(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			s := NewStore(WithPath(path))
			assert.Equal(t, 0, s.Count())

			// The store stays usable and overwrites the bad file.
			require.NoError(t, s.Add(New(identity.New(), "fresh", "")))
			assert.Equal(t, 1, NewStore(WithPath(path)).Count())
		})
	}
}

func TestStore_LoadMissingIPIsUnknown(t *testing.T) {
	path := tempPath(t)
	id := identity.New()
	content := fmt.Sprintf(`[{"uuid":%q,"username":"Legacy","timestamp":%d}]`, id, base.UnixMilli())
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	got, ok := NewStore(WithPath(path)).Get(id)
	require.True(t, ok)
	assert.Equal(t, UnknownAddress, got.Address())
	assert.Equal(t, "Legacy", got.Name())
}

func TestStore_LoadOverCapacityTrims(t *testing.T) {
	path := tempPath(t)
	big := NewStore(WithPath(path), WithCapacity(10))
	for i := 0; i < 10; i++ {
		require.NoError(t, big.Add(recAt(identity.New(), fmt.Sprintf("p%d", i), time.Duration(i)*time.Second)))
	}

	small := NewStore(WithPath(path), WithCapacity(3))
	assert.Equal(t, 3, small.Count())
	assert.Equal(t, []string{"p9", "p8", "p7"}, names(small.List()))
}

func TestStore_LoadDuplicateKeepsLatest(t *testing.T) {
	path := tempPath(t)
	id := identity.New()
	content := fmt.Sprintf(`[
  {"uuid":%q,"username":"Old","timestamp":%d,"ip":"1.1.1.1"},
  {"uuid":%q,"username":"New","timestamp":%d,"ip":"2.2.2.2"}
]`, id, base.UnixMilli(), id, base.Add(time.Minute).UnixMilli())
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s := NewStore(WithPath(path))
	assert.Equal(t, 1, s.Count())
	got, _ := s.Get(id)
	assert.Equal(t, "New", got.Name())
}

func TestStore_SaveFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	// A regular file in the parent position makes every save fail.
	s := NewStore(WithPath(filepath.Join(blocker, DefaultFileName)), WithMetrics(m))

	id := identity.New()
	err := s.Add(New(id, "Steve", ""))
	require.Error(t, err)
	assert.Equal(t, err, s.Err())
	_, ok := s.Get(id)
	assert.True(t, ok, "in-memory state stays authoritative")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
}

func TestStore_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := NewStore(WithCapacity(2), WithMetrics(m))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Add(recAt(identity.New(), "p", time.Duration(i)*time.Second)))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.AttemptsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsEvicted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsPending))
}

func names(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name()
	}
	return out
}

// =============================================================================
// SHARED FILE
// =============================================================================

func TestStore_SharedFileKeepsOtherWriters(t *testing.T) {
	path := tempPath(t)
	old := identity.New()
	seed := NewStore(WithPath(path))
	require.NoError(t, seed.Add(recAt(old, "Old", 0)))

	daemon := NewStore(WithPath(path))
	oneShot := NewStore(WithPath(path))

	bob := identity.New()
	require.NoError(t, daemon.Add(recAt(bob, "Bob", time.Minute)))
	require.NoError(t, oneShot.Remove(old))

	reloaded := NewStore(WithPath(path))
	_, ok := reloaded.Get(bob)
	assert.True(t, ok, "attempt recorded by the other store survives")
	_, ok = reloaded.Get(old)
	assert.False(t, ok)
	assert.Equal(t, 1, reloaded.Count())

	// The daemon sees the removal without restarting.
	_, ok = daemon.Get(old)
	assert.False(t, ok)
}

func TestStore_SharedFileClearIsSeen(t *testing.T) {
	path := tempPath(t)
	daemon := NewStore(WithPath(path))
	require.NoError(t, daemon.Add(recAt(identity.New(), "Steve", 0)))
	require.NoError(t, daemon.Add(recAt(identity.New(), "Alex", time.Second)))

	oneShot := NewStore(WithPath(path))
	assert.Equal(t, 2, oneShot.Count())
	require.NoError(t, oneShot.Clear())

	assert.Equal(t, 0, daemon.Count())
	assert.Empty(t, daemon.List())

	alex := identity.New()
	require.NoError(t, daemon.Add(recAt(alex, "Alex", 2*time.Second)))
	assert.Equal(t, 1, NewStore(WithPath(path)).Count())
}

func TestStore_SharedFileConcurrentAdds(t *testing.T) {
	path := tempPath(t)
	a := NewStore(WithPath(path), WithCapacity(100))
	b := NewStore(WithPath(path), WithCapacity(100))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		s := a
		if i%2 == 1 {
			s = b
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Add(recAt(identity.New(), fmt.Sprintf("p%d", i), time.Duration(i)*time.Millisecond)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 40, NewStore(WithPath(path), WithCapacity(100)).Count(), "no update may be lost")
}

func TestStore_SharedFileRespectsCapacity(t *testing.T) {
	path := tempPath(t)
	a := NewStore(WithPath(path), WithCapacity(2))
	b := NewStore(WithPath(path), WithCapacity(2))

	first, newest := identity.New(), identity.New()
	require.NoError(t, a.Add(recAt(first, "first", 0)))
	require.NoError(t, b.Add(recAt(identity.New(), "second", time.Second)))
	require.NoError(t, a.Add(recAt(newest, "third", 2*time.Second)))

	ids := make([]identity.ID, 0, 2)
	for _, rec := range NewStore(WithPath(path)).List() {
		ids = append(ids, rec.ID())
	}
	assert.Len(t, ids, 2)
	assert.Equal(t, newest, ids[0])
	assert.NotContains(t, ids, first)
}
