package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)

	for i, name := range []string{"foo", "bar", "baz"} {
		e := NewEntry(OpInstall, []string{name})
		e.Timestamp = time.Now().Add(time.Duration(i) * time.Second)
		e.MarkSuccess(uint64(i+1), []string{name}, nil, 0)
		require.NoError(t, store.Record(e))
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, []string{"baz"}, entries[0].Requested)
	assert.Equal(t, []string{"foo"}, entries[2].Requested)
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		e := NewEntry(OpInstall, []string{"pkg"})
		e.Timestamp = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Record(e))
	}

	entries, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLast(t *testing.T) {
	store := openTestStore(t)

	last, err := store.Last()
	require.NoError(t, err)
	assert.Nil(t, last)

	e := NewEntry(OpRemove, []string{"foo"})
	require.NoError(t, store.Record(e))

	last, err = store.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, OpRemove, last.Operation)
}

func TestCountAndClear(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(NewEntry(OpInstall, []string{"foo"})))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Clear())

	count, err = store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)

	old := NewEntry(OpInstall, []string{"ancient"})
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Record(old))

	recent := NewEntry(OpInstall, []string{"fresh"})
	require.NoError(t, store.Record(recent))

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"fresh"}, entries[0].Requested)
}
