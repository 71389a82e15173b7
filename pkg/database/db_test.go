package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpenBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = Open(path)
	require.ErrorIs(t, err, ErrBusy)
}

func TestApplyAndGet(t *testing.T) {
	db := openTestDB(t)

	rec := &PackageRecord{
		Name:    "foo",
		Version: "1.0-1",
		Reason:  ReasonExplicit,
		Files: []FileEntry{
			{Path: "usr/bin/"},
			{Path: "usr/bin/foo", Checksum: 42, Size: 100},
		},
	}

	gen, err := db.Apply(ChangeSet{Install: []*PackageRecord{rec}})
	require.NoError(t, err)
	require.Equal(t, uint64(1), gen)

	got, err := db.Get("foo")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "1.0-1", got.Version)
	require.Equal(t, ReasonExplicit, got.Reason)

	missing, err := db.Get("bar")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFileOwnership(t *testing.T) {
	db := openTestDB(t)

	rec := &PackageRecord{
		Name:    "foo",
		Version: "1.0-1",
		Files: []FileEntry{
			{Path: "usr/share/foo/"},
			{Path: "usr/bin/foo", Checksum: 1},
		},
	}

	_, err := db.Apply(ChangeSet{Install: []*PackageRecord{rec}})
	require.NoError(t, err)

	owner, err := db.Owner("usr/bin/foo")
	require.NoError(t, err)
	require.Equal(t, "foo", owner)

	// Directories are shareable, never owned.
	owner, err = db.Owner("usr/share/foo/")
	require.NoError(t, err)
	require.Empty(t, owner)

	_, err = db.Apply(ChangeSet{Remove: []string{"foo"}})
	require.NoError(t, err)

	owner, err = db.Owner("usr/bin/foo")
	require.NoError(t, err)
	require.Empty(t, owner)
}

func TestGenerationAdvances(t *testing.T) {
	db := openTestDB(t)

	gen, err := db.Generation()
	require.NoError(t, err)
	require.Zero(t, gen)

	for i := 1; i <= 3; i++ {
		rec := &PackageRecord{Name: "pkg", Version: "1.0-1"}
		gen, err = db.Apply(ChangeSet{Install: []*PackageRecord{rec}})
		require.NoError(t, err)
		require.Equal(t, uint64(i), gen)
	}
}

func TestReplaceTransfersOwnership(t *testing.T) {
	db := openTestDB(t)

	old := &PackageRecord{
		Name:    "oldpkg",
		Version: "1.0-1",
		Files:   []FileEntry{{Path: "usr/bin/tool", Checksum: 1}},
	}
	_, err := db.Apply(ChangeSet{Install: []*PackageRecord{old}})
	require.NoError(t, err)

	repl := &PackageRecord{
		Name:     "newpkg",
		Version:  "2.0-1",
		Replaces: []string{"oldpkg"},
		Files:    []FileEntry{{Path: "usr/bin/tool", Checksum: 2}},
	}
	_, err = db.Apply(ChangeSet{Install: []*PackageRecord{repl}, Remove: []string{"oldpkg"}})
	require.NoError(t, err)

	gone, err := db.Get("oldpkg")
	require.NoError(t, err)
	require.Nil(t, gone)

	owner, err := db.Owner("usr/bin/tool")
	require.NoError(t, err)
	require.Equal(t, "newpkg", owner)
}
