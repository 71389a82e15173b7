package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"napm/internal/config"
	"napm/internal/history"
	"napm/pkg/database"
	"napm/pkg/resolver"
)

func TestRunTransactionSurfacesLockReadError(t *testing.T) {
	base := t.TempDir()
	cfg = config.Default()
	cfg.General.Root = base
	cfg.General.AutoConfirm = true

	// An unreadable lock file must stop the transaction, not be skipped.
	cfg.Paths.Lock = filepath.Join(base, "lock")
	require.NoError(t, os.MkdirAll(cfg.Paths.Lock, 0o755))

	err := runTransaction(context.Background(), history.OpInstall, nil, staticRequests(nil))
	require.Error(t, err)
}

func TestSatisfiedTargets(t *testing.T) {
	installed := []*database.PackageRecord{
		{Name: "foo", Version: "1.0-1"},
		{Name: "openssl", Version: "3.0-1", Provides: []database.Provide{{Name: "libssl", Version: "3.0"}}},
	}

	satisfied := satisfiedTargets([]resolver.Request{
		resolver.Install("foo"),
		resolver.Install("bar"),
		resolver.Install("libssl>=2.0"),
		resolver.Install("foo>=2.0"),
		resolver.Remove("foo"),
	}, installed)

	require.Len(t, satisfied, 2)
	assert.Equal(t, "foo", satisfied[0].Name)
	assert.Equal(t, "openssl", satisfied[1].Name)
}
