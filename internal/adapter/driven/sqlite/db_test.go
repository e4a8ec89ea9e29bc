package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDB_FileDatabaseUsesWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pandabot.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))

	var mode string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", strings.ToLower(mode))

	var timeout int
	require.NoError(t, db.Writer.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)

	assert.Equal(t, 1, db.Writer.Stats().MaxOpenConnections)
	assert.Equal(t, 4, db.Reader.Stats().MaxOpenConnections)
}

func TestNewDB_UnopenablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "pandabot.db")

	db, err := NewDB(context.Background(), path)

	require.Error(t, err)
	assert.Nil(t, db)
}
