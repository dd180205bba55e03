package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/g3a/htpclient/internal/storage/sqlite/migrations"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestJournalMigrator(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := migrations.NewJournalMigrator(migrations.JournalMigratorConfig{DB: db})
	require.NoError(err)

	v, err := m.Version(ctx)
	require.NoError(err)
	assert.Zero(v)

	// Applying twice should leave the journal at the same version.
	require.NoError(m.Up(ctx))
	require.NoError(m.Up(ctx))
	assert.True(tableExists(t, db, "task_journal"))

	v, err = m.Version(ctx)
	require.NoError(err)
	assert.Equal(uint(1), v)

	require.NoError(m.Drop(ctx))
	assert.False(tableExists(t, db, "task_journal"))
	v, err = m.Version(ctx)
	require.NoError(err)
	assert.Zero(v)
}

func TestNewJournalMigrator(t *testing.T) {
	_, err := migrations.NewJournalMigrator(migrations.JournalMigratorConfig{})
	assert.Error(t, err)
}
