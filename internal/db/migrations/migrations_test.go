package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func userVersion(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, conn.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func TestAll_OrderedAndNamed(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "actions", all[0].Name)
	assert.Equal(t, 2, all[1].Version)
	assert.Equal(t, "action_operator", all[1].Name)
}

func TestLoad_RejectsGaps(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"003_c.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := load(fsys)
	assert.Error(t, err)
}

func TestLoad_RejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{
		"initial.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := load(fsys)
	assert.Error(t, err)
}

func TestMigrate_FreshDatabase(t *testing.T) {
	conn := openTestDB(t)

	require.NoError(t, Migrate(conn))
	assert.Equal(t, 2, userVersion(t, conn))

	_, err := conn.Exec(`INSERT INTO actions (id, timestamp, app, deployment, kind, status, operator)
		VALUES ('a', 1, 'MyApp', 'Production', 'rollback', 'ok', 'alice')`)
	require.NoError(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := openTestDB(t)

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn))
	assert.Equal(t, 2, userVersion(t, conn))
}

// TestMigrate_FromVersionOne adds the operator column and keeps rows
func TestMigrate_FromVersionOne(t *testing.T) {
	conn := openTestDB(t)

	all, err := All()
	require.NoError(t, err)
	require.NoError(t, apply(conn, all[:1]))
	assert.Equal(t, 1, userVersion(t, conn))

	_, err = conn.Exec(`INSERT INTO actions (id, timestamp, app, deployment, kind, status)
		VALUES ('a', 1, 'MyApp', 'Production', 'rollback', 'ok')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(conn))
	assert.Equal(t, 2, userVersion(t, conn))

	var operator string
	require.NoError(t, conn.QueryRow("SELECT operator FROM actions WHERE id = 'a'").Scan(&operator))
	assert.Equal(t, "", operator)
}

func TestMigrate_FailureKeepsLastGoodVersion(t *testing.T) {
	conn := openTestDB(t)

	broken := []Migration{
		{Version: 1, Name: "ok", SQL: "CREATE TABLE t (id INTEGER);"},
		{Version: 2, Name: "broken", SQL: "ALTER TABLE missing ADD COLUMN x TEXT;"},
	}
	err := apply(conn, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 (broken) failed")
	assert.Equal(t, 1, userVersion(t, conn))
}
