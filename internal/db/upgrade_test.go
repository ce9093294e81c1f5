package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_LegacyToCurrentSchema simulates upgrading a replica
// created before completed_at and the sequence allocator existed. Verifies
// that:
// 1. Data inserted under the old schema survives migration
// 2. New columns are added
// 3. The sequence allocator is seeded from existing issues
func TestMigrate_UpgradePath_LegacyToCurrentSchema(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	legacyStatements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			workspace  TEXT NOT NULL,
			identifier TEXT NOT NULL,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS states (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			state_group TEXT NOT NULL,
			color       TEXT NOT NULL DEFAULT '',
			sequence    REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id             TEXT PRIMARY KEY,
			project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			sequence_id    INTEGER NOT NULL DEFAULT 0,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			state_id       TEXT REFERENCES states(id) ON DELETE SET NULL,
			priority       TEXT NOT NULL DEFAULT 'none',
			start_date     TEXT,
			target_date    TEXT,
			sort_order     REAL NOT NULL DEFAULT 65535,
			cycle_id       TEXT,
			module_id      TEXT,
			parent_id      TEXT,
			estimate_point INTEGER,
			created_by     TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		)`,
	}
	for i, stmt := range legacyStatements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "legacy statement %d failed", i)
	}

	_, err = db.Exec(`INSERT INTO projects (id, workspace, identifier, name, created_at)
		VALUES ('p1', 'acme', 'WEB', 'Website', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO issues (id, project_id, sequence_id, name, created_at, updated_at)
		VALUES ('i1', 'p1', 41, 'Old issue', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	err = Migrate(db)
	require.NoError(t, err, "migration on legacy schema should succeed")

	var name string
	var completedAt sql.NullString
	err = db.QueryRow(`SELECT name, completed_at FROM issues WHERE id = 'i1'`).Scan(&name, &completedAt)
	require.NoError(t, err)
	assert.Equal(t, "Old issue", name, "issue should survive migration")
	assert.False(t, completedAt.Valid, "legacy issue should get NULL completed_at")

	var nextSeq int
	err = db.QueryRow(`SELECT next_seq FROM project_sequences WHERE project_id = 'p1'`).Scan(&nextSeq)
	require.NoError(t, err)
	assert.Equal(t, 42, nextSeq, "allocator should continue after the highest sequence id")

	// Re-running must not lower an allocator that has moved on.
	_, err = db.Exec(`UPDATE project_sequences SET next_seq = 50 WHERE project_id = 'p1'`)
	require.NoError(t, err)
	err = Migrate(db)
	require.NoError(t, err, "re-running Migrate on already-migrated DB should succeed")

	err = db.QueryRow(`SELECT next_seq FROM project_sequences WHERE project_id = 'p1'`).Scan(&nextSeq)
	require.NoError(t, err)
	assert.Equal(t, 50, nextSeq)
}
