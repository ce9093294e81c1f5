package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillIssueSequences(db); err != nil {
		return fmt.Errorf("backfilling issue sequence allocator state: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		workspace  TEXT NOT NULL,
		identifier TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_identifier ON projects(workspace, identifier)`,

	`CREATE TABLE IF NOT EXISTS project_sequences (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		next_seq   INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS states (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		state_group TEXT NOT NULL
		            CHECK(state_group IN ('backlog','unstarted','started','completed','cancelled')),
		color       TEXT NOT NULL DEFAULT '',
		sequence    REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_states_project ON states(project_id)`,

	`CREATE TABLE IF NOT EXISTS labels (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		color      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_project ON labels(project_id)`,

	`CREATE TABLE IF NOT EXISTS members (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS issues (
		id             TEXT PRIMARY KEY,
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		sequence_id    INTEGER NOT NULL DEFAULT 0,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		state_id       TEXT REFERENCES states(id) ON DELETE SET NULL,
		priority       TEXT NOT NULL DEFAULT 'none'
		               CHECK(priority IN ('urgent','high','medium','low','none')),
		start_date     TEXT,
		target_date    TEXT,
		sort_order     REAL NOT NULL DEFAULT 65535,
		cycle_id       TEXT,
		module_id      TEXT,
		parent_id      TEXT REFERENCES issues(id) ON DELETE SET NULL,
		estimate_point INTEGER,
		created_by     TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_state ON issues(state_id)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_target_date ON issues(target_date)`,

	`CREATE TABLE IF NOT EXISTS issue_assignees (
		issue_id  TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		position  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (issue_id, member_id)
	)`,

	`CREATE TABLE IF NOT EXISTS issue_labels (
		issue_id TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		label_id TEXT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (issue_id, label_id)
	)`,

	// History outlives the issue so deletions stay visible.
	`CREATE TABLE IF NOT EXISTS issue_activity (
		id         TEXT PRIMARY KEY,
		issue_id   TEXT NOT NULL,
		actor      TEXT NOT NULL DEFAULT '',
		verb       TEXT NOT NULL,
		field      TEXT NOT NULL DEFAULT '',
		old_value  TEXT NOT NULL DEFAULT '',
		new_value  TEXT NOT NULL DEFAULT '',
		comment    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_issue ON issue_activity(issue_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS view_props (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		view_id    TEXT NOT NULL DEFAULT '',
		props      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (project_id, view_id)
	)`,

	// completed_at is set when an issue enters a completed state.
	`ALTER TABLE issues ADD COLUMN completed_at TEXT`,
}

// migrateBackfillIssueSequences populates (or raises) next_seq for every
// project from the highest sequence id already assigned to its issues.
func migrateBackfillIssueSequences(db *sql.DB) error {
	ctx := context.Background()

	query := `INSERT INTO project_sequences (project_id, next_seq)
		SELECT p.id, COALESCE(MAX(i.sequence_id), 0) + 1
		FROM projects p
		LEFT JOIN issues i ON i.project_id = p.id
		GROUP BY p.id
		ON CONFLICT(project_id) DO UPDATE
		SET next_seq = MAX(project_sequences.next_seq, excluded.next_seq)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("upserting project sequence rows: %w", err)
	}
	return nil
}
