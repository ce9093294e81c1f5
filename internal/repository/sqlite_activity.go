package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// activityTimeLayout is fixed width so stored timestamps sort as text.
const activityTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteActivityRepo implements ActivityRepo using a SQLite database.
type SQLiteActivityRepo struct {
	db db.DBTX
}

// NewSQLiteActivityRepo creates a new SQLiteActivityRepo.
func NewSQLiteActivityRepo(conn db.DBTX) *SQLiteActivityRepo {
	return &SQLiteActivityRepo{db: conn}
}

func (r *SQLiteActivityRepo) Append(ctx context.Context, a domain.ActivityRecord) error {
	query := `INSERT INTO issue_activity (id, issue_id, actor, verb, field, old_value, new_value, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.IssueID, a.Actor, a.Verb, a.Field, a.OldValue, a.NewValue, a.Comment,
		a.CreatedAt.UTC().Format(activityTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// ListByIssue returns an issue's history oldest first.
func (r *SQLiteActivityRepo) ListByIssue(ctx context.Context, issueID string) ([]domain.ActivityRecord, error) {
	query := `SELECT id, issue_id, actor, verb, field, old_value, new_value, comment, created_at
		FROM issue_activity WHERE issue_id = ? ORDER BY created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var out []domain.ActivityRecord
	for rows.Next() {
		var a domain.ActivityRecord
		var createdAt string
		if err := rows.Scan(&a.ID, &a.IssueID, &a.Actor, &a.Verb, &a.Field,
			&a.OldValue, &a.NewValue, &a.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		t, err := time.Parse(activityTimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing activity created_at: %w", err)
		}
		a.CreatedAt = t
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return out, nil
}

// SQLiteViewPropsRepo implements ViewPropsRepo using a SQLite database.
type SQLiteViewPropsRepo struct {
	db db.DBTX
}

// NewSQLiteViewPropsRepo creates a new SQLiteViewPropsRepo.
func NewSQLiteViewPropsRepo(conn db.DBTX) *SQLiteViewPropsRepo {
	return &SQLiteViewPropsRepo{db: conn}
}

func (r *SQLiteViewPropsRepo) Get(ctx context.Context, projectID, viewID string) ([]byte, error) {
	var props string
	err := r.db.QueryRowContext(ctx,
		`SELECT props FROM view_props WHERE project_id = ? AND view_id = ?`, projectID, viewID).Scan(&props)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("view props: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning view props: %w", err)
	}
	return []byte(props), nil
}

func (r *SQLiteViewPropsRepo) Put(ctx context.Context, projectID, viewID string, props []byte) error {
	query := `INSERT INTO view_props (project_id, view_id, props, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, view_id) DO UPDATE SET props = excluded.props, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, projectID, viewID, string(props), nowUTC()); err != nil {
		return fmt.Errorf("saving view props: %w", err)
	}
	return nil
}
