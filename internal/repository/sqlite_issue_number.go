package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/trackboard/internal/db"
)

// SQLiteIssueNumberRepo hands out the per-project numbers behind issue keys
// (the 42 in WEB-42). Numbers are never reused, even after a delete.
type SQLiteIssueNumberRepo struct {
	db db.DBTX
}

func NewSQLiteIssueNumberRepo(conn db.DBTX) *SQLiteIssueNumberRepo {
	return &SQLiteIssueNumberRepo{db: conn}
}

// Next reserves the next issue number of projectID. A project without a
// counter row starts after its highest existing issue.
func (r *SQLiteIssueNumberRepo) Next(ctx context.Context, projectID string) (int, error) {
	const bootstrap = `INSERT OR IGNORE INTO project_sequences (project_id, next_seq)
		SELECT ?, COALESCE(MAX(sequence_id), 0) + 1 FROM issues WHERE project_id = ?`
	if _, err := r.db.ExecContext(ctx, bootstrap, projectID, projectID); err != nil {
		return 0, fmt.Errorf("initialising issue numbers for %s: %w", projectID, err)
	}

	const reserve = `UPDATE project_sequences SET next_seq = next_seq + 1
		WHERE project_id = ? RETURNING next_seq - 1`
	var n int
	if err := r.db.QueryRowContext(ctx, reserve, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("reserving issue number for %s: %w", projectID, err)
	}
	return n, nil
}
