package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// SQLiteStateRepo implements StateRepo using a SQLite database.
type SQLiteStateRepo struct {
	db db.DBTX
}

// NewSQLiteStateRepo creates a new SQLiteStateRepo.
func NewSQLiteStateRepo(conn db.DBTX) *SQLiteStateRepo {
	return &SQLiteStateRepo{db: conn}
}

func (r *SQLiteStateRepo) Upsert(ctx context.Context, s *domain.State) error {
	query := `INSERT INTO states (id, project_id, name, state_group, color, sequence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, state_group = excluded.state_group,
			color = excluded.color, sequence = excluded.sequence`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.ProjectID, s.Name, string(s.Group), s.Color, s.Sequence)
	if err != nil {
		return fmt.Errorf("upserting state %s: %w", s.Name, err)
	}
	return nil
}

func (r *SQLiteStateRepo) GetByID(ctx context.Context, id string) (*domain.State, error) {
	query := `SELECT id, project_id, name, state_group, color, sequence FROM states WHERE id = ?`
	var s domain.State
	var group string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.ProjectID, &s.Name, &group, &s.Color, &s.Sequence)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("state: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning state: %w", err)
	}
	s.Group = domain.StateGroup(group)
	return &s, nil
}

func (r *SQLiteStateRepo) ListByProject(ctx context.Context, projectID string) ([]domain.State, error) {
	query := `SELECT id, project_id, name, state_group, color, sequence FROM states
		WHERE project_id = ?
		ORDER BY CASE state_group
			WHEN 'backlog' THEN 0 WHEN 'unstarted' THEN 1 WHEN 'started' THEN 2
			WHEN 'completed' THEN 3 ELSE 4 END, sequence, name`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	var out []domain.State
	for rows.Next() {
		var s domain.State
		var group string
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &group, &s.Color, &s.Sequence); err != nil {
			return nil, fmt.Errorf("scanning state row: %w", err)
		}
		s.Group = domain.StateGroup(group)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating states: %w", err)
	}
	return out, nil
}

// SQLiteLabelRepo implements LabelRepo using a SQLite database.
type SQLiteLabelRepo struct {
	db db.DBTX
}

// NewSQLiteLabelRepo creates a new SQLiteLabelRepo.
func NewSQLiteLabelRepo(conn db.DBTX) *SQLiteLabelRepo {
	return &SQLiteLabelRepo{db: conn}
}

func (r *SQLiteLabelRepo) Upsert(ctx context.Context, l *domain.Label) error {
	query := `INSERT INTO labels (id, project_id, name, color) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color`
	if _, err := r.db.ExecContext(ctx, query, l.ID, l.ProjectID, l.Name, l.Color); err != nil {
		return fmt.Errorf("upserting label %s: %w", l.Name, err)
	}
	return nil
}

func (r *SQLiteLabelRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Label, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, name, color FROM labels WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	defer rows.Close()

	var out []domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("scanning label row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating labels: %w", err)
	}
	return out, nil
}

// SQLiteMemberRepo implements MemberRepo using a SQLite database.
type SQLiteMemberRepo struct {
	db db.DBTX
}

// NewSQLiteMemberRepo creates a new SQLiteMemberRepo.
func NewSQLiteMemberRepo(conn db.DBTX) *SQLiteMemberRepo {
	return &SQLiteMemberRepo{db: conn}
}

func (r *SQLiteMemberRepo) Upsert(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (id, display_name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, email = excluded.email`
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.DisplayName, m.Email); err != nil {
		return fmt.Errorf("upserting member %s: %w", m.DisplayName, err)
	}
	return nil
}

func (r *SQLiteMemberRepo) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, display_name, email FROM members ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.Email); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return out, nil
}
