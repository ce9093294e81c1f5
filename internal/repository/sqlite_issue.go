package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// issueColumns is the canonical SELECT column list for issues joined with
// their state as "s".
const issueColumns = `i.id, i.project_id, i.sequence_id, i.name, i.description,
		i.state_id, COALESCE(s.state_group, ''), i.priority, i.start_date, i.target_date,
		i.sort_order, i.cycle_id, i.module_id, i.parent_id, i.estimate_point,
		i.created_by, i.created_at, i.updated_at, i.completed_at`

const issueFrom = `FROM issues i LEFT JOIN states s ON s.id = i.state_id`

// SQLiteIssueRepo implements IssueRepo using a SQLite database.
type SQLiteIssueRepo struct {
	db db.DBTX
}

// NewSQLiteIssueRepo creates a new SQLiteIssueRepo.
func NewSQLiteIssueRepo(conn db.DBTX) *SQLiteIssueRepo {
	return &SQLiteIssueRepo{db: conn}
}

// Create inserts an issue with its assignee and label sets. Callers wanting
// atomicity run it inside a unit of work.
func (r *SQLiteIssueRepo) Create(ctx context.Context, i *domain.Issue) error {
	query := `INSERT INTO issues (id, project_id, sequence_id, name, description, state_id,
		priority, start_date, target_date, sort_order, cycle_id, module_id, parent_id,
		estimate_point, created_by, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		i.ID,
		i.ProjectID,
		i.SequenceID,
		i.Name,
		i.Description,
		nullableString(i.StateID),
		string(priorityOrNone(i.Priority)),
		nullableTimeToString(i.StartDate, dateLayout),
		nullableTimeToString(i.TargetDate, dateLayout),
		i.SortOrder,
		nullableString(i.CycleID),
		nullableString(i.ModuleID),
		nullableString(i.ParentID),
		nullableIntToValue(i.EstimatePoint),
		nullableString(i.CreatedBy),
		i.CreatedAt.UTC().Format(time.RFC3339),
		i.UpdatedAt.UTC().Format(time.RFC3339),
		nullableTimeToString(i.CompletedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting issue: %w", err)
	}
	if err := r.replaceSet(ctx, "issue_assignees", "member_id", i.ID, i.Assignees); err != nil {
		return err
	}
	return r.replaceSet(ctx, "issue_labels", "label_id", i.ID, i.Labels)
}

func (r *SQLiteIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` ` + issueFrom + ` WHERE i.id = ?`
	return r.getOne(ctx, query, id)
}

func (r *SQLiteIssueRepo) GetBySequence(ctx context.Context, projectID string, seq int) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` ` + issueFrom + ` WHERE i.project_id = ? AND i.sequence_id = ?`
	return r.getOne(ctx, query, projectID, seq)
}

func (r *SQLiteIssueRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying issue: %w", err)
	}
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("issue: %w", ErrNotFound)
	}
	if err := r.loadSets(ctx, issues); err != nil {
		return nil, err
	}
	return &issues[0], nil
}

// List returns the issues matching q, newest first.
func (r *SQLiteIssueRepo) List(ctx context.Context, q IssueQuery) ([]domain.Issue, error) {
	where, args := issueWhere(q)
	query := `SELECT ` + issueColumns + ` ` + issueFrom + where + ` ORDER BY i.created_at DESC, i.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadSets(ctx, issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// Update writes every column of the issue and replaces its assignee and
// label sets.
func (r *SQLiteIssueRepo) Update(ctx context.Context, i *domain.Issue) error {
	query := `UPDATE issues SET name = ?, description = ?, state_id = ?, priority = ?,
		start_date = ?, target_date = ?, sort_order = ?, cycle_id = ?, module_id = ?,
		parent_id = ?, estimate_point = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		i.Name,
		i.Description,
		nullableString(i.StateID),
		string(priorityOrNone(i.Priority)),
		nullableTimeToString(i.StartDate, dateLayout),
		nullableTimeToString(i.TargetDate, dateLayout),
		i.SortOrder,
		nullableString(i.CycleID),
		nullableString(i.ModuleID),
		nullableString(i.ParentID),
		nullableIntToValue(i.EstimatePoint),
		i.UpdatedAt.UTC().Format(time.RFC3339),
		nullableTimeToString(i.CompletedAt, time.RFC3339),
		i.ID,
	)
	if err != nil {
		return fmt.Errorf("updating issue: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("issue: %w", ErrNotFound)
	}
	if err := r.replaceSet(ctx, "issue_assignees", "member_id", i.ID, i.Assignees); err != nil {
		return err
	}
	return r.replaceSet(ctx, "issue_labels", "label_id", i.ID, i.Labels)
}

func (r *SQLiteIssueRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting issue: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("issue: %w", ErrNotFound)
	}
	return nil
}

// replaceSet rewrites one of the issue's membership tables, keeping the
// given order in the position column.
func (r *SQLiteIssueRepo) replaceSet(ctx context.Context, table, column, issueID string, ids []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE issue_id = ?`, issueID); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	query := `INSERT OR IGNORE INTO ` + table + ` (issue_id, ` + column + `, position) VALUES (?, ?, ?)`
	for pos, id := range ids {
		if _, err := r.db.ExecContext(ctx, query, issueID, id, pos); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}

// loadSets fills Assignees and Labels for a batch of issues.
func (r *SQLiteIssueRepo) loadSets(ctx context.Context, issues []domain.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	index := make(map[string]int, len(issues))
	ids := make([]string, len(issues))
	for n, i := range issues {
		index[i.ID] = n
		ids[n] = i.ID
	}

	load := func(table, column string, assign func(i *domain.Issue, v string)) error {
		query := `SELECT issue_id, ` + column + ` FROM ` + table +
			` WHERE issue_id IN (` + placeholders(len(ids)) + `) ORDER BY issue_id, position`
		rows, err := r.db.QueryContext(ctx, query, stringArgs(ids)...)
		if err != nil {
			return fmt.Errorf("loading %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var issueID, v string
			if err := rows.Scan(&issueID, &v); err != nil {
				return fmt.Errorf("scanning %s row: %w", table, err)
			}
			assign(&issues[index[issueID]], v)
		}
		return rows.Err()
	}

	if err := load("issue_assignees", "member_id", func(i *domain.Issue, v string) {
		i.Assignees = append(i.Assignees, v)
	}); err != nil {
		return err
	}
	return load("issue_labels", "label_id", func(i *domain.Issue, v string) {
		i.Labels = append(i.Labels, v)
	})
}

// scanIssues reads and closes rows.
func scanIssues(rows *sql.Rows) ([]domain.Issue, error) {
	defer rows.Close()
	var out []domain.Issue
	for rows.Next() {
		var i domain.Issue
		var stateID, cycleID, moduleID, parentID, createdBy sql.NullString
		var startDate, targetDate, completedAt sql.NullString
		var stateGroup, priority, createdAt, updatedAt string
		var estimate sql.NullInt64

		err := rows.Scan(
			&i.ID, &i.ProjectID, &i.SequenceID, &i.Name, &i.Description,
			&stateID, &stateGroup, &priority, &startDate, &targetDate,
			&i.SortOrder, &cycleID, &moduleID, &parentID, &estimate,
			&createdBy, &createdAt, &updatedAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning issue row: %w", err)
		}

		i.StateID = stateID.String
		i.StateGroup = domain.StateGroup(stateGroup)
		i.Priority = domain.Priority(priority)
		i.StartDate = parseNullableTime(startDate, dateLayout)
		i.TargetDate = parseNullableTime(targetDate, dateLayout)
		i.CycleID = cycleID.String
		i.ModuleID = moduleID.String
		i.ParentID = parentID.String
		i.EstimatePoint = parseNullableInt(estimate)
		i.CreatedBy = createdBy.String
		i.CompletedAt = parseNullableTime(completedAt, time.RFC3339)

		var parseErr error
		i.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing created_at: %w", parseErr)
		}
		i.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return out, nil
}

// issueWhere renders the WHERE clause shared by List and Aggregate. The issue
// table is aliased "i" and its state "s".
func issueWhere(q IssueQuery) (string, []any) {
	var conds []string
	var args []any
	in := func(expr string, vals []string) {
		if len(vals) == 0 {
			return
		}
		conds = append(conds, expr+` IN (`+placeholders(len(vals))+`)`)
		args = append(args, stringArgs(vals)...)
	}
	exists := func(table, column string, vals []string) {
		if len(vals) == 0 {
			return
		}
		conds = append(conds, `EXISTS (SELECT 1 FROM `+table+` x WHERE x.issue_id = i.id AND x.`+column+
			` IN (`+placeholders(len(vals))+`))`)
		args = append(args, stringArgs(vals)...)
	}
	dateRange := func(column string, r domain.DateRange) {
		if r.After != nil {
			conds = append(conds, column+` >= ?`)
			args = append(args, r.After.Format(dateLayout))
		}
		if r.Before != nil {
			conds = append(conds, column+` <= ?`)
			args = append(args, r.Before.Format(dateLayout))
		}
	}

	f := q.Filters
	in("i.project_id", q.ProjectIDs)
	if q.CycleID != "" {
		conds = append(conds, `i.cycle_id = ?`)
		args = append(args, q.CycleID)
	}
	if q.ModuleID != "" {
		conds = append(conds, `i.module_id = ?`)
		args = append(args, q.ModuleID)
	}
	if !q.IncludeSubIssues {
		conds = append(conds, `i.parent_id IS NULL`)
	}

	prios := make([]string, len(f.Priority))
	for n, p := range f.Priority {
		prios[n] = string(p)
	}
	in("i.priority", prios)
	in("i.state_id", f.State)
	groups := make([]string, len(f.StateGroup))
	for n, g := range f.StateGroup {
		groups[n] = string(g)
	}
	in("s.state_group", groups)
	exists("issue_assignees", "member_id", f.Assignees)
	exists("issue_labels", "label_id", f.Labels)
	in("i.created_by", f.CreatedBy)
	dateRange("i.start_date", f.StartDate)
	dateRange("i.target_date", f.TargetDate)
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, `(i.name LIKE ? OR CAST(i.sequence_id AS TEXT) = ?)`)
		args = append(args, "%"+s+"%", s)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func priorityOrNone(p domain.Priority) domain.Priority {
	if p == "" {
		return domain.PriorityNone
	}
	return p
}
