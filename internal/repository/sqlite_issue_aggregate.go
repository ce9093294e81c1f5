package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/alexanderramin/trackboard/internal/analytics"
)

// dimension describes how one analytics axis is read from the issue tables.
type dimension struct {
	expr string
	join string
	// family names the joined membership table, if any.
	family string
}

// analyticsDimensions maps axis names to SQL. Date axes bucket by month.
var analyticsDimensions = map[string]dimension{
	"priority":                {expr: "i.priority"},
	"state_id":                {expr: "i.state_id"},
	"state__name":             {expr: "s.name"},
	"state__group":            {expr: "s.state_group"},
	"labels__id":              {expr: "il.label_id", join: "LEFT JOIN issue_labels il ON il.issue_id = i.id", family: "labels"},
	"labels__name":            {expr: "l.name", join: "LEFT JOIN issue_labels il ON il.issue_id = i.id LEFT JOIN labels l ON l.id = il.label_id", family: "labels"},
	"assignees__id":           {expr: "ia.member_id", join: "LEFT JOIN issue_assignees ia ON ia.issue_id = i.id", family: "assignees"},
	"assignees__display_name": {expr: "m.display_name", join: "LEFT JOIN issue_assignees ia ON ia.issue_id = i.id LEFT JOIN members m ON m.id = ia.member_id", family: "assignees"},
	"created_by":              {expr: "i.created_by"},
	"cycle_id":                {expr: "i.cycle_id"},
	"module_id":               {expr: "i.module_id"},
	"estimate_point":          {expr: "CAST(i.estimate_point AS TEXT)"},
	"start_date":              {expr: "substr(i.start_date, 1, 7)"},
	"target_date":             {expr: "substr(i.target_date, 1, 7)"},
	"created_at":              {expr: "substr(i.created_at, 1, 7)"},
	"completed_at":            {expr: "substr(i.completed_at, 1, 7)"},
}

// AnalyticsDimensions lists the supported x-axis and segment names.
func AnalyticsDimensions() []string {
	out := make([]string, 0, len(analyticsDimensions))
	for k := range analyticsDimensions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Aggregate counts issues (and sums estimates) per x-axis value, optionally
// split by a segment. Each issue contributes once per distinct
// (dimension, segment) pair, so multi-valued axes count an issue under every
// label or assignee it has. Buckets come back ordered by dimension with the
// empty dimension first.
func (r *SQLiteIssueRepo) Aggregate(ctx context.Context, q AggregateQuery) (analytics.Aggregation, error) {
	x, ok := analyticsDimensions[q.XAxis]
	if !ok {
		return nil, fmt.Errorf("unsupported x-axis %q", q.XAxis)
	}
	segExpr := "NULL"
	joins := x.join
	if q.Segment != "" {
		seg, ok := analyticsDimensions[q.Segment]
		if !ok {
			return nil, fmt.Errorf("unsupported segment %q", q.Segment)
		}
		if q.Segment == q.XAxis || (seg.family != "" && seg.family == x.family) {
			return nil, fmt.Errorf("segment %q must read a different field than x-axis %q", q.Segment, q.XAxis)
		}
		segExpr = seg.expr
		if seg.join != "" {
			joins += " " + seg.join
		}
	}

	where, args := issueWhere(q.IssueQuery)
	query := `SELECT dim, seg, COUNT(*), SUM(est) FROM (
			SELECT DISTINCT i.id, ` + x.expr + ` AS dim, ` + segExpr + ` AS seg,
				COALESCE(i.estimate_point, 0) AS est
			` + issueFrom + ` ` + joins + where + `
		) GROUP BY dim, seg ORDER BY dim, seg`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating issues: %w", err)
	}
	defer rows.Close()

	var out analytics.Aggregation
	bucketOf := make(map[string]int)
	for rows.Next() {
		var dim, seg sql.NullString
		var count int
		var estimate float64
		if err := rows.Scan(&dim, &seg, &count, &estimate); err != nil {
			return nil, fmt.Errorf("scanning aggregate row: %w", err)
		}

		row := analytics.Row{"count": count, "estimate": estimate}
		key := analytics.NoneLabel
		if dim.Valid && dim.String != "" {
			row["dimension"] = dim.String
			key = dim.String
		} else {
			row["dimension"] = nil
		}
		if q.Segment != "" {
			if seg.Valid && seg.String != "" {
				row["segment"] = seg.String
			} else {
				row["segment"] = nil
			}
		}

		n, ok := bucketOf[key]
		if !ok {
			n = len(out)
			bucketOf[key] = n
			out = append(out, analytics.Bucket{Key: key})
		}
		out[n].Rows = append(out[n].Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aggregate rows: %w", err)
	}
	return out, nil
}
