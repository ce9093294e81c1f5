package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
)

// ListGroup is one titled block of rows.
type ListGroup struct {
	Key   string
	Title string
	Rows  []ListRow
}

// ListRow is one issue line.
type ListRow struct {
	Key      string
	Name     string
	State    string
	Priority domain.Priority
	Updated  string
	Issue    domain.Issue
}

// List shows groups as consecutive blocks of rows.
type List struct {
	base
}

func NewList(ctl service.IssueListController, lookup domain.Lookup) *List {
	return &List{base: newBase(ctl, lookup)}
}

func (l *List) Layout() domain.Layout { return domain.LayoutList }

// Groups returns the blocks in group order. Updated times are relative to
// the adapter's clock.
func (l *List) Groups() []ListGroup {
	g := l.ctl.Group()
	now := l.now()
	out := make([]ListGroup, 0, len(g.Keys))
	for _, k := range g.Keys {
		grp := ListGroup{Key: k, Title: l.groupTitle(k)}
		for _, is := range g.Groups[k] {
			grp.Rows = append(grp.Rows, ListRow{
				Key:      l.issueKey(is),
				Name:     is.Name,
				State:    l.lookup.StateName(is.StateID),
				Priority: is.Priority,
				Updated:  formatter.Ago(is.UpdatedAt, now),
				Issue:    is,
			})
		}
		out = append(out, grp)
	}
	return out
}

// Edit applies a patch to the row at pos.
func (l *List) Edit(ctx context.Context, pos grouping.Position, patch domain.IssuePatch) error {
	return l.ctl.ApplyUpdate(ctx, pos.Key, pos.Index, patch)
}

func (l *List) Render(width int) string {
	groups := l.Groups()
	if len(groups) == 0 {
		return formatter.Dim("No issues.") + "\n"
	}
	nameWidth := width - 48
	if nameWidth < 20 {
		nameWidth = 20
	}

	var b strings.Builder
	for i, grp := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatter.StyleHeader.Render(grp.Title) + " " + formatter.Dim(fmt.Sprintf("(%d)", len(grp.Rows))) + "\n")
		if len(grp.Rows) == 0 {
			b.WriteString("  " + formatter.Dim("No issues") + "\n")
			continue
		}
		for _, r := range grp.Rows {
			fmt.Fprintf(&b, "  %s %s %s %s %s\n",
				formatter.Dim(formatter.PadRight(r.Key, 9)),
				formatter.PadRight(formatter.Truncate(r.Name, nameWidth), nameWidth),
				formatter.PriorityStyle(r.Priority).Render(formatter.PadRight(domain.Title(string(r.Priority)), 7)),
				formatter.StateGroupStyle(r.Issue.StateGroup).Render(formatter.PadRight(formatter.Truncate(r.State, 14), 14)),
				formatter.Dim(r.Updated),
			)
		}
	}
	return b.String()
}
