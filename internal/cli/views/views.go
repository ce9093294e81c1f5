// Package views adapts one issue list controller to the board, list,
// spreadsheet and calendar layouts. Adapters only shape and render data;
// every user action is forwarded to the controller.
package views

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
)

// Adapter is what every layout offers.
type Adapter interface {
	Layout() domain.Layout
	Render(width int) string
	Delete(ctx context.Context, pos grouping.Position) error
}

// ForLayout returns the adapter for a layout. Unknown layouts get the list.
func ForLayout(layout domain.Layout, ctl service.IssueListController, lookup domain.Lookup) Adapter {
	switch domain.ParseLayout(string(layout)) {
	case domain.LayoutKanban:
		return NewBoard(ctl, lookup)
	case domain.LayoutSpreadsheet:
		return NewSpreadsheet(ctl, lookup)
	case domain.LayoutCalendar:
		return NewCalendar(ctl, lookup)
	default:
		return NewList(ctl, lookup)
	}
}

type base struct {
	ctl    service.IssueListController
	lookup domain.Lookup
	now    func() time.Time
}

func newBase(ctl service.IssueListController, lookup domain.Lookup) base {
	return base{ctl: ctl, lookup: lookup, now: time.Now}
}

// SetClock replaces the clock used for relative dates.
func (b *base) SetClock(now func() time.Time) { b.now = now }

// Delete removes the issue at pos.
func (b *base) Delete(ctx context.Context, pos grouping.Position) error {
	return b.ctl.Remove(ctx, pos.Key, pos.Index)
}

func (b *base) identifier() string {
	return strings.ToUpper(b.ctl.Scope().Project)
}

func (b *base) issueKey(is domain.Issue) string {
	return domain.IssueKey(b.identifier(), is.SequenceID)
}

func (b *base) groupTitle(key string) string {
	if key == grouping.AllKey {
		return "All issues"
	}
	return b.lookup.GroupTitle(b.ctl.DisplayFilters().GroupBy, key, grouping.NoneKey)
}

// Flatten lists each issue once, in group order.
func Flatten(g grouping.Grouped) []domain.Issue {
	seen := make(map[string]bool, g.Total())
	out := make([]domain.Issue, 0, g.Total())
	for _, k := range g.Keys {
		for _, is := range g.Groups[k] {
			if seen[is.ID] {
				continue
			}
			seen[is.ID] = true
			out = append(out, is)
		}
	}
	return out
}
