package views

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// fakeController serves a fixed grouping and records forwarded actions.
type fakeController struct {
	service.IssueListController
	display domain.DisplayFilters
	grouped grouping.Grouped

	updates []string
	patches []domain.IssuePatch
	removed []grouping.Position
	moves   []string
}

func (f *fakeController) Scope() api.Scope                      { return api.Scope{Workspace: "acme", Project: "web"} }
func (f *fakeController) Group() grouping.Grouped               { return f.grouped.Clone() }
func (f *fakeController) DisplayFilters() domain.DisplayFilters { return f.display }

func (f *fakeController) ApplyUpdate(_ context.Context, key string, index int, p domain.IssuePatch) error {
	f.updates = append(f.updates, key+"/"+f.grouped.Groups[key][index].ID)
	f.patches = append(f.patches, p)
	return nil
}

func (f *fakeController) UpdateIssue(_ context.Context, id string, p domain.IssuePatch) error {
	f.updates = append(f.updates, id)
	f.patches = append(f.patches, p)
	return nil
}

func (f *fakeController) Remove(_ context.Context, key string, index int) error {
	f.removed = append(f.removed, grouping.Position{Key: key, Index: index})
	return nil
}

func (f *fakeController) Move(_ context.Context, from grouping.Position, toKey string, toIndex int) error {
	f.moves = append(f.moves, from.Key+"->"+toKey)
	return nil
}

var (
	now    = time.Date(2024, 3, 6, 12, 0, 0, 0, time.Local)
	states = []domain.State{
		{ID: "s-todo", Name: "Todo", Group: domain.StateUnstarted, Sequence: 1},
		{ID: "s-doing", Name: "In Progress", Group: domain.StateStarted, Sequence: 2},
	}
	lookup = domain.NewLookup(
		states,
		[]domain.Label{{ID: "l-bug", Name: "bug"}, {ID: "l-ui", Name: "ui"}},
		[]domain.Member{{ID: "m-alice", DisplayName: "Alice", Email: "alice@example.com"}},
	)
)

func day(s string) *time.Time {
	t, _ := time.Parse(domain.DateLayout, s)
	return &t
}

func newFake(groupBy domain.GroupBy) *fakeController {
	est := 5
	issues := []domain.Issue{
		{ID: "i1", SequenceID: 1, Name: "Login page", StateID: "s-todo", StateGroup: domain.StateUnstarted, Priority: domain.PriorityHigh,
			Assignees: []string{"m-alice"}, Labels: []string{"l-bug", "l-ui"}, TargetDate: day("2024-03-05"), EstimatePoint: &est,
			CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "i2", SequenceID: 2, Name: "Crash on save", StateID: "s-doing", StateGroup: domain.StateStarted, Priority: domain.PriorityUrgent,
			Labels: []string{"l-bug"}, TargetDate: day("2024-03-05"), CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-time.Hour)},
		{ID: "i3", SequenceID: 3, Name: "Docs", StateID: "s-todo", StateGroup: domain.StateUnstarted, Priority: domain.PriorityNone,
			CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)},
	}
	d := domain.DefaultDisplayFilters()
	d.GroupBy = groupBy
	return &fakeController{
		display: d,
		grouped: grouping.GroupWithOptions(issues, groupBy, d.OrderBy, grouping.Options{States: states, ShowEmptyGroups: true}),
	}
}

func TestForLayout(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	assert.IsType(t, &Board{}, ForLayout(domain.LayoutKanban, ctl, lookup))
	assert.IsType(t, &Spreadsheet{}, ForLayout(domain.LayoutSpreadsheet, ctl, lookup))
	assert.IsType(t, &Calendar{}, ForLayout(domain.LayoutCalendar, ctl, lookup))
	assert.IsType(t, &List{}, ForLayout(domain.LayoutList, ctl, lookup))
	assert.IsType(t, &List{}, ForLayout("gantt", ctl, lookup))
}

func TestBoard_ColumnsFollowGroups(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	b := NewBoard(ctl, lookup)

	cols := b.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, "Todo", cols[0].Title)
	assert.Equal(t, "In Progress", cols[1].Title)
	require.Len(t, cols[0].Cards, 2)
	assert.Equal(t, "WEB-3", cols[0].Cards[0].Key)
	assert.Equal(t, []string{"Alice"}, cols[0].Cards[1].Assignees)

	out := stripANSI(b.Render(120))
	assert.Contains(t, out, "Todo (2)")
	assert.Contains(t, out, "In Progress (1)")
	assert.Contains(t, out, "Crash on save")
}

func TestBoard_DropAndDeleteForwardToController(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	b := NewBoard(ctl, lookup)

	require.NoError(t, b.Drop(context.Background(), grouping.Position{Key: "s-todo", Index: 0}, "s-doing", 0))
	require.NoError(t, b.Delete(context.Background(), grouping.Position{Key: "s-doing", Index: 0}))
	assert.Equal(t, []string{"s-todo->s-doing"}, ctl.moves)
	assert.Equal(t, []grouping.Position{{Key: "s-doing", Index: 0}}, ctl.removed)
}

func TestList_GroupsAndRelativeTimes(t *testing.T) {
	ctl := newFake(domain.GroupByPriority)
	l := NewList(ctl, lookup)
	l.SetClock(func() time.Time { return now })

	groups := l.Groups()
	var titles []string
	for _, g := range groups {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"Urgent", "High", "Medium", "Low", "None"}, titles)
	assert.Equal(t, "1 hour ago", groups[0].Rows[0].Updated)
	assert.Equal(t, "In Progress", groups[0].Rows[0].State)

	out := stripANSI(l.Render(100))
	assert.Contains(t, out, "Medium (0)")
	assert.Contains(t, out, "WEB-1")
	assert.Contains(t, out, "2 hours ago")
}

func TestList_EditForwardsPosition(t *testing.T) {
	ctl := newFake(domain.GroupByNone)
	l := NewList(ctl, lookup)
	name := "Renamed"

	require.NoError(t, l.Edit(context.Background(), grouping.Position{Key: grouping.AllKey, Index: 0}, domain.IssuePatch{Name: &name}))
	assert.Equal(t, []string{"all/i3"}, ctl.updates)
	assert.Equal(t, "All issues", l.Groups()[0].Title)
}

func TestSpreadsheet_RowsAreFlatAndDeduplicated(t *testing.T) {
	ctl := newFake(domain.GroupByLabels)
	s := NewSpreadsheet(ctl, lookup)

	rows := s.Rows()
	require.Len(t, rows, 3, "an issue in two label groups appears once")
	var login []string
	for _, r := range rows {
		if r[1] == "Login page" {
			login = r
		}
	}
	assert.Equal(t, []string{"WEB-1", "Login page", "Todo", "high", "Alice", "bug, ui", "", "2024-03-05", "5"}, login)

	out := stripANSI(s.Render(160))
	assert.Contains(t, out, "TARGET DATE")
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		column, value string
		check         func(t *testing.T, p domain.IssuePatch)
		wantErr       string
	}{
		{column: "name", value: " New name ", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, "New name", *p.Name) }},
		{column: "name", value: "", wantErr: "name cannot be empty"},
		{column: "state", value: "in progress", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, "s-doing", *p.StateID) }},
		{column: "state", value: "s-todo", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, "s-todo", *p.StateID) }},
		{column: "state", value: "Blocked", wantErr: `unknown state "Blocked"`},
		{column: "priority", value: "URGENT", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, domain.PriorityUrgent, *p.Priority) }},
		{column: "priority", value: "", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, domain.PriorityNone, *p.Priority) }},
		{column: "priority", value: "p1", wantErr: `unknown priority "p1"`},
		{column: "assignees", value: "alice@example.com", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, []string{"m-alice"}, *p.Assignees) }},
		{column: "assignees", value: "", check: func(t *testing.T, p domain.IssuePatch) { assert.Empty(t, *p.Assignees) }},
		{column: "labels", value: "UI, bug", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, []string{"l-ui", "l-bug"}, *p.Labels) }},
		{column: "labels", value: "bug, nope", wantErr: `unknown label "nope"`},
		{column: "target_date", value: "2024-04-01", check: func(t *testing.T, p domain.IssuePatch) {
			assert.Equal(t, "2024-04-01", domain.FormatDate(p.TargetDate.Value))
		}},
		{column: "start_date", value: "", check: func(t *testing.T, p domain.IssuePatch) {
			require.NotNil(t, p.StartDate)
			assert.Nil(t, p.StartDate.Value)
		}},
		{column: "target_date", value: "04/01/2024", wantErr: "expected YYYY-MM-DD"},
		{column: "estimate", value: "8", check: func(t *testing.T, p domain.IssuePatch) { assert.Equal(t, 8, *p.EstimatePoint) }},
		{column: "estimate", value: "-1", wantErr: `invalid estimate "-1"`},
		{column: "key", value: "WEB-9", wantErr: "read-only"},
		{column: "color", value: "red", wantErr: `unknown column "color"`},
	}
	for _, tt := range tests {
		t.Run(tt.column+"="+tt.value, func(t *testing.T) {
			p, err := ParseCell(tt.column, tt.value, lookup)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, p.Fields(), 1)
			tt.check(t, p)
		})
	}
}

func TestParseCell_BlankEstimateLeavesItAlone(t *testing.T) {
	p, err := ParseCell("estimate", "  ", lookup)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestParseCell_NameMatchIsDeterministic(t *testing.T) {
	l := domain.NewLookup(
		[]domain.State{
			{ID: "s-z", Name: "review", Sequence: 1},
			{ID: "s-a", Name: "Review", Sequence: 2},
			{ID: "s-m", Name: "REVIEW", Sequence: 3},
		},
		[]domain.Label{{ID: "l-2", Name: "Bug"}, {ID: "l-1", Name: "BUG"}},
		[]domain.Member{{ID: "m-2", DisplayName: "Sam"}, {ID: "m-1", DisplayName: "sam"}},
	)

	for i := 0; i < 20; i++ {
		p, err := ParseCell("state", "Review", l)
		require.NoError(t, err)
		assert.Equal(t, "s-a", *p.StateID, "exact name wins")

		p, err = ParseCell("state", "rEvIeW", l)
		require.NoError(t, err)
		assert.Equal(t, "s-z", *p.StateID, "lowest sequence wins among folded matches")

		p, err = ParseCell("labels", "bug", l)
		require.NoError(t, err)
		assert.Equal(t, []string{"l-1"}, *p.Labels)

		p, err = ParseCell("assignees", "SAM", l)
		require.NoError(t, err)
		assert.Equal(t, []string{"m-1"}, *p.Assignees)
	}
}

func TestSpreadsheet_EditParsesThenUpdates(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	s := NewSpreadsheet(ctl, lookup)

	require.NoError(t, s.Edit(context.Background(), "i2", "priority", "low"))
	assert.Equal(t, []string{"i2"}, ctl.updates)
	assert.Equal(t, domain.PriorityLow, *ctl.patches[0].Priority)

	assert.Error(t, s.Edit(context.Background(), "i2", "priority", "bogus"))
	assert.Len(t, ctl.updates, 1, "invalid edits never reach the controller")
}

func TestCalendar_MonthBucketsAndDrop(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	c := NewCalendar(ctl, lookup)
	c.SetClock(func() time.Time { return now })

	days := c.Days()
	assert.Len(t, days, 35)
	var due []string
	for _, d := range days {
		if d.Key == "2024-03-05" {
			for _, is := range d.Issues {
				due = append(due, is.ID)
			}
		}
	}
	assert.ElementsMatch(t, []string{"i1", "i2"}, due)

	out := stripANSI(c.Render(140))
	assert.Contains(t, out, "MARCH 2024")
	assert.True(t, strings.Contains(out, "WEB-1") || strings.Contains(out, "WEB-2"))

	target := time.Date(2024, 3, 20, 0, 0, 0, 0, time.Local)
	require.NoError(t, c.Drop(context.Background(), "i3", target))
	assert.Equal(t, []string{"i3"}, ctl.updates)
	assert.Equal(t, "2024-03-20", domain.FormatDate(ctl.patches[0].TargetDate.Value))
}

func TestCalendar_WeekWithoutWeekends(t *testing.T) {
	ctl := newFake(domain.GroupByState)
	ctl.display.CalendarLayout = domain.CalendarWeek
	ctl.display.CalendarShowWeekends = false
	c := NewCalendar(ctl, lookup)
	c.SetAnchor(now)

	days := c.Days()
	require.Len(t, days, 5)
	assert.Equal(t, "2024-03-04", days[0].Key)
	assert.Len(t, days[1].Issues, 2)
	assert.Contains(t, stripANSI(c.Render(100)), "MAR 4 - MAR 10, 2024")
}
