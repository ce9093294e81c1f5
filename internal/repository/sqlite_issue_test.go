package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issueFixture struct {
	db      *sql.DB
	project *domain.Project
	todo    *domain.State
	doing   *domain.State
	done    *domain.State
	bug     *domain.Label
	ui      *domain.Label
	alice   *domain.Member
	bob     *domain.Member
	issues  *SQLiteIssueRepo
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	f := &issueFixture{db: database, issues: NewSQLiteIssueRepo(database)}
	f.project = testutil.NewTestProject("Web", testutil.WithIdentifier("WEB"))
	require.NoError(t, NewSQLiteProjectRepo(database).Create(ctx, f.project))

	states := NewSQLiteStateRepo(database)
	f.todo = testutil.NewTestState(f.project.ID, "Todo", domain.StateUnstarted, 1)
	f.doing = testutil.NewTestState(f.project.ID, "In Progress", domain.StateStarted, 2)
	f.done = testutil.NewTestState(f.project.ID, "Done", domain.StateCompleted, 3)
	for _, s := range []*domain.State{f.todo, f.doing, f.done} {
		require.NoError(t, states.Upsert(ctx, s))
	}

	labels := NewSQLiteLabelRepo(database)
	f.bug = testutil.NewTestLabel(f.project.ID, "bug")
	f.ui = testutil.NewTestLabel(f.project.ID, "ui")
	require.NoError(t, labels.Upsert(ctx, f.bug))
	require.NoError(t, labels.Upsert(ctx, f.ui))

	members := NewSQLiteMemberRepo(database)
	f.alice = testutil.NewTestMember("Alice")
	f.bob = testutil.NewTestMember("Bob")
	require.NoError(t, members.Upsert(ctx, f.alice))
	require.NoError(t, members.Upsert(ctx, f.bob))
	return f
}

func (f *issueFixture) create(t *testing.T, name string, opts ...testutil.IssueOption) *domain.Issue {
	t.Helper()
	i := testutil.NewTestIssue(f.project.ID, name, opts...)
	require.NoError(t, f.issues.Create(context.Background(), i))
	return i
}

func (f *issueFixture) names(t *testing.T, q IssueQuery) []string {
	t.Helper()
	if q.ProjectIDs == nil {
		q.ProjectIDs = []string{f.project.ID}
	}
	issues, err := f.issues.List(context.Background(), q)
	require.NoError(t, err)
	out := make([]string, len(issues))
	for n, i := range issues {
		out[n] = i.Name
	}
	return out
}

func TestIssueRepo_CreateAndGetByID(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	start := testutil.Date(2024, 3, 1)
	target := testutil.Date(2024, 3, 15)
	created := f.create(t, "Login page",
		testutil.WithSequence(7),
		testutil.WithState(f.doing),
		testutil.WithPriority(domain.PriorityHigh),
		testutil.WithAssignees(f.bob.ID, f.alice.ID),
		testutil.WithLabels(f.ui.ID),
		testutil.WithStartDate(start),
		testutil.WithTargetDate(target),
		testutil.WithEstimate(3),
		testutil.WithSortOrder(1000),
	)

	got, err := f.issues.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Login page", got.Name)
	assert.Equal(t, 7, got.SequenceID)
	assert.Equal(t, f.doing.ID, got.StateID)
	assert.Equal(t, domain.StateStarted, got.StateGroup)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, []string{f.bob.ID, f.alice.ID}, got.Assignees, "assignee order is kept")
	assert.Equal(t, []string{f.ui.ID}, got.Labels)
	assert.Equal(t, "2024-03-01", domain.FormatDate(got.StartDate))
	assert.Equal(t, "2024-03-15", domain.FormatDate(got.TargetDate))
	require.NotNil(t, got.EstimatePoint)
	assert.Equal(t, 3, *got.EstimatePoint)
	assert.Equal(t, 1000.0, got.SortOrder)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	bySeq, err := f.issues.GetBySequence(ctx, f.project.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySeq.ID)
}

func TestIssueRepo_EmptyPriorityStoredAsNone(t *testing.T) {
	f := newIssueFixture(t)
	i := f.create(t, "No priority", testutil.WithPriority(""))

	got, err := f.issues.GetByID(context.Background(), i.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNone, got.Priority)
	assert.Empty(t, got.StateID)
	assert.Empty(t, got.StateGroup)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EstimatePoint)
}

func TestIssueRepo_Update_ReplacesSets(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	i := f.create(t, "Refactor", testutil.WithAssignees(f.alice.ID), testutil.WithLabels(f.bug.ID, f.ui.ID))

	completed := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	i.Name = "Refactor auth"
	i.StateID = f.done.ID
	i.Assignees = []string{f.bob.ID}
	i.Labels = nil
	i.TargetDate = nil
	i.CompletedAt = &completed
	i.UpdatedAt = completed
	require.NoError(t, f.issues.Update(ctx, i))

	got, err := f.issues.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refactor auth", got.Name)
	assert.Equal(t, domain.StateCompleted, got.StateGroup)
	assert.Equal(t, []string{f.bob.ID}, got.Assignees)
	assert.Empty(t, got.Labels)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completed.Equal(*got.CompletedAt))
}

func TestIssueRepo_UpdateAndDelete_NotFound(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	ghost := testutil.NewTestIssue(f.project.ID, "Ghost")
	assert.ErrorIs(t, f.issues.Update(ctx, ghost), ErrNotFound)
	assert.ErrorIs(t, f.issues.Delete(ctx, ghost.ID), ErrNotFound)

	_, err := f.issues.GetByID(ctx, ghost.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.issues.GetBySequence(ctx, f.project.ID, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueRepo_Delete_CascadesMemberships(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	i := f.create(t, "Temp", testutil.WithAssignees(f.alice.ID), testutil.WithLabels(f.bug.ID))
	require.NoError(t, f.issues.Delete(ctx, i.ID))

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM issue_assignees WHERE issue_id = ?`, i.ID).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM issue_labels WHERE issue_id = ?`, i.ID).Scan(&n))
	assert.Zero(t, n)
}

func TestIssueRepo_List_NewestFirst(t *testing.T) {
	f := newIssueFixture(t)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	f.create(t, "first", testutil.WithCreatedAt(base))
	f.create(t, "second", testutil.WithCreatedAt(base.Add(time.Hour)))
	f.create(t, "third", testutil.WithCreatedAt(base.Add(2*time.Hour)))

	assert.Equal(t, []string{"third", "second", "first"}, f.names(t, IssueQuery{}))
}

func TestIssueRepo_List_Filters(t *testing.T) {
	f := newIssueFixture(t)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	f.create(t, "a",
		testutil.WithCreatedAt(base.Add(3*time.Hour)),
		testutil.WithState(f.todo),
		testutil.WithPriority(domain.PriorityUrgent),
		testutil.WithAssignees(f.alice.ID),
		testutil.WithLabels(f.bug.ID),
		testutil.WithTargetDate(testutil.Date(2024, 2, 10)),
		testutil.WithCycle("c1"),
		testutil.WithSequence(1),
	)
	f.create(t, "b",
		testutil.WithCreatedAt(base.Add(2*time.Hour)),
		testutil.WithState(f.doing),
		testutil.WithPriority(domain.PriorityLow),
		testutil.WithAssignees(f.alice.ID, f.bob.ID),
		testutil.WithTargetDate(testutil.Date(2024, 3, 10)),
		testutil.WithSequence(2),
	)
	f.create(t, "c",
		testutil.WithCreatedAt(base.Add(time.Hour)),
		testutil.WithState(f.done),
		testutil.WithLabels(f.ui.ID),
		testutil.WithSequence(12),
	)

	tests := []struct {
		name    string
		filters domain.IssueFilters
		want    []string
	}{
		{"no filters", domain.IssueFilters{}, []string{"a", "b", "c"}},
		{"priority", domain.IssueFilters{Priority: []domain.Priority{domain.PriorityUrgent, domain.PriorityLow}}, []string{"a", "b"}},
		{"state", domain.IssueFilters{State: []string{f.done.ID}}, []string{"c"}},
		{"state group", domain.IssueFilters{StateGroup: []domain.StateGroup{domain.StateUnstarted, domain.StateStarted}}, []string{"a", "b"}},
		{"assignee", domain.IssueFilters{Assignees: []string{f.bob.ID}}, []string{"b"}},
		{"any label", domain.IssueFilters{Labels: []string{f.bug.ID, f.ui.ID}}, []string{"a", "c"}},
		{"target after", domain.IssueFilters{TargetDate: domain.DateRange{After: ptrTime(testutil.Date(2024, 3, 1))}}, []string{"b"}},
		{"target before inclusive", domain.IssueFilters{TargetDate: domain.DateRange{Before: ptrTime(testutil.Date(2024, 2, 10))}}, []string{"a"}},
		{"search name", domain.IssueFilters{Search: "b"}, []string{"b"}},
		{"search sequence", domain.IssueFilters{Search: "12"}, []string{"c"}},
		{"combined", domain.IssueFilters{Assignees: []string{f.alice.ID}, Priority: []domain.Priority{domain.PriorityUrgent}}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.names(t, IssueQuery{Filters: tt.filters}))
		})
	}

	t.Run("cycle scope", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, f.names(t, IssueQuery{CycleID: "c1"}))
	})
}

func TestIssueRepo_List_SubIssues(t *testing.T) {
	f := newIssueFixture(t)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	parent := f.create(t, "parent", testutil.WithCreatedAt(base))
	f.create(t, "child", testutil.WithParent(parent.ID), testutil.WithCreatedAt(base.Add(time.Minute)))

	assert.Equal(t, []string{"parent"}, f.names(t, IssueQuery{}))
	assert.Equal(t, []string{"child", "parent"}, f.names(t, IssueQuery{IncludeSubIssues: true}))
}

func TestIssueRepo_List_MultipleProjects(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()

	other := testutil.NewTestProject("Api", testutil.WithIdentifier("API"))
	require.NoError(t, NewSQLiteProjectRepo(f.db).Create(ctx, other))
	f.create(t, "web issue")
	require.NoError(t, f.issues.Create(ctx, testutil.NewTestIssue(other.ID, "api issue")))

	assert.Len(t, f.names(t, IssueQuery{ProjectIDs: []string{f.project.ID, other.ID}}), 2)
	assert.Equal(t, []string{"api issue"}, f.names(t, IssueQuery{ProjectIDs: []string{other.ID}}))
}

func TestStateRepo_ListOrdersByGroup(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	states := NewSQLiteStateRepo(f.db)

	backlog := testutil.NewTestState(f.project.ID, "Backlog", domain.StateBacklog, 9)
	require.NoError(t, states.Upsert(ctx, backlog))

	list, err := states.ListByProject(ctx, f.project.ID)
	require.NoError(t, err)
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Backlog", "Todo", "In Progress", "Done"}, names)

	_, err = states.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
