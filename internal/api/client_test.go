package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/trackboard/internal/domain"
)

var testScope = Scope{Workspace: "acme", Project: "p1"}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", time.Second)
}

func TestScope_IssuesPath(t *testing.T) {
	assert.Equal(t, "/api/workspaces/acme/projects/p1/issues/", testScope.IssuesPath())
	assert.Equal(t, "/api/workspaces/acme/projects/p1/cycles/c1/cycle-issues/",
		Scope{Workspace: "acme", Project: "p1", Cycle: "c1"}.IssuesPath())
	assert.Equal(t, "/api/workspaces/acme/projects/p1/modules/m1/module-issues/",
		Scope{Workspace: "acme", Project: "p1", Module: "m1"}.IssuesPath())
	assert.Equal(t, "/api/workspaces/acme/projects/p1/views/v1/issues/",
		Scope{Workspace: "acme", Project: "p1", View: "v1"}.IssuesPath())
	assert.Equal(t, "/api/workspaces/acme/projects/p1/issues/i1/", testScope.IssuePath("i1"))
}

func TestClient_ListIssues(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/workspaces/acme/projects/p1/issues/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "urgent,high", r.URL.Query().Get("priority"))
		assert.Equal(t, "-created_at", r.URL.Query().Get("order_by"))
		assert.Empty(t, r.URL.Query().Get("group_by"))

		_, _ = io.WriteString(w, `[{
			"id": "i1", "project": "p1", "sequence_id": 7, "name": "Crash on save",
			"state": "s1", "state_detail": {"id": "s1", "group": "started"},
			"priority": "urgent", "assignees": ["u1"], "labels": [],
			"start_date": null, "target_date": "2024-03-05", "sort_order": 65535,
			"cycle": null, "created_by": "u2", "created_at": "2024-03-01T10:00:00Z"
		}]`)
	})

	issues, err := client.ListIssues(context.Background(), testScope,
		domain.IssueFilters{Priority: []domain.Priority{domain.PriorityUrgent, domain.PriorityHigh}},
		domain.DefaultDisplayFilters())
	require.NoError(t, err)
	require.Len(t, issues, 1)

	got := issues[0]
	assert.Equal(t, "i1", got.ID)
	assert.Equal(t, 7, got.SequenceID)
	assert.Equal(t, domain.StateStarted, got.StateGroup)
	assert.Equal(t, domain.PriorityUrgent, got.Priority)
	assert.Nil(t, got.StartDate)
	require.NotNil(t, got.TargetDate)
	assert.Equal(t, "2024-03-05", domain.FormatDate(got.TargetDate))
	assert.Equal(t, "", got.CycleID)
	assert.Equal(t, "u2", got.CreatedBy)
}

func TestClient_PatchIssueSendsOnlyTouchedFields(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"priority": "low", "target_date": nil}, body)

		_, _ = io.WriteString(w, `{"id": "i1", "priority": "low"}`)
	})

	patch := domain.IssuePatch{Priority: domain.PriorityPtr(domain.PriorityLow), TargetDate: domain.ClearDate()}
	issue, err := client.PatchIssue(context.Background(), testScope, "i1", patch)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityLow, issue.Priority)
}

func TestClient_StatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such issue", http.StatusNotFound)
	})

	_, err := client.GetIssue(context.Background(), testScope, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "no such issue")

	client = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err = client.DeleteIssue(context.Background(), testScope, "i1")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.False(t, IsClientError(err))
}

func TestClient_DoesNotRetryMutations(t *testing.T) {
	calls := 0
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.PatchIssue(context.Background(), testScope, "i1", domain.IssuePatch{Name: domain.StrPtr("x")})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_ListActivitySkipsUnknown(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workspaces/acme/projects/p1/issues/i1/history/", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id": "a1", "issue": "i1", "verb": "created", "created_at": "2024-03-01T10:00:00Z"},
			{"id": "a2", "issue": "i1", "verb": "updated", "field": "link"},
			{"id": "a3", "issue": "i1", "verb": "updated", "field": "priority", "old_value": "none", "new_value": "high"}
		]`)
	})

	acts, err := client.ListActivity(context.Background(), testScope, "i1")
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.IsType(t, domain.IssueCreated{}, acts[0])
	assert.Equal(t, domain.PriorityChanged{
		ActivityMeta: domain.ActivityMeta{ID: "a3", IssueID: "i1"},
		Old:          domain.PriorityNone,
		New:          domain.PriorityHigh,
	}, acts[1])
}

func TestClient_GetAnalyticsKeepsOrder(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workspaces/acme/analytics/", r.URL.Path)
		assert.Equal(t, "priority", r.URL.Query().Get("x_axis"))
		assert.Equal(t, "issue_count", r.URL.Query().Get("y_axis"))
		assert.Equal(t, "p1,p2", r.URL.Query().Get("project"))
		_, _ = io.WriteString(w, `{"total": 8, "distribution": {"urgent": [{"dimension": "urgent", "count": 3}], "high": [{"dimension": "high", "count": 5}]}}`)
	})

	agg, err := client.GetAnalytics(context.Background(), "acme", AnalyticsQuery{
		Projects: []string{"p1", "p2"},
		XAxis:    "priority",
		YAxis:    "issue_count",
	})
	require.NoError(t, err)
	require.Len(t, agg, 2)
	assert.Equal(t, "urgent", agg[0].Key)
	assert.Equal(t, "high", agg[1].Key)
}

func TestClient_ViewPropsRoundTrip(t *testing.T) {
	var stored []byte
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			stored, _ = io.ReadAll(r.Body)
		case http.MethodGet:
			_, _ = w.Write(stored)
		}
	})

	props := domain.ViewProps{
		Filters: domain.IssueFilters{Labels: []string{"l1"}},
		DisplayFilters: domain.DisplayFilters{
			GroupBy:         domain.GroupByPriority,
			OrderBy:         domain.OrderManual,
			Layout:          domain.LayoutKanban,
			ShowEmptyGroups: false,
			SubIssues:       true,
			CalendarLayout:  domain.CalendarWeek,
		},
	}
	require.NoError(t, client.UpdateViewProps(context.Background(), testScope, props))

	got, err := client.GetViewProps(context.Background(), testScope)
	require.NoError(t, err)
	assert.Equal(t, props, got)
}

func TestDecodeViewProps(t *testing.T) {
	t.Run("missing display filters use defaults", func(t *testing.T) {
		got, err := DecodeViewProps([]byte(`{"filters": {}}`))
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultDisplayFilters(), got.DisplayFilters)
	})

	t.Run("null group_by disables grouping", func(t *testing.T) {
		got, err := DecodeViewProps([]byte(`{"display_filters": {"group_by": null}}`))
		require.NoError(t, err)
		assert.Equal(t, domain.GroupByNone, got.DisplayFilters.GroupBy)
	})

	t.Run("unknown values normalise", func(t *testing.T) {
		got, err := DecodeViewProps([]byte(`{"filters": {"priority": ["urgent", "bogus"]}, "display_filters": {"group_by": "colour", "order_by": "weird"}}`))
		require.NoError(t, err)
		assert.Equal(t, domain.GroupByNone, got.DisplayFilters.GroupBy)
		assert.Equal(t, domain.DefaultOrderBy, got.DisplayFilters.OrderBy)
		assert.Equal(t, []domain.Priority{domain.PriorityUrgent}, got.Filters.Priority)
	})

	t.Run("date ranges", func(t *testing.T) {
		got, err := DecodeViewProps([]byte(`{"filters": {"target_date": ["2024-01-01;after", "2024-02-01;before"]}}`))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", domain.FormatDate(got.Filters.TargetDate.After))
		assert.Equal(t, "2024-02-01", domain.FormatDate(got.Filters.TargetDate.Before))
	})
}
