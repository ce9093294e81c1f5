// Package api defines the issue-tracker API surface and its HTTP client.
package api

import (
	"context"
	"net/url"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// Scope selects which issue collection an operation addresses. Cycle, Module
// and View are mutually exclusive narrowings of a project; the first non-empty
// one wins.
type Scope struct {
	Workspace string
	Project   string
	Cycle     string
	Module    string
	View      string
}

// Kind names the narrowing in effect: "cycle", "module", "view" or "project".
func (s Scope) Kind() (kind, id string) {
	switch {
	case s.Cycle != "":
		return "cycle", s.Cycle
	case s.Module != "":
		return "module", s.Module
	case s.View != "":
		return "view", s.View
	}
	return "project", s.Project
}

func (s Scope) projectPath() string {
	return "/api/workspaces/" + url.PathEscape(s.Workspace) + "/projects/" + url.PathEscape(s.Project)
}

// IssuesPath returns the collection endpoint for the scope.
func (s Scope) IssuesPath() string {
	base := s.projectPath()
	switch kind, id := s.Kind(); kind {
	case "cycle":
		return base + "/cycles/" + url.PathEscape(id) + "/cycle-issues/"
	case "module":
		return base + "/modules/" + url.PathEscape(id) + "/module-issues/"
	case "view":
		return base + "/views/" + url.PathEscape(id) + "/issues/"
	}
	return base + "/issues/"
}

// IssuePath returns the endpoint of a single issue. Single-issue operations
// always go through the project, whatever the narrowing.
func (s Scope) IssuePath(id string) string {
	return s.projectPath() + "/issues/" + url.PathEscape(id) + "/"
}

// AnalyticsQuery parameterises the aggregation endpoint.
type AnalyticsQuery struct {
	Projects []string
	XAxis    string
	YAxis    string
	Segment  string
	Filters  domain.IssueFilters
}

// IssueAPI is everything the controller and CLI need from a backend. The HTTP
// Client and the local SQLite replica both implement it.
type IssueAPI interface {
	GetProject(ctx context.Context, scope Scope) (*domain.Project, error)
	ListIssues(ctx context.Context, scope Scope, filters domain.IssueFilters, display domain.DisplayFilters) ([]domain.Issue, error)
	GetIssue(ctx context.Context, scope Scope, id string) (*domain.Issue, error)
	PatchIssue(ctx context.Context, scope Scope, id string, patch domain.IssuePatch) (*domain.Issue, error)
	DeleteIssue(ctx context.Context, scope Scope, id string) error

	ListStates(ctx context.Context, scope Scope) ([]domain.State, error)
	ListLabels(ctx context.Context, scope Scope) ([]domain.Label, error)
	ListMembers(ctx context.Context, scope Scope) ([]domain.Member, error)

	ListActivity(ctx context.Context, scope Scope, issueID string) ([]domain.Activity, error)
	GetAnalytics(ctx context.Context, workspace string, q AnalyticsQuery) (analytics.Aggregation, error)

	GetViewProps(ctx context.Context, scope Scope) (domain.ViewProps, error)
	UpdateViewProps(ctx context.Context, scope Scope, props domain.ViewProps) error
}
