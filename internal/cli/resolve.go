package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
)

// loadController builds and loads the issue list controller for scope.
func loadController(ctx context.Context, app *App, scope api.Scope, opts ...service.ControllerOption) (service.IssueListController, error) {
	ctl := service.NewIssueListController(app.State, scope, opts...)
	if err := ctl.Load(ctx); err != nil {
		return nil, err
	}
	return ctl, nil
}

// resolveIssue accepts an issue key ("WEB-12") or an issue id.
func resolveIssue(ctx context.Context, app *App, scope api.Scope, ref string) (*domain.Issue, error) {
	ref = strings.TrimSpace(ref)
	if ident, seq, ok := domain.ParseIssueKey(ref); ok {
		all, err := app.API.ListIssues(ctx, projectOnly(scope), domain.IssueFilters{}, domain.DisplayFilters{SubIssues: true})
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", ref, err)
		}
		for i := range all {
			if all[i].SequenceID == seq {
				return &all[i], nil
			}
		}
		return nil, fmt.Errorf("issue %s-%d not found", ident, seq)
	}
	is, err := app.API.GetIssue(ctx, scope, ref)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, fmt.Errorf("issue %q not found", ref)
		}
		return nil, fmt.Errorf("getting issue %s: %w", ref, err)
	}
	return is, nil
}

// projectOnly drops cycle, module and view narrowing.
func projectOnly(scope api.Scope) api.Scope {
	return api.Scope{Workspace: scope.Workspace, Project: scope.Project}
}

// projectIdentifier returns the project's issue key prefix.
func projectIdentifier(ctx context.Context, app *App, scope api.Scope) string {
	p, err := app.API.GetProject(ctx, scope)
	if err != nil || p.Identifier == "" {
		return strings.ToUpper(scope.Project)
	}
	return p.Identifier
}

// findPosition returns the first position of issueID in the controller's view.
func findPosition(ctl service.IssueListController, issueID string) (grouping.Position, error) {
	positions := ctl.Group().Find(issueID)
	if len(positions) == 0 {
		return grouping.Position{}, service.ErrIssueNotInView
	}
	return positions[0], nil
}

// resolveGroupKey matches a group by key or, case-insensitively, by title.
func resolveGroupKey(ctl service.IssueListController, ref string) (string, error) {
	g := ctl.Group()
	groupBy := ctl.DisplayFilters().GroupBy
	lookup := ctl.Lookup()
	for _, k := range g.Keys {
		if k == ref {
			return k, nil
		}
	}
	for _, k := range g.Keys {
		if strings.EqualFold(lookup.GroupTitle(groupBy, k, grouping.NoneKey), ref) {
			return k, nil
		}
	}
	if strings.EqualFold(ref, grouping.NoneKey) {
		return grouping.NoneKey, nil
	}
	return "", fmt.Errorf("unknown group %q", ref)
}

// mergePatch copies every field src sets into dst.
func mergePatch(dst *domain.IssuePatch, src domain.IssuePatch) {
	if src.Name != nil {
		dst.Name = src.Name
	}
	if src.Description != nil {
		dst.Description = src.Description
	}
	if src.StateID != nil {
		dst.StateID = src.StateID
	}
	if src.Priority != nil {
		dst.Priority = src.Priority
	}
	if src.Assignees != nil {
		dst.Assignees = src.Assignees
	}
	if src.Labels != nil {
		dst.Labels = src.Labels
	}
	if src.StartDate != nil {
		dst.StartDate = src.StartDate
	}
	if src.TargetDate != nil {
		dst.TargetDate = src.TargetDate
	}
	if src.EstimatePoint != nil {
		dst.EstimatePoint = src.EstimatePoint
	}
}

func fieldNames(p domain.IssuePatch) string {
	fields := p.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return strings.Join(out, ", ")
}
