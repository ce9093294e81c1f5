// Package local serves the issue API from a SQLite replica so the CLI works
// without a server.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/repository"
)

// Backend implements api.IssueAPI on the repositories.
type Backend struct {
	uow      db.UnitOfWork
	projects repository.ProjectRepo
	states   repository.StateRepo
	labels   repository.LabelRepo
	members  repository.MemberRepo
	issues   repository.IssueRepo
	activity repository.ActivityRepo
	props    repository.ViewPropsRepo

	actor string
	now   func() time.Time
}

var _ api.IssueAPI = (*Backend)(nil)

// NewBackend builds a Backend on an open database. Writes are attributed to
// actor in the activity log.
func NewBackend(database *sql.DB, uow db.UnitOfWork, actor string) *Backend {
	return &Backend{
		uow:      uow,
		projects: repository.NewSQLiteProjectRepo(database),
		states:   repository.NewSQLiteStateRepo(database),
		labels:   repository.NewSQLiteLabelRepo(database),
		members:  repository.NewSQLiteMemberRepo(database),
		issues:   repository.NewSQLiteIssueRepo(database),
		activity: repository.NewSQLiteActivityRepo(database),
		props:    repository.NewSQLiteViewPropsRepo(database),
		actor:    actor,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Tests use it to pin activity times.
func (b *Backend) SetClock(now func() time.Time) {
	b.now = now
}

// notFound converts a repository miss into the API's not-found error.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", api.ErrNotFound, err)
	}
	return err
}

// resolveProject accepts a project identifier or id.
func resolveProject(ctx context.Context, projects repository.ProjectRepo, workspace, ref string) (*domain.Project, error) {
	p, err := projects.GetByIdentifier(ctx, workspace, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	p, err = projects.GetByID(ctx, ref)
	if err != nil {
		return nil, notFound(fmt.Errorf("project %s: %w", ref, err))
	}
	return p, nil
}

// resolveIssue accepts an issue id or a key such as "WEB-42" or "42". Issues
// of other projects are not found.
func resolveIssue(ctx context.Context, issues repository.IssueRepo, project *domain.Project, ref string) (*domain.Issue, error) {
	i, err := issues.GetByID(ctx, ref)
	if err == nil {
		if i.ProjectID != project.ID {
			return nil, notFound(fmt.Errorf("issue %s is not in project %s: %w", ref, project.Identifier, repository.ErrNotFound))
		}
		return i, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	ident, seq, ok := domain.ParseIssueKey(ref)
	if !ok || (ident != "" && ident != project.Identifier) {
		return nil, notFound(err)
	}
	i, err = issues.GetBySequence(ctx, project.ID, seq)
	if err != nil {
		return nil, notFound(err)
	}
	return i, nil
}

func (b *Backend) GetProject(ctx context.Context, scope api.Scope) (*domain.Project, error) {
	return resolveProject(ctx, b.projects, scope.Workspace, scope.Project)
}

// ListIssues returns the scope's issues. A view scope with no explicit filters
// uses the filters saved on the view.
func (b *Backend) ListIssues(ctx context.Context, scope api.Scope, filters domain.IssueFilters, display domain.DisplayFilters) ([]domain.Issue, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return nil, err
	}
	if scope.View != "" && filters.IsZero() {
		props, err := b.viewProps(ctx, p.ID, scope.View)
		if err != nil {
			return nil, err
		}
		filters = props.Filters
	}
	q := repository.IssueQuery{
		ProjectIDs:       []string{p.ID},
		CycleID:          scope.Cycle,
		ModuleID:         scope.Module,
		Filters:          filters.Normalize(),
		IncludeSubIssues: display.SubIssues,
	}
	issues, err := b.issues.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing issues for %s: %w", p.Identifier, err)
	}
	return issues, nil
}

func (b *Backend) GetIssue(ctx context.Context, scope api.Scope, id string) (*domain.Issue, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return nil, err
	}
	return resolveIssue(ctx, b.issues, p, id)
}

// PatchIssue applies the patch in one transaction and records one activity
// per field whose value changed.
func (b *Backend) PatchIssue(ctx context.Context, scope api.Scope, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	var updated *domain.Issue
	err := b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		issues := repository.NewSQLiteIssueRepo(tx)
		states := repository.NewSQLiteStateRepo(tx)
		activity := repository.NewSQLiteActivityRepo(tx)

		p, err := resolveProject(ctx, projects, scope.Workspace, scope.Project)
		if err != nil {
			return err
		}
		current, err := resolveIssue(ctx, issues, p, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = current
			return nil
		}

		now := b.now()
		next := patch.Apply(*current)
		next.UpdatedAt = now
		if patch.StateID != nil && next.StateID != current.StateID {
			group := domain.StateGroup("")
			if next.StateID != "" {
				s, err := states.GetByID(ctx, next.StateID)
				if err != nil {
					return notFound(fmt.Errorf("state %s: %w", next.StateID, err))
				}
				if s.ProjectID != p.ID {
					return fmt.Errorf("state %s belongs to another project", s.Name)
				}
				group = s.Group
			}
			next.StateGroup = group
			next.CompletedAt = completedAt(current, group, now)
		}
		if patch.ParentID != nil && next.ParentID == next.ID {
			return fmt.Errorf("issue cannot be its own parent")
		}

		if err := issues.Update(ctx, &next); err != nil {
			return notFound(err)
		}
		for _, a := range diffActivities(*current, next, b.meta(next.ID, now)) {
			if err := activity.Append(ctx, domain.EncodeActivity(a)); err != nil {
				return fmt.Errorf("recording activity: %w", err)
			}
		}

		updated, err = issues.GetByID(ctx, next.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// completedAt keeps the completion time while an issue stays completed, sets
// it on entry and clears it on exit.
func completedAt(current *domain.Issue, group domain.StateGroup, now time.Time) *time.Time {
	if group != domain.StateCompleted {
		return nil
	}
	if current.StateGroup == domain.StateCompleted && current.CompletedAt != nil {
		return current.CompletedAt
	}
	return &now
}

func (b *Backend) DeleteIssue(ctx context.Context, scope api.Scope, id string) error {
	return b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		issues := repository.NewSQLiteIssueRepo(tx)
		p, err := resolveProject(ctx, repository.NewSQLiteProjectRepo(tx), scope.Workspace, scope.Project)
		if err != nil {
			return err
		}
		i, err := resolveIssue(ctx, issues, p, id)
		if err != nil {
			return err
		}
		if err := issues.Delete(ctx, i.ID); err != nil {
			return notFound(err)
		}
		rec := domain.EncodeActivity(domain.IssueDeleted{ActivityMeta: b.meta(i.ID, b.now())()})
		if err := repository.NewSQLiteActivityRepo(tx).Append(ctx, rec); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}
		return nil
	})
}

func (b *Backend) ListStates(ctx context.Context, scope api.Scope) ([]domain.State, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return nil, err
	}
	return b.states.ListByProject(ctx, p.ID)
}

func (b *Backend) ListLabels(ctx context.Context, scope api.Scope) ([]domain.Label, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return nil, err
	}
	return b.labels.ListByProject(ctx, p.ID)
}

// ListMembers returns every member of the replica; the local store has no
// per-project membership.
func (b *Backend) ListMembers(ctx context.Context, _ api.Scope) ([]domain.Member, error) {
	return b.members.List(ctx)
}

// ListActivity returns the issue's history oldest first. Records of unknown
// fields are skipped.
func (b *Backend) ListActivity(ctx context.Context, scope api.Scope, issueID string) ([]domain.Activity, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return nil, err
	}
	// Deleted issues keep their history, so a missing id falls back to the
	// raw id. Live issues of another project stay hidden.
	i, err := resolveIssue(ctx, b.issues, p, issueID)
	switch {
	case err == nil:
		issueID = i.ID
	case !api.IsNotFound(err):
		return nil, err
	default:
		if other, getErr := b.issues.GetByID(ctx, issueID); getErr == nil && other.ProjectID != p.ID {
			return nil, err
		}
	}
	records, err := b.activity.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(records))
	for _, r := range records {
		if a, ok := domain.DecodeActivity(r); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetAnalytics aggregates over the named projects, or the whole workspace
// when none are named.
func (b *Backend) GetAnalytics(ctx context.Context, workspace string, q api.AnalyticsQuery) (analytics.Aggregation, error) {
	var ids []string
	if len(q.Projects) == 0 {
		projects, err := b.projects.List(ctx, workspace)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
	}
	for _, ref := range q.Projects {
		p, err := resolveProject(ctx, b.projects, workspace, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return analytics.Aggregation{}, nil
	}
	return b.issues.Aggregate(ctx, repository.AggregateQuery{
		IssueQuery: repository.IssueQuery{ProjectIDs: ids, Filters: q.Filters.Normalize(), IncludeSubIssues: true},
		XAxis:      q.XAxis,
		YAxis:      q.YAxis,
		Segment:    q.Segment,
	})
}

func (b *Backend) GetViewProps(ctx context.Context, scope api.Scope) (domain.ViewProps, error) {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return domain.ViewProps{}, err
	}
	return b.viewProps(ctx, p.ID, scope.View)
}

// viewProps returns stored props, or the defaults when none were saved.
func (b *Backend) viewProps(ctx context.Context, projectID, viewID string) (domain.ViewProps, error) {
	data, err := b.props.Get(ctx, projectID, viewID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ViewProps{DisplayFilters: domain.DefaultDisplayFilters()}, nil
	}
	if err != nil {
		return domain.ViewProps{}, err
	}
	return api.DecodeViewProps(data)
}

func (b *Backend) UpdateViewProps(ctx context.Context, scope api.Scope, props domain.ViewProps) error {
	p, err := b.GetProject(ctx, scope)
	if err != nil {
		return err
	}
	data, err := api.EncodeViewProps(props.Normalize())
	if err != nil {
		return fmt.Errorf("encoding view props: %w", err)
	}
	return b.props.Put(ctx, p.ID, scope.View, data)
}
