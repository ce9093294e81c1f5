package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cache"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
)

// ErrIssueNotInView is returned when an action names a position the current
// grouping does not have.
var ErrIssueNotInView = errors.New("issue not in view")

const (
	msgUpdateFailed = "Issue could not be updated. Please try again."
	msgDeleteFailed = "Issue could not be deleted. Please try again."
)

// IssueListController owns the grouped issues of one view. Every layout
// forwards its user actions here.
type IssueListController interface {
	Scope() api.Scope
	Group() grouping.Grouped
	DisplayFilters() domain.DisplayFilters
	Filters() domain.IssueFilters
	Lookup() domain.Lookup
	Metadata() Metadata

	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	ApplyUpdate(ctx context.Context, groupKey string, index int, patch domain.IssuePatch) error
	UpdateIssue(ctx context.Context, issueID string, patch domain.IssuePatch) error
	Remove(ctx context.Context, groupKey string, index int) error
	Move(ctx context.Context, from grouping.Position, toKey string, toIndex int) error
	SetDisplayFilters(ctx context.Context, d domain.DisplayFilters) error
	SetFilters(ctx context.Context, f domain.IssueFilters) error
}

// ControllerOption overrides what Load would otherwise read from the saved
// view properties.
type ControllerOption func(*issueListController)

func WithDisplayFilters(d domain.DisplayFilters) ControllerOption {
	return func(c *issueListController) {
		c.display = d.Normalize()
		c.displaySet = true
	}
}

func WithFilters(f domain.IssueFilters) ControllerOption {
	return func(c *issueListController) {
		c.filters = f.Normalize()
		c.filtersSet = true
	}
}

type issueListController struct {
	state *AppState
	scope api.Scope

	mu         sync.RWMutex
	filters    domain.IssueFilters
	display    domain.DisplayFilters
	filtersSet bool
	displaySet bool
	meta       Metadata
	lookup     domain.Lookup
	grouped    grouping.Grouped
}

// NewIssueListController creates a controller for scope. Call Load before
// reading the grouping.
func NewIssueListController(state *AppState, scope api.Scope, opts ...ControllerOption) IssueListController {
	c := &issueListController{
		state:   state,
		scope:   scope,
		display: domain.DefaultDisplayFilters(),
		lookup:  domain.NewLookup(nil, nil, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *issueListController) Scope() api.Scope { return c.scope }

func (c *issueListController) Group() grouping.Grouped {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grouped.Clone()
}

func (c *issueListController) DisplayFilters() domain.DisplayFilters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.display
}

func (c *issueListController) Filters() domain.IssueFilters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filters
}

func (c *issueListController) Lookup() domain.Lookup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup
}

func (c *issueListController) Metadata() Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// Load fetches project metadata and saved view properties, then the issues.
func (c *issueListController) Load(ctx context.Context) (err error) {
	startedAt := c.state.Now()
	defer c.state.observe(ctx, "issues.load", startedAt, c.fields(), &err)

	meta, err := LoadMetadata(ctx, c.state.API, c.scope)
	if err != nil {
		return err
	}

	var props domain.ViewProps
	if !c.filtersSet || !c.displaySet {
		props, err = c.state.API.GetViewProps(ctx, c.scope)
		switch {
		case api.IsNotFound(err):
			props = domain.ViewProps{DisplayFilters: domain.DefaultDisplayFilters()}
		case err != nil:
			return fmt.Errorf("loading view properties: %w", err)
		}
	}

	c.mu.Lock()
	c.meta = meta
	c.lookup = meta.Lookup()
	if !c.displaySet {
		c.display = props.DisplayFilters.Normalize()
	}
	// A saved view applies its own filters server side.
	if !c.filtersSet && c.scope.View == "" {
		c.filters = props.Filters.Normalize()
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh regroups from the cache, fetching when the entry is stale. On a
// failed fetch the previous issues stay grouped and the error is returned.
func (c *issueListController) Refresh(ctx context.Context) error {
	c.mu.RLock()
	key := c.key()
	filters, display := c.filters, c.display
	c.mu.RUnlock()

	issues, err := c.state.Issues.GetOrFetch(ctx, key, func(ctx context.Context) ([]domain.Issue, error) {
		return c.state.API.ListIssues(ctx, c.scope, filters, display)
	})
	if err != nil && issues == nil {
		return err
	}

	c.mu.Lock()
	// Filters or display may have changed while fetching.
	if c.key() == key {
		c.grouped = grouping.GroupWithOptions(issues, c.display.GroupBy, c.display.OrderBy, c.options())
	}
	c.mu.Unlock()
	return err
}

// ApplyUpdate patches the issue at index of groupKey.
func (c *issueListController) ApplyUpdate(ctx context.Context, groupKey string, index int, patch domain.IssuePatch) (err error) {
	startedAt := c.state.Now()
	fields := c.fields()
	fields["group"] = groupKey
	defer c.state.observe(ctx, "issues.update", startedAt, fields, &err)

	if patch.IsEmpty() {
		return nil
	}

	c.mu.Lock()
	issue, ok := c.at(groupKey, index)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("updating %s[%d]: %w", groupKey, index, ErrIssueNotInView)
	}
	c.grouped = grouping.ApplyPartialUpdateWithOptions(patch, groupKey, c.display.GroupBy, index, c.display.OrderBy, c.grouped, c.options())
	key, lookup := c.key(), c.lookup
	c.mu.Unlock()

	fields["issue_id"] = issue.ID
	return c.patch(ctx, key, issue.ID, patch, lookup)
}

// UpdateIssue patches an issue by id. An issue outside the current grouping
// is patched without an optimistic step.
func (c *issueListController) UpdateIssue(ctx context.Context, issueID string, patch domain.IssuePatch) error {
	c.mu.RLock()
	positions := c.grouped.Find(issueID)
	c.mu.RUnlock()
	if len(positions) > 0 {
		return c.ApplyUpdate(ctx, positions[0].Key, positions[0].Index, patch)
	}

	var err error
	startedAt := c.state.Now()
	defer c.state.observe(ctx, "issues.update", startedAt, map[string]any{"issue_id": issueID}, &err)
	if patch.IsEmpty() {
		return nil
	}
	c.mu.RLock()
	key, lookup := c.key(), c.lookup
	c.mu.RUnlock()
	err = c.patch(ctx, key, issueID, patch, lookup)
	return err
}

// Move handles a drop. A drop that changes nothing makes no request.
func (c *issueListController) Move(ctx context.Context, from grouping.Position, toKey string, toIndex int) (err error) {
	startedAt := c.state.Now()
	fields := c.fields()
	fields["from"] = from.Key
	fields["to"] = toKey
	defer c.state.observe(ctx, "issues.move", startedAt, fields, &err)

	c.mu.Lock()
	issue, ok := c.at(from.Key, from.Index)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("moving %s[%d]: %w", from.Key, from.Index, ErrIssueNotInView)
	}
	next, patch, changed := grouping.Move(c.grouped, from, toKey, toIndex, c.display.GroupBy, c.display.OrderBy, c.options())
	if !changed {
		c.mu.Unlock()
		return nil
	}
	c.grouped = next
	key, lookup := c.key(), c.lookup
	c.mu.Unlock()

	fields["issue_id"] = issue.ID
	return c.patch(ctx, key, issue.ID, patch, lookup)
}

// Remove deletes the issue at index of groupKey.
func (c *issueListController) Remove(ctx context.Context, groupKey string, index int) (err error) {
	startedAt := c.state.Now()
	fields := c.fields()
	defer c.state.observe(ctx, "issues.delete", startedAt, fields, &err)

	c.mu.Lock()
	issue, ok := c.at(groupKey, index)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("deleting %s[%d]: %w", groupKey, index, ErrIssueNotInView)
	}
	c.grouped = grouping.Remove(c.grouped, issue.ID)
	key := c.key()
	c.mu.Unlock()
	fields["issue_id"] = issue.ID

	c.state.Issues.Mutate(key, func(list []domain.Issue) []domain.Issue {
		return withoutIssue(list, issue.ID)
	})

	if err := c.state.API.DeleteIssue(ctx, c.scope, issue.ID); err != nil {
		c.state.Notifier.Notify(Notification{Kind: NotifyError, Title: "Error!", Message: msgDeleteFailed})
		c.revalidate(ctx, key, fields)
		return fmt.Errorf("deleting issue %s: %w", issue.ID, err)
	}
	// Other views may hold the issue too.
	c.state.Issues.InvalidateWhere(func(k cache.Key) bool { return sameProject(k, key) })
	c.state.Analytics.InvalidateWhere(func(k cache.Key) bool { return k.Workspace == key.Workspace })
	c.revalidate(ctx, key, fields)
	return nil
}

// SetDisplayFilters regroups with new display options and persists them.
// Grouping and ordering are local, so only a sub-issue toggle refetches.
func (c *issueListController) SetDisplayFilters(ctx context.Context, d domain.DisplayFilters) (err error) {
	startedAt := c.state.Now()
	defer c.state.observe(ctx, "view.display", startedAt, c.fields(), &err)

	d = d.Normalize()
	c.mu.Lock()
	filters := c.filters
	c.display = d
	c.displaySet = true
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		return err
	}
	if err := c.state.API.UpdateViewProps(ctx, c.scope, domain.ViewProps{Filters: filters, DisplayFilters: d}); err != nil {
		return fmt.Errorf("saving view properties: %w", err)
	}
	return nil
}

// SetFilters refetches with new filters and persists them.
func (c *issueListController) SetFilters(ctx context.Context, f domain.IssueFilters) (err error) {
	startedAt := c.state.Now()
	defer c.state.observe(ctx, "view.filters", startedAt, c.fields(), &err)

	f = f.Normalize()
	c.mu.Lock()
	c.filters = f
	c.filtersSet = true
	display := c.display
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		return err
	}
	if err := c.state.API.UpdateViewProps(ctx, c.scope, domain.ViewProps{Filters: f, DisplayFilters: display}); err != nil {
		return fmt.Errorf("saving view properties: %w", err)
	}
	return nil
}

// patch writes the optimistic change to the cache, sends it and revalidates.
func (c *issueListController) patch(ctx context.Context, key cache.Key, issueID string, patch domain.IssuePatch, lookup domain.Lookup) error {
	c.state.Issues.Mutate(key, func(list []domain.Issue) []domain.Issue {
		return patchIssue(list, issueID, patch, lookup)
	})

	fields := map[string]any{"issue_id": issueID}
	if _, err := c.state.API.PatchIssue(ctx, c.scope, issueID, patch); err != nil {
		c.state.Notifier.Notify(Notification{Kind: NotifyError, Title: "Error!", Message: msgUpdateFailed})
		c.revalidate(ctx, key, fields)
		return fmt.Errorf("updating issue %s: %w", issueID, err)
	}
	c.state.Issues.InvalidateWhere(func(k cache.Key) bool { return sameProject(k, key) })
	c.state.Analytics.InvalidateWhere(func(k cache.Key) bool { return k.Workspace == key.Workspace })
	c.revalidate(ctx, key, fields)
	return nil
}

// revalidate refetches after a mutation. A failure here leaves the cache
// stale and is only observed; the mutation itself has already been decided.
func (c *issueListController) revalidate(ctx context.Context, key cache.Key, fields map[string]any) {
	c.state.Issues.Invalidate(key)
	var err error
	startedAt := c.state.Now()
	defer c.state.observe(ctx, "issues.revalidate", startedAt, fields, &err)
	err = c.Refresh(ctx)
}

func (c *issueListController) at(groupKey string, index int) (domain.Issue, bool) {
	grp, ok := c.grouped.Groups[groupKey]
	if !ok || index < 0 || index >= len(grp) {
		return domain.Issue{}, false
	}
	return grp[index], true
}

// key must be called with mu held.
func (c *issueListController) key() cache.Key {
	return IssuesKey(c.scope, c.filters, c.display)
}

func (c *issueListController) options() grouping.Options {
	return grouping.Options{States: c.meta.States, ShowEmptyGroups: c.display.ShowEmptyGroups}
}

func (c *issueListController) fields() map[string]any {
	kind, id := c.scope.Kind()
	return map[string]any{
		"workspace": c.scope.Workspace,
		"project":   c.scope.Project,
		"scope":     kind + ":" + id,
	}
}

func patchIssue(list []domain.Issue, issueID string, patch domain.IssuePatch, lookup domain.Lookup) []domain.Issue {
	out := make([]domain.Issue, len(list))
	copy(out, list)
	for i, is := range out {
		if is.ID != issueID {
			continue
		}
		merged := patch.Apply(is)
		if patch.StateID != nil {
			merged.StateGroup = lookup.StateGroup(merged.StateID)
		}
		out[i] = merged
	}
	return out
}

func withoutIssue(list []domain.Issue, issueID string) []domain.Issue {
	out := make([]domain.Issue, 0, len(list))
	for _, is := range list {
		if is.ID != issueID {
			out = append(out, is)
		}
	}
	return out
}

func sameProject(a, b cache.Key) bool {
	return a.Resource == b.Resource && a.Workspace == b.Workspace && a.Project == b.Project
}
