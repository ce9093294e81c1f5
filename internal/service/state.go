package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cache"
	"github.com/alexanderramin/trackboard/internal/domain"
	"golang.org/x/sync/errgroup"
)

// AppState holds what the controllers and services share. It is built once
// by the entry point and passed down explicitly.
type AppState struct {
	API       api.IssueAPI
	Issues    *cache.Cache[[]domain.Issue]
	Analytics *cache.Cache[analytics.Aggregation]
	Notifier  Notifier
	Observer  UseCaseObserver
	Now       func() time.Time
}

// StateOption customises NewAppState.
type StateOption func(*AppState)

func WithNotifier(n Notifier) StateOption {
	return func(s *AppState) {
		if n != nil {
			s.Notifier = n
		}
	}
}

func WithObserver(o UseCaseObserver) StateOption {
	return func(s *AppState) {
		if o != nil {
			s.Observer = o
		}
	}
}

func WithClock(now func() time.Time) StateOption {
	return func(s *AppState) {
		s.Now = now
	}
}

// NewAppState creates the shared state with caches of the given TTL.
func NewAppState(backend api.IssueAPI, ttl time.Duration, opts ...StateOption) *AppState {
	s := &AppState{
		API:       backend,
		Issues:    cache.New[[]domain.Issue](ttl),
		Analytics: cache.New[analytics.Aggregation](ttl),
		Notifier:  NoopNotifier{},
		Observer:  NoopUseCaseObserver{},
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Issues.SetClock(s.Now)
	s.Analytics.SetClock(s.Now)
	return s
}

// observe reports a finished use case. Call it deferred with a pointer to
// the named error result.
func (s *AppState) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	s.Observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  s.Now().Sub(startedAt),
		Success:   e == nil,
		Err:       e,
		Fields:    fields,
	})
}

// IssuesKey is the cache key of an issue list. Grouping and ordering are
// applied locally and are not part of the key.
func IssuesKey(scope api.Scope, filters domain.IssueFilters, display domain.DisplayFilters) cache.Key {
	q := api.EncodeIssueQuery(filters, domain.DisplayFilters{SubIssues: display.SubIssues})
	k := cache.NewKey("issues", scope.Workspace, scope.Project, flatten(q))
	if kind, id := scope.Kind(); kind != "project" {
		k = k.WithScope(kind, id)
	}
	return k
}

func flatten(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

// Metadata is the project data views need to label and order groups.
type Metadata struct {
	States  []domain.State
	Labels  []domain.Label
	Members []domain.Member
}

// Lookup indexes the metadata by id.
func (m Metadata) Lookup() domain.Lookup {
	return domain.NewLookup(m.States, m.Labels, m.Members)
}

// LoadMetadata fetches states, labels and members concurrently.
func LoadMetadata(ctx context.Context, backend api.IssueAPI, scope api.Scope) (Metadata, error) {
	var m Metadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		states, err := backend.ListStates(gctx, scope)
		if err != nil {
			return fmt.Errorf("loading states: %w", err)
		}
		m.States = states
		return nil
	})
	g.Go(func() error {
		labels, err := backend.ListLabels(gctx, scope)
		if err != nil {
			return fmt.Errorf("loading labels: %w", err)
		}
		m.Labels = labels
		return nil
	})
	g.Go(func() error {
		members, err := backend.ListMembers(gctx, scope)
		if err != nil {
			return fmt.Errorf("loading members: %w", err)
		}
		m.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
