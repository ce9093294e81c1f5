package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// ViewPropsService reads and updates the persisted display options of a view.
type ViewPropsService struct {
	state *AppState
}

func NewViewPropsService(state *AppState) *ViewPropsService {
	return &ViewPropsService{state: state}
}

// Get returns the saved properties, or defaults when none are saved.
func (s *ViewPropsService) Get(ctx context.Context, scope api.Scope) (props domain.ViewProps, err error) {
	startedAt := s.state.Now()
	defer s.state.observe(ctx, "view.get", startedAt, map[string]any{"project": scope.Project}, &err)

	props, err = s.state.API.GetViewProps(ctx, scope)
	if api.IsNotFound(err) {
		return domain.ViewProps{DisplayFilters: domain.DefaultDisplayFilters()}, nil
	}
	if err != nil {
		return domain.ViewProps{}, fmt.Errorf("loading view properties: %w", err)
	}
	return props.Normalize(), nil
}

// Update applies fn to the saved properties and writes the result back.
func (s *ViewPropsService) Update(ctx context.Context, scope api.Scope, fn func(*domain.ViewProps)) (domain.ViewProps, error) {
	props, err := s.Get(ctx, scope)
	if err != nil {
		return domain.ViewProps{}, err
	}

	startedAt := s.state.Now()
	defer s.state.observe(ctx, "view.update", startedAt, map[string]any{"project": scope.Project}, &err)

	fn(&props)
	props = props.Normalize()
	if err = s.state.API.UpdateViewProps(ctx, scope, props); err != nil {
		return domain.ViewProps{}, fmt.Errorf("saving view properties: %w", err)
	}
	return props, nil
}
