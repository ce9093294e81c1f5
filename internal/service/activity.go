package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// ActivityLine is one rendered history entry.
type ActivityLine struct {
	At    time.Time
	Actor string
	Text  string
}

// ActivityService renders issue history.
type ActivityService struct {
	state *AppState
}

func NewActivityService(state *AppState) *ActivityService {
	return &ActivityService{state: state}
}

// History returns the issue's activity oldest first, formatted with lookup.
// Actors are resolved through the member lookup when they are member ids.
func (s *ActivityService) History(ctx context.Context, scope api.Scope, issueID string, lookup domain.Lookup) (lines []ActivityLine, err error) {
	startedAt := s.state.Now()
	defer s.state.observe(ctx, "activity.history", startedAt, map[string]any{"issue_id": issueID}, &err)

	items, err := s.state.API.ListActivity(ctx, scope, issueID)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	lines = make([]ActivityLine, 0, len(items))
	for _, a := range items {
		m := a.Meta()
		text := domain.FormatActivity(a, lookup)
		if text == "" {
			continue
		}
		actor := m.Actor
		if _, ok := lookup.Members[actor]; ok {
			actor = lookup.MemberName(actor)
		}
		lines = append(lines, ActivityLine{At: m.CreatedAt, Actor: actor, Text: text})
	}
	return lines, nil
}
