package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/api"
	"github.com/alexanderramin/trackboard/internal/cache"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// AnalyticsService fetches aggregations through the analytics cache.
type AnalyticsService struct {
	state *AppState
}

func NewAnalyticsService(state *AppState) *AnalyticsService {
	return &AnalyticsService{state: state}
}

// AnalyticsKey is the cache key of one aggregation query.
func AnalyticsKey(workspace string, q api.AnalyticsQuery) cache.Key {
	params := flatten(api.EncodeIssueQuery(q.Filters, domain.DisplayFilters{SubIssues: true}))
	params["x_axis"] = q.XAxis
	params["y_axis"] = q.YAxis
	params["segment"] = q.Segment
	params["projects"] = strings.Join(q.Projects, ",")
	return cache.NewKey("analytics", workspace, "", params)
}

// Aggregate returns the raw aggregation for q.
func (s *AnalyticsService) Aggregate(ctx context.Context, workspace string, q api.AnalyticsQuery) (agg analytics.Aggregation, err error) {
	startedAt := s.state.Now()
	defer s.state.observe(ctx, "analytics.aggregate", startedAt, map[string]any{
		"x_axis":  q.XAxis,
		"y_axis":  q.YAxis,
		"segment": q.Segment,
	}, &err)

	if q.XAxis == "" {
		return nil, fmt.Errorf("aggregating: x axis is required")
	}
	if q.YAxis == "" {
		q.YAxis = analytics.YAxisIssueCount
	}
	return s.state.Analytics.GetOrFetch(ctx, AnalyticsKey(workspace, q), func(ctx context.Context) (analytics.Aggregation, error) {
		return s.state.API.GetAnalytics(ctx, workspace, q)
	})
}

// BarGraph returns chart-ready data for q.
func (s *AnalyticsService) BarGraph(ctx context.Context, workspace string, q api.AnalyticsQuery) (analytics.BarGraphData, error) {
	agg, err := s.Aggregate(ctx, workspace, q)
	if err != nil && agg == nil {
		return analytics.BarGraphData{}, err
	}
	yAxis := q.YAxis
	if yAxis == "" {
		yAxis = analytics.YAxisIssueCount
	}
	return analytics.BarGraph(agg, analytics.Params{XAxis: q.XAxis, YAxis: yAxis, Segment: q.Segment}), err
}
