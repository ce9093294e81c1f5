package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Aggregation {
	t.Helper()
	var agg Aggregation
	require.NoError(t, json.Unmarshal([]byte(raw), &agg))
	return agg
}

func TestAggregation_PreservesKeyOrder(t *testing.T) {
	agg := decode(t, `{"zeta": [], "alpha": [{"count": 1}], "mid": null}`)

	require.Len(t, agg, 3)
	assert.Equal(t, "zeta", agg[0].Key)
	assert.Equal(t, "alpha", agg[1].Key)
	assert.Equal(t, "mid", agg[2].Key)
	assert.Nil(t, agg[2].Rows)

	raw, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":[],"alpha":[{"count":1}],"mid":[]}`, string(raw))
}

func TestAggregation_RejectsNonObject(t *testing.T) {
	var agg Aggregation
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &agg))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &agg))
	assert.Empty(t, agg)
}

func TestBarGraph_NoSegment(t *testing.T) {
	agg := decode(t, `{"urgent": [{"priority": "urgent", "count": 3}], "high": [{"priority": "high", "count": 5}]}`)

	out := BarGraph(agg, Params{XAxis: "priority", YAxis: YAxisIssueCount})

	require.Len(t, out.Data, 2)
	assert.Equal(t, []string{"count"}, out.XAxisKeys)
	assert.Equal(t, "urgent", out.Data[0].Name)
	assert.Equal(t, 3.0, out.Data[0].Values["count"])
	assert.Equal(t, "high", out.Data[1].Name)
	assert.Equal(t, 5.0, out.Data[1].Values["count"])
}

func TestBarGraph_DimensionNameAndEstimate(t *testing.T) {
	agg := decode(t, `{"s1": [{"dimension": "Todo", "estimate": 8}], "s2": [{"dimension": null}]}`)

	out := BarGraph(agg, Params{XAxis: "state__name", YAxis: YAxisEstimate})

	assert.Equal(t, []string{"estimate"}, out.XAxisKeys)
	assert.Equal(t, "Todo", out.Data[0].Name)
	assert.Equal(t, 8.0, out.Data[0].Values["estimate"])
	assert.Equal(t, "s2", out.Data[1].Name)
	assert.Equal(t, 0.0, out.Data[1].Values["estimate"])
}

func TestBarGraph_SegmentsFirstSeenOrder(t *testing.T) {
	agg := decode(t, `{
		"urgent": [{"segment": "bug", "count": 2}, {"segment": null, "count": 1}],
		"low": [{"segment": "feature", "count": 4}, {"segment": "bug", "count": 7}]
	}`)

	out := BarGraph(agg, Params{XAxis: "priority", YAxis: YAxisIssueCount, Segment: "labels__name"})

	assert.Equal(t, []string{"bug", "None", "feature"}, out.XAxisKeys)
	require.Len(t, out.Data, 2)
	assert.Equal(t, map[string]float64{"bug": 2, "None": 1}, out.Data[0].Values)
	assert.Equal(t, map[string]float64{"feature": 4, "bug": 7}, out.Data[1].Values)

	totals := Totals(out)
	assert.Equal(t, 9.0, totals["bug"])
	assert.Equal(t, 1.0, totals["None"])
	assert.Equal(t, 4.0, totals["feature"])
}

func TestBarGraph_DateAxisLabels(t *testing.T) {
	agg := decode(t, `{"2024-03-05": [{"dimension": "2024-03-05", "count": 2}], "x": [{"dimension": "", "count": 1}]}`)

	out := BarGraph(agg, Params{XAxis: "target_date", YAxis: YAxisIssueCount})

	assert.Equal(t, "Mar 2024", out.Data[0].Name)
	assert.Equal(t, NoneLabel, out.Data[1].Name)
}

func TestBarGraph_EmptyInput(t *testing.T) {
	out := BarGraph(nil, Params{})
	assert.NotNil(t, out.Data)
	assert.Empty(t, out.Data)
	assert.Empty(t, out.XAxisKeys)
}

func TestMonthAndYear(t *testing.T) {
	assert.Equal(t, "Jan 2024", MonthAndYear("2024-01"))
	assert.Equal(t, "Feb 2024", MonthAndYear("2024-02-10T08:00:00Z"))
	assert.Equal(t, "garbage", MonthAndYear("garbage"))
	assert.Equal(t, NoneLabel, MonthAndYear(""))
}
