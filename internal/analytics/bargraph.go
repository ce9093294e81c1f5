package analytics

import (
	"time"
)

// Params selects the chart axes.
type Params struct {
	XAxis   string
	YAxis   string
	Segment string
}

const (
	YAxisIssueCount = "issue_count"
	YAxisEstimate   = "estimate"

	// NoneLabel names buckets and segments without a value.
	NoneLabel = "None"
)

// DateKeys are the x-axis dimensions whose values are dates.
var DateKeys = []string{"completed_at", "target_date", "start_date", "created_at"}

// IsDateKey reports whether an x-axis dimension holds dates.
func IsDateKey(key string) bool {
	for _, k := range DateKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ValueKey returns the row field holding the y-axis value.
func (p Params) ValueKey() string {
	if p.YAxis == YAxisEstimate {
		return "estimate"
	}
	return "count"
}

// Datum is one bar (or one stack of segments) of the chart.
type Datum struct {
	Name   string
	Values map[string]float64
}

// BarGraphData is chart-ready data plus the ordered series keys.
type BarGraphData struct {
	Data      []Datum
	XAxisKeys []string
}

// BarGraph converts an aggregation to bar chart data. With a segment, each
// bucket becomes one datum with a value per segment and XAxisKeys lists the
// segments in first-seen order. Without one, each bucket becomes one datum
// named by its row's dimension and XAxisKeys is the single value key.
func BarGraph(agg Aggregation, p Params) BarGraphData {
	valueKey := p.ValueKey()
	out := BarGraphData{Data: []Datum{}, XAxisKeys: []string{}}
	seen := make(map[string]bool)

	for _, b := range agg {
		if p.Segment != "" {
			values := make(map[string]float64, len(b.Rows))
			for _, row := range b.Rows {
				seg, ok := row.text("segment")
				if !ok || seg == "" {
					seg = NoneLabel
				}
				values[seg] = row.number(valueKey)
				if !seen[seg] {
					seen[seg] = true
					out.XAxisKeys = append(out.XAxisKeys, seg)
				}
			}
			out.Data = append(out.Data, Datum{Name: label(b.Key, p.XAxis), Values: values})
			continue
		}

		out.XAxisKeys = []string{valueKey}
		name := b.Key
		var value float64
		if len(b.Rows) > 0 {
			row := b.Rows[0]
			if dim, ok := row.text("dimension"); ok {
				name = dim
			}
			value = row.number(valueKey)
		}
		out.Data = append(out.Data, Datum{
			Name:   label(name, p.XAxis),
			Values: map[string]float64{valueKey: value},
		})
	}
	return out
}

// Totals sums each series across all data.
func Totals(data BarGraphData) map[string]float64 {
	out := make(map[string]float64, len(data.XAxisKeys))
	for _, k := range data.XAxisKeys {
		out[k] = 0
	}
	for _, d := range data.Data {
		for k, v := range d.Values {
			out[k] += v
		}
	}
	return out
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01"}

func label(name, xAxis string) string {
	if name == "" || name == "null" {
		return NoneLabel
	}
	if !IsDateKey(xAxis) {
		return name
	}
	return MonthAndYear(name)
}

// MonthAndYear formats a date-ish string as "Jan 2006". Unparseable input is
// returned unchanged; empty input renders as NoneLabel.
func MonthAndYear(s string) string {
	if s == "" {
		return NoneLabel
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return s
}
