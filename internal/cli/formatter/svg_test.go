package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/stretchr/testify/assert"
)

func TestWriteBarChartSVG(t *testing.T) {
	data := analytics.BarGraphData{
		Data: []analytics.Datum{
			{Name: "Urgent", Values: map[string]float64{"Todo": 2, "Done": 2}},
			{Name: "Low", Values: map[string]float64{"Todo": 1}},
		},
		XAxisKeys: []string{"Todo", "Done"},
	}
	var buf bytes.Buffer
	WriteBarChartSVG(&buf, data, "Issues by priority")
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "Issues by priority")
	assert.Contains(t, out, ">Urgent<")
	assert.Contains(t, out, ">4<")
	// Background, three bar segments and two legend swatches.
	assert.Equal(t, 6, strings.Count(out, "<rect"))
	// The tallest stack fills the chart; Low is a quarter of it.
	assert.Equal(t, 2, strings.Count(out, `width="280"`))
	assert.Contains(t, out, `width="140"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestWriteBarChartSVG_SingleSeriesHasNoLegend(t *testing.T) {
	data := analytics.BarGraphData{
		Data:      []analytics.Datum{{Name: "none", Values: map[string]float64{"count": 3}}},
		XAxisKeys: []string{"count"},
	}
	var buf bytes.Buffer
	WriteBarChartSVG(&buf, data, "Issues by state")
	assert.Equal(t, 2, strings.Count(buf.String(), "<rect"))
}
