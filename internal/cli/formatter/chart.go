package formatter

import (
	"fmt"
	"math"
	"strings"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/charmbracelet/lipgloss"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderBar renders a horizontal bar of width cells filled to pct.
func RenderBar(pct float64, width int, style lipgloss.Style) string {
	if pct < 0 || math.IsNaN(pct) {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}
	filled := int(math.Round(pct * float64(width)))
	return style.Render(strings.Repeat(filledBlock, filled)) + StyleDim.Render(strings.Repeat(emptyBlock, width-filled))
}

// RenderBarChart renders bar graph data as horizontal stacked bars, one per
// datum, scaled to the largest stack. Segments are colored in XAxisKeys
// order and listed in a legend when there is more than one.
func RenderBarChart(data analytics.BarGraphData, width int) string {
	if len(data.Data) == 0 {
		return Dim("No data.") + "\n"
	}
	if width < 10 {
		width = 10
	}

	labelWidth := 0
	var max float64
	totals := make([]float64, len(data.Data))
	for i, d := range data.Data {
		if w := lipgloss.Width(d.Name); w > labelWidth {
			labelWidth = w
		}
		for _, k := range data.XAxisKeys {
			totals[i] += d.Values[k]
		}
		if totals[i] > max {
			max = totals[i]
		}
	}
	if labelWidth > 24 {
		labelWidth = 24
	}

	var b strings.Builder
	for i, d := range data.Data {
		b.WriteString(PadRight(Truncate(d.Name, labelWidth), labelWidth))
		b.WriteString("  ")
		used := 0
		for n, k := range data.XAxisKeys {
			v := d.Values[k]
			if v <= 0 || max == 0 {
				continue
			}
			cells := int(math.Round(v / max * float64(width)))
			if cells == 0 {
				cells = 1
			}
			if used+cells > width {
				cells = width - used
			}
			style := lipgloss.NewStyle().Foreground(SeriesColors[n%len(SeriesColors)])
			b.WriteString(style.Render(strings.Repeat(filledBlock, cells)))
			used += cells
		}
		b.WriteString(strings.Repeat(" ", width-used))
		b.WriteString("  ")
		b.WriteString(StyleBold.Render(FormatCount(totals[i])))
		b.WriteString("\n")
	}

	if len(data.XAxisKeys) > 1 {
		b.WriteString("\n")
		var legend []string
		for n, k := range data.XAxisKeys {
			style := lipgloss.NewStyle().Foreground(SeriesColors[n%len(SeriesColors)])
			legend = append(legend, fmt.Sprintf("%s %s", style.Render(filledBlock), k))
		}
		b.WriteString(strings.Join(legend, "  "))
		b.WriteString("\n")
	}
	return b.String()
}
