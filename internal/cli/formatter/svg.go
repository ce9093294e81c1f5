package formatter

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/alexanderramin/trackboard/internal/analytics"
)

const (
	svgBarHeight  = 22
	svgBarGap     = 8
	svgLabelWidth = 180
	svgChartWidth = 560
	svgMargin     = 20
)

// WriteBarChartSVG draws the same stacked horizontal bars as RenderBarChart
// as a standalone SVG document.
func WriteBarChartSVG(w io.Writer, data analytics.BarGraphData, title string) {
	legendRows := 0
	if len(data.XAxisKeys) > 1 {
		legendRows = len(data.XAxisKeys)
	}
	height := svgMargin*3 + len(data.Data)*(svgBarHeight+svgBarGap) + legendRows*18
	width := svgMargin*2 + svgLabelWidth + svgChartWidth + 60

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#282828")
	canvas.Text(svgMargin, svgMargin+4, title, "fill:#fe8019;font-family:sans-serif;font-size:16px;font-weight:bold")

	var peak float64
	totals := make([]float64, len(data.Data))
	for i, d := range data.Data {
		for _, k := range data.XAxisKeys {
			totals[i] += d.Values[k]
		}
		if totals[i] > peak {
			peak = totals[i]
		}
	}

	y := svgMargin * 2
	for i, d := range data.Data {
		canvas.Text(svgMargin, y+svgBarHeight-6, Truncate(d.Name, 28), "fill:#ebdbb2;font-family:sans-serif;font-size:13px")
		x := svgMargin + svgLabelWidth
		for n, k := range data.XAxisKeys {
			v := d.Values[k]
			if v <= 0 || peak == 0 {
				continue
			}
			bw := int(v / peak * svgChartWidth)
			if bw == 0 {
				bw = 1
			}
			canvas.Rect(x, y, bw, svgBarHeight, "fill:"+string(SeriesColors[n%len(SeriesColors)]))
			x += bw
		}
		canvas.Text(x+6, y+svgBarHeight-6, FormatCount(totals[i]), "fill:#928374;font-family:sans-serif;font-size:12px")
		y += svgBarHeight + svgBarGap
	}

	if legendRows > 0 {
		y += svgMargin / 2
		for n, k := range data.XAxisKeys {
			canvas.Rect(svgMargin, y, 12, 12, "fill:"+string(SeriesColors[n%len(SeriesColors)]))
			canvas.Text(svgMargin+18, y+11, k, fmt.Sprintf("fill:%s;font-family:sans-serif;font-size:12px", ColorFg))
			y += 18
		}
	}
	canvas.End()
}
