package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// colGap separates table columns.
const colGap = 2

// RenderTable renders an aligned table with a header separator line.
// Columns are padded to the widest visible cell, ANSI sequences excluded.
func RenderTable(headers []string, rows [][]string) string {
	return RenderTableMax(headers, rows, 0)
}

// RenderTableMax is RenderTable with every unstyled cell truncated to
// maxCol cells. A maxCol of zero disables truncation.
func RenderTableMax(headers []string, rows [][]string, maxCol int) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	if maxCol > 0 {
		cut := make([][]string, len(rows))
		for r, row := range rows {
			cut[r] = make([]string, len(row))
			for i, cell := range row {
				// Styled cells are already sized by their renderer.
				if lipgloss.Width(cell) == len([]rune(cell)) {
					cell = Truncate(cell, maxCol)
				}
				cut[r][i] = cell
			}
		}
		rows = cut
	}

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if pad < 0 {
				pad = 0
			}
			b.WriteString(style(cell))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return StyleHeader.Render(s) })
	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}
