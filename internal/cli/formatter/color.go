package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SeriesColors colors chart segments in order.
var SeriesColors = []lipgloss.Color{ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorHeader, ColorRed, ColorFg}

// PriorityStyle returns the style for a priority.
func PriorityStyle(p domain.Priority) lipgloss.Style {
	switch p {
	case domain.PriorityUrgent:
		return StyleRed
	case domain.PriorityHigh:
		return StyleHeader
	case domain.PriorityMedium:
		return StyleYellow
	case domain.PriorityLow:
		return StyleBlue
	default:
		return StyleDim
	}
}

// PriorityBadge returns a colored priority indicator such as "▲ Urgent".
func PriorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return StyleRed.Bold(true).Render("▲ Urgent")
	case domain.PriorityHigh:
		return PriorityStyle(p).Render("▲ High")
	case domain.PriorityMedium:
		return PriorityStyle(p).Render("■ Medium")
	case domain.PriorityLow:
		return PriorityStyle(p).Render("▼ Low")
	default:
		return StyleDim.Render("- None")
	}
}

// StateGroupStyle returns the style for a state group.
func StateGroupStyle(g domain.StateGroup) lipgloss.Style {
	switch g {
	case domain.StateStarted:
		return StyleYellow
	case domain.StateCompleted:
		return StyleGreen
	case domain.StateCancelled:
		return StyleRed
	case domain.StateUnstarted:
		return StyleBlue
	default:
		return StyleDim
	}
}

// StatePill renders a state name with the marker of its group.
func StatePill(name string, g domain.StateGroup) string {
	marker := "○"
	switch g {
	case domain.StateStarted:
		marker = "◐"
	case domain.StateCompleted:
		marker = "●"
	case domain.StateCancelled:
		marker = "✖"
	case domain.StateBacklog:
		marker = "◌"
	}
	return StateGroupStyle(g).Render(marker + " " + name)
}

// LabelChips renders label names as purple chips.
func LabelChips(names []string) string {
	if len(names) == 0 {
		return StyleDim.Render("--")
	}
	chips := make([]string, len(names))
	for i, n := range names {
		chips[i] = StylePurple.Render("#" + n)
	}
	return strings.Join(chips, " ")
}

// IssueKey renders "WEB-12" in the dim style.
func IssueKey(identifier string, seq int) string {
	if seq <= 0 {
		return StyleDim.Render("--")
	}
	return StyleDim.Render(domain.IssueKey(identifier, seq))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
