package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/grouping"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/charmbracelet/lipgloss"
)

// Column is one kanban column.
type Column struct {
	Key   string
	Title string
	Cards []Card
}

// Card is one issue on the board.
type Card struct {
	Key       string
	Title     string
	Priority  domain.Priority
	Assignees []string
	Issue     domain.Issue
}

// Board shows each group as a column.
type Board struct {
	base
}

func NewBoard(ctl service.IssueListController, lookup domain.Lookup) *Board {
	return &Board{base: newBase(ctl, lookup)}
}

func (b *Board) Layout() domain.Layout { return domain.LayoutKanban }

// Columns returns the columns in group order.
func (b *Board) Columns() []Column {
	g := b.ctl.Group()
	out := make([]Column, 0, len(g.Keys))
	for _, k := range g.Keys {
		col := Column{Key: k, Title: b.groupTitle(k)}
		for _, is := range g.Groups[k] {
			names := make([]string, len(is.Assignees))
			for i, a := range is.Assignees {
				names[i] = b.lookup.MemberName(a)
			}
			col.Cards = append(col.Cards, Card{
				Key:       b.issueKey(is),
				Title:     is.Name,
				Priority:  is.Priority,
				Assignees: names,
				Issue:     is,
			})
		}
		out = append(out, col)
	}
	return out
}

// Drop moves the card at from onto index toIndex of column toKey.
func (b *Board) Drop(ctx context.Context, from grouping.Position, toKey string, toIndex int) error {
	return b.ctl.Move(ctx, from, toKey, toIndex)
}

func (b *Board) Render(width int) string {
	return b.RenderCursor(width, nil)
}

var (
	columnStyle   = lipgloss.NewStyle().PaddingRight(1)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(formatter.ColorDim)
	selectedStyle = cardStyle.BorderForeground(formatter.ColorHeader)
)

// RenderCursor renders the board with the card at cursor highlighted.
func (b *Board) RenderCursor(width int, cursor *grouping.Position) string {
	cols := b.Columns()
	if len(cols) == 0 {
		return formatter.Dim("No issues.") + "\n"
	}
	colWidth := width/len(cols) - 1
	if colWidth < 16 {
		colWidth = 16
	}
	inner := colWidth - 2

	rendered := make([]string, len(cols))
	for c, col := range cols {
		var parts []string
		title := fmt.Sprintf("%s %s", formatter.Truncate(col.Title, inner-5), formatter.Dim(fmt.Sprintf("(%d)", len(col.Cards))))
		parts = append(parts, formatter.StyleHeader.Render(title))
		for i, card := range col.Cards {
			style := cardStyle
			if cursor != nil && cursor.Key == col.Key && cursor.Index == i {
				style = selectedStyle
			}
			body := formatter.Dim(card.Key) + " " + formatter.PriorityStyle(card.Priority).Render(priorityMark(card.Priority)) + "\n" +
				formatter.Truncate(card.Title, inner)
			if len(card.Assignees) > 0 {
				body += "\n" + formatter.StyleBlue.Render(formatter.Truncate(strings.Join(card.Assignees, ", "), inner))
			}
			parts = append(parts, style.Width(inner).Render(body))
		}
		rendered[c] = columnStyle.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func priorityMark(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent, domain.PriorityHigh:
		return "▲"
	case domain.PriorityMedium:
		return "■"
	case domain.PriorityLow:
		return "▼"
	}
	return ""
}
