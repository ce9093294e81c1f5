package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/calendar"
	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/charmbracelet/lipgloss"
)

// maxPerCell limits the issues listed in one calendar cell.
const maxPerCell = 3

// Calendar shows issues on the day of their target date, as a month or a
// week depending on the display filters.
type Calendar struct {
	base
	anchor    time.Time
	WeekStart time.Weekday
}

func NewCalendar(ctl service.IssueListController, lookup domain.Lookup) *Calendar {
	return &Calendar{base: newBase(ctl, lookup), WeekStart: time.Monday}
}

func (c *Calendar) Layout() domain.Layout { return domain.LayoutCalendar }

// SetAnchor selects the month or week containing day.
func (c *Calendar) SetAnchor(day time.Time) { c.anchor = day }

func (c *Calendar) anchorDay() time.Time {
	if c.anchor.IsZero() {
		return c.now()
	}
	return c.anchor
}

// Range returns the visible range.
func (c *Calendar) Range() calendar.Range {
	a := c.anchorDay()
	if c.ctl.DisplayFilters().CalendarLayout == domain.CalendarWeek {
		return calendar.WeekRange(a, c.WeekStart)
	}
	return calendar.MonthRange(a.Year(), a.Month(), c.WeekStart)
}

// Days buckets the controller's issues into the visible days.
func (c *Calendar) Days() []calendar.Day {
	return calendar.Bucket(Flatten(c.ctl.Group()), c.Range(), c.ctl.DisplayFilters().CalendarShowWeekends)
}

// Drop sets the issue's target date to day.
func (c *Calendar) Drop(ctx context.Context, issueID string, day time.Time) error {
	return c.ctl.UpdateIssue(ctx, issueID, calendar.DropPatch(day))
}

func (c *Calendar) perWeek() int {
	if c.ctl.DisplayFilters().CalendarShowWeekends {
		return 7
	}
	return 5
}

func (c *Calendar) Render(width int) string {
	days := c.Days()
	if len(days) == 0 {
		return formatter.Dim("No days in range.") + "\n"
	}
	perWeek := c.perWeek()
	cellWidth := width/perWeek - 1
	if cellWidth < 10 {
		cellWidth = 10
	}
	cell := lipgloss.NewStyle().Width(cellWidth).PaddingRight(1)

	var b strings.Builder
	title := c.anchorDay().Format("January 2006")
	if c.ctl.DisplayFilters().CalendarLayout == domain.CalendarWeek {
		r := c.Range()
		title = fmt.Sprintf("%s - %s", r.Start.Format("Jan 2"), r.End.Format("Jan 2, 2006"))
	}
	b.WriteString(formatter.Header(title) + "\n")

	var heads []string
	for _, d := range days[:min(perWeek, len(days))] {
		heads = append(heads, cell.Render(formatter.Dim(d.Date.Format("Mon"))))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, heads...) + "\n")

	today := c.now().Format(domain.DateLayout)
	for _, week := range calendar.Weeks(days, perWeek) {
		cells := make([]string, len(week))
		for i, d := range week {
			num := fmt.Sprintf("%2d", d.Date.Day())
			switch {
			case d.Key == today:
				num = formatter.StyleHeader.Render(num)
			case !d.InMonth:
				num = formatter.Dim(num)
			default:
				num = formatter.Bold(num)
			}
			lines := []string{num}
			for n, is := range d.Issues {
				if n == maxPerCell {
					lines = append(lines, formatter.Dim(fmt.Sprintf("+%d more", len(d.Issues)-maxPerCell)))
					break
				}
				lines = append(lines, formatter.StateGroupStyle(is.StateGroup).Render(formatter.Truncate(c.issueKey(is)+" "+is.Name, cellWidth)))
			}
			cells[i] = cell.Render(strings.Join(lines, "\n"))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return b.String()
}
