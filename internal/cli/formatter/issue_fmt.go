package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/local"
	"github.com/alexanderramin/trackboard/internal/service"
)

// IssueDetail is everything `issues show` prints.
type IssueDetail struct {
	Issue      domain.Issue
	Identifier string
	Lookup     domain.Lookup
	// Description is the rendered description; empty falls back to the raw one.
	Description string
	Children    []domain.Issue
	Now         time.Time
}

// FormatIssueDetail renders one issue with its metadata panel, description
// and sub-issues.
func FormatIssueDetail(d IssueDetail) string {
	is := d.Issue
	l := d.Lookup

	var b strings.Builder
	b.WriteString(IssueKey(d.Identifier, is.SequenceID) + "  " + Bold(is.Name) + "\n\n")

	rows := [][2]string{
		{"State", StatePill(l.StateName(is.StateID), is.StateGroup)},
		{"Priority", PriorityBadge(is.Priority)},
		{"Assignees", names(is.Assignees, l.MemberName)},
		{"Labels", labelNames(is.Labels, l)},
		{"Start", dateOrDash(is.StartDate)},
		{"Due", DueDate(is.TargetDate, d.Now, is.CompletedAt != nil)},
	}
	if is.EstimatePoint != nil {
		rows = append(rows, [2]string{"Estimate", strconv.Itoa(*is.EstimatePoint)})
	}
	if is.CycleID != "" {
		rows = append(rows, [2]string{"Cycle", is.CycleID})
	}
	if is.ModuleID != "" {
		rows = append(rows, [2]string{"Module", is.ModuleID})
	}
	if is.CompletedAt != nil {
		rows = append(rows, [2]string{"Completed", HumanDateFrom(*is.CompletedAt, d.Now)})
	}
	rows = append(rows,
		[2]string{"Created", Ago(is.CreatedAt, d.Now)},
		[2]string{"Updated", Ago(is.UpdatedAt, d.Now)},
	)

	var panel strings.Builder
	for i, r := range rows {
		panel.WriteString(Dim(PadRight(r[0], 10)) + r[1])
		if i < len(rows)-1 {
			panel.WriteString("\n")
		}
	}
	b.WriteString(RenderBox("", panel.String()))
	b.WriteString("\n")

	desc := d.Description
	if desc == "" {
		desc = strings.TrimSpace(is.Description)
	}
	if desc != "" {
		b.WriteString("\n" + Header("Description") + "\n")
		b.WriteString(strings.TrimRight(desc, "\n") + "\n")
	}

	if len(d.Children) > 0 {
		b.WriteString("\n" + Header("Sub-issues") + "\n")
		b.WriteString(RenderTree(IssueTree(d.Children, d.Identifier, func(c domain.Issue) string {
			return l.StateName(c.StateID)
		})))
	}
	return b.String()
}

// FormatActivity renders an issue history, one line per entry.
func FormatActivity(lines []service.ActivityLine, now time.Time) string {
	if len(lines) == 0 {
		return Dim("No activity.") + "\n"
	}
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s  %s %s\n", Dim(PadRight(Ago(l.At, now), 16)), StyleBlue.Render(l.Actor), l.Text)
	}
	return b.String()
}

// FormatImportResult summarises an import.
func FormatImportResult(r *local.ImportResult) string {
	var b strings.Builder
	verb := "Updated"
	if r.CreatedNew {
		verb = "Created"
	}
	b.WriteString(StyleGreen.Render("✔ ") + fmt.Sprintf("%s project %s (%s)\n", verb, Bold(r.Project.Identifier), r.Project.Name))
	fmt.Fprintf(&b, "  %d states, %d labels, %d members, %d issues\n", r.StateCount, r.LabelCount, r.MemberCount, r.IssueCount)
	if len(r.IssueKeys) > 0 {
		b.WriteString("  " + Dim(strings.Join(r.IssueKeys, " ")) + "\n")
	}
	return b.String()
}

// FormatViewProps renders the saved options of a view.
func FormatViewProps(p domain.ViewProps, l domain.Lookup) string {
	d := p.DisplayFilters
	f := p.Filters
	groupBy := string(d.GroupBy)
	if groupBy == "" {
		groupBy = "none"
	}
	rows := [][]string{
		{"layout", string(d.Layout)},
		{"group_by", groupBy},
		{"order_by", string(d.OrderBy)},
		{"show_empty_groups", strconv.FormatBool(d.ShowEmptyGroups)},
		{"sub_issues", strconv.FormatBool(d.SubIssues)},
		{"calendar", fmt.Sprintf("%s, weekends %t", d.CalendarLayout, d.CalendarShowWeekends)},
	}
	if len(f.Priority) > 0 {
		ps := make([]string, len(f.Priority))
		for i, p := range f.Priority {
			ps[i] = string(p)
		}
		rows = append(rows, []string{"priority", strings.Join(ps, ",")})
	}
	if len(f.State) > 0 {
		rows = append(rows, []string{"state", names(f.State, l.StateName)})
	}
	if len(f.Assignees) > 0 {
		rows = append(rows, []string{"assignees", names(f.Assignees, l.MemberName)})
	}
	if len(f.Labels) > 0 {
		rows = append(rows, []string{"labels", names(f.Labels, l.LabelName)})
	}
	if f.Search != "" {
		rows = append(rows, []string{"search", f.Search})
	}
	return RenderTable([]string{"OPTION", "VALUE"}, rows)
}

func names(ids []string, name func(string) string) string {
	if len(ids) == 0 {
		return StyleDim.Render("--")
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = name(id)
	}
	return strings.Join(out, ", ")
}

func labelNames(ids []string, l domain.Lookup) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = l.LabelName(id)
	}
	return LabelChips(out)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return StyleDim.Render("--")
	}
	return t.Format("Jan 2, 2006")
}
