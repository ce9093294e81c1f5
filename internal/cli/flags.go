package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/cli/views"
	"github.com/spf13/pflag"
)

// displayFlags override a view's display filters. Only flags the user set
// are applied.
type displayFlags struct {
	layout    string
	groupBy   string
	orderBy   string
	showEmpty bool
	subIssues bool
	weekends  bool
	calendar  string
}

var displayFlagNames = []string{"layout", "group-by", "order-by", "show-empty-groups", "sub-issues", "weekends", "calendar"}

func (d *displayFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&d.layout, "layout", "", "Layout: list, kanban, spreadsheet or calendar")
	fs.StringVar(&d.groupBy, "group-by", "", "Group by: state, state_detail.group, priority, labels, assignees, created_by, cycle, module or none")
	fs.StringVar(&d.orderBy, "order-by", "", "Order by a field, prefix with - for descending (e.g. -created_at, sort_order)")
	fs.BoolVar(&d.showEmpty, "show-empty-groups", true, "Show groups with no issues")
	fs.BoolVar(&d.subIssues, "sub-issues", true, "Include sub-issues")
	fs.BoolVar(&d.weekends, "weekends", true, "Show weekends in the calendar")
	fs.StringVar(&d.calendar, "calendar", "", "Calendar layout: month or week")
}

func (d *displayFlags) changed(fs *pflag.FlagSet) bool {
	for _, n := range displayFlagNames {
		if f := fs.Lookup(n); f != nil && f.Changed {
			return true
		}
	}
	return false
}

func (d *displayFlags) apply(fs *pflag.FlagSet, base domain.DisplayFilters) domain.DisplayFilters {
	out := base
	if fs.Changed("layout") {
		out.Layout = domain.ParseLayout(d.layout)
	}
	if fs.Changed("group-by") {
		out.GroupBy = domain.ParseGroupBy(d.groupBy)
	}
	if fs.Changed("order-by") {
		out.OrderBy = domain.ParseOrderBy(d.orderBy)
	}
	if fs.Changed("show-empty-groups") {
		out.ShowEmptyGroups = d.showEmpty
	}
	if fs.Changed("sub-issues") {
		out.SubIssues = d.subIssues
	}
	if fs.Changed("weekends") {
		out.CalendarShowWeekends = d.weekends
	}
	if fs.Changed("calendar") {
		out.CalendarLayout = domain.CalendarLayout(strings.ToLower(d.calendar))
	}
	return out.Normalize()
}

// filterFlags override a view's issue filters. Names are resolved against
// project metadata.
type filterFlags struct {
	priority     []string
	state        []string
	stateGroup   []string
	assignees    []string
	labels       []string
	createdBy    []string
	targetAfter  string
	targetBefore string
}

var filterFlagNames = []string{"priority", "state", "state-group", "assignee", "label", "created-by", "due-after", "due-before"}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.priority, "priority", nil, "Only these priorities")
	fs.StringSliceVar(&f.state, "state", nil, "Only these states (name or id)")
	fs.StringSliceVar(&f.stateGroup, "state-group", nil, "Only these state groups")
	fs.StringSliceVar(&f.assignees, "assignee", nil, "Only issues assigned to these members")
	fs.StringSliceVar(&f.labels, "label", nil, "Only issues with these labels")
	fs.StringSliceVar(&f.createdBy, "created-by", nil, "Only issues created by these members")
	fs.StringVar(&f.targetAfter, "due-after", "", "Target date on or after YYYY-MM-DD")
	fs.StringVar(&f.targetBefore, "due-before", "", "Target date on or before YYYY-MM-DD")
}

func (f *filterFlags) changed(fs *pflag.FlagSet) bool {
	for _, n := range filterFlagNames {
		if fl := fs.Lookup(n); fl != nil && fl.Changed {
			return true
		}
	}
	return false
}

func (f *filterFlags) apply(fs *pflag.FlagSet, base domain.IssueFilters, lookup domain.Lookup) (domain.IssueFilters, error) {
	out := base
	if fs.Changed("priority") {
		out.Priority = nil
		for _, v := range f.priority {
			p, ok := domain.ParsePriority(v)
			if !ok {
				return out, fmt.Errorf("unknown priority %q", v)
			}
			out.Priority = append(out.Priority, p)
		}
	}
	if fs.Changed("state") {
		out.State = nil
		for _, v := range f.state {
			p, err := views.ParseCell("state", v, lookup)
			if err != nil {
				return out, err
			}
			out.State = append(out.State, *p.StateID)
		}
	}
	if fs.Changed("state-group") {
		out.StateGroup = nil
		for _, v := range f.stateGroup {
			g := domain.StateGroup(strings.ToLower(strings.TrimSpace(v)))
			if domain.StateGroupRank(g) == len(domain.StateGroups) {
				return out, fmt.Errorf("unknown state group %q", v)
			}
			out.StateGroup = append(out.StateGroup, g)
		}
	}
	var err error
	if fs.Changed("assignee") {
		if out.Assignees, err = memberIDs(f.assignees, lookup); err != nil {
			return out, err
		}
	}
	if fs.Changed("created-by") {
		if out.CreatedBy, err = memberIDs(f.createdBy, lookup); err != nil {
			return out, err
		}
	}
	if fs.Changed("label") {
		p, err := views.ParseCell("labels", strings.Join(f.labels, ","), lookup)
		if err != nil {
			return out, err
		}
		out.Labels = *p.Labels
	}
	if fs.Changed("due-after") {
		if out.TargetDate.After, err = domain.ParseDate(f.targetAfter); err != nil {
			return out, fmt.Errorf("invalid --due-after %q (expected YYYY-MM-DD)", f.targetAfter)
		}
	}
	if fs.Changed("due-before") {
		if out.TargetDate.Before, err = domain.ParseDate(f.targetBefore); err != nil {
			return out, fmt.Errorf("invalid --due-before %q (expected YYYY-MM-DD)", f.targetBefore)
		}
	}
	return out.Normalize(), nil
}

func memberIDs(vals []string, lookup domain.Lookup) ([]string, error) {
	p, err := views.ParseCell("assignees", strings.Join(vals, ","), lookup)
	if err != nil {
		return nil, err
	}
	return *p.Assignees, nil
}
