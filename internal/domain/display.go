package domain

import "time"

// DisplayFilters controls how a view arranges issues.
type DisplayFilters struct {
	GroupBy              GroupBy
	OrderBy              OrderBy
	Layout               Layout
	ShowEmptyGroups      bool
	SubIssues            bool
	CalendarShowWeekends bool
	CalendarLayout       CalendarLayout
}

// DefaultDisplayFilters returns the display options of a fresh view.
func DefaultDisplayFilters() DisplayFilters {
	return DisplayFilters{
		GroupBy:              GroupByState,
		OrderBy:              DefaultOrderBy,
		Layout:               LayoutList,
		ShowEmptyGroups:      true,
		SubIssues:            true,
		CalendarShowWeekends: true,
		CalendarLayout:       CalendarMonth,
	}
}

// Normalize replaces unrecognised enum values with their neutral value.
func (d DisplayFilters) Normalize() DisplayFilters {
	d.GroupBy = ParseGroupBy(string(d.GroupBy))
	d.OrderBy = ParseOrderBy(string(d.OrderBy))
	d.Layout = ParseLayout(string(d.Layout))
	if d.CalendarLayout != CalendarWeek {
		d.CalendarLayout = CalendarMonth
	}
	return d
}

// DateRange is an inclusive optional date range. Nil bounds are open.
type DateRange struct {
	After  *time.Time
	Before *time.Time
}

// IsZero reports whether the range has no bounds.
func (r DateRange) IsZero() bool {
	return r.After == nil && r.Before == nil
}

// Contains reports whether t lies inside the range. A nil t is never inside a
// bounded range.
func (r DateRange) Contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	day := t.Format(DateLayout)
	if r.After != nil && day < r.After.Format(DateLayout) {
		return false
	}
	if r.Before != nil && day > r.Before.Format(DateLayout) {
		return false
	}
	return true
}

// IssueFilters restricts which issues a view fetches.
type IssueFilters struct {
	Priority   []Priority
	State      []string
	StateGroup []StateGroup
	Assignees  []string
	Labels     []string
	CreatedBy  []string
	StartDate  DateRange
	TargetDate DateRange
	Search     string
}

// Normalize drops unrecognised priorities and state groups.
func (f IssueFilters) Normalize() IssueFilters {
	var prios []Priority
	for _, p := range f.Priority {
		if pp, ok := ParsePriority(string(p)); ok {
			prios = append(prios, pp)
		}
	}
	f.Priority = prios
	var groups []StateGroup
	for _, g := range f.StateGroup {
		if StateGroupRank(g) < len(StateGroups) {
			groups = append(groups, g)
		}
	}
	f.StateGroup = groups
	return f
}

// IsZero reports whether no filter is set.
func (f IssueFilters) IsZero() bool {
	return len(f.Priority) == 0 && len(f.State) == 0 && len(f.StateGroup) == 0 &&
		len(f.Assignees) == 0 && len(f.Labels) == 0 && len(f.CreatedBy) == 0 &&
		f.StartDate.IsZero() && f.TargetDate.IsZero() && f.Search == ""
}

// Matches reports whether an issue passes every filter except Search, which
// is applied by the caller. stateGroup resolves a state id to its group.
func (f IssueFilters) Matches(i Issue, stateGroup func(string) StateGroup) bool {
	if len(f.Priority) > 0 && !containsPriority(f.Priority, i.Priority) {
		return false
	}
	if len(f.State) > 0 && !containsString(f.State, i.StateID) {
		return false
	}
	if len(f.StateGroup) > 0 {
		if stateGroup == nil || !containsStateGroup(f.StateGroup, stateGroup(i.StateID)) {
			return false
		}
	}
	if len(f.Assignees) > 0 && !intersects(f.Assignees, i.Assignees) {
		return false
	}
	if len(f.Labels) > 0 && !intersects(f.Labels, i.Labels) {
		return false
	}
	if len(f.CreatedBy) > 0 && !containsString(f.CreatedBy, i.CreatedBy) {
		return false
	}
	return f.StartDate.Contains(i.StartDate) && f.TargetDate.Contains(i.TargetDate)
}

// ViewProps is the persisted per-view configuration.
type ViewProps struct {
	Filters        IssueFilters
	DisplayFilters DisplayFilters
}

// Normalize normalises both halves.
func (v ViewProps) Normalize() ViewProps {
	v.Filters = v.Filters.Normalize()
	v.DisplayFilters = v.DisplayFilters.Normalize()
	return v
}

func containsString(haystack []string, s string) bool {
	for _, h := range haystack {
		if h == s {
			return true
		}
	}
	return false
}

func containsPriority(haystack []Priority, p Priority) bool {
	if p == "" {
		p = PriorityNone
	}
	for _, h := range haystack {
		if h == p {
			return true
		}
	}
	return false
}

func containsStateGroup(haystack []StateGroup, g StateGroup) bool {
	for _, h := range haystack {
		if h == g {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if containsString(b, x) {
			return true
		}
	}
	return false
}
