package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
)

// issueJSON is the wire shape of an issue.
type issueJSON struct {
	ID            string     `json:"id"`
	Project       string     `json:"project"`
	SequenceID    int        `json:"sequence_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	State         *string    `json:"state"`
	StateDetail   *stateJSON `json:"state_detail,omitempty"`
	Priority      string     `json:"priority"`
	Assignees     []string   `json:"assignees"`
	Labels        []string   `json:"labels"`
	StartDate     *string    `json:"start_date"`
	TargetDate    *string    `json:"target_date"`
	SortOrder     float64    `json:"sort_order"`
	Cycle         *string    `json:"cycle"`
	Module        *string    `json:"module"`
	Parent        *string    `json:"parent"`
	EstimatePoint *int       `json:"estimate_point"`
	CreatedBy     *string    `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type stateJSON struct {
	ID       string  `json:"id"`
	Project  string  `json:"project"`
	Name     string  `json:"name"`
	Group    string  `json:"group"`
	Color    string  `json:"color"`
	Sequence float64 `json:"sequence"`
}

type labelJSON struct {
	ID      string `json:"id"`
	Project string `json:"project"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

type memberJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type projectJSON struct {
	ID         string `json:"id"`
	Workspace  string `json:"workspace"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

func (w issueJSON) toDomain() (domain.Issue, error) {
	start, err := domain.ParseDate(deref(w.StartDate))
	if err != nil {
		return domain.Issue{}, fmt.Errorf("issue %s start_date: %w", w.ID, err)
	}
	target, err := domain.ParseDate(deref(w.TargetDate))
	if err != nil {
		return domain.Issue{}, fmt.Errorf("issue %s target_date: %w", w.ID, err)
	}
	prio, ok := domain.ParsePriority(w.Priority)
	if !ok {
		prio = domain.PriorityNone
	}
	i := domain.Issue{
		ID:            w.ID,
		ProjectID:     w.Project,
		SequenceID:    w.SequenceID,
		Name:          w.Name,
		Description:   w.Description,
		StateID:       deref(w.State),
		Priority:      prio,
		Assignees:     w.Assignees,
		Labels:        w.Labels,
		StartDate:     start,
		TargetDate:    target,
		SortOrder:     w.SortOrder,
		CycleID:       deref(w.Cycle),
		ModuleID:      deref(w.Module),
		ParentID:      deref(w.Parent),
		EstimatePoint: w.EstimatePoint,
		CreatedBy:     deref(w.CreatedBy),
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		CompletedAt:   w.CompletedAt,
	}
	if w.StateDetail != nil {
		i.StateGroup = domain.StateGroup(w.StateDetail.Group)
	}
	return i, nil
}

func (w stateJSON) toDomain() domain.State {
	return domain.State{
		ID:        w.ID,
		ProjectID: w.Project,
		Name:      w.Name,
		Group:     domain.StateGroup(w.Group),
		Color:     w.Color,
		Sequence:  w.Sequence,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// viewPropsJSON is the wire shape of persisted view options.
type viewPropsJSON struct {
	Filters        filtersJSON         `json:"filters"`
	DisplayFilters *displayFiltersJSON `json:"display_filters"`
}

type filtersJSON struct {
	Priority   []string `json:"priority,omitempty"`
	State      []string `json:"state,omitempty"`
	StateGroup []string `json:"state_group,omitempty"`
	Assignees  []string `json:"assignees,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	CreatedBy  []string `json:"created_by,omitempty"`
	StartDate  []string `json:"start_date,omitempty"`
	TargetDate []string `json:"target_date,omitempty"`
}

type displayFiltersJSON struct {
	GroupBy         *string       `json:"group_by"`
	OrderBy         string        `json:"order_by,omitempty"`
	Layout          string        `json:"layout,omitempty"`
	ShowEmptyGroups *bool         `json:"show_empty_groups,omitempty"`
	SubIssue        *bool         `json:"sub_issue,omitempty"`
	Calendar        *calendarJSON `json:"calendar,omitempty"`
}

type calendarJSON struct {
	ShowWeekends bool   `json:"show_weekends"`
	Layout       string `json:"layout"`
}

// EncodeViewProps renders view props in their wire form.
func EncodeViewProps(p domain.ViewProps) ([]byte, error) {
	d := p.DisplayFilters
	var groupBy *string
	if d.GroupBy != domain.GroupByNone {
		g := string(d.GroupBy)
		groupBy = &g
	}
	w := viewPropsJSON{
		Filters: filtersJSON{
			Priority:   priorityStrings(p.Filters.Priority),
			State:      p.Filters.State,
			StateGroup: stateGroupStrings(p.Filters.StateGroup),
			Assignees:  p.Filters.Assignees,
			Labels:     p.Filters.Labels,
			CreatedBy:  p.Filters.CreatedBy,
			StartDate:  encodeDateRange(p.Filters.StartDate),
			TargetDate: encodeDateRange(p.Filters.TargetDate),
		},
		DisplayFilters: &displayFiltersJSON{
			GroupBy:         groupBy,
			OrderBy:         string(d.OrderBy),
			Layout:          string(d.Layout),
			ShowEmptyGroups: &d.ShowEmptyGroups,
			SubIssue:        &d.SubIssues,
			Calendar: &calendarJSON{
				ShowWeekends: d.CalendarShowWeekends,
				Layout:       string(d.CalendarLayout),
			},
		},
	}
	return json.Marshal(w)
}

// DecodeViewProps parses wire view props. Missing display options take their
// defaults and unknown enum values are normalised away.
func DecodeViewProps(data []byte) (domain.ViewProps, error) {
	var w viewPropsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.ViewProps{}, fmt.Errorf("decoding view props: %w", err)
	}
	d := domain.DefaultDisplayFilters()
	wd := displayFiltersJSON{GroupBy: (*string)(&d.GroupBy)}
	if w.DisplayFilters != nil {
		wd = *w.DisplayFilters
	}
	// An explicit null group_by turns grouping off.
	if wd.GroupBy != nil {
		d.GroupBy = domain.GroupBy(*wd.GroupBy)
	} else {
		d.GroupBy = domain.GroupByNone
	}
	if wd.OrderBy != "" {
		d.OrderBy = domain.OrderBy(wd.OrderBy)
	}
	if wd.Layout != "" {
		d.Layout = domain.Layout(wd.Layout)
	}
	if wd.ShowEmptyGroups != nil {
		d.ShowEmptyGroups = *wd.ShowEmptyGroups
	}
	if wd.SubIssue != nil {
		d.SubIssues = *wd.SubIssue
	}
	if wd.Calendar != nil {
		d.CalendarShowWeekends = wd.Calendar.ShowWeekends
		d.CalendarLayout = domain.CalendarLayout(wd.Calendar.Layout)
	}

	var f domain.IssueFilters
	for _, p := range w.Filters.Priority {
		f.Priority = append(f.Priority, domain.Priority(p))
	}
	for _, g := range w.Filters.StateGroup {
		f.StateGroup = append(f.StateGroup, domain.StateGroup(g))
	}
	f.State = w.Filters.State
	f.Assignees = w.Filters.Assignees
	f.Labels = w.Filters.Labels
	f.CreatedBy = w.Filters.CreatedBy
	f.StartDate = decodeDateRange(w.Filters.StartDate)
	f.TargetDate = decodeDateRange(w.Filters.TargetDate)

	return domain.ViewProps{Filters: f, DisplayFilters: d}.Normalize(), nil
}

// encodeDateRange renders a range as ["2024-01-01;after", "2024-02-01;before"].
func encodeDateRange(r domain.DateRange) []string {
	var out []string
	if r.After != nil {
		out = append(out, r.After.Format(domain.DateLayout)+";after")
	}
	if r.Before != nil {
		out = append(out, r.Before.Format(domain.DateLayout)+";before")
	}
	return out
}

func decodeDateRange(parts []string) domain.DateRange {
	var r domain.DateRange
	for _, p := range parts {
		date, dir, _ := strings.Cut(p, ";")
		t, err := domain.ParseDate(date)
		if err != nil || t == nil {
			continue
		}
		switch dir {
		case "after":
			r.After = t
		case "before":
			r.Before = t
		}
	}
	return r
}

// EncodeIssueQuery serialises filters and display options as query
// parameters. List values are comma-separated.
func EncodeIssueQuery(f domain.IssueFilters, d domain.DisplayFilters) url.Values {
	q := url.Values{}
	setList := func(name string, vals []string) {
		if len(vals) > 0 {
			q.Set(name, strings.Join(vals, ","))
		}
	}
	setList("priority", priorityStrings(f.Priority))
	setList("state", f.State)
	setList("state_group", stateGroupStrings(f.StateGroup))
	setList("assignees", f.Assignees)
	setList("labels", f.Labels)
	setList("created_by", f.CreatedBy)
	setList("start_date", encodeDateRange(f.StartDate))
	setList("target_date", encodeDateRange(f.TargetDate))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if d.GroupBy != domain.GroupByNone {
		q.Set("group_by", string(d.GroupBy))
	}
	if d.OrderBy != "" {
		q.Set("order_by", string(d.OrderBy))
	}
	if d.Layout != "" {
		q.Set("layout", string(d.Layout))
	}
	if !d.SubIssues {
		q.Set("sub_issue", "false")
	}
	return q
}

func priorityStrings(ps []domain.Priority) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, string(p))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stateGroupStrings(gs []domain.StateGroup) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, string(g))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
