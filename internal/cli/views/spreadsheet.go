package views

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
)

// SpreadsheetColumns are the spreadsheet columns in display order. All but
// "key" are editable.
var SpreadsheetColumns = []string{"key", "name", "state", "priority", "assignees", "labels", "start_date", "target_date", "estimate"}

// ErrReadOnlyColumn is returned for an edit of a column that cannot be set.
var ErrReadOnlyColumn = errors.New("column is read-only")

// Spreadsheet shows issues as one flat table.
type Spreadsheet struct {
	base
}

func NewSpreadsheet(ctl service.IssueListController, lookup domain.Lookup) *Spreadsheet {
	return &Spreadsheet{base: newBase(ctl, lookup)}
}

func (s *Spreadsheet) Layout() domain.Layout { return domain.LayoutSpreadsheet }

// Rows returns one plain row per issue, in group order, cells matching
// SpreadsheetColumns.
func (s *Spreadsheet) Rows() [][]string {
	issues := Flatten(s.ctl.Group())
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, s.cells(is))
	}
	return rows
}

func (s *Spreadsheet) cells(is domain.Issue) []string {
	assignees := make([]string, len(is.Assignees))
	for i, a := range is.Assignees {
		assignees[i] = s.lookup.MemberName(a)
	}
	labels := make([]string, len(is.Labels))
	for i, l := range is.Labels {
		labels[i] = s.lookup.LabelName(l)
	}
	estimate := ""
	if is.EstimatePoint != nil {
		estimate = strconv.Itoa(*is.EstimatePoint)
	}
	return []string{
		s.issueKey(is),
		is.Name,
		s.lookup.StateName(is.StateID),
		string(is.Priority),
		strings.Join(assignees, ", "),
		strings.Join(labels, ", "),
		domain.FormatDate(is.StartDate),
		domain.FormatDate(is.TargetDate),
		estimate,
	}
}

// Edit parses an inline cell edit and updates the issue.
func (s *Spreadsheet) Edit(ctx context.Context, issueID, column, value string) error {
	patch, err := ParseCell(column, value, s.lookup)
	if err != nil {
		return err
	}
	return s.ctl.UpdateIssue(ctx, issueID, patch)
}

func (s *Spreadsheet) Render(width int) string {
	rows := s.Rows()
	if len(rows) == 0 {
		return formatter.Dim("No issues.") + "\n"
	}
	headers := make([]string, len(SpreadsheetColumns))
	for i, c := range SpreadsheetColumns {
		headers[i] = strings.ToUpper(strings.ReplaceAll(c, "_", " "))
	}
	maxCol := width / 4
	if maxCol < 12 {
		maxCol = 12
	}
	return formatter.RenderTableMax(headers, rows, maxCol)
}

// ParseCell turns a column and typed value into a patch. States, labels and
// members are matched by id, then by name: an exact match wins over a
// case-insensitive one, and ties go to the first in display order. An empty
// value clears the list and date columns and leaves the estimate unchanged.
func ParseCell(column, value string, lookup domain.Lookup) (domain.IssuePatch, error) {
	value = strings.TrimSpace(value)
	var p domain.IssuePatch
	switch column {
	case "name":
		if value == "" {
			return p, fmt.Errorf("name cannot be empty")
		}
		p.Name = &value
	case "state":
		id, ok := matchState(value, lookup)
		if !ok {
			return p, fmt.Errorf("unknown state %q", value)
		}
		p.StateID = &id
	case "priority":
		pr := domain.PriorityNone
		if value != "" {
			var ok bool
			if pr, ok = domain.ParsePriority(value); !ok {
				return p, fmt.Errorf("unknown priority %q", value)
			}
		}
		p.Priority = &pr
	case "assignees":
		ids, err := matchList(value, "member", func(v string) (string, bool) { return matchMember(v, lookup) })
		if err != nil {
			return p, err
		}
		p.Assignees = &ids
	case "labels":
		ids, err := matchList(value, "label", func(v string) (string, bool) { return matchLabel(v, lookup) })
		if err != nil {
			return p, err
		}
		p.Labels = &ids
	case "start_date", "target_date":
		od := domain.ClearDate()
		if value != "" {
			t, err := domain.ParseDate(value)
			if err != nil {
				return p, fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", column, value)
			}
			od = domain.SetDate(*t)
		}
		if column == "start_date" {
			p.StartDate = od
		} else {
			p.TargetDate = od
		}
	case "estimate":
		// Estimates can be changed but not cleared.
		if value == "" {
			return p, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return p, fmt.Errorf("invalid estimate %q", value)
		}
		p.EstimatePoint = &n
	case "key":
		return p, fmt.Errorf("%s: %w", column, ErrReadOnlyColumn)
	default:
		return p, fmt.Errorf("unknown column %q", column)
	}
	return p, nil
}

func matchList(value, noun string, match func(string) (string, bool)) ([]string, error) {
	ids := []string{}
	if value == "" {
		return ids, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ok := match(part)
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", noun, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func matchState(v string, l domain.Lookup) (string, bool) {
	if _, ok := l.States[v]; ok {
		return v, true
	}
	states := make([]domain.State, 0, len(l.States))
	for _, st := range l.States {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Sequence != states[j].Sequence {
			return states[i].Sequence < states[j].Sequence
		}
		return states[i].ID < states[j].ID
	})
	return matchName(v, len(states), func(i int) (string, []string) {
		return states[i].ID, []string{states[i].Name}
	})
}

func matchLabel(v string, l domain.Lookup) (string, bool) {
	if _, ok := l.Labels[v]; ok {
		return v, true
	}
	ids := sortedKeys(l.Labels)
	return matchName(v, len(ids), func(i int) (string, []string) {
		return ids[i], []string{l.Labels[ids[i]].Name}
	})
}

func matchMember(v string, l domain.Lookup) (string, bool) {
	if _, ok := l.Members[v]; ok {
		return v, true
	}
	ids := sortedKeys(l.Members)
	return matchName(v, len(ids), func(i int) (string, []string) {
		m := l.Members[ids[i]]
		return ids[i], []string{m.DisplayName, m.Email}
	})
}

// matchName walks n candidates in order and returns the first whose name
// equals v exactly, falling back to the first case-insensitive match.
func matchName(v string, n int, candidate func(i int) (id string, names []string)) (string, bool) {
	fold := ""
	for i := 0; i < n; i++ {
		id, names := candidate(i)
		for _, name := range names {
			if name == v {
				return id, true
			}
			if fold == "" && strings.EqualFold(name, v) {
				fold = id
			}
		}
	}
	return fold, fold != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
