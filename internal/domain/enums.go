package domain

import "strings"

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityNone}

// PriorityRank returns a sort rank (lower = more urgent). Unknown and empty
// priorities rank with "none".
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// ParsePriority maps a string to a Priority, case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return p, true
	}
	return "", false
}

type StateGroup string

const (
	StateBacklog   StateGroup = "backlog"
	StateUnstarted StateGroup = "unstarted"
	StateStarted   StateGroup = "started"
	StateCompleted StateGroup = "completed"
	StateCancelled StateGroup = "cancelled"
)

// StateGroups lists every state group in workflow order.
var StateGroups = []StateGroup{StateBacklog, StateUnstarted, StateStarted, StateCompleted, StateCancelled}

// StateGroupRank returns the workflow position of a state group.
func StateGroupRank(g StateGroup) int {
	for i, sg := range StateGroups {
		if sg == g {
			return i
		}
	}
	return len(StateGroups)
}

// GroupBy names the issue field a view buckets issues by. The empty value
// means no grouping.
type GroupBy string

const (
	GroupByNone       GroupBy = ""
	GroupByState      GroupBy = "state"
	GroupByStateGroup GroupBy = "state_detail.group"
	GroupByPriority   GroupBy = "priority"
	GroupByLabels     GroupBy = "labels"
	GroupByAssignees  GroupBy = "assignees"
	GroupByCreatedBy  GroupBy = "created_by"
	GroupByCycle      GroupBy = "cycle"
	GroupByModule     GroupBy = "module"
)

// ParseGroupBy maps a string to a GroupBy. Unknown values, "none" and "null"
// all mean no grouping.
func ParseGroupBy(s string) GroupBy {
	g := GroupBy(strings.TrimSpace(s))
	switch g {
	case GroupByState, GroupByStateGroup, GroupByPriority, GroupByLabels,
		GroupByAssignees, GroupByCreatedBy, GroupByCycle, GroupByModule:
		return g
	}
	return GroupByNone
}

// IsMultiValued reports whether an issue can belong to several groups.
func (g GroupBy) IsMultiValued() bool {
	return g == GroupByLabels || g == GroupByAssignees
}

// Field returns the issue field a grouping reads.
func (g GroupBy) Field() Field {
	switch g {
	case GroupByState, GroupByStateGroup:
		return FieldState
	case GroupByPriority:
		return FieldPriority
	case GroupByLabels:
		return FieldLabels
	case GroupByAssignees:
		return FieldAssignees
	case GroupByCreatedBy:
		return FieldCreatedBy
	case GroupByCycle:
		return FieldCycle
	case GroupByModule:
		return FieldModule
	default:
		return ""
	}
}

// OrderBy names the within-group ordering. A leading "-" means descending.
type OrderBy string

const (
	OrderManual      OrderBy = "sort_order"
	OrderCreated     OrderBy = "created_at"
	OrderLastCreated OrderBy = "-created_at"
	OrderUpdated     OrderBy = "updated_at"
	OrderLastUpdated OrderBy = "-updated_at"
	OrderStartDate   OrderBy = "start_date"
	OrderTargetDate  OrderBy = "target_date"
	OrderPriority    OrderBy = "priority"
	OrderName        OrderBy = "name"
	OrderSequence    OrderBy = "sequence_id"
)

// DefaultOrderBy is used whenever an ordering is missing or unrecognised.
const DefaultOrderBy = OrderLastCreated

var orderFields = map[string]Field{
	"sort_order":  FieldSortOrder,
	"created_at":  FieldCreatedAt,
	"updated_at":  FieldUpdatedAt,
	"start_date":  FieldStartDate,
	"target_date": FieldTargetDate,
	"priority":    FieldPriority,
	"name":        FieldName,
	"sequence_id": FieldSequenceID,
}

// ParseOrderBy maps a string to an OrderBy, falling back to DefaultOrderBy.
func ParseOrderBy(s string) OrderBy {
	o := OrderBy(strings.TrimSpace(s))
	if _, ok := orderFields[strings.TrimPrefix(string(o), "-")]; ok {
		return o
	}
	return DefaultOrderBy
}

// Descending reports whether the ordering is reversed.
func (o OrderBy) Descending() bool {
	return strings.HasPrefix(string(o), "-")
}

// Field returns the issue field the ordering projects.
func (o OrderBy) Field() Field {
	return orderFields[strings.TrimPrefix(string(o), "-")]
}

// IsManual reports whether the ordering is the manual sort_order.
func (o OrderBy) IsManual() bool {
	return o == OrderManual
}

type Layout string

const (
	LayoutList        Layout = "list"
	LayoutKanban      Layout = "kanban"
	LayoutCalendar    Layout = "calendar"
	LayoutSpreadsheet Layout = "spreadsheet"
)

// ParseLayout maps a string to a Layout, falling back to the list layout.
func ParseLayout(s string) Layout {
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LayoutList, LayoutKanban, LayoutCalendar, LayoutSpreadsheet:
		return l
	case "board":
		return LayoutKanban
	}
	return LayoutList
}

type CalendarLayout string

const (
	CalendarMonth CalendarLayout = "month"
	CalendarWeek  CalendarLayout = "week"
)

// Field identifies an issue attribute touched by a patch or projected by an
// ordering.
type Field string

const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldState         Field = "state"
	FieldPriority      Field = "priority"
	FieldAssignees     Field = "assignees"
	FieldLabels        Field = "labels"
	FieldStartDate     Field = "start_date"
	FieldTargetDate    Field = "target_date"
	FieldSortOrder     Field = "sort_order"
	FieldCycle         Field = "cycle"
	FieldModule        Field = "module"
	FieldParent        Field = "parent"
	FieldEstimatePoint Field = "estimate_point"
	FieldCreatedBy     Field = "created_by"
	FieldCreatedAt     Field = "created_at"
	FieldUpdatedAt     Field = "updated_at"
	FieldSequenceID    Field = "sequence_id"
)
