package domain

import (
	"encoding/json"
	"time"
)

// OptionalDate is a patch value for a nullable date. A nil Value clears the
// date.
type OptionalDate struct {
	Value *time.Time
}

// SetDate returns a patch value that sets a date.
func SetDate(t time.Time) *OptionalDate {
	return &OptionalDate{Value: &t}
}

// ClearDate returns a patch value that removes a date.
func ClearDate() *OptionalDate {
	return &OptionalDate{}
}

// IssuePatch is a partial issue update. Nil fields are left untouched.
type IssuePatch struct {
	Name          *string
	Description   *string
	StateID       *string
	Priority      *Priority
	Assignees     *[]string
	Labels        *[]string
	StartDate     *OptionalDate
	TargetDate    *OptionalDate
	SortOrder     *float64
	CycleID       *string
	ModuleID      *string
	ParentID      *string
	EstimatePoint *int
}

// Fields returns the touched fields in a stable order.
func (p IssuePatch) Fields() []Field {
	var out []Field
	add := func(set bool, f Field) {
		if set {
			out = append(out, f)
		}
	}
	add(p.Name != nil, FieldName)
	add(p.Description != nil, FieldDescription)
	add(p.StateID != nil, FieldState)
	add(p.Priority != nil, FieldPriority)
	add(p.Assignees != nil, FieldAssignees)
	add(p.Labels != nil, FieldLabels)
	add(p.StartDate != nil, FieldStartDate)
	add(p.TargetDate != nil, FieldTargetDate)
	add(p.SortOrder != nil, FieldSortOrder)
	add(p.CycleID != nil, FieldCycle)
	add(p.ModuleID != nil, FieldModule)
	add(p.ParentID != nil, FieldParent)
	add(p.EstimatePoint != nil, FieldEstimatePoint)
	return out
}

// IsEmpty reports whether the patch touches nothing.
func (p IssuePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Touches reports whether the patch sets the given field.
func (p IssuePatch) Touches(f Field) bool {
	if f == "" {
		return false
	}
	for _, pf := range p.Fields() {
		if pf == f {
			return true
		}
	}
	return false
}

// Apply returns a copy of the issue with the patch merged in. The input is
// not modified.
func (p IssuePatch) Apply(i Issue) Issue {
	out := i.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.StateID != nil {
		out.StateID = *p.StateID
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Assignees != nil {
		out.Assignees = append([]string{}, (*p.Assignees)...)
	}
	if p.Labels != nil {
		out.Labels = append([]string{}, (*p.Labels)...)
	}
	if p.StartDate != nil {
		out.StartDate = cloneTime(p.StartDate.Value)
	}
	if p.TargetDate != nil {
		out.TargetDate = cloneTime(p.TargetDate.Value)
	}
	if p.SortOrder != nil {
		out.SortOrder = *p.SortOrder
	}
	if p.CycleID != nil {
		out.CycleID = *p.CycleID
	}
	if p.ModuleID != nil {
		out.ModuleID = *p.ModuleID
	}
	if p.ParentID != nil {
		out.ParentID = *p.ParentID
	}
	if p.EstimatePoint != nil {
		v := *p.EstimatePoint
		out.EstimatePoint = &v
	}
	return out
}

// MarshalJSON emits only the touched fields. Cleared dates and empty
// references are sent as null.
func (p IssuePatch) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.StateID != nil {
		m["state"] = nullIfEmpty(*p.StateID)
	}
	if p.Priority != nil {
		m["priority"] = string(*p.Priority)
	}
	if p.Assignees != nil {
		m["assignees"] = nonNilSlice(*p.Assignees)
	}
	if p.Labels != nil {
		m["labels"] = nonNilSlice(*p.Labels)
	}
	if p.StartDate != nil {
		m["start_date"] = dateOrNull(p.StartDate.Value)
	}
	if p.TargetDate != nil {
		m["target_date"] = dateOrNull(p.TargetDate.Value)
	}
	if p.SortOrder != nil {
		m["sort_order"] = *p.SortOrder
	}
	if p.CycleID != nil {
		m["cycle"] = nullIfEmpty(*p.CycleID)
	}
	if p.ModuleID != nil {
		m["module"] = nullIfEmpty(*p.ModuleID)
	}
	if p.ParentID != nil {
		m["parent"] = nullIfEmpty(*p.ParentID)
	}
	if p.EstimatePoint != nil {
		m["estimate_point"] = *p.EstimatePoint
	}
	return json.Marshal(m)
}

// SetGroupValue sets the field read by a grouping to the value of a group key.
// For multi-valued fields the key replaces `from` in the current set, or is
// added when `from` is the "none" key. Dropping onto the "none" key empties
// the set so the issue lands in that group alone. It reports false for
// groupings that cannot be written, such as creator or state group.
func (p *IssuePatch) SetGroupValue(g GroupBy, current Issue, from, to, noneKey string) bool {
	value := to
	if to == noneKey {
		value = ""
	}
	switch g {
	case GroupByState:
		if value == "" {
			return false
		}
		p.StateID = &value
	case GroupByPriority:
		pr := Priority(value)
		if value == "" {
			pr = PriorityNone
		}
		p.Priority = &pr
	case GroupByCycle:
		p.CycleID = &value
	case GroupByModule:
		p.ModuleID = &value
	case GroupByAssignees:
		next := replaceMember(current.Assignees, from, value, noneKey)
		p.Assignees = &next
	case GroupByLabels:
		next := replaceMember(current.Labels, from, value, noneKey)
		p.Labels = &next
	default:
		return false
	}
	return true
}

func replaceMember(values []string, from, to, noneKey string) []string {
	if to == "" {
		return []string{}
	}
	out := make([]string, 0, len(values)+1)
	for _, v := range values {
		if v == from && from != noneKey {
			continue
		}
		if v == to {
			continue
		}
		out = append(out, v)
	}
	return append(out, to)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
