package domain

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Issue struct {
	ID          string
	ProjectID   string
	SequenceID  int
	Name        string
	Description string

	StateID string
	// Group of StateID, denormalised from the state for grouping.
	StateGroup StateGroup
	Priority   Priority
	Assignees  []string
	Labels     []string

	StartDate  *time.Time
	TargetDate *time.Time

	// Manual ordering position; lower sorts first.
	SortOrder float64

	CycleID       string
	ModuleID      string
	ParentID      string
	EstimatePoint *int

	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Clone returns a deep copy of the issue.
func (i Issue) Clone() Issue {
	c := i
	if i.Assignees != nil {
		c.Assignees = append([]string(nil), i.Assignees...)
	}
	if i.Labels != nil {
		c.Labels = append([]string(nil), i.Labels...)
	}
	c.StartDate = cloneTime(i.StartDate)
	c.TargetDate = cloneTime(i.TargetDate)
	c.CompletedAt = cloneTime(i.CompletedAt)
	if i.EstimatePoint != nil {
		v := *i.EstimatePoint
		c.EstimatePoint = &v
	}
	return c
}

// FieldValues returns the values an issue holds for a grouping field. Scalar
// fields yield at most one value; an empty result means the field is unset.
func (i Issue) FieldValues(f Field) []string {
	switch f {
	case FieldState:
		return nonEmpty(i.StateID)
	case FieldPriority:
		if i.Priority == "" {
			return nil
		}
		return []string{string(i.Priority)}
	case FieldAssignees:
		return i.Assignees
	case FieldLabels:
		return i.Labels
	case FieldCreatedBy:
		return nonEmpty(i.CreatedBy)
	case FieldCycle:
		return nonEmpty(i.CycleID)
	case FieldModule:
		return nonEmpty(i.ModuleID)
	case FieldParent:
		return nonEmpty(i.ParentID)
	}
	return nil
}

// FormatDate renders an optional date with DateLayout, or "" when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a DateLayout date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
