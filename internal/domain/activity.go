package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Activity is one entry of an issue's history. The set of implementations is
// closed; FormatActivity switches over all of them.
type Activity interface {
	Meta() ActivityMeta
	isActivity()
}

// ActivityMeta holds the fields every activity carries.
type ActivityMeta struct {
	ID        string
	IssueID   string
	Actor     string
	CreatedAt time.Time
}

func (m ActivityMeta) Meta() ActivityMeta { return m }
func (ActivityMeta) isActivity()          {}

type (
	IssueCreated struct{ ActivityMeta }
	IssueDeleted struct{ ActivityMeta }

	NameChanged struct {
		ActivityMeta
		Old, New string
	}
	DescriptionChanged struct{ ActivityMeta }
	StateChanged       struct {
		ActivityMeta
		Old, New string
	}
	PriorityChanged struct {
		ActivityMeta
		Old, New Priority
	}
	AssigneesChanged struct {
		ActivityMeta
		Added, Removed []string
	}
	LabelsChanged struct {
		ActivityMeta
		Added, Removed []string
	}
	StartDateChanged struct {
		ActivityMeta
		Old, New *time.Time
	}
	TargetDateChanged struct {
		ActivityMeta
		Old, New *time.Time
	}
	CycleChanged struct {
		ActivityMeta
		Old, New string
	}
	ModuleChanged struct {
		ActivityMeta
		Old, New string
	}
	ParentChanged struct {
		ActivityMeta
		Old, New string
	}
	EstimateChanged struct {
		ActivityMeta
		Old, New *int
	}
	CommentAdded struct {
		ActivityMeta
		Comment string
	}
)

// ActivityRecord is the flat wire and storage shape of an activity.
type ActivityRecord struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue"`
	Actor     string    `json:"actor"`
	Verb      string    `json:"verb"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// DecodeActivity converts a record to its variant. Records with a field this
// client does not know are reported with ok=false and should be skipped.
func DecodeActivity(r ActivityRecord) (Activity, bool) {
	m := ActivityMeta{ID: r.ID, IssueID: r.IssueID, Actor: r.Actor, CreatedAt: r.CreatedAt}
	switch r.Field {
	case "":
		switch r.Verb {
		case "created":
			return IssueCreated{m}, true
		case "deleted":
			return IssueDeleted{m}, true
		}
		return nil, false
	case "name":
		return NameChanged{m, r.OldValue, r.NewValue}, true
	case "description":
		return DescriptionChanged{m}, true
	case "state":
		return StateChanged{m, r.OldValue, r.NewValue}, true
	case "priority":
		return PriorityChanged{m, Priority(r.OldValue), Priority(r.NewValue)}, true
	case "assignees":
		return AssigneesChanged{m, splitList(r.NewValue), splitList(r.OldValue)}, true
	case "labels":
		return LabelsChanged{m, splitList(r.NewValue), splitList(r.OldValue)}, true
	case "start_date":
		return StartDateChanged{m, parseDateOrNil(r.OldValue), parseDateOrNil(r.NewValue)}, true
	case "target_date":
		return TargetDateChanged{m, parseDateOrNil(r.OldValue), parseDateOrNil(r.NewValue)}, true
	case "cycle":
		return CycleChanged{m, r.OldValue, r.NewValue}, true
	case "module":
		return ModuleChanged{m, r.OldValue, r.NewValue}, true
	case "parent":
		return ParentChanged{m, r.OldValue, r.NewValue}, true
	case "estimate_point":
		return EstimateChanged{m, parseIntOrNil(r.OldValue), parseIntOrNil(r.NewValue)}, true
	case "comment":
		return CommentAdded{m, r.Comment}, true
	}
	return nil, false
}

// EncodeActivity converts a variant back to its flat record.
func EncodeActivity(a Activity) ActivityRecord {
	m := a.Meta()
	r := ActivityRecord{ID: m.ID, IssueID: m.IssueID, Actor: m.Actor, CreatedAt: m.CreatedAt, Verb: "updated"}
	switch v := a.(type) {
	case IssueCreated:
		r.Verb = "created"
	case IssueDeleted:
		r.Verb = "deleted"
	case NameChanged:
		r.Field, r.OldValue, r.NewValue = "name", v.Old, v.New
	case DescriptionChanged:
		r.Field = "description"
	case StateChanged:
		r.Field, r.OldValue, r.NewValue = "state", v.Old, v.New
	case PriorityChanged:
		r.Field, r.OldValue, r.NewValue = "priority", string(v.Old), string(v.New)
	case AssigneesChanged:
		r.Field, r.OldValue, r.NewValue = "assignees", strings.Join(v.Removed, ","), strings.Join(v.Added, ",")
	case LabelsChanged:
		r.Field, r.OldValue, r.NewValue = "labels", strings.Join(v.Removed, ","), strings.Join(v.Added, ",")
	case StartDateChanged:
		r.Field, r.OldValue, r.NewValue = "start_date", FormatDate(v.Old), FormatDate(v.New)
	case TargetDateChanged:
		r.Field, r.OldValue, r.NewValue = "target_date", FormatDate(v.Old), FormatDate(v.New)
	case CycleChanged:
		r.Field, r.OldValue, r.NewValue = "cycle", v.Old, v.New
	case ModuleChanged:
		r.Field, r.OldValue, r.NewValue = "module", v.Old, v.New
	case ParentChanged:
		r.Field, r.OldValue, r.NewValue = "parent", v.Old, v.New
	case EstimateChanged:
		r.Field, r.OldValue, r.NewValue = "estimate_point", formatIntPtr(v.Old), formatIntPtr(v.New)
	case CommentAdded:
		r.Verb, r.Field, r.Comment = "created", "comment", v.Comment
	}
	return r
}

// FormatActivity renders the activity as a sentence fragment following the
// actor's name, e.g. "set the priority to High".
func FormatActivity(a Activity, l Lookup) string {
	switch v := a.(type) {
	case IssueCreated:
		return "created the issue"
	case IssueDeleted:
		return "deleted the issue"
	case NameChanged:
		return fmt.Sprintf("set the name to %q", v.New)
	case DescriptionChanged:
		return "updated the description"
	case StateChanged:
		return "set the state to " + l.StateName(v.New)
	case PriorityChanged:
		if v.New == "" || v.New == PriorityNone {
			return "removed the priority"
		}
		return "set the priority to " + Title(string(v.New))
	case AssigneesChanged:
		return setChange("assignee", v.Added, v.Removed, l.MemberName)
	case LabelsChanged:
		return setChange("label", v.Added, v.Removed, l.LabelName)
	case StartDateChanged:
		return dateChange("start date", v.New)
	case TargetDateChanged:
		return dateChange("due date", v.New)
	case CycleChanged:
		if v.New == "" {
			return "removed the issue from the cycle"
		}
		return "added the issue to the cycle " + v.New
	case ModuleChanged:
		if v.New == "" {
			return "removed the issue from the module"
		}
		return "added the issue to the module " + v.New
	case ParentChanged:
		if v.New == "" {
			return "removed the parent"
		}
		return "set the parent to " + v.New
	case EstimateChanged:
		if v.New == nil {
			return "removed the estimate point"
		}
		return "set the estimate point to " + strconv.Itoa(*v.New)
	case CommentAdded:
		return "commented: " + v.Comment
	default:
		return ""
	}
}

func setChange(noun string, added, removed []string, name func(string) string) string {
	var parts []string
	for _, id := range added {
		parts = append(parts, fmt.Sprintf("added %s %s", noun, name(id)))
	}
	for _, id := range removed {
		parts = append(parts, fmt.Sprintf("removed %s %s", noun, name(id)))
	}
	if len(parts) == 0 {
		return "updated the " + noun + "s"
	}
	return strings.Join(parts, ", ")
}

func dateChange(noun string, t *time.Time) string {
	if t == nil {
		return "removed the " + noun
	}
	return "set the " + noun + " to " + t.Format("Jan 02, 2006")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseDateOrNil(s string) *time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return t
}

func parseIntOrNil(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func formatIntPtr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
