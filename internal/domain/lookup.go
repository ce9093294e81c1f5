package domain

// Lookup resolves project metadata ids to display values.
type Lookup struct {
	States  map[string]State
	Labels  map[string]Label
	Members map[string]Member
}

// NewLookup indexes states, labels and members by id.
func NewLookup(states []State, labels []Label, members []Member) Lookup {
	l := Lookup{
		States:  make(map[string]State, len(states)),
		Labels:  make(map[string]Label, len(labels)),
		Members: make(map[string]Member, len(members)),
	}
	for _, s := range states {
		l.States[s.ID] = s
	}
	for _, lb := range labels {
		l.Labels[lb.ID] = lb
	}
	for _, m := range members {
		l.Members[m.ID] = m
	}
	return l
}

// StateName returns the state's name, the raw id when unknown, or "None".
func (l Lookup) StateName(id string) string {
	if id == "" {
		return "None"
	}
	if s, ok := l.States[id]; ok {
		return s.Name
	}
	return id
}

// StateGroup returns the group of a state, or backlog when unknown.
func (l Lookup) StateGroup(id string) StateGroup {
	if s, ok := l.States[id]; ok {
		return s.Group
	}
	return StateBacklog
}

func (l Lookup) LabelName(id string) string {
	if id == "" {
		return "None"
	}
	if lb, ok := l.Labels[id]; ok {
		return lb.Name
	}
	return id
}

func (l Lookup) MemberName(id string) string {
	if id == "" {
		return "None"
	}
	if m, ok := l.Members[id]; ok {
		return CoalesceStr(m.DisplayName, m.Email, id)
	}
	return id
}

// GroupTitle renders a group key for display under the given grouping.
func (l Lookup) GroupTitle(g GroupBy, key, noneKey string) string {
	if key == noneKey {
		return "None"
	}
	switch g {
	case GroupByState:
		return l.StateName(key)
	case GroupByLabels:
		return l.LabelName(key)
	case GroupByAssignees, GroupByCreatedBy:
		return l.MemberName(key)
	case GroupByPriority, GroupByStateGroup:
		return Title(key)
	}
	return key
}

// Title upper-cases the first letter of s.
func Title(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
