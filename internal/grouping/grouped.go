// Package grouping buckets issues for board, list and spreadsheet views and
// patches the buckets optimistically when a single issue changes.
package grouping

import (
	"reflect"

	"github.com/alexanderramin/trackboard/internal/domain"
)

const (
	// AllKey names the single implicit group used when nothing is grouped.
	AllKey = "all"
	// NoneKey collects issues with no value for the grouped field.
	NoneKey = "none"
)

// Grouped maps group keys to ordered issue sequences. Keys holds the display
// order; every key in Keys is present in Groups.
type Grouped struct {
	Keys   []string
	Groups map[string][]domain.Issue
}

// Position addresses one issue inside a grouped collection.
type Position struct {
	Key   string
	Index int
}

// Len returns the number of groups.
func (g Grouped) Len() int {
	return len(g.Keys)
}

// Total returns the number of group memberships. Fanned-out issues count once
// per group.
func (g Grouped) Total() int {
	n := 0
	for _, k := range g.Keys {
		n += len(g.Groups[k])
	}
	return n
}

// Issues returns the issues of one group, or nil for an unknown key.
func (g Grouped) Issues(key string) []domain.Issue {
	return g.Groups[key]
}

// Find returns every position of an issue, in key order.
func (g Grouped) Find(issueID string) []Position {
	var out []Position
	for _, k := range g.Keys {
		for i, is := range g.Groups[k] {
			if is.ID == issueID {
				out = append(out, Position{Key: k, Index: i})
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (g Grouped) Clone() Grouped {
	out := Grouped{
		Keys:   append([]string(nil), g.Keys...),
		Groups: make(map[string][]domain.Issue, len(g.Groups)),
	}
	for k, issues := range g.Groups {
		cp := make([]domain.Issue, len(issues))
		for i, is := range issues {
			cp[i] = is.Clone()
		}
		out.Groups[k] = cp
	}
	return out
}

// Equal reports whether two collections hold the same keys in the same order
// and the same issues in the same order. Nil and empty groups are equal.
func (g Grouped) Equal(o Grouped) bool {
	if len(g.Keys) != len(o.Keys) {
		return false
	}
	for i, k := range g.Keys {
		if o.Keys[i] != k {
			return false
		}
		a, b := g.Groups[k], o.Groups[k]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !reflect.DeepEqual(a[j], b[j]) {
				return false
			}
		}
	}
	return true
}

// shallowCopy returns a copy whose key slice and map are new but whose group
// slices are shared. Callers must replace, never write into, shared slices.
func (g Grouped) shallowCopy() Grouped {
	out := Grouped{
		Keys:   append([]string(nil), g.Keys...),
		Groups: make(map[string][]domain.Issue, len(g.Groups)),
	}
	for k, v := range g.Groups {
		out.Groups[k] = v
	}
	return out
}
