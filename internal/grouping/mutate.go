package grouping

import (
	"github.com/alexanderramin/trackboard/internal/domain"
)

const (
	// DefaultSortOrder is the manual position of an issue dropped into an
	// empty group.
	DefaultSortOrder = 65535
	// SortOrderStep separates an issue dropped at either end of a group from
	// its neighbour.
	SortOrderStep = 10000
)

// ApplyPartialUpdate returns previous with the issue at index in
// currentGroupKey patched. previous is never modified; untouched groups share
// their slices with it.
//
// When the patch does not touch the grouped field the issue is replaced in
// place, in every group it appears in, and those groups are re-sorted if the
// ordering field changed. When it does, the issue leaves all its groups and
// is inserted, in order, into the groups computed from the merged issue,
// creating them if needed. An unknown group or out-of-range index returns an
// unchanged copy.
func ApplyPartialUpdate(patch domain.IssuePatch, currentGroupKey string, groupBy domain.GroupBy, index int, orderBy domain.OrderBy, previous Grouped) Grouped {
	return ApplyPartialUpdateWithOptions(patch, currentGroupKey, groupBy, index, orderBy, previous, Options{})
}

// ApplyPartialUpdateWithOptions is ApplyPartialUpdate with metadata used to
// resolve state groups and order newly created groups.
func ApplyPartialUpdateWithOptions(patch domain.IssuePatch, currentGroupKey string, groupBy domain.GroupBy, index int, orderBy domain.OrderBy, previous Grouped, opts Options) Grouped {
	groupBy = domain.ParseGroupBy(string(groupBy))
	orderBy = domain.ParseOrderBy(string(orderBy))

	out := previous.shallowCopy()
	if out.Groups == nil {
		out.Groups = make(map[string][]domain.Issue)
	}
	src, ok := previous.Groups[currentGroupKey]
	if !ok || index < 0 || index >= len(src) || patch.IsEmpty() {
		return out
	}

	orig := src[index]
	merged := resolveStateGroup(patch.Apply(orig), patch, opts)

	if groupBy == domain.GroupByNone || !patch.Touches(groupBy.Field()) {
		resort := patch.Touches(orderBy.Field())
		for _, k := range out.Keys {
			grp := out.Groups[k]
			var next []domain.Issue
			for i, is := range grp {
				if !sameIssue(is, orig, k == currentGroupKey && i == index) {
					continue
				}
				if next == nil {
					next = append([]domain.Issue(nil), grp...)
				}
				next[i] = merged
			}
			if next == nil {
				continue
			}
			if resort {
				SortIssues(next, orderBy)
			}
			out.Groups[k] = next
		}
		return out
	}

	for _, k := range out.Keys {
		grp := out.Groups[k]
		var next []domain.Issue
		changed := false
		for i, is := range grp {
			if sameIssue(is, orig, k == currentGroupKey && i == index) {
				changed = true
				continue
			}
			next = append(next, is)
		}
		if changed {
			if next == nil {
				next = []domain.Issue{}
			}
			out.Groups[k] = next
		}
	}

	added := false
	for _, k := range KeysFor(merged, groupBy) {
		grp, exists := out.Groups[k]
		if !exists {
			out.Keys = append(out.Keys, k)
			added = true
		}
		next := make([]domain.Issue, 0, len(grp)+1)
		next = append(next, grp...)
		next = append(next, merged)
		SortIssues(next, orderBy)
		out.Groups[k] = next
	}
	if added {
		out.Keys = orderKeys(out.Keys, groupBy, opts)
	}
	return out
}

// Remove returns previous without any membership of the issue.
func Remove(previous Grouped, issueID string) Grouped {
	out := previous.shallowCopy()
	for k, grp := range out.Groups {
		var next []domain.Issue
		changed := false
		for _, is := range grp {
			if is.ID == issueID {
				changed = true
				continue
			}
			next = append(next, is)
		}
		if changed {
			if next == nil {
				next = []domain.Issue{}
			}
			out.Groups[k] = next
		}
	}
	return out
}

// Move handles a drag-and-drop of the issue at from onto toIndex of toKey. It
// derives the patch the drop implies (the new group value and, under manual
// ordering, a sort_order between the new neighbours), applies it
// optimistically and returns both. ok is false when the drop changes nothing
// or the grouped field cannot be written.
func Move(previous Grouped, from Position, toKey string, toIndex int, groupBy domain.GroupBy, orderBy domain.OrderBy, opts Options) (Grouped, domain.IssuePatch, bool) {
	groupBy = domain.ParseGroupBy(string(groupBy))
	orderBy = domain.ParseOrderBy(string(orderBy))

	src, ok := previous.Groups[from.Key]
	if !ok || from.Index < 0 || from.Index >= len(src) {
		return previous.shallowCopy(), domain.IssuePatch{}, false
	}
	if _, ok := previous.Groups[toKey]; !ok && toKey != NoneKey {
		return previous.shallowCopy(), domain.IssuePatch{}, false
	}
	issue := src[from.Index]

	var patch domain.IssuePatch
	if toKey != from.Key {
		if !setGroupValue(&patch, groupBy, issue, from.Key, toKey, opts) {
			return previous.shallowCopy(), domain.IssuePatch{}, false
		}
	}

	if orderBy.IsManual() {
		var dest []domain.Issue
		for _, is := range previous.Groups[toKey] {
			if is.ID != issue.ID {
				dest = append(dest, is)
			}
		}
		so := sortOrderAt(dest, toIndex)
		if so != issue.SortOrder || !patch.IsEmpty() {
			patch.SortOrder = &so
		}
	}

	if patch.IsEmpty() {
		return previous.shallowCopy(), patch, false
	}
	return ApplyPartialUpdateWithOptions(patch, from.Key, groupBy, from.Index, orderBy, previous, opts), patch, true
}

// sortOrderAt computes a manual position for an insert at index of dest.
func sortOrderAt(dest []domain.Issue, index int) float64 {
	if index < 0 {
		index = 0
	}
	if index > len(dest) {
		index = len(dest)
	}
	switch {
	case len(dest) == 0:
		return DefaultSortOrder
	case index == 0:
		return dest[0].SortOrder - SortOrderStep
	case index == len(dest):
		return dest[len(dest)-1].SortOrder + SortOrderStep
	default:
		return (dest[index-1].SortOrder + dest[index].SortOrder) / 2
	}
}

func setGroupValue(p *domain.IssuePatch, groupBy domain.GroupBy, issue domain.Issue, from, to string, opts Options) bool {
	if groupBy != domain.GroupByStateGroup {
		return p.SetGroupValue(groupBy, issue, from, to, NoneKey)
	}
	// A state group is written through its first state.
	var best *domain.State
	for i := range opts.States {
		s := &opts.States[i]
		if string(s.Group) != to {
			continue
		}
		if best == nil || s.Sequence < best.Sequence {
			best = s
		}
	}
	if best == nil {
		return false
	}
	id := best.ID
	p.StateID = &id
	return true
}

func resolveStateGroup(is domain.Issue, patch domain.IssuePatch, opts Options) domain.Issue {
	if patch.StateID == nil {
		return is
	}
	for _, s := range opts.States {
		if s.ID == is.StateID {
			is.StateGroup = s.Group
			return is
		}
	}
	return is
}

// sameIssue matches by id, or by position when the issue has no id.
func sameIssue(candidate, target domain.Issue, atPosition bool) bool {
	if target.ID == "" {
		return atPosition
	}
	return candidate.ID == target.ID
}
