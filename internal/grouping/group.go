package grouping

import (
	"sort"

	"github.com/alexanderramin/trackboard/internal/domain"
)

// Options refines grouping with project metadata.
type Options struct {
	// States orders "state" groups by workflow and resolves state groups
	// after a state change.
	States []domain.State
	// ShowEmptyGroups adds every known key for the grouping even when no
	// issue falls into it.
	ShowEmptyGroups bool
}

// Group buckets issues by groupBy and orders each bucket by orderBy. An
// unknown or empty groupBy yields one group under AllKey. Input is never
// modified.
func Group(issues []domain.Issue, groupBy domain.GroupBy, orderBy domain.OrderBy) Grouped {
	return GroupWithOptions(issues, groupBy, orderBy, Options{})
}

// GroupWithOptions is Group with metadata-aware key ordering and empty groups.
func GroupWithOptions(issues []domain.Issue, groupBy domain.GroupBy, orderBy domain.OrderBy, opts Options) Grouped {
	groupBy = domain.ParseGroupBy(string(groupBy))
	orderBy = domain.ParseOrderBy(string(orderBy))

	out := Grouped{Groups: make(map[string][]domain.Issue)}
	if groupBy == domain.GroupByNone {
		all := append([]domain.Issue{}, issues...)
		SortIssues(all, orderBy)
		out.Keys = []string{AllKey}
		out.Groups[AllKey] = all
		return out
	}

	for _, is := range issues {
		for _, k := range KeysFor(is, groupBy) {
			out.Groups[k] = append(out.Groups[k], is)
		}
	}
	if opts.ShowEmptyGroups {
		for _, k := range knownKeys(groupBy, opts) {
			if _, ok := out.Groups[k]; !ok {
				out.Groups[k] = []domain.Issue{}
			}
		}
	}

	keys := make([]string, 0, len(out.Groups))
	for k, grp := range out.Groups {
		SortIssues(grp, orderBy)
		keys = append(keys, k)
	}
	out.Keys = orderKeys(keys, groupBy, opts)
	return out
}

// KeysFor returns the group keys an issue belongs to. Multi-valued fields fan
// out to one key per distinct value; a missing value yields NoneKey.
func KeysFor(is domain.Issue, groupBy domain.GroupBy) []string {
	switch groupBy {
	case domain.GroupByNone:
		return []string{AllKey}
	case domain.GroupByStateGroup:
		if is.StateGroup == "" {
			return []string{NoneKey}
		}
		return []string{string(is.StateGroup)}
	}

	vals := is.FieldValues(groupBy.Field())
	seen := make(map[string]bool, len(vals))
	keys := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		keys = append(keys, v)
	}
	if len(keys) == 0 {
		return []string{NoneKey}
	}
	return keys
}

func knownKeys(groupBy domain.GroupBy, opts Options) []string {
	var keys []string
	switch groupBy {
	case domain.GroupByPriority:
		for _, p := range domain.Priorities {
			keys = append(keys, string(p))
		}
	case domain.GroupByStateGroup:
		for _, g := range domain.StateGroups {
			keys = append(keys, string(g))
		}
	case domain.GroupByState:
		for _, s := range opts.States {
			keys = append(keys, s.ID)
		}
	}
	return keys
}

// orderKeys sorts group keys for display. NoneKey always goes last.
func orderKeys(keys []string, groupBy domain.GroupBy, opts Options) []string {
	out := append([]string(nil), keys...)
	rank := keyRanker(groupBy, opts)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a == NoneKey) != (b == NoneKey) {
			return b == NoneKey
		}
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		return a < b
	})
	return out
}

func keyRanker(groupBy domain.GroupBy, opts Options) func(string) float64 {
	switch groupBy {
	case domain.GroupByPriority:
		return func(k string) float64 { return float64(domain.PriorityRank(domain.Priority(k))) }
	case domain.GroupByStateGroup:
		return func(k string) float64 { return float64(domain.StateGroupRank(domain.StateGroup(k))) }
	case domain.GroupByState:
		if len(opts.States) == 0 {
			break
		}
		ranks := stateRanks(opts.States)
		return func(k string) float64 {
			if r, ok := ranks[k]; ok {
				return r
			}
			return float64(len(ranks))
		}
	}
	return func(string) float64 { return 0 }
}

// stateRanks orders states by workflow group, then sequence.
func stateRanks(states []domain.State) map[string]float64 {
	sorted := append([]domain.State(nil), states...)
	sort.SliceStable(sorted, func(i, j int) bool {
		gi, gj := domain.StateGroupRank(sorted[i].Group), domain.StateGroupRank(sorted[j].Group)
		if gi != gj {
			return gi < gj
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})
	ranks := make(map[string]float64, len(sorted))
	for i, s := range sorted {
		ranks[s.ID] = float64(i)
	}
	return ranks
}
