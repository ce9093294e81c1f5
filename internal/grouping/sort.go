package grouping

import (
	"sort"
	"strings"

	"github.com/alexanderramin/trackboard/internal/domain"
)

// SortIssues orders issues in place. Manual ordering sorts by sort_order
// ascending; any other ordering sorts by the named field (missing dates
// last), then by created_at descending, then by id.
func SortIssues(issues []domain.Issue, orderBy domain.OrderBy) {
	orderBy = domain.ParseOrderBy(string(orderBy))
	sort.SliceStable(issues, func(i, j int) bool {
		return lessIssue(issues[i], issues[j], orderBy)
	})
}

func lessIssue(a, b domain.Issue, o domain.OrderBy) bool {
	f := o.Field()
	if an, bn := isNull(a, f), isNull(b, f); an != bn {
		return bn
	}
	c := compareField(a, b, f)
	if o.Descending() {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func isNull(is domain.Issue, f domain.Field) bool {
	switch f {
	case domain.FieldStartDate:
		return is.StartDate == nil
	case domain.FieldTargetDate:
		return is.TargetDate == nil
	}
	return false
}

func compareField(a, b domain.Issue, f domain.Field) int {
	switch f {
	case domain.FieldSortOrder:
		return compareFloat(a.SortOrder, b.SortOrder)
	case domain.FieldPriority:
		return domain.PriorityRank(a.Priority) - domain.PriorityRank(b.Priority)
	case domain.FieldName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case domain.FieldSequenceID:
		return a.SequenceID - b.SequenceID
	case domain.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.FieldUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.FieldStartDate:
		if a.StartDate == nil || b.StartDate == nil {
			return 0
		}
		return a.StartDate.Compare(*b.StartDate)
	case domain.FieldTargetDate:
		if a.TargetDate == nil || b.TargetDate == nil {
			return 0
		}
		return a.TargetDate.Compare(*b.TargetDate)
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
