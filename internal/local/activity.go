package local

import (
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/google/uuid"
)

// meta returns a generator of activity metadata sharing one actor and time.
func (b *Backend) meta(issueID string, at time.Time) func() domain.ActivityMeta {
	return func() domain.ActivityMeta {
		return domain.ActivityMeta{
			ID:        uuid.New().String(),
			IssueID:   issueID,
			Actor:     b.actor,
			CreatedAt: at,
		}
	}
}

// diffActivities lists the changes between two versions of an issue in
// field order. Sort order moves are not recorded.
func diffActivities(before, after domain.Issue, meta func() domain.ActivityMeta) []domain.Activity {
	var out []domain.Activity
	if before.Name != after.Name {
		out = append(out, domain.NameChanged{ActivityMeta: meta(), Old: before.Name, New: after.Name})
	}
	if before.Description != after.Description {
		out = append(out, domain.DescriptionChanged{ActivityMeta: meta()})
	}
	if before.StateID != after.StateID {
		out = append(out, domain.StateChanged{ActivityMeta: meta(), Old: before.StateID, New: after.StateID})
	}
	if before.Priority != after.Priority {
		out = append(out, domain.PriorityChanged{ActivityMeta: meta(), Old: before.Priority, New: after.Priority})
	}
	if added, removed := setDiff(before.Assignees, after.Assignees); len(added)+len(removed) > 0 {
		out = append(out, domain.AssigneesChanged{ActivityMeta: meta(), Added: added, Removed: removed})
	}
	if added, removed := setDiff(before.Labels, after.Labels); len(added)+len(removed) > 0 {
		out = append(out, domain.LabelsChanged{ActivityMeta: meta(), Added: added, Removed: removed})
	}
	if domain.FormatDate(before.StartDate) != domain.FormatDate(after.StartDate) {
		out = append(out, domain.StartDateChanged{ActivityMeta: meta(), Old: before.StartDate, New: after.StartDate})
	}
	if domain.FormatDate(before.TargetDate) != domain.FormatDate(after.TargetDate) {
		out = append(out, domain.TargetDateChanged{ActivityMeta: meta(), Old: before.TargetDate, New: after.TargetDate})
	}
	if before.CycleID != after.CycleID {
		out = append(out, domain.CycleChanged{ActivityMeta: meta(), Old: before.CycleID, New: after.CycleID})
	}
	if before.ModuleID != after.ModuleID {
		out = append(out, domain.ModuleChanged{ActivityMeta: meta(), Old: before.ModuleID, New: after.ModuleID})
	}
	if before.ParentID != after.ParentID {
		out = append(out, domain.ParentChanged{ActivityMeta: meta(), Old: before.ParentID, New: after.ParentID})
	}
	if !sameInt(before.EstimatePoint, after.EstimatePoint) {
		out = append(out, domain.EstimateChanged{ActivityMeta: meta(), Old: before.EstimatePoint, New: after.EstimatePoint})
	}
	return out
}

func setDiff(before, after []string) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, v := range before {
		had[v] = true
	}
	has := make(map[string]bool, len(after))
	for _, v := range after {
		has[v] = true
		if !had[v] {
			added = append(added, v)
		}
	}
	for _, v := range before {
		if !has[v] {
			removed = append(removed, v)
		}
	}
	return added, removed
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
