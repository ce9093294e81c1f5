package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatActivity(t *testing.T) {
	l := NewLookup(
		[]State{{ID: "s-done", Name: "Done", Group: StateCompleted}},
		[]Label{{ID: "l-bug", Name: "Bug"}},
		[]Member{{ID: "u1", DisplayName: "alice"}},
	)
	march := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	three := 3

	tests := []struct {
		name string
		a    Activity
		want string
	}{
		{"created", IssueCreated{}, "created the issue"},
		{"state", StateChanged{New: "s-done"}, "set the state to Done"},
		{"priority", PriorityChanged{New: PriorityHigh}, "set the priority to High"},
		{"priority removed", PriorityChanged{Old: PriorityHigh, New: PriorityNone}, "removed the priority"},
		{"assignee", AssigneesChanged{Added: []string{"u1"}}, "added assignee alice"},
		{"label", LabelsChanged{Removed: []string{"l-bug"}}, "removed label Bug"},
		{"target date", TargetDateChanged{New: &march}, "set the due date to Mar 05, 2024"},
		{"start cleared", StartDateChanged{Old: &march}, "removed the start date"},
		{"estimate", EstimateChanged{New: &three}, "set the estimate point to 3"},
		{"comment", CommentAdded{Comment: "hi"}, "commented: hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatActivity(tt.a, l))
		})
	}
}

func TestActivity_RecordRoundTripKeepsVariant(t *testing.T) {
	march := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	orig := TargetDateChanged{ActivityMeta: ActivityMeta{ID: "a1", IssueID: "i1"}, New: &march}

	rec := EncodeActivity(orig)
	assert.Equal(t, "target_date", rec.Field)
	assert.Equal(t, "2024-03-05", rec.NewValue)

	back, ok := DecodeActivity(rec)
	require.True(t, ok)
	got, isDate := back.(TargetDateChanged)
	require.True(t, isDate)
	assert.Equal(t, "i1", got.Meta().IssueID)
	assert.Nil(t, got.Old)
	require.NotNil(t, got.New)
	assert.True(t, march.Equal(*got.New))
}

func TestDecodeActivity_UnknownFieldSkipped(t *testing.T) {
	_, ok := DecodeActivity(ActivityRecord{Field: "attachment"})
	assert.False(t, ok)
}
