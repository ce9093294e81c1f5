package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/google/uuid"
)

var testIdentifierCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithIdentifier(id string) ProjectOption {
	return func(p *domain.Project) {
		p.Identifier = id
	}
}

func WithWorkspace(ws string) ProjectOption {
	return func(p *domain.Project) {
		p.Workspace = ws
	}
}

func defaultIdentifier(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testIdentifierCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	p := &domain.Project{
		ID:         uuid.New().String(),
		Workspace:  "acme",
		Identifier: defaultIdentifier(name),
		Name:       name,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewTestState returns a state in the given group.
func NewTestState(projectID, name string, group domain.StateGroup, sequence float64) *domain.State {
	return &domain.State{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Group:     group,
		Sequence:  sequence,
	}
}

func NewTestLabel(projectID, name string) *domain.Label {
	return &domain.Label{ID: uuid.New().String(), ProjectID: projectID, Name: name}
}

func NewTestMember(name string) *domain.Member {
	return &domain.Member{
		ID:          uuid.New().String(),
		DisplayName: name,
		Email:       strings.ToLower(name) + "@example.com",
	}
}

// Issue options
type IssueOption func(*domain.Issue)

func WithState(s *domain.State) IssueOption {
	return func(i *domain.Issue) {
		i.StateID = s.ID
		i.StateGroup = s.Group
	}
}

func WithPriority(p domain.Priority) IssueOption {
	return func(i *domain.Issue) {
		i.Priority = p
	}
}

func WithAssignees(ids ...string) IssueOption {
	return func(i *domain.Issue) {
		i.Assignees = ids
	}
}

func WithLabels(ids ...string) IssueOption {
	return func(i *domain.Issue) {
		i.Labels = ids
	}
}

func WithStartDate(d time.Time) IssueOption {
	return func(i *domain.Issue) {
		i.StartDate = &d
	}
}

func WithTargetDate(d time.Time) IssueOption {
	return func(i *domain.Issue) {
		i.TargetDate = &d
	}
}

func WithSortOrder(o float64) IssueOption {
	return func(i *domain.Issue) {
		i.SortOrder = o
	}
}

func WithSequence(n int) IssueOption {
	return func(i *domain.Issue) {
		i.SequenceID = n
	}
}

func WithEstimate(n int) IssueOption {
	return func(i *domain.Issue) {
		i.EstimatePoint = &n
	}
}

func WithCycle(id string) IssueOption {
	return func(i *domain.Issue) {
		i.CycleID = id
	}
}

func WithParent(id string) IssueOption {
	return func(i *domain.Issue) {
		i.ParentID = id
	}
}

func WithCreatedAt(t time.Time) IssueOption {
	return func(i *domain.Issue) {
		i.CreatedAt = t
		i.UpdatedAt = t
	}
}

func NewTestIssue(projectID, name string, opts ...IssueOption) *domain.Issue {
	now := time.Now().UTC().Truncate(time.Second)
	i := &domain.Issue{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Priority:  domain.PriorityNone,
		SortOrder: 65535,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
