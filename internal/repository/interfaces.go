package repository

import (
	"context"

	"github.com/alexanderramin/trackboard/internal/analytics"
	"github.com/alexanderramin/trackboard/internal/domain"
)

// IssueQuery selects issues for List and Aggregate.
type IssueQuery struct {
	ProjectIDs []string
	CycleID    string
	ModuleID   string
	Filters    domain.IssueFilters
	// When false only top-level issues are returned.
	IncludeSubIssues bool
}

// AggregateQuery parameterises Aggregate. XAxis and Segment are dimension
// names from AnalyticsDimensions.
type AggregateQuery struct {
	IssueQuery
	XAxis   string
	YAxis   string
	Segment string
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByIdentifier(ctx context.Context, workspace, identifier string) (*domain.Project, error)
	List(ctx context.Context, workspace string) ([]*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type StateRepo interface {
	Upsert(ctx context.Context, s *domain.State) error
	GetByID(ctx context.Context, id string) (*domain.State, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.State, error)
}

type LabelRepo interface {
	Upsert(ctx context.Context, l *domain.Label) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Label, error)
}

type MemberRepo interface {
	Upsert(ctx context.Context, m *domain.Member) error
	List(ctx context.Context) ([]domain.Member, error)
}

type IssueRepo interface {
	Create(ctx context.Context, i *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	GetBySequence(ctx context.Context, projectID string, seq int) (*domain.Issue, error)
	List(ctx context.Context, q IssueQuery) ([]domain.Issue, error)
	Update(ctx context.Context, i *domain.Issue) error
	Delete(ctx context.Context, id string) error
	Aggregate(ctx context.Context, q AggregateQuery) (analytics.Aggregation, error)
}

type ActivityRepo interface {
	Append(ctx context.Context, r domain.ActivityRecord) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.ActivityRecord, error)
}

type ViewPropsRepo interface {
	// Get returns the stored props document, or ErrNotFound.
	Get(ctx context.Context, projectID, viewID string) ([]byte, error)
	Put(ctx context.Context, projectID, viewID string, props []byte) error
}
