package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/repository"
	"github.com/google/uuid"
)

// ImportResult summarises an import.
type ImportResult struct {
	Project     *domain.Project
	CreatedNew  bool
	StateCount  int
	LabelCount  int
	MemberCount int
	IssueCount  int
	IssueKeys   []string
}

// Import writes a seed in one transaction. An existing project with the same
// identifier is reused and the new issues are numbered after its last one.
func (b *Backend) Import(ctx context.Context, seed *Seed) (*ImportResult, error) {
	if errs := ValidateSeed(seed); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	workspace := domain.CoalesceStr(seed.Project.Workspace, "default")
	result := &ImportResult{}
	err := b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		states := repository.NewSQLiteStateRepo(tx)
		labels := repository.NewSQLiteLabelRepo(tx)
		members := repository.NewSQLiteMemberRepo(tx)
		issues := repository.NewSQLiteIssueRepo(tx)
		seqs := repository.NewSQLiteIssueNumberRepo(tx)
		activity := repository.NewSQLiteActivityRepo(tx)

		identifier := strings.ToUpper(seed.Project.Identifier)
		project, err := projects.GetByIdentifier(ctx, workspace, identifier)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			project = &domain.Project{
				ID:         uuid.New().String(),
				Workspace:  workspace,
				Identifier: identifier,
				Name:       seed.Project.Name,
			}
			if err := projects.Create(ctx, project); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			result.CreatedNew = true
		case err != nil:
			return err
		}
		result.Project = project

		refs := make(map[string]string)
		for n, s := range seed.States {
			st := &domain.State{
				ID:        idOrNew(s.ID),
				ProjectID: project.ID,
				Name:      s.Name,
				Group:     domain.StateGroup(s.Group),
				Color:     s.Color,
				Sequence:  float64(n + 1),
			}
			if err := states.Upsert(ctx, st); err != nil {
				return err
			}
			refs["state:"+s.Ref] = st.ID
		}
		for _, l := range seed.Labels {
			lb := &domain.Label{ID: idOrNew(l.ID), ProjectID: project.ID, Name: l.Name, Color: l.Color}
			if err := labels.Upsert(ctx, lb); err != nil {
				return err
			}
			refs["label:"+l.Ref] = lb.ID
		}
		for _, m := range seed.Members {
			mb := &domain.Member{ID: idOrNew(m.ID), DisplayName: m.DisplayName, Email: m.Email}
			if err := members.Upsert(ctx, mb); err != nil {
				return err
			}
			refs["member:"+m.Ref] = mb.ID
		}

		now := b.now()
		for n, si := range seed.Issues {
			seq, err := seqs.Next(ctx, project.ID)
			if err != nil {
				return err
			}
			issue, err := seedIssue(si, refs)
			if err != nil {
				return err
			}
			issue.ProjectID = project.ID
			issue.SequenceID = seq
			// Later entries are newer so the default ordering follows the file.
			issue.CreatedAt = now.Add(time.Duration(n) * time.Second)
			issue.UpdatedAt = issue.CreatedAt
			if err := issues.Create(ctx, issue); err != nil {
				return fmt.Errorf("creating issue %q: %w", si.Name, err)
			}
			refs["issue:"+si.Ref] = issue.ID

			meta := domain.ActivityMeta{ID: uuid.New().String(), IssueID: issue.ID, Actor: b.actor, CreatedAt: issue.CreatedAt}
			if err := activity.Append(ctx, domain.EncodeActivity(domain.IssueCreated{ActivityMeta: meta})); err != nil {
				return fmt.Errorf("recording activity: %w", err)
			}
			result.IssueKeys = append(result.IssueKeys, project.IssueKey(seq))
		}

		result.StateCount = len(seed.States)
		result.LabelCount = len(seed.Labels)
		result.MemberCount = len(seed.Members)
		result.IssueCount = len(seed.Issues)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// seedIssue converts a validated seed issue, resolving refs to ids.
func seedIssue(si SeedIssue, refs map[string]string) (*domain.Issue, error) {
	start, err := domain.ParseDate(si.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	target, err := domain.ParseDate(si.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("parsing target_date: %w", err)
	}
	priority := domain.PriorityNone
	if si.Priority != "" {
		priority, _ = domain.ParsePriority(si.Priority)
	}

	issue := &domain.Issue{
		ID:            idOrNew(si.ID),
		Name:          si.Name,
		Description:   si.Description,
		StateID:       refs["state:"+si.State],
		Priority:      priority,
		StartDate:     start,
		TargetDate:    target,
		SortOrder:     65535,
		CycleID:       si.Cycle,
		ModuleID:      si.Module,
		ParentID:      refs["issue:"+si.Parent],
		EstimatePoint: si.EstimatePoint,
		CreatedBy:     refs["member:"+si.CreatedBy],
	}
	if si.SortOrder != nil {
		issue.SortOrder = *si.SortOrder
	}
	for _, a := range si.Assignees {
		issue.Assignees = append(issue.Assignees, refs["member:"+a])
	}
	for _, l := range si.Labels {
		issue.Labels = append(issue.Labels, refs["label:"+l])
	}
	return issue, nil
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
