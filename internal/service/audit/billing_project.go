package audit

import (
	"context"
	"errors"
	"fmt"

	"anviltrack/internal/domain"
)

// BillingProjectAuditor verifies that every billing project recorded with
// the application as a user still exists on the remote platform. Projects
// recorded without app access are skipped; remote projects are never
// enumerated, so this audit produces no not-in-app results.
type BillingProjectAuditor struct {
	*Engine
	repo   domain.BillingProjectRepository
	client domain.AnVILClient
}

func NewBillingProjectAuditor(repo domain.BillingProjectRepository, client domain.AnVILClient) *BillingProjectAuditor {
	return &BillingProjectAuditor{Engine: NewEngine(), repo: repo, client: client}
}

func refBillingProject(p domain.BillingProject) EntityRef {
	return EntityRef{Kind: KindBillingProject, ID: p.ID, Name: p.Name}
}

// Run executes the audit once. Remote failures other than not-found abort
// the run.
func (a *BillingProjectAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	projects, err := a.repo.ListWithAppAsUser(ctx)
	if err != nil {
		return fmt.Errorf("listing billing projects: %w", err)
	}
	for _, p := range projects {
		res := NewModelInstanceResult(refBillingProject(p))
		if err := a.client.GetBillingProject(ctx, p.Name); err != nil {
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				return fmt.Errorf("checking billing project %q: %w", p.Name, err)
			}
			res.AddError(ErrorNotInRemote)
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}
	return nil
}
