package audit

import (
	"context"
	"errors"
	"fmt"

	"anviltrack/internal/domain"
)

// AccountAuditor verifies that every active account still has a proxy
// group on the remote platform. Inactive accounts are skipped entirely;
// their absence from remote group rosters is the membership audit's
// concern. Remote accounts cannot be enumerated, so this audit produces
// no not-in-app results.
type AccountAuditor struct {
	*Engine
	repo   domain.AccountRepository
	client domain.AnVILClient
}

func NewAccountAuditor(repo domain.AccountRepository, client domain.AnVILClient) *AccountAuditor {
	return &AccountAuditor{Engine: NewEngine(), repo: repo, client: client}
}

func refAccount(acct domain.Account) EntityRef {
	return EntityRef{Kind: KindAccount, ID: acct.ID, Name: acct.Email}
}

func (a *AccountAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	accounts, err := a.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active accounts: %w", err)
	}
	for _, acct := range accounts {
		res := NewModelInstanceResult(refAccount(acct))
		if _, err := a.client.GetProxyGroup(ctx, acct.Email); err != nil {
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				return fmt.Errorf("checking account %q: %w", acct.Email, err)
			}
			res.AddError(ErrorNotInRemote)
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}
	return nil
}
