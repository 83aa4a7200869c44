package audit

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "anviltrack/internal/db"
	"anviltrack/internal/db/repository"
	"anviltrack/internal/domain"
)

// env wires real SQLite-backed repositories for auditor tests; only the
// remote platform is faked.
type env struct {
	t     *testing.T
	ctx   context.Context
	repos Repositories
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sqlDB := internaldb.OpenTestSQLite(t)
	return &env{
		t:   t,
		ctx: context.Background(),
		repos: Repositories{
			BillingProjects: repository.NewBillingProjectRepo(sqlDB),
			Accounts:        repository.NewAccountRepo(sqlDB),
			Groups:          repository.NewManagedGroupRepo(sqlDB),
			Workspaces:      repository.NewWorkspaceRepo(sqlDB),
			Ignored:         repository.NewIgnoredRepo(sqlDB),
		},
	}
}

func (e *env) billingProject(name string, hasAppAsUser bool) *domain.BillingProject {
	e.t.Helper()
	p, err := e.repos.BillingProjects.Create(e.ctx, &domain.BillingProject{Name: name, HasAppAsUser: hasAppAsUser})
	require.NoError(e.t, err)
	return p
}

func (e *env) account(email string) *domain.Account {
	e.t.Helper()
	a, err := e.repos.Accounts.Create(e.ctx, &domain.Account{Email: email})
	require.NoError(e.t, err)
	return a
}

func (e *env) inactiveAccount(email string) *domain.Account {
	e.t.Helper()
	a := e.account(email)
	require.NoError(e.t, e.repos.Accounts.SetStatus(e.ctx, a.ID, domain.AccountInactive))
	a.Status = domain.AccountInactive
	return a
}

func (e *env) group(name string, managed bool) *domain.ManagedGroup {
	e.t.Helper()
	g, err := e.repos.Groups.Create(e.ctx, &domain.ManagedGroup{
		Name:           name,
		Email:          name + domain.GroupEmailSuffix,
		IsManagedByApp: managed,
	})
	require.NoError(e.t, err)
	return g
}

func (e *env) addAccountMember(group *domain.ManagedGroup, acct *domain.Account, role string) {
	e.t.Helper()
	err := e.repos.Groups.AddAccountMembership(e.ctx, &domain.GroupAccountMembership{
		GroupID: group.ID, AccountID: acct.ID, Role: role,
	})
	require.NoError(e.t, err)
}

func (e *env) addGroupMember(parent, child *domain.ManagedGroup, role string) {
	e.t.Helper()
	err := e.repos.Groups.AddGroupMembership(e.ctx, &domain.GroupGroupMembership{
		ParentGroupID: parent.ID, ChildGroupID: child.ID, Role: role,
	})
	require.NoError(e.t, err)
}

func (e *env) workspace(p *domain.BillingProject, name string, locked, requesterPays bool, authDomainIDs ...int64) *domain.Workspace {
	e.t.Helper()
	w, err := e.repos.Workspaces.Create(e.ctx, &domain.Workspace{
		BillingProjectID: p.ID, Name: name, IsLocked: locked, IsRequesterPays: requesterPays,
	}, authDomainIDs)
	require.NoError(e.t, err)
	return w
}

func (e *env) share(w *domain.Workspace, g *domain.ManagedGroup, access string, canCompute bool) {
	e.t.Helper()
	err := e.repos.Workspaces.Share(e.ctx, &domain.WorkspaceGroupSharing{
		WorkspaceID: w.ID, GroupID: g.ID, Access: access, CanCompute: canCompute,
	})
	require.NoError(e.t, err)
}

func (e *env) ignoreMembership(g *domain.ManagedGroup, email string) *domain.IgnoredGroupMembership {
	e.t.Helper()
	i, err := e.repos.Ignored.AddGroupMembership(e.ctx, &domain.IgnoredGroupMembership{
		GroupID: g.ID, Email: email, AddedBy: "tester@example.com", Note: "known stray",
	})
	require.NoError(e.t, err)
	return i
}

func (e *env) ignoreSharing(w *domain.Workspace, email string) *domain.IgnoredWorkspaceSharing {
	e.t.Helper()
	i, err := e.repos.Ignored.AddWorkspaceSharing(e.ctx, &domain.IgnoredWorkspaceSharing{
		WorkspaceID: w.ID, Email: email, AddedBy: "tester@example.com", Note: "known stray",
	})
	require.NoError(e.t, err)
	return i
}

// errorsFor fetches the recorded error codes for an entity ref.
func errorsFor(t *testing.T, e *Engine, ref EntityRef) []string {
	t.Helper()
	res, err := e.ResultFor(ref)
	require.NoError(t, err)
	return res.Errors()
}
