package tracker

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "anviltrack/internal/db"
	"anviltrack/internal/db/repository"
	"anviltrack/internal/domain"
)

func newService(t *testing.T) *Service {
	t.Helper()
	sqlDB := internaldb.OpenTestSQLite(t)
	return NewService(
		repository.NewBillingProjectRepo(sqlDB),
		repository.NewAccountRepo(sqlDB),
		repository.NewManagedGroupRepo(sqlDB),
		repository.NewWorkspaceRepo(sqlDB),
		repository.NewIgnoredRepo(sqlDB),
		slog.Default(),
	)
}

func mustGroup(t *testing.T, s *Service, name string, managed bool) *domain.ManagedGroup {
	t.Helper()
	g, err := s.CreateManagedGroup(context.Background(), &domain.CreateManagedGroupRequest{Name: name, IsManagedByApp: managed})
	require.NoError(t, err)
	return g
}

func TestCreateBillingProject(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	p, err := s.CreateBillingProject(ctx, &domain.CreateBillingProjectRequest{Name: "genomics", HasAppAsUser: true})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	_, err = s.CreateBillingProject(ctx, &domain.CreateBillingProjectRequest{Name: "genomics"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = s.CreateBillingProject(ctx, &domain.CreateBillingProjectRequest{})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAccountLifecycle(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, &domain.CreateAccountRequest{Email: "Researcher@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "researcher@example.com", a.Email)
	assert.True(t, a.IsActive())

	require.NoError(t, s.DeactivateAccount(ctx, a.ID))
	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	assert.NotNil(t, got.DeactivatedAt)

	var conflict *domain.ConflictError
	assert.ErrorAs(t, s.DeactivateAccount(ctx, a.ID), &conflict)

	require.NoError(t, s.ReactivateAccount(ctx, a.ID))
	assert.ErrorAs(t, s.ReactivateAccount(ctx, a.ID), &conflict)
}

func TestCreateManagedGroupDerivesEmail(t *testing.T) {
	s := newService(t)
	g := mustGroup(t, s, "analysts", true)
	assert.Equal(t, "analysts@firecloud.org", g.Email)
}

func TestAddGroupToGroupRejectsCycles(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	top := mustGroup(t, s, "top", true)
	mid := mustGroup(t, s, "mid", true)
	leaf := mustGroup(t, s, "leaf", true)

	require.NoError(t, s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: top.ID, ChildGroupID: mid.ID, Role: domain.RoleMember,
	}))
	require.NoError(t, s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: mid.ID, ChildGroupID: leaf.ID, Role: domain.RoleMember,
	}))

	var validation *domain.ValidationError
	// Self-loop.
	err := s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: top.ID, ChildGroupID: top.ID, Role: domain.RoleMember,
	})
	assert.ErrorAs(t, err, &validation)
	// Closing the transitive chain.
	err = s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: leaf.ID, ChildGroupID: top.ID, Role: domain.RoleMember,
	})
	assert.ErrorAs(t, err, &validation)
}

func TestAddGroupToGroupRequiresManagedParent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	parent := mustGroup(t, s, "observed", false)
	child := mustGroup(t, s, "child", true)

	err := s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: parent.ID, ChildGroupID: child.ID, Role: domain.RoleMember,
	})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAddAccountToGroup(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	g := mustGroup(t, s, "analysts", true)
	a, err := s.CreateAccount(ctx, &domain.CreateAccountRequest{Email: "user@example.com"})
	require.NoError(t, err)

	require.NoError(t, s.AddAccountToGroup(ctx, &domain.AddGroupAccountMembershipRequest{
		GroupID: g.ID, AccountID: a.ID, Role: domain.RoleMember,
	}))

	rows, err := s.ListAccountMemberships(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "user@example.com", rows[0].Account.Email)

	// Inactive accounts cannot be added.
	inactive, err := s.CreateAccount(ctx, &domain.CreateAccountRequest{Email: "former@example.com"})
	require.NoError(t, err)
	require.NoError(t, s.DeactivateAccount(ctx, inactive.ID))
	err = s.AddAccountToGroup(ctx, &domain.AddGroupAccountMembershipRequest{
		GroupID: g.ID, AccountID: inactive.ID, Role: domain.RoleMember,
	})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestFullGraph(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	parent := mustGroup(t, s, "parent", true)
	child := mustGroup(t, s, "child", true)
	a, err := s.CreateAccount(ctx, &domain.CreateAccountRequest{Email: "user@example.com"})
	require.NoError(t, err)
	require.NoError(t, s.AddGroupToGroup(ctx, &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: parent.ID, ChildGroupID: child.ID, Role: domain.RoleMember,
	}))
	require.NoError(t, s.AddAccountToGroup(ctx, &domain.AddGroupAccountMembershipRequest{
		GroupID: child.ID, AccountID: a.ID, Role: domain.RoleMember,
	}))

	snap, err := s.FullGraph(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, parent.ID, snap.Edges[0].ParentGroupID)
	assert.Equal(t, child.ID, snap.Edges[0].ChildGroupID)
}

func TestWorkspaceLifecycle(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	p, err := s.CreateBillingProject(ctx, &domain.CreateBillingProjectRequest{Name: "genomics", HasAppAsUser: true})
	require.NoError(t, err)
	authDomain := mustGroup(t, s, "restricted-users", false)

	w, err := s.CreateWorkspace(ctx, &domain.CreateWorkspaceRequest{
		BillingProjectID: p.ID, Name: "cohort-a", AuthDomainIDs: []int64{authDomain.ID},
	})
	require.NoError(t, err)

	detail, err := s.GetWorkspace(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "genomics/cohort-a", detail.FullName())
	require.Len(t, detail.AuthDomains, 1)

	// Unknown auth domain group.
	_, err = s.CreateWorkspace(ctx, &domain.CreateWorkspaceRequest{
		BillingProjectID: p.ID, Name: "cohort-b", AuthDomainIDs: []int64{999},
	})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestShareWorkspaceInvariants(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	p, err := s.CreateBillingProject(ctx, &domain.CreateBillingProjectRequest{Name: "genomics", HasAppAsUser: true})
	require.NoError(t, err)
	w, err := s.CreateWorkspace(ctx, &domain.CreateWorkspaceRequest{BillingProjectID: p.ID, Name: "cohort-a"})
	require.NoError(t, err)
	g := mustGroup(t, s, "readers", true)

	var validation *domain.ValidationError
	// Readers can never compute.
	err = s.ShareWorkspace(ctx, &domain.ShareWorkspaceRequest{
		WorkspaceID: w.ID, GroupID: g.ID, Access: domain.AccessReader, CanCompute: true,
	})
	assert.ErrorAs(t, err, &validation)
	// Owners always compute.
	err = s.ShareWorkspace(ctx, &domain.ShareWorkspaceRequest{
		WorkspaceID: w.ID, GroupID: g.ID, Access: domain.AccessOwner, CanCompute: false,
	})
	assert.ErrorAs(t, err, &validation)

	require.NoError(t, s.ShareWorkspace(ctx, &domain.ShareWorkspaceRequest{
		WorkspaceID: w.ID, GroupID: g.ID, Access: domain.AccessReader,
	}))
	rows, err := s.ListWorkspaceSharing(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Sharing.CanShare())
}

func TestIgnoreRecords(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	g := mustGroup(t, s, "analysts", true)

	i, err := s.IgnoreGroupMembership(ctx, &domain.IgnoreGroupMembershipRequest{
		GroupID: g.ID, Email: "Stray@Example.com", AddedBy: "admin@example.com", Note: "legacy entry",
	})
	require.NoError(t, err)
	assert.Equal(t, "stray@example.com", i.Email)

	list, err := s.ListIgnoredGroupMemberships(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteIgnoredGroupMembership(ctx, i.ID))
	list, err = s.ListIgnoredGroupMemberships(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Suppressions for unknown entities are rejected.
	_, err = s.IgnoreGroupMembership(ctx, &domain.IgnoreGroupMembershipRequest{
		GroupID: 999, Email: "x@example.com",
	})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
