package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "anviltrack/internal/db"
	"anviltrack/internal/domain"
)

type repos struct {
	billing   *BillingProjectRepo
	accounts  *AccountRepo
	groups    *ManagedGroupRepo
	workspace *WorkspaceRepo
	ignored   *IgnoredRepo
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	db := internaldb.OpenTestSQLite(t)
	return repos{
		billing:   NewBillingProjectRepo(db),
		accounts:  NewAccountRepo(db),
		groups:    NewManagedGroupRepo(db),
		workspace: NewWorkspaceRepo(db),
		ignored:   NewIgnoredRepo(db),
	}
}

func TestBillingProjectRepo_CRUD(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	p, err := r.billing.Create(ctx, &domain.BillingProject{Name: "anvil-datastorage", HasAppAsUser: true})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, p.HasAppAsUser)
	assert.False(t, p.CreatedAt.IsZero())

	found, err := r.billing.GetByName(ctx, "anvil-datastorage")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = r.billing.Create(ctx, &domain.BillingProject{Name: "other", HasAppAsUser: false})
	require.NoError(t, err)

	audited, err := r.billing.ListWithAppAsUser(ctx)
	require.NoError(t, err)
	require.Len(t, audited, 1)
	assert.Equal(t, "anvil-datastorage", audited[0].Name)

	all, err := r.billing.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, r.billing.Delete(ctx, p.ID))
	_, err = r.billing.GetByID(ctx, p.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestBillingProjectRepo_DuplicateName(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	_, err := r.billing.Create(ctx, &domain.BillingProject{Name: "dup"})
	require.NoError(t, err)
	_, err = r.billing.Create(ctx, &domain.BillingProject{Name: "dup"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAccountRepo_EmailFoldedAndStatus(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	a, err := r.accounts.Create(ctx, &domain.Account{Email: "Jane.Doe@Example.COM"})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", a.Email)
	assert.Equal(t, domain.AccountActive, a.Status)
	assert.NotEmpty(t, a.UUID)

	// Lookup is folded too.
	found, err := r.accounts.GetByEmail(ctx, "JANE.DOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	require.NoError(t, r.accounts.SetStatus(ctx, a.ID, domain.AccountInactive))
	found, err = r.accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountInactive, found.Status)
	assert.NotNil(t, found.DeactivatedAt)

	active, err := r.accounts.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestManagedGroupRepo_Memberships(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	parent, err := r.groups.Create(ctx, &domain.ManagedGroup{Name: "parent", Email: "parent@firecloud.org", IsManagedByApp: true})
	require.NoError(t, err)
	child, err := r.groups.Create(ctx, &domain.ManagedGroup{Name: "child", Email: "child@firecloud.org"})
	require.NoError(t, err)
	acct, err := r.accounts.Create(ctx, &domain.Account{Email: "member@example.com"})
	require.NoError(t, err)

	require.NoError(t, r.groups.AddGroupMembership(ctx, &domain.GroupGroupMembership{
		ParentGroupID: parent.ID, ChildGroupID: child.ID, Role: domain.RoleAdmin,
	}))
	require.NoError(t, r.groups.AddAccountMembership(ctx, &domain.GroupAccountMembership{
		GroupID: parent.ID, AccountID: acct.ID, Role: domain.RoleMember,
	}))

	// Duplicate pair is a conflict.
	err = r.groups.AddGroupMembership(ctx, &domain.GroupGroupMembership{
		ParentGroupID: parent.ID, ChildGroupID: child.ID, Role: domain.RoleMember,
	})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	groupRows, err := r.groups.ListGroupMemberships(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, groupRows, 1)
	assert.Equal(t, "child", groupRows[0].ChildGroup.Name)
	assert.Equal(t, domain.RoleAdmin, groupRows[0].Membership.Role)

	acctRows, err := r.groups.ListAccountMemberships(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, acctRows, 1)
	assert.Equal(t, "member@example.com", acctRows[0].Account.Email)

	edges, err := r.groups.ListAllGroupMemberships(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	counts, err := r.groups.AccountMembershipCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{parent.ID: 1}, counts)

	require.NoError(t, r.groups.RemoveGroupMembership(ctx, parent.ID, child.ID))
	groupRows, err = r.groups.ListGroupMemberships(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, groupRows)
}

func TestWorkspaceRepo_DetailAndSharing(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	bp, err := r.billing.Create(ctx, &domain.BillingProject{Name: "anvil-proj", HasAppAsUser: true})
	require.NoError(t, err)
	ad, err := r.groups.Create(ctx, &domain.ManagedGroup{Name: "auth-domain", Email: "auth-domain@firecloud.org"})
	require.NoError(t, err)
	sharee, err := r.groups.Create(ctx, &domain.ManagedGroup{Name: "readers", Email: "readers@firecloud.org"})
	require.NoError(t, err)

	w, err := r.workspace.Create(ctx, &domain.Workspace{
		BillingProjectID: bp.ID, Name: "study-1", IsLocked: true,
	}, []int64{ad.ID})
	require.NoError(t, err)

	detail, err := r.workspace.GetDetail(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "anvil-proj/study-1", detail.FullName())
	assert.True(t, detail.Workspace.IsLocked)
	require.Len(t, detail.AuthDomains, 1)
	assert.Equal(t, "auth-domain", detail.AuthDomains[0].Name)

	// Duplicate (project, name) pair is a conflict.
	_, err = r.workspace.Create(ctx, &domain.Workspace{BillingProjectID: bp.ID, Name: "study-1"}, nil)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)

	require.NoError(t, r.workspace.Share(ctx, &domain.WorkspaceGroupSharing{
		WorkspaceID: w.ID, GroupID: sharee.ID, Access: domain.AccessReader,
	}))
	sharing, err := r.workspace.ListSharing(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, sharing, 1)
	assert.Equal(t, "readers@firecloud.org", sharing[0].Group.Email)
	assert.False(t, sharing[0].Sharing.CanCompute)

	require.NoError(t, r.workspace.Unshare(ctx, w.ID, sharee.ID))
	sharing, err = r.workspace.ListSharing(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, sharing)
}

func TestIgnoredRepo_OrderedByEmail(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	g, err := r.groups.Create(ctx, &domain.ManagedGroup{Name: "g", Email: "g@firecloud.org", IsManagedByApp: true})
	require.NoError(t, err)

	for _, email := range []string{"zed@example.com", "Alice@example.com", "mid@example.com"} {
		_, err := r.ignored.AddGroupMembership(ctx, &domain.IgnoredGroupMembership{
			GroupID: g.ID, Email: email, AddedBy: "curator@example.com",
		})
		require.NoError(t, err)
	}

	ignored, err := r.ignored.ListGroupMemberships(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, ignored, 3)
	assert.Equal(t, "alice@example.com", ignored[0].Email)
	assert.Equal(t, "mid@example.com", ignored[1].Email)
	assert.Equal(t, "zed@example.com", ignored[2].Email)

	_, err = r.ignored.AddGroupMembership(ctx, &domain.IgnoredGroupMembership{GroupID: g.ID, Email: "ALICE@example.com"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
