package domain

import "context"

// BillingProjectRepository provides persistence for billing projects.
type BillingProjectRepository interface {
	Create(ctx context.Context, p *BillingProject) (*BillingProject, error)
	GetByID(ctx context.Context, id int64) (*BillingProject, error)
	GetByName(ctx context.Context, name string) (*BillingProject, error)
	List(ctx context.Context) ([]BillingProject, error)
	// ListWithAppAsUser returns only projects where the app's service
	// account is a user; these are the ones the auditor checks remotely.
	ListWithAppAsUser(ctx context.Context) ([]BillingProject, error)
	Delete(ctx context.Context, id int64) error
}

// AccountRepository provides persistence for accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	ListActive(ctx context.Context) ([]Account, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

// ManagedGroupRepository provides persistence for managed groups and their
// membership rows.
type ManagedGroupRepository interface {
	Create(ctx context.Context, g *ManagedGroup) (*ManagedGroup, error)
	GetByID(ctx context.Context, id int64) (*ManagedGroup, error)
	GetByName(ctx context.Context, name string) (*ManagedGroup, error)
	List(ctx context.Context) ([]ManagedGroup, error)
	Delete(ctx context.Context, id int64) error

	AddGroupMembership(ctx context.Context, m *GroupGroupMembership) error
	RemoveGroupMembership(ctx context.Context, parentID, childID int64) error
	AddAccountMembership(ctx context.Context, m *GroupAccountMembership) error
	RemoveAccountMembership(ctx context.Context, groupID, accountID int64) error

	// ListGroupMemberships returns the group-group rows where the given
	// group is the parent, joined with the child group.
	ListGroupMemberships(ctx context.Context, parentID int64) ([]GroupGroupMembershipDetail, error)
	// ListAccountMemberships returns the group-account rows for the given
	// group, joined with the account.
	ListAccountMemberships(ctx context.Context, groupID int64) ([]GroupMembershipDetail, error)
	// ListAllGroupMemberships returns every group-group edge in the system,
	// used to build the membership graph.
	ListAllGroupMemberships(ctx context.Context) ([]GroupGroupMembership, error)
	// AccountMembershipCounts returns the number of direct account members
	// per group id, used to annotate full-graph snapshots.
	AccountMembershipCounts(ctx context.Context) (map[int64]int, error)
}

// WorkspaceRepository provides persistence for workspaces, their
// authorization domains and sharing rows.
type WorkspaceRepository interface {
	Create(ctx context.Context, w *Workspace, authDomainIDs []int64) (*Workspace, error)
	GetByID(ctx context.Context, id int64) (*Workspace, error)
	GetDetail(ctx context.Context, id int64) (*WorkspaceDetail, error)
	ListDetails(ctx context.Context) ([]WorkspaceDetail, error)
	Delete(ctx context.Context, id int64) error

	Share(ctx context.Context, s *WorkspaceGroupSharing) error
	Unshare(ctx context.Context, workspaceID, groupID int64) error
	ListSharing(ctx context.Context, workspaceID int64) ([]WorkspaceSharingDetail, error)
}

// IgnoredRepository provides persistence for audit suppression records.
type IgnoredRepository interface {
	AddGroupMembership(ctx context.Context, i *IgnoredGroupMembership) (*IgnoredGroupMembership, error)
	// ListGroupMemberships returns suppressions for a group ordered by email.
	ListGroupMemberships(ctx context.Context, groupID int64) ([]IgnoredGroupMembership, error)
	DeleteGroupMembership(ctx context.Context, id int64) error

	AddWorkspaceSharing(ctx context.Context, i *IgnoredWorkspaceSharing) (*IgnoredWorkspaceSharing, error)
	// ListWorkspaceSharings returns suppressions for a workspace ordered by email.
	ListWorkspaceSharings(ctx context.Context, workspaceID int64) ([]IgnoredWorkspaceSharing, error)
	DeleteWorkspaceSharing(ctx context.Context, id int64) error
}
