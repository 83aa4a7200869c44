// Package tracker implements the write path of the app: creating and
// removing the local records that mirror AnVIL resources. It owns the
// structural invariants the database cannot express, most importantly
// cycle rejection in the group membership graph.
package tracker

import (
	"context"
	"log/slog"

	"anviltrack/internal/domain"
	"anviltrack/internal/graph"
)

// Service bundles the repositories behind the tracker operations.
type Service struct {
	billing    domain.BillingProjectRepository
	accounts   domain.AccountRepository
	groups     domain.ManagedGroupRepository
	workspaces domain.WorkspaceRepository
	ignored    domain.IgnoredRepository
	logger     *slog.Logger
}

func NewService(
	billing domain.BillingProjectRepository,
	accounts domain.AccountRepository,
	groups domain.ManagedGroupRepository,
	workspaces domain.WorkspaceRepository,
	ignored domain.IgnoredRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		billing:    billing,
		accounts:   accounts,
		groups:     groups,
		workspaces: workspaces,
		ignored:    ignored,
		logger:     logger,
	}
}

func (s *Service) CreateBillingProject(ctx context.Context, req *domain.CreateBillingProjectRequest) (*domain.BillingProject, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.billing.Create(ctx, &domain.BillingProject{Name: req.Name, HasAppAsUser: req.HasAppAsUser})
	if err != nil {
		return nil, err
	}
	s.logger.Info("billing project created", "name", p.Name, "id", p.ID)
	return p, nil
}

func (s *Service) GetBillingProject(ctx context.Context, id int64) (*domain.BillingProject, error) {
	return s.billing.GetByID(ctx, id)
}

func (s *Service) ListBillingProjects(ctx context.Context) ([]domain.BillingProject, error) {
	return s.billing.List(ctx)
}

func (s *Service) DeleteBillingProject(ctx context.Context, id int64) error {
	return s.billing.Delete(ctx, id)
}

func (s *Service) CreateAccount(ctx context.Context, req *domain.CreateAccountRequest) (*domain.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.accounts.Create(ctx, &domain.Account{Email: req.Email, IsServiceAccount: req.IsServiceAccount})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", "email", a.Email, "id", a.ID)
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// DeactivateAccount marks an account inactive. Its group memberships are
// kept: the membership audit reports whether they linger remotely.
func (s *Service) DeactivateAccount(ctx context.Context, id int64) error {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.IsActive() {
		return domain.ErrConflict("account %q is already inactive", a.Email)
	}
	if err := s.accounts.SetStatus(ctx, id, domain.AccountInactive); err != nil {
		return err
	}
	s.logger.Info("account deactivated", "email", a.Email, "id", a.ID)
	return nil
}

func (s *Service) ReactivateAccount(ctx context.Context, id int64) error {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.IsActive() {
		return domain.ErrConflict("account %q is already active", a.Email)
	}
	if err := s.accounts.SetStatus(ctx, id, domain.AccountActive); err != nil {
		return err
	}
	s.logger.Info("account reactivated", "email", a.Email, "id", a.ID)
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.accounts.Delete(ctx, id)
}

func (s *Service) CreateManagedGroup(ctx context.Context, req *domain.CreateManagedGroupRequest) (*domain.ManagedGroup, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g, err := s.groups.Create(ctx, &domain.ManagedGroup{
		Name:           req.Name,
		Email:          req.Email,
		IsManagedByApp: req.IsManagedByApp,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("managed group created", "name", g.Name, "id", g.ID, "managed", g.IsManagedByApp)
	return g, nil
}

func (s *Service) GetManagedGroup(ctx context.Context, id int64) (*domain.ManagedGroup, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) ListManagedGroups(ctx context.Context) ([]domain.ManagedGroup, error) {
	return s.groups.List(ctx)
}

func (s *Service) DeleteManagedGroup(ctx context.Context, id int64) error {
	return s.groups.Delete(ctx, id)
}

func (s *Service) ListGroupMemberships(ctx context.Context, parentID int64) ([]domain.GroupGroupMembershipDetail, error) {
	return s.groups.ListGroupMemberships(ctx, parentID)
}

func (s *Service) ListAccountMemberships(ctx context.Context, groupID int64) ([]domain.GroupMembershipDetail, error) {
	return s.groups.ListAccountMemberships(ctx, groupID)
}

// membershipGraph loads every group-group edge into an in-memory graph.
func (s *Service) membershipGraph(ctx context.Context) (*graph.Graph, error) {
	edges, err := s.groups.ListAllGroupMemberships(ctx)
	if err != nil {
		return nil, err
	}
	return graph.New(edges), nil
}

// AddGroupToGroup records a child group's membership in a parent group.
// The parent must be app-managed (the app cannot push membership
// elsewhere) and the new edge must not close a cycle.
func (s *Service) AddGroupToGroup(ctx context.Context, req *domain.AddGroupGroupMembershipRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	parent, err := s.groups.GetByID(ctx, req.ParentGroupID)
	if err != nil {
		return err
	}
	if !parent.IsManagedByApp {
		return domain.ErrValidation("group %q is not managed by the app", parent.Name)
	}
	child, err := s.groups.GetByID(ctx, req.ChildGroupID)
	if err != nil {
		return err
	}
	g, err := s.membershipGraph(ctx)
	if err != nil {
		return err
	}
	if g.WouldCycle(parent.ID, child.ID) {
		return domain.ErrValidation("adding %q to %q would create a cycle", child.Name, parent.Name)
	}
	err = s.groups.AddGroupMembership(ctx, &domain.GroupGroupMembership{
		ParentGroupID: parent.ID,
		ChildGroupID:  child.ID,
		Role:          req.Role,
	})
	if err != nil {
		return err
	}
	s.logger.Info("group membership added", "parent", parent.Name, "child", child.Name, "role", req.Role)
	return nil
}

func (s *Service) RemoveGroupFromGroup(ctx context.Context, parentID, childID int64) error {
	return s.groups.RemoveGroupMembership(ctx, parentID, childID)
}

// AddAccountToGroup records an account's membership in an app-managed
// group.
func (s *Service) AddAccountToGroup(ctx context.Context, req *domain.AddGroupAccountMembershipRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if !group.IsManagedByApp {
		return domain.ErrValidation("group %q is not managed by the app", group.Name)
	}
	acct, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return err
	}
	if !acct.IsActive() {
		return domain.ErrValidation("account %q is inactive", acct.Email)
	}
	err = s.groups.AddAccountMembership(ctx, &domain.GroupAccountMembership{
		GroupID:   group.ID,
		AccountID: acct.ID,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	s.logger.Info("account membership added", "group", group.Name, "account", acct.Email, "role", req.Role)
	return nil
}

func (s *Service) RemoveAccountFromGroup(ctx context.Context, groupID, accountID int64) error {
	return s.groups.RemoveAccountMembership(ctx, groupID, accountID)
}

// FullGraph returns a snapshot of the whole membership graph annotated
// with direct account-member counts.
func (s *Service) FullGraph(ctx context.Context) (*graph.Snapshot, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.membershipGraph(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.groups.AccountMembershipCounts(ctx)
	if err != nil {
		return nil, err
	}
	snap := g.FullGraph(groups, counts)
	return &snap, nil
}

func (s *Service) CreateWorkspace(ctx context.Context, req *domain.CreateWorkspaceRequest) (*domain.Workspace, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.billing.GetByID(ctx, req.BillingProjectID); err != nil {
		return nil, err
	}
	for _, id := range req.AuthDomainIDs {
		if _, err := s.groups.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	w, err := s.workspaces.Create(ctx, &domain.Workspace{
		BillingProjectID: req.BillingProjectID,
		Name:             req.Name,
		IsLocked:         req.IsLocked,
		IsRequesterPays:  req.IsRequesterPays,
	}, req.AuthDomainIDs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("workspace created", "name", w.Name, "id", w.ID)
	return w, nil
}

func (s *Service) GetWorkspace(ctx context.Context, id int64) (*domain.WorkspaceDetail, error) {
	return s.workspaces.GetDetail(ctx, id)
}

func (s *Service) ListWorkspaces(ctx context.Context) ([]domain.WorkspaceDetail, error) {
	return s.workspaces.ListDetails(ctx)
}

func (s *Service) DeleteWorkspace(ctx context.Context, id int64) error {
	return s.workspaces.Delete(ctx, id)
}

// ShareWorkspace records that a workspace is shared with a group. The
// access/compute invariants live in the request validation.
func (s *Service) ShareWorkspace(ctx context.Context, req *domain.ShareWorkspaceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	w, err := s.workspaces.GetByID(ctx, req.WorkspaceID)
	if err != nil {
		return err
	}
	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return err
	}
	err = s.workspaces.Share(ctx, &domain.WorkspaceGroupSharing{
		WorkspaceID: w.ID,
		GroupID:     group.ID,
		Access:      req.Access,
		CanCompute:  req.CanCompute,
	})
	if err != nil {
		return err
	}
	s.logger.Info("workspace shared", "workspace", w.Name, "group", group.Name, "access", req.Access)
	return nil
}

func (s *Service) UnshareWorkspace(ctx context.Context, workspaceID, groupID int64) error {
	return s.workspaces.Unshare(ctx, workspaceID, groupID)
}

func (s *Service) ListWorkspaceSharing(ctx context.Context, workspaceID int64) ([]domain.WorkspaceSharingDetail, error) {
	return s.workspaces.ListSharing(ctx, workspaceID)
}

func (s *Service) IgnoreGroupMembership(ctx context.Context, req *domain.IgnoreGroupMembershipRequest) (*domain.IgnoredGroupMembership, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetByID(ctx, req.GroupID); err != nil {
		return nil, err
	}
	return s.ignored.AddGroupMembership(ctx, &domain.IgnoredGroupMembership{
		GroupID: req.GroupID,
		Email:   req.Email,
		AddedBy: req.AddedBy,
		Note:    req.Note,
	})
}

func (s *Service) ListIgnoredGroupMemberships(ctx context.Context, groupID int64) ([]domain.IgnoredGroupMembership, error) {
	return s.ignored.ListGroupMemberships(ctx, groupID)
}

func (s *Service) DeleteIgnoredGroupMembership(ctx context.Context, id int64) error {
	return s.ignored.DeleteGroupMembership(ctx, id)
}

func (s *Service) IgnoreWorkspaceSharing(ctx context.Context, req *domain.IgnoreWorkspaceSharingRequest) (*domain.IgnoredWorkspaceSharing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.workspaces.GetByID(ctx, req.WorkspaceID); err != nil {
		return nil, err
	}
	return s.ignored.AddWorkspaceSharing(ctx, &domain.IgnoredWorkspaceSharing{
		WorkspaceID: req.WorkspaceID,
		Email:       req.Email,
		AddedBy:     req.AddedBy,
		Note:        req.Note,
	})
}

func (s *Service) ListIgnoredWorkspaceSharings(ctx context.Context, workspaceID int64) ([]domain.IgnoredWorkspaceSharing, error) {
	return s.ignored.ListWorkspaceSharings(ctx, workspaceID)
}

func (s *Service) DeleteIgnoredWorkspaceSharing(ctx context.Context, id int64) error {
	return s.ignored.DeleteWorkspaceSharing(ctx, id)
}
