package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"anviltrack/internal/domain"
)

// ManagedGroupAuditor verifies every tracked managed group against the
// remote platform in one pass over the app's remote group listing. Groups
// the app administers additionally get a full membership audit; a failed
// membership audit surfaces as a single GROUP_MEMBERSHIP_MISMATCH error
// on the group. Remote admin-role groups with no local record become
// not-in-app results.
type ManagedGroupAuditor struct {
	*Engine
	groups  domain.ManagedGroupRepository
	ignored domain.IgnoredRepository
	client  domain.AnVILClient

	// membership engines per audited group name, kept for drill-down.
	memberships map[string]*GroupMembershipAuditor
}

func NewManagedGroupAuditor(groups domain.ManagedGroupRepository, ignored domain.IgnoredRepository, client domain.AnVILClient) *ManagedGroupAuditor {
	return &ManagedGroupAuditor{
		Engine:      NewEngine(),
		groups:      groups,
		ignored:     ignored,
		client:      client,
		memberships: make(map[string]*GroupMembershipAuditor),
	}
}

func refGroup(g domain.ManagedGroup) EntityRef {
	return EntityRef{Kind: KindManagedGroup, ID: g.ID, Name: g.Name}
}

// MembershipAudit returns the membership sub-audit run for the named
// group, if the group was audited as app-managed.
func (a *ManagedGroupAuditor) MembershipAudit(name string) (*GroupMembershipAuditor, bool) {
	sub, ok := a.memberships[name]
	return sub, ok
}

func hasAdminRole(roles []string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, "admin") {
			return true
		}
	}
	return false
}

func (a *ManagedGroupAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	remote, err := a.client.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("listing remote groups: %w", err)
	}
	// Copy so claimed entries can be deleted without touching the
	// client's map.
	remaining := make(map[string][]string, len(remote))
	for name, roles := range remote {
		remaining[name] = roles
	}

	groups, err := a.groups.List(ctx)
	if err != nil {
		return fmt.Errorf("listing managed groups: %w", err)
	}
	for _, g := range groups {
		res := NewModelInstanceResult(refGroup(g))
		roles, listed := remaining[g.Name]
		if listed {
			delete(remaining, g.Name)
			if err := a.auditListedGroup(ctx, g, roles, res); err != nil {
				return err
			}
		} else if err := a.auditUnlistedGroup(ctx, g, res); err != nil {
			return err
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}

	// Leftover remote groups the app administers have no local record.
	names := make([]string, 0, len(remaining))
	for name := range remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !hasAdminRole(remaining[name]) {
			continue
		}
		if err := a.Add(NotInAppResult{Kind: NotInAppGroup, Group: name}); err != nil {
			return err
		}
	}
	return nil
}

// auditListedGroup handles a group that appears in the app's remote group
// listing: the admin role must match IsManagedByApp, and app-managed
// groups get their membership reconciled.
func (a *ManagedGroupAuditor) auditListedGroup(ctx context.Context, g domain.ManagedGroup, roles []string, res *ModelInstanceResult) error {
	admin := hasAdminRole(roles)
	if !g.IsManagedByApp {
		if admin {
			res.AddError(ErrorDifferentRole)
		}
		return nil
	}
	if !admin {
		res.AddError(ErrorDifferentRole)
		return nil
	}
	suppressions, err := a.ignored.ListGroupMemberships(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("listing suppressions for group %q: %w", g.Name, err)
	}
	sub, err := NewGroupMembershipAuditor(g, suppressions, a.groups, a.client)
	if err != nil {
		return err
	}
	if err := sub.Run(ctx); err != nil {
		return fmt.Errorf("auditing membership of group %q: %w", g.Name, err)
	}
	a.memberships[g.Name] = sub
	if !sub.OK() {
		res.AddError(ErrorGroupMembershipMismatch)
	}
	return nil
}

// auditUnlistedGroup handles a group absent from the app's remote group
// listing: it may still exist with the app holding no role at all.
func (a *ManagedGroupAuditor) auditUnlistedGroup(ctx context.Context, g domain.ManagedGroup, res *ModelInstanceResult) error {
	_, err := a.client.GetGroupEmail(ctx, g.Name)
	if err != nil {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return fmt.Errorf("resolving group %q: %w", g.Name, err)
		}
		res.AddError(ErrorNotInRemote)
		return nil
	}
	if g.IsManagedByApp {
		// Exists remotely but the app holds no role on it.
		res.AddError(ErrorDifferentRole)
	}
	return nil
}

// GroupMembershipAuditor reconciles the member and admin rosters of one
// app-managed group. An account admin is matched against the admin roster
// only; a child group added as admin is commonly also listed as a member,
// so a group-admin row claims an entry from both rosters. Suppressions
// are an explicit input and are matched before leftovers become
// not-in-app.
type GroupMembershipAuditor struct {
	*Engine
	group        domain.ManagedGroup
	suppressions []domain.IgnoredGroupMembership
	groups       domain.ManagedGroupRepository
	client       domain.AnVILClient
}

// NewGroupMembershipAuditor fails for groups the app does not administer:
// their remote rosters cannot be read.
func NewGroupMembershipAuditor(group domain.ManagedGroup, suppressions []domain.IgnoredGroupMembership, groups domain.ManagedGroupRepository, client domain.AnVILClient) (*GroupMembershipAuditor, error) {
	if !group.IsManagedByApp {
		return nil, domain.ErrValidation("group %q is not managed by the app", group.Name)
	}
	return &GroupMembershipAuditor{
		Engine:       NewEngine(),
		group:        group,
		suppressions: suppressions,
		groups:       groups,
		client:       client,
	}, nil
}

func refAccountMembership(group domain.ManagedGroup, d domain.GroupMembershipDetail) EntityRef {
	return EntityRef{
		Kind: KindGroupAccountMembership,
		ID:   d.Membership.ID,
		Name: fmt.Sprintf("%s as %s in %s", d.Account.Email, d.Membership.Role, group.Name),
	}
}

func refGroupMembership(group domain.ManagedGroup, d domain.GroupGroupMembershipDetail) EntityRef {
	return EntityRef{
		Kind: KindGroupGroupMembership,
		ID:   d.Membership.ID,
		Name: fmt.Sprintf("%s as %s in %s", d.ChildGroup.Name, d.Membership.Role, group.Name),
	}
}

func (a *GroupMembershipAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	rawMembers, err := a.client.GetGroupMembers(ctx, a.group.Name)
	if err != nil {
		return fmt.Errorf("fetching members of %q: %w", a.group.Name, err)
	}
	rawAdmins, err := a.client.GetGroupAdmins(ctx, a.group.Name)
	if err != nil {
		return fmt.Errorf("fetching admins of %q: %w", a.group.Name, err)
	}
	members := newRoster(rawMembers)
	admins := newRoster(rawAdmins)

	// The app itself administers the group; its own entries are expected
	// and never audited.
	self := strings.ToLower(a.client.ServiceAccountEmail())
	admins.claim(self)
	members.claim(self)

	if err := a.auditAccountRows(ctx, members, admins); err != nil {
		return err
	}
	if err := a.auditGroupRows(ctx, members, admins); err != nil {
		return err
	}
	if err := a.applySuppressions(members, admins); err != nil {
		return err
	}

	for _, email := range admins.remaining() {
		if err := a.Add(NotInAppResult{Kind: NotInAppGroupMember, Group: a.group.Name, Email: email, Role: domain.RoleAdmin}); err != nil {
			return err
		}
	}
	for _, email := range members.remaining() {
		if err := a.Add(NotInAppResult{Kind: NotInAppGroupMember, Group: a.group.Name, Email: email, Role: domain.RoleMember}); err != nil {
			return err
		}
	}
	return nil
}

func (a *GroupMembershipAuditor) auditAccountRows(ctx context.Context, members, admins *roster) error {
	rows, err := a.groups.ListAccountMemberships(ctx, a.group.ID)
	if err != nil {
		return fmt.Errorf("listing account memberships of %q: %w", a.group.Name, err)
	}
	for _, row := range rows {
		res := NewModelInstanceResult(refAccountMembership(a.group, row))
		inactive := row.Account.Status == domain.AccountInactive
		if inactive {
			res.AddError(ErrorDeactivatedAccount)
		}
		email := strings.ToLower(row.Account.Email)
		var present bool
		if row.Membership.Role == domain.RoleAdmin {
			present = admins.claim(email)
		} else {
			present = members.claim(email)
		}
		switch {
		case present && inactive:
			res.AddError(ErrorDeactivatedButPresent)
		case !present && !inactive:
			if row.Membership.Role == domain.RoleAdmin {
				res.AddError(ErrorAdminNotInRemote)
			} else {
				res.AddError(ErrorMemberNotInRemote)
			}
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}
	return nil
}

func (a *GroupMembershipAuditor) auditGroupRows(ctx context.Context, members, admins *roster) error {
	rows, err := a.groups.ListGroupMemberships(ctx, a.group.ID)
	if err != nil {
		return fmt.Errorf("listing group memberships of %q: %w", a.group.Name, err)
	}
	for _, row := range rows {
		res := NewModelInstanceResult(refGroupMembership(a.group, row))
		email := strings.ToLower(row.ChildGroup.Email)
		if row.Membership.Role == domain.RoleAdmin {
			if !admins.claim(email) {
				res.AddError(ErrorGroupAdminNotInRemote)
			}
			members.claim(email)
		} else if !members.claim(email) {
			res.AddError(ErrorGroupMemberNotInRemote)
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}
	return nil
}

// applySuppressions matches suppression records against the leftover
// rosters, admins first. Records are pre-sorted by email by the store.
func (a *GroupMembershipAuditor) applySuppressions(members, admins *roster) error {
	for _, s := range a.suppressions {
		ign := IgnoredResult{SuppressionID: s.ID, Email: s.Email}
		if admins.claim(s.Email) {
			ign.CurrentRole = domain.RoleAdmin
			// Admins also appear in the member roster.
			members.claim(s.Email)
		} else if members.claim(s.Email) {
			ign.CurrentRole = domain.RoleMember
		}
		if err := a.Add(ign); err != nil {
			return err
		}
	}
	return nil
}
