package domain

import (
	"strings"
	"time"
)

// Membership roles, as AnVIL spells them.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// GroupEmailSuffix is the email domain Terra assigns to managed groups.
const GroupEmailSuffix = "@firecloud.org"

// ManagedGroup represents an AnVIL managed group tracked by the app.
// IsManagedByApp means the app's service account is expected to be an
// admin of the group on AnVIL.
type ManagedGroup struct {
	ID             int64
	Name           string
	Email          string
	IsManagedByApp bool
	CreatedAt      time.Time
}

// GroupGroupMembership records a child group's membership in a parent group.
// The pair (parent, child) is unique; self-loops and cycles are rejected at
// write time.
type GroupGroupMembership struct {
	ID            int64
	ParentGroupID int64
	ChildGroupID  int64
	Role          string // RoleMember or RoleAdmin
	CreatedAt     time.Time
}

// GroupAccountMembership records an account's membership in a group.
// The pair (group, account) is unique.
type GroupAccountMembership struct {
	ID        int64
	GroupID   int64
	AccountID int64
	Role      string // RoleMember or RoleAdmin
	CreatedAt time.Time
}

// GroupMembershipDetail is a GroupAccountMembership joined with its account,
// as the auditors consume it.
type GroupMembershipDetail struct {
	Membership GroupAccountMembership
	Account    Account
}

// GroupGroupMembershipDetail is a GroupGroupMembership joined with its child
// group, as the auditors consume it.
type GroupGroupMembershipDetail struct {
	Membership GroupGroupMembership
	ChildGroup ManagedGroup
}

// CreateManagedGroupRequest holds parameters for creating a new managed group.
type CreateManagedGroupRequest struct {
	Name           string
	Email          string // derived from Name when empty
	IsManagedByApp bool
}

// Validate checks that the request is well-formed and derives the group email.
func (r *CreateManagedGroupRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("group name is required")
	}
	if r.Email == "" {
		r.Email = r.Name + GroupEmailSuffix
	}
	r.Email = strings.ToLower(r.Email)
	return nil
}

// AddGroupGroupMembershipRequest holds parameters for nesting one group in another.
type AddGroupGroupMembershipRequest struct {
	ParentGroupID int64
	ChildGroupID  int64
	Role          string
}

// Validate checks that the request is well-formed.
func (r *AddGroupGroupMembershipRequest) Validate() error {
	if r.ParentGroupID == 0 || r.ChildGroupID == 0 {
		return ErrValidation("parent and child group ids are required")
	}
	if r.Role != RoleMember && r.Role != RoleAdmin {
		return ErrValidation("role must be %s or %s", RoleMember, RoleAdmin)
	}
	return nil
}

// AddGroupAccountMembershipRequest holds parameters for adding an account to a group.
type AddGroupAccountMembershipRequest struct {
	GroupID   int64
	AccountID int64
	Role      string
}

// Validate checks that the request is well-formed.
func (r *AddGroupAccountMembershipRequest) Validate() error {
	if r.GroupID == 0 || r.AccountID == 0 {
		return ErrValidation("group and account ids are required")
	}
	if r.Role != RoleMember && r.Role != RoleAdmin {
		return ErrValidation("role must be %s or %s", RoleMember, RoleAdmin)
	}
	return nil
}
