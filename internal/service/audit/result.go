// Package audit implements the reconciliation engine that compares local
// tracker state against the remote AnVIL platform. Each audit run is owned
// by a single auditor instance; results classify every checked entity as
// verified, in error, not-in-app or ignored.
package audit

import (
	"fmt"
	"sort"
)

// Error codes recorded on model instance results.
const (
	ErrorNotInRemote              = "NOT_IN_REMOTE"
	ErrorDifferentRole            = "DIFFERENT_ROLE"
	ErrorGroupMembershipMismatch  = "GROUP_MEMBERSHIP_MISMATCH"
	ErrorAdminNotInRemote         = "ADMIN_NOT_IN_REMOTE"
	ErrorMemberNotInRemote        = "MEMBER_NOT_IN_REMOTE"
	ErrorDeactivatedAccount       = "DEACTIVATED_ACCOUNT"
	ErrorDeactivatedButPresent    = "DEACTIVATED_BUT_PRESENT"
	ErrorGroupAdminNotInRemote    = "GROUP_ADMIN_NOT_IN_REMOTE"
	ErrorGroupMemberNotInRemote   = "GROUP_MEMBER_NOT_IN_REMOTE"
	ErrorNotOwnerInRemote         = "NOT_OWNER_IN_REMOTE"
	ErrorDifferentAuthDomains     = "DIFFERENT_AUTH_DOMAINS"
	ErrorDifferentLock            = "DIFFERENT_LOCK"
	ErrorDifferentRequesterPays   = "DIFFERENT_REQUESTER_PAYS"
	ErrorWorkspaceSharingMismatch = "WORKSPACE_SHARING_MISMATCH"
	ErrorNotSharedInRemote        = "NOT_SHARED_IN_REMOTE"
	ErrorDifferentAccess          = "DIFFERENT_ACCESS"
	ErrorDifferentCanCompute      = "DIFFERENT_CAN_COMPUTE"
	ErrorDifferentCanShare        = "DIFFERENT_CAN_SHARE"
)

// EntityKind names the local entity type a result refers to.
type EntityKind string

const (
	KindBillingProject         EntityKind = "billing_project"
	KindAccount                EntityKind = "account"
	KindManagedGroup           EntityKind = "managed_group"
	KindGroupAccountMembership EntityKind = "group_account_membership"
	KindGroupGroupMembership   EntityKind = "group_group_membership"
	KindWorkspace              EntityKind = "workspace"
	KindWorkspaceSharing       EntityKind = "workspace_group_sharing"
)

// EntityRef identifies one local entity in audit results. Name is the
// entity's stable human identifier (name, email, or a composite).
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
	Name string     `json:"name"`
}

// Result is the closed set of audit result variants accepted by an Engine.
type Result interface {
	isResult()
}

// ModelInstanceResult holds the audit outcome for one local entity: a set
// of error codes, empty when the entity is verified.
type ModelInstanceResult struct {
	Entity EntityRef
	errors map[string]struct{}
}

func (*ModelInstanceResult) isResult() {}

// NewModelInstanceResult creates an empty result for the given entity.
func NewModelInstanceResult(entity EntityRef) *ModelInstanceResult {
	return &ModelInstanceResult{Entity: entity, errors: make(map[string]struct{})}
}

// AddError records an error code. Adding the same code twice is a no-op.
func (r *ModelInstanceResult) AddError(code string) {
	r.errors[code] = struct{}{}
}

// OK reports whether the entity was verified (no errors recorded).
func (r *ModelInstanceResult) OK() bool { return len(r.errors) == 0 }

// Errors returns the recorded error codes in sorted order.
func (r *ModelInstanceResult) Errors() []string {
	codes := make([]string, 0, len(r.errors))
	for c := range r.errors {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// NotInAppKind names the remote resource type behind a not-in-app result.
type NotInAppKind string

const (
	NotInAppGroup        NotInAppKind = "group"
	NotInAppGroupMember  NotInAppKind = "group_member"
	NotInAppWorkspace    NotInAppKind = "workspace"
	NotInAppWorkspaceACL NotInAppKind = "workspace_acl"
)

// NotInAppResult describes a remote resource with no corresponding local
// record. It carries structured identifying fields; Record formats them
// only at the presentation boundary.
type NotInAppResult struct {
	Kind NotInAppKind

	// Group name for NotInAppGroup and NotInAppGroupMember.
	Group string
	// Email and Role for NotInAppGroupMember.
	Email string
	Role  string
	// Namespace/Name for NotInAppWorkspace.
	Namespace string
	Name      string
	// ACL detail for NotInAppWorkspaceACL (Email is set too).
	AccessLevel string
	CanCompute  bool
	CanShare    bool
}

func (NotInAppResult) isResult() {}

// Record returns the stable string identifier for the remote resource.
// Two results with equal records are considered the same resource.
func (r NotInAppResult) Record() string {
	switch r.Kind {
	case NotInAppGroup:
		return r.Group
	case NotInAppGroupMember:
		return fmt.Sprintf("%s: %s", r.Role, r.Email)
	case NotInAppWorkspace:
		return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
	case NotInAppWorkspaceACL:
		return fmt.Sprintf("%s: %s", r.AccessLevel, r.Email)
	default:
		return ""
	}
}

// IgnoredResult records a discrepancy that matched an explicit suppression
// entry. It contributes to neither error nor not-in-app accounting; the
// current classification is kept for the audit trail.
type IgnoredResult struct {
	// SuppressionID identifies the suppression record that matched.
	SuppressionID int64
	Email         string
	// CurrentRole is the discrepancy's current remote classification
	// (a membership role or an ACL access level), empty when the
	// suppressed entry is no longer present remotely.
	CurrentRole string
}

func (IgnoredResult) isResult() {}

// Record formats the ignored entry like a not-in-app record, or returns
// empty when the entry is no longer present remotely.
func (r IgnoredResult) Record() string {
	if r.CurrentRole == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.CurrentRole, r.Email)
}
