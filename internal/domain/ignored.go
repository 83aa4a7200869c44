package domain

import (
	"strings"
	"time"
)

// IgnoredGroupMembership is an explicit suppression: a remote membership of
// the given email in the given group is a known discrepancy and must not be
// reported as not-in-app.
type IgnoredGroupMembership struct {
	ID        int64
	GroupID   int64
	Email     string
	AddedBy   string
	Note      string
	CreatedAt time.Time
}

// IgnoredWorkspaceSharing is an explicit suppression for a remote workspace
// ACL entry the app does not track.
type IgnoredWorkspaceSharing struct {
	ID          int64
	WorkspaceID int64
	Email       string
	AddedBy     string
	Note        string
	CreatedAt   time.Time
}

// IgnoreGroupMembershipRequest holds parameters for suppressing a group
// membership discrepancy.
type IgnoreGroupMembershipRequest struct {
	GroupID int64
	Email   string
	AddedBy string
	Note    string
}

// Validate checks that the request is well-formed and folds the email.
func (r *IgnoreGroupMembershipRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.GroupID == 0 {
		return ErrValidation("group id is required")
	}
	if r.Email == "" {
		return ErrValidation("ignored email is required")
	}
	return nil
}

// IgnoreWorkspaceSharingRequest holds parameters for suppressing a workspace
// sharing discrepancy.
type IgnoreWorkspaceSharingRequest struct {
	WorkspaceID int64
	Email       string
	AddedBy     string
	Note        string
}

// Validate checks that the request is well-formed and folds the email.
func (r *IgnoreWorkspaceSharingRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.WorkspaceID == 0 {
		return ErrValidation("workspace id is required")
	}
	if r.Email == "" {
		return ErrValidation("ignored email is required")
	}
	return nil
}
