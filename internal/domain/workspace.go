package domain

import (
	"fmt"
	"time"
)

// Workspace access levels, as AnVIL spells them.
const (
	AccessOwner  = "OWNER"
	AccessWriter = "WRITER"
	AccessReader = "READER"
)

// Workspace represents an AnVIL workspace tracked by the app.
// The pair (billing project, name) is unique.
type Workspace struct {
	ID               int64
	BillingProjectID int64
	Name             string
	IsLocked         bool
	IsRequesterPays  bool
	CreatedAt        time.Time
}

// WorkspaceDetail is a Workspace joined with its billing project and
// authorization domain groups, as the auditors consume it.
type WorkspaceDetail struct {
	Workspace      Workspace
	BillingProject BillingProject
	AuthDomains    []ManagedGroup
}

// FullName returns the AnVIL identifier "namespace/name" for the workspace.
func (w *WorkspaceDetail) FullName() string {
	return fmt.Sprintf("%s/%s", w.BillingProject.Name, w.Workspace.Name)
}

// WorkspaceGroupSharing records that a workspace is shared with a group.
// The pair (workspace, group) is unique.
type WorkspaceGroupSharing struct {
	ID          int64
	WorkspaceID int64
	GroupID     int64
	Access      string // AccessOwner, AccessWriter or AccessReader
	CanCompute  bool
	CreatedAt   time.Time
}

// CanShare reports the derived can-share flag: the app only ever grants
// share rights to owners.
func (s *WorkspaceGroupSharing) CanShare() bool { return s.Access == AccessOwner }

// WorkspaceSharingDetail is a WorkspaceGroupSharing joined with its group,
// as the sharing auditor consumes it.
type WorkspaceSharingDetail struct {
	Sharing WorkspaceGroupSharing
	Group   ManagedGroup
}

// CreateWorkspaceRequest holds parameters for creating a new workspace.
type CreateWorkspaceRequest struct {
	BillingProjectID int64
	Name             string
	AuthDomainIDs    []int64
	IsLocked         bool
	IsRequesterPays  bool
}

// Validate checks that the request is well-formed.
func (r *CreateWorkspaceRequest) Validate() error {
	if r.BillingProjectID == 0 {
		return ErrValidation("billing project id is required")
	}
	if r.Name == "" {
		return ErrValidation("workspace name is required")
	}
	return nil
}

// ShareWorkspaceRequest holds parameters for sharing a workspace with a group.
type ShareWorkspaceRequest struct {
	WorkspaceID int64
	GroupID     int64
	Access      string
	CanCompute  bool
}

// Validate checks the request, including the access/compute invariants:
// readers can never compute and owners always can.
func (r *ShareWorkspaceRequest) Validate() error {
	if r.WorkspaceID == 0 || r.GroupID == 0 {
		return ErrValidation("workspace and group ids are required")
	}
	switch r.Access {
	case AccessOwner:
		if !r.CanCompute {
			return ErrValidation("owners must have can_compute set")
		}
	case AccessWriter:
		// Writers may or may not compute.
	case AccessReader:
		if r.CanCompute {
			return ErrValidation("readers cannot have can_compute set")
		}
	default:
		return ErrValidation("access must be %s, %s or %s", AccessOwner, AccessWriter, AccessReader)
	}
	return nil
}
