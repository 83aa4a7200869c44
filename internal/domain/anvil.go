package domain

import "context"

// RemoteWorkspace is one entry of the AnVIL workspace listing.
type RemoteWorkspace struct {
	Namespace   string
	Name        string
	AccessLevel string
	AuthDomains []string
	IsLocked    bool
}

// RemoteACLEntry is one entry of an AnVIL workspace access-control list.
type RemoteACLEntry struct {
	AccessLevel string
	CanCompute  bool
	CanShare    bool
}

// AnVILClient is the boundary to the remote AnVIL (Terra) platform.
//
// "Not found" is a meaningful signal: implementations return a
// *NotFoundError for it, and any other failure is infrastructural and
// treated as fatal by the auditors. Retry, auth and rate limiting are the
// implementation's responsibility, never the caller's.
type AnVILClient interface {
	// Status checks that the remote platform is reachable and healthy.
	Status(ctx context.Context) error

	// Me returns the email the remote platform registered for the app's
	// credentials.
	Me(ctx context.Context) (string, error)

	// GetBillingProject confirms the billing project exists and the app has
	// access to it.
	GetBillingProject(ctx context.Context, name string) error

	// GetProxyGroup resolves the email of a registered AnVIL user's proxy
	// group. An ambiguous no-content response is reported as not found.
	GetProxyGroup(ctx context.Context, email string) (string, error)

	// GetGroups returns the groups the app holds a role on, as a map from
	// group name to the list of lowercased roles ("admin", "member"). A
	// group appears with both roles when the app holds both.
	GetGroups(ctx context.Context) (map[string][]string, error)

	// GetGroupEmail resolves a group name to its email, regardless of
	// whether the app holds a role on the group.
	GetGroupEmail(ctx context.Context, name string) (string, error)

	// GetGroupMembers and GetGroupAdmins return the raw member/admin email
	// lists of a group the app administers.
	GetGroupMembers(ctx context.Context, name string) ([]string, error)
	GetGroupAdmins(ctx context.Context, name string) ([]string, error)

	// ListWorkspaces returns every workspace visible to the app.
	ListWorkspaces(ctx context.Context) ([]RemoteWorkspace, error)

	// GetBucketRequesterPays reports the requester-pays flag of the
	// workspace's bucket.
	GetBucketRequesterPays(ctx context.Context, namespace, name string) (bool, error)

	// GetWorkspaceACL returns the workspace ACL keyed by email. Not found
	// means the workspace is not shared with the app.
	GetWorkspaceACL(ctx context.Context, namespace, name string) (map[string]RemoteACLEntry, error)

	// ServiceAccountEmail returns the app's own identity, for
	// self-exclusion when reconciling rosters.
	ServiceAccountEmail() string
}
