// Package testutil provides test doubles shared across service and API
// tests. Persistence is tested against real SQLite databases via
// internal/db.OpenTestSQLite; only the remote platform is faked.
package testutil

import (
	"context"
	"fmt"

	"anviltrack/internal/domain"
)

// FakeAnVIL is an in-memory domain.AnVILClient. Zero value means an empty
// remote platform; populate the fields to script responses. Missing
// entries produce *domain.NotFoundError like the real client; set Err to
// make every call fail fatally.
type FakeAnVIL struct {
	Err error

	// Registered billing project names.
	BillingProjects map[string]bool
	// Registered user email -> proxy group email.
	ProxyGroups map[string]string
	// Group name -> roles the app holds ("admin", "member").
	Groups map[string][]string
	// Group name -> group email, for groups outside the app's roles.
	GroupEmails map[string]string
	// Group name -> rosters, as the platform reports them.
	GroupMembers map[string][]string
	GroupAdmins  map[string][]string
	// Workspace listing visible to the app.
	Workspaces []domain.RemoteWorkspace
	// "namespace/name" -> requester-pays flag.
	RequesterPays map[string]bool
	// "namespace/name" -> ACL keyed by email.
	ACLs map[string]map[string]domain.RemoteACLEntry

	SAEmail string
}

var _ domain.AnVILClient = (*FakeAnVIL)(nil)

func (f *FakeAnVIL) Status(ctx context.Context) error { return f.Err }

func (f *FakeAnVIL) Me(ctx context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.ServiceAccountEmail(), nil
}

func (f *FakeAnVIL) GetBillingProject(ctx context.Context, name string) error {
	if f.Err != nil {
		return f.Err
	}
	if !f.BillingProjects[name] {
		return domain.ErrNotFound("billing project %q not found", name)
	}
	return nil
}

func (f *FakeAnVIL) GetProxyGroup(ctx context.Context, email string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	proxy, ok := f.ProxyGroups[email]
	if !ok {
		return "", domain.ErrNotFound("user %q not found", email)
	}
	return proxy, nil
}

func (f *FakeAnVIL) GetGroups(ctx context.Context) (map[string][]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[string][]string, len(f.Groups))
	for name, roles := range f.Groups {
		out[name] = append([]string(nil), roles...)
	}
	return out, nil
}

func (f *FakeAnVIL) GetGroupEmail(ctx context.Context, name string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if email, ok := f.GroupEmails[name]; ok {
		return email, nil
	}
	if _, ok := f.Groups[name]; ok {
		return name + domain.GroupEmailSuffix, nil
	}
	return "", domain.ErrNotFound("group %q not found", name)
}

func (f *FakeAnVIL) GetGroupMembers(ctx context.Context, name string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.GroupMembers[name]...), nil
}

func (f *FakeAnVIL) GetGroupAdmins(ctx context.Context, name string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.GroupAdmins[name]...), nil
}

func (f *FakeAnVIL) ListWorkspaces(ctx context.Context) ([]domain.RemoteWorkspace, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]domain.RemoteWorkspace(nil), f.Workspaces...), nil
}

func (f *FakeAnVIL) GetBucketRequesterPays(ctx context.Context, namespace, name string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	return f.RequesterPays[fmt.Sprintf("%s/%s", namespace, name)], nil
}

func (f *FakeAnVIL) GetWorkspaceACL(ctx context.Context, namespace, name string) (map[string]domain.RemoteACLEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	acl, ok := f.ACLs[fmt.Sprintf("%s/%s", namespace, name)]
	if !ok {
		return nil, domain.ErrNotFound("workspace %s/%s is not shared", namespace, name)
	}
	out := make(map[string]domain.RemoteACLEntry, len(acl))
	for email, entry := range acl {
		out[email] = entry
	}
	return out, nil
}

func (f *FakeAnVIL) ServiceAccountEmail() string {
	if f.SAEmail == "" {
		return "app@anviltrack.iam.gserviceaccount.com"
	}
	return f.SAEmail
}
