package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"anviltrack/internal/domain"
)

// WorkspaceAuditor verifies every tracked workspace against the remote
// workspace listing. Workspaces the app owns additionally get a sharing
// audit and a bucket requester-pays check; auth domains and the lock flag
// are compared for any listed workspace. Remote workspaces the app owns
// with no local record become not-in-app results.
type WorkspaceAuditor struct {
	*Engine
	workspaces domain.WorkspaceRepository
	ignored    domain.IgnoredRepository
	client     domain.AnVILClient

	// sharing engines per workspace full name, kept for drill-down.
	sharings map[string]*WorkspaceSharingAuditor
}

func NewWorkspaceAuditor(workspaces domain.WorkspaceRepository, ignored domain.IgnoredRepository, client domain.AnVILClient) *WorkspaceAuditor {
	return &WorkspaceAuditor{
		Engine:     NewEngine(),
		workspaces: workspaces,
		ignored:    ignored,
		client:     client,
		sharings:   make(map[string]*WorkspaceSharingAuditor),
	}
}

func refWorkspace(d domain.WorkspaceDetail) EntityRef {
	return EntityRef{Kind: KindWorkspace, ID: d.Workspace.ID, Name: d.FullName()}
}

// SharingAudit returns the sharing sub-audit run for the workspace with
// the given full name, if the workspace was audited as owned.
func (a *WorkspaceAuditor) SharingAudit(fullName string) (*WorkspaceSharingAuditor, bool) {
	sub, ok := a.sharings[fullName]
	return sub, ok
}

func (a *WorkspaceAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	listings, err := a.client.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("listing remote workspaces: %w", err)
	}
	claimed := make([]bool, len(listings))

	details, err := a.workspaces.ListDetails(ctx)
	if err != nil {
		return fmt.Errorf("listing workspaces: %w", err)
	}
	for i := range details {
		d := details[i]
		res := NewModelInstanceResult(refWorkspace(d))
		idx := -1
		for j, l := range listings {
			if !claimed[j] && l.Namespace == d.BillingProject.Name && l.Name == d.Workspace.Name {
				idx = j
				break
			}
		}
		if idx < 0 {
			res.AddError(ErrorNotInRemote)
		} else {
			claimed[idx] = true
			if err := a.auditListedWorkspace(ctx, d, listings[idx], res); err != nil {
				return err
			}
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}

	// Leftover remote workspaces the app owns have no local record. Other
	// access levels are visibility through sharing, not the app's concern.
	leftovers := make([]NotInAppResult, 0)
	for j, l := range listings {
		if claimed[j] || l.AccessLevel != domain.AccessOwner {
			continue
		}
		leftovers = append(leftovers, NotInAppResult{Kind: NotInAppWorkspace, Namespace: l.Namespace, Name: l.Name})
	}
	sort.Slice(leftovers, func(i, j int) bool { return leftovers[i].Record() < leftovers[j].Record() })
	for _, r := range leftovers {
		if err := a.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// auditListedWorkspace compares one tracked workspace against its remote
// listing entry. Sharing and requester-pays can only be read by an owner,
// so a NOT_OWNER_IN_REMOTE workspace skips both; auth domains and the
// lock flag come from the listing itself and are always compared.
func (a *WorkspaceAuditor) auditListedWorkspace(ctx context.Context, d domain.WorkspaceDetail, l domain.RemoteWorkspace, res *ModelInstanceResult) error {
	if l.AccessLevel != domain.AccessOwner {
		res.AddError(ErrorNotOwnerInRemote)
	} else {
		suppressions, err := a.ignored.ListWorkspaceSharings(ctx, d.Workspace.ID)
		if err != nil {
			return fmt.Errorf("listing suppressions for workspace %q: %w", d.FullName(), err)
		}
		sub := NewWorkspaceSharingAuditor(d, suppressions, a.workspaces, a.client)
		if err := sub.Run(ctx); err != nil {
			return fmt.Errorf("auditing sharing of workspace %q: %w", d.FullName(), err)
		}
		a.sharings[d.FullName()] = sub
		if !sub.OK() {
			res.AddError(ErrorWorkspaceSharingMismatch)
		}

		requesterPays, err := a.client.GetBucketRequesterPays(ctx, d.BillingProject.Name, d.Workspace.Name)
		if err != nil {
			return fmt.Errorf("checking bucket of workspace %q: %w", d.FullName(), err)
		}
		if requesterPays != d.Workspace.IsRequesterPays {
			res.AddError(ErrorDifferentRequesterPays)
		}
	}

	if !sameAuthDomains(d.AuthDomains, l.AuthDomains) {
		res.AddError(ErrorDifferentAuthDomains)
	}
	if l.IsLocked != d.Workspace.IsLocked {
		res.AddError(ErrorDifferentLock)
	}
	return nil
}

// sameAuthDomains compares the tracked auth domain groups against the
// remote domain names as sets.
func sameAuthDomains(local []domain.ManagedGroup, remote []string) bool {
	if len(local) != len(remote) {
		return false
	}
	want := make(map[string]struct{}, len(local))
	for _, g := range local {
		want[g.Name] = struct{}{}
	}
	for _, name := range remote {
		if _, ok := want[name]; !ok {
			return false
		}
		delete(want, name)
	}
	return len(want) == 0
}

// WorkspaceSharingAuditor reconciles the sharing rows of one owned
// workspace against its remote ACL. A not-found ACL means the workspace
// is shared with nobody, not a failure. Suppressions are an explicit
// input and are matched before leftovers become not-in-app.
type WorkspaceSharingAuditor struct {
	*Engine
	detail       domain.WorkspaceDetail
	suppressions []domain.IgnoredWorkspaceSharing
	workspaces   domain.WorkspaceRepository
	client       domain.AnVILClient
}

func NewWorkspaceSharingAuditor(detail domain.WorkspaceDetail, suppressions []domain.IgnoredWorkspaceSharing, workspaces domain.WorkspaceRepository, client domain.AnVILClient) *WorkspaceSharingAuditor {
	return &WorkspaceSharingAuditor{
		Engine:       NewEngine(),
		detail:       detail,
		suppressions: suppressions,
		workspaces:   workspaces,
		client:       client,
	}
}

func refSharing(detail domain.WorkspaceDetail, d domain.WorkspaceSharingDetail) EntityRef {
	return EntityRef{
		Kind: KindWorkspaceSharing,
		ID:   d.Sharing.ID,
		Name: fmt.Sprintf("%s shared with %s as %s", detail.FullName(), d.Group.Email, d.Sharing.Access),
	}
}

func (a *WorkspaceSharingAuditor) Run(ctx context.Context) error {
	if err := a.start(); err != nil {
		return err
	}
	raw, err := a.client.GetWorkspaceACL(ctx, a.detail.BillingProject.Name, a.detail.Workspace.Name)
	if err != nil {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return fmt.Errorf("fetching ACL of %q: %w", a.detail.FullName(), err)
		}
		raw = nil
	}
	acl := make(map[string]domain.RemoteACLEntry, len(raw))
	for email, entry := range raw {
		acl[strings.ToLower(email)] = entry
	}
	// The app's own owner entry is expected and never audited.
	delete(acl, strings.ToLower(a.client.ServiceAccountEmail()))

	rows, err := a.workspaces.ListSharing(ctx, a.detail.Workspace.ID)
	if err != nil {
		return fmt.Errorf("listing sharing of %q: %w", a.detail.FullName(), err)
	}
	for _, row := range rows {
		res := NewModelInstanceResult(refSharing(a.detail, row))
		email := strings.ToLower(row.Group.Email)
		entry, shared := acl[email]
		if !shared {
			res.AddError(ErrorNotSharedInRemote)
		} else {
			delete(acl, email)
			if entry.AccessLevel != row.Sharing.Access {
				res.AddError(ErrorDifferentAccess)
			}
			if entry.CanCompute != row.Sharing.CanCompute {
				res.AddError(ErrorDifferentCanCompute)
			}
			if entry.CanShare != row.Sharing.CanShare() {
				res.AddError(ErrorDifferentCanShare)
			}
		}
		if err := a.Add(res); err != nil {
			return err
		}
	}

	// Suppressions are pre-sorted by email by the store.
	for _, s := range a.suppressions {
		ign := IgnoredResult{SuppressionID: s.ID, Email: s.Email}
		if entry, ok := acl[s.Email]; ok {
			delete(acl, s.Email)
			ign.CurrentRole = entry.AccessLevel
		}
		if err := a.Add(ign); err != nil {
			return err
		}
	}

	emails := make([]string, 0, len(acl))
	for email := range acl {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		entry := acl[email]
		err := a.Add(NotInAppResult{
			Kind:        NotInAppWorkspaceACL,
			Email:       email,
			AccessLevel: entry.AccessLevel,
			CanCompute:  entry.CanCompute,
			CanShare:    entry.CanShare,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
