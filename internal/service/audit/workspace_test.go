package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anviltrack/internal/domain"
	"anviltrack/internal/testutil"
)

func remoteWS(namespace, name, access string, locked bool, authDomains ...string) domain.RemoteWorkspace {
	return domain.RemoteWorkspace{
		Namespace:   namespace,
		Name:        name,
		AccessLevel: access,
		AuthDomains: authDomains,
		IsLocked:    locked,
	}
}

func TestWorkspaceAuditorVerified(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	authDomain := env.group("restricted-users", false)
	readers := env.group("readers", true)
	w := env.workspace(p, "cohort-a", true, true, authDomain.ID)
	env.share(w, readers, domain.AccessReader, false)

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "cohort-a", domain.AccessOwner, true, "restricted-users"),
		},
		RequesterPays: map[string]bool{"genomics/cohort-a": true},
		ACLs: map[string]map[string]domain.RemoteACLEntry{
			"genomics/cohort-a": {
				saEmail:                 {AccessLevel: domain.AccessOwner, CanCompute: true, CanShare: true},
				"readers@firecloud.org": {AccessLevel: domain.AccessReader},
			},
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	assert.True(t, a.OK())
	sub, ok := a.SharingAudit("genomics/cohort-a")
	require.True(t, ok)
	assert.True(t, sub.OK())
}

func TestWorkspaceAuditorNotInRemote(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	w := env.workspace(p, "vanished", false, false)
	client := &testutil.FakeAnVIL{}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	detail, err := env.repos.Workspaces.GetDetail(env.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ErrorNotInRemote}, errorsFor(t, a.Engine, refWorkspace(*detail)))
}

func TestWorkspaceAuditorNotOwnerSkipsSharingAndBucket(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	w := env.workspace(p, "borrowed", false, false)

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			// Locked remotely while tracked unlocked: the lock and auth
			// domain checks still apply to a non-owner.
			remoteWS("genomics", "borrowed", domain.AccessWriter, true),
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	detail, err := env.repos.Workspaces.GetDetail(env.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{ErrorDifferentLock, ErrorNotOwnerInRemote},
		errorsFor(t, a.Engine, refWorkspace(*detail)))
	_, ok := a.SharingAudit("genomics/borrowed")
	assert.False(t, ok)
}

func TestWorkspaceAuditorFlagMismatches(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	authDomain := env.group("restricted-users", false)
	w := env.workspace(p, "cohort-b", false, false, authDomain.ID)

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			// Wrong auth domain, remotely locked, bucket requester-pays on.
			remoteWS("genomics", "cohort-b", domain.AccessOwner, true, "other-domain"),
		},
		RequesterPays: map[string]bool{"genomics/cohort-b": true},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	detail, err := env.repos.Workspaces.GetDetail(env.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{ErrorDifferentAuthDomains, ErrorDifferentLock, ErrorDifferentRequesterPays},
		errorsFor(t, a.Engine, refWorkspace(*detail)))
}

func TestWorkspaceAuditorNotInApp(t *testing.T) {
	env := newEnv(t)
	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "owned-stray", domain.AccessOwner, false),
			// Read access to someone else's workspace is not app state.
			remoteWS("other-lab", "shared-with-us", domain.AccessReader, false),
		},
		ACLs: map[string]map[string]domain.RemoteACLEntry{},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	export := a.Export(FullExport())
	assert.Equal(t, []string{"genomics/owned-stray"}, export.NotInApp)
}

func TestWorkspaceSharingAuditorDiscrepancies(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	gone := env.group("gone-group", true)
	demoted := env.group("demoted", true)
	compute := env.group("no-compute", true)
	w := env.workspace(p, "cohort-c", false, false)
	env.share(w, gone, domain.AccessReader, false)
	env.share(w, demoted, domain.AccessWriter, true)
	env.share(w, compute, domain.AccessWriter, true)

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "cohort-c", domain.AccessOwner, false),
		},
		ACLs: map[string]map[string]domain.RemoteACLEntry{
			"genomics/cohort-c": {
				saEmail:                    {AccessLevel: domain.AccessOwner, CanCompute: true, CanShare: true},
				"demoted@firecloud.org":    {AccessLevel: domain.AccessReader, CanCompute: true},
				"no-compute@firecloud.org": {AccessLevel: domain.AccessWriter, CanCompute: false},
			},
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	detail, err := env.repos.Workspaces.GetDetail(env.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ErrorWorkspaceSharingMismatch}, errorsFor(t, a.Engine, refWorkspace(*detail)))

	sub, ok := a.SharingAudit("genomics/cohort-c")
	require.True(t, ok)
	byName := make(map[string][]string)
	for _, r := range sub.Failed() {
		byName[r.Entity.Name] = r.Errors()
	}
	assert.Equal(t, []string{ErrorNotSharedInRemote},
		byName["genomics/cohort-c shared with gone-group@firecloud.org as READER"])
	assert.Equal(t, []string{ErrorDifferentAccess},
		byName["genomics/cohort-c shared with demoted@firecloud.org as WRITER"])
	assert.Equal(t, []string{ErrorDifferentCanCompute},
		byName["genomics/cohort-c shared with no-compute@firecloud.org as WRITER"])
}

func TestWorkspaceSharingAuditorCanShareDerived(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	owners := env.group("co-owners", true)
	w := env.workspace(p, "cohort-d", false, false)
	env.share(w, owners, domain.AccessOwner, true)

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "cohort-d", domain.AccessOwner, false),
		},
		ACLs: map[string]map[string]domain.RemoteACLEntry{
			"genomics/cohort-d": {
				// Remote owner entry without share rights contradicts the
				// derived expectation for owners.
				"co-owners@firecloud.org": {AccessLevel: domain.AccessOwner, CanCompute: true, CanShare: false},
			},
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	sub, ok := a.SharingAudit("genomics/cohort-d")
	require.True(t, ok)
	require.Len(t, sub.Failed(), 1)
	assert.Equal(t, []string{ErrorDifferentCanShare}, sub.Failed()[0].Errors())
}

func TestWorkspaceSharingAuditorUnsharedACL(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	readers := env.group("readers", true)
	w := env.workspace(p, "cohort-e", false, false)
	env.share(w, readers, domain.AccessReader, false)

	// No ACL entry at all: the workspace is shared with nobody.
	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "cohort-e", domain.AccessOwner, false),
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	sub, ok := a.SharingAudit("genomics/cohort-e")
	require.True(t, ok)
	require.Len(t, sub.Failed(), 1)
	assert.Equal(t, []string{ErrorNotSharedInRemote}, sub.Failed()[0].Errors())
}

func TestWorkspaceSharingAuditorNotInAppAndSuppressions(t *testing.T) {
	env := newEnv(t)
	p := env.billingProject("genomics", true)
	w := env.workspace(p, "cohort-f", false, false)
	suppressed := env.ignoreSharing(w, "collaborator@example.com")

	client := &testutil.FakeAnVIL{
		Workspaces: []domain.RemoteWorkspace{
			remoteWS("genomics", "cohort-f", domain.AccessOwner, false),
		},
		ACLs: map[string]map[string]domain.RemoteACLEntry{
			"genomics/cohort-f": {
				saEmail:                    {AccessLevel: domain.AccessOwner, CanCompute: true, CanShare: true},
				"collaborator@example.com": {AccessLevel: domain.AccessReader},
				"uninvited@example.com":    {AccessLevel: domain.AccessWriter, CanCompute: true},
			},
		},
	}

	a := NewWorkspaceAuditor(env.repos.Workspaces, env.repos.Ignored, client)
	require.NoError(t, a.Run(env.ctx))

	sub, ok := a.SharingAudit("genomics/cohort-f")
	require.True(t, ok)
	export := sub.Export(FullExport())
	assert.Equal(t, []string{"WRITER: uninvited@example.com"}, export.NotInApp)
	require.Len(t, export.Ignored, 1)
	assert.Equal(t, suppressed.ID, export.Ignored[0].SuppressionID)
	assert.Equal(t, "READER: collaborator@example.com", export.Ignored[0].Record)
}
