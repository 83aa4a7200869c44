package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"anviltrack/internal/domain"
)

// Audit type names, as the API and CLI address them.
const (
	TypeBillingProjects = "billing-projects"
	TypeAccounts        = "accounts"
	TypeManagedGroups   = "managed-groups"
	TypeWorkspaces      = "workspaces"
)

// Types lists the audit types in canonical order.
func Types() []string {
	return []string{TypeBillingProjects, TypeAccounts, TypeManagedGroups, TypeWorkspaces}
}

// Auditor is one runnable audit over a single entity type.
type Auditor interface {
	Run(ctx context.Context) error
	OK() bool
	Export(opts ExportOptions) Export
}

// Repositories bundles the stores the runner audits.
type Repositories struct {
	BillingProjects domain.BillingProjectRepository
	Accounts        domain.AccountRepository
	Groups          domain.ManagedGroupRepository
	Workspaces      domain.WorkspaceRepository
	Ignored         domain.IgnoredRepository
}

// Runner builds and runs auditors and caches the latest report per type.
// Auditors are single-use, so every run constructs fresh ones.
type Runner struct {
	repos  Repositories
	client domain.AnVILClient
	logger *slog.Logger

	mu     sync.RWMutex
	latest map[string]Export
}

func NewRunner(repos Repositories, client domain.AnVILClient, logger *slog.Logger) *Runner {
	return &Runner{
		repos:  repos,
		client: client,
		logger: logger,
		latest: make(map[string]Export),
	}
}

func (r *Runner) newAuditor(auditType string) (Auditor, error) {
	switch auditType {
	case TypeBillingProjects:
		return NewBillingProjectAuditor(r.repos.BillingProjects, r.client), nil
	case TypeAccounts:
		return NewAccountAuditor(r.repos.Accounts, r.client), nil
	case TypeManagedGroups:
		return NewManagedGroupAuditor(r.repos.Groups, r.repos.Ignored, r.client), nil
	case TypeWorkspaces:
		return NewWorkspaceAuditor(r.repos.Workspaces, r.repos.Ignored, r.client), nil
	default:
		return nil, domain.ErrValidation("unknown audit type %q", auditType)
	}
}

// Run executes one audit type and caches its full report.
func (r *Runner) Run(ctx context.Context, auditType string) (Export, error) {
	auditor, err := r.newAuditor(auditType)
	if err != nil {
		return Export{}, err
	}
	started := time.Now()
	r.logger.Info("audit started", "type", auditType)
	if err := auditor.Run(ctx); err != nil {
		r.logger.Error("audit failed", "type", auditType, "error", err)
		return Export{}, err
	}
	export := auditor.Export(FullExport())
	r.logger.Info("audit finished",
		"type", auditType,
		"ok", export.OK,
		"verified", len(export.Verified),
		"errors", len(export.Errors),
		"not_in_app", len(export.NotInApp),
		"duration", time.Since(started),
	)
	r.mu.Lock()
	r.latest[auditType] = export
	r.mu.Unlock()
	return export, nil
}

// RunAll executes every audit type concurrently. Entity types touch
// disjoint remote surfaces, so the runs do not interfere.
func (r *Runner) RunAll(ctx context.Context) (map[string]Export, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make(map[string]Export, len(Types()))
	var mu sync.Mutex
	for _, auditType := range Types() {
		g.Go(func() error {
			export, err := r.Run(ctx, auditType)
			if err != nil {
				return err
			}
			mu.Lock()
			results[auditType] = export
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Latest returns the cached report for an audit type, if any run has
// completed since startup.
func (r *Runner) Latest(auditType string) (Export, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	export, ok := r.latest[auditType]
	return export, ok
}
