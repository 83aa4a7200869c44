package repository

import (
	"context"
	"database/sql"
	"fmt"

	"anviltrack/internal/domain"
)

type WorkspaceRepo struct {
	db *sql.DB
}

func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo {
	return &WorkspaceRepo{db: db}
}

const workspaceCols = `id, billing_project_id, name, is_locked, is_requester_pays, created_at`

func (r *WorkspaceRepo) Create(ctx context.Context, w *domain.Workspace, authDomainIDs []int64) (*domain.Workspace, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`INSERT INTO workspaces (billing_project_id, name, is_locked, is_requester_pays) VALUES (?, ?, ?, ?)
		 RETURNING `+workspaceCols,
		w.BillingProjectID, w.Name, boolToInt(w.IsLocked), boolToInt(w.IsRequesterPays))
	out, err := scanWorkspace(row)
	if err != nil {
		return nil, mapDBError(err)
	}

	for _, groupID := range authDomainIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workspace_auth_domains (workspace_id, group_id) VALUES (?, ?)`,
			out.ID, groupID); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id int64) (*domain.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workspaceCols+` FROM workspaces WHERE id = ?`, id)
	out, err := scanWorkspace(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *WorkspaceRepo) GetDetail(ctx context.Context, id int64) (*domain.WorkspaceDetail, error) {
	details, err := r.listDetails(ctx, `WHERE w.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrNotFound("workspace %d not found", id)
	}
	return &details[0], nil
}

func (r *WorkspaceRepo) ListDetails(ctx context.Context) ([]domain.WorkspaceDetail, error) {
	return r.listDetails(ctx, ``)
}

func (r *WorkspaceRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	return mapDBError(err)
}

func (r *WorkspaceRepo) Share(ctx context.Context, s *domain.WorkspaceGroupSharing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_group_sharing (workspace_id, group_id, access, can_compute) VALUES (?, ?, ?, ?)`,
		s.WorkspaceID, s.GroupID, s.Access, boolToInt(s.CanCompute))
	return mapDBError(err)
}

func (r *WorkspaceRepo) Unshare(ctx context.Context, workspaceID, groupID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_group_sharing WHERE workspace_id = ? AND group_id = ?`,
		workspaceID, groupID)
	return mapDBError(err)
}

func (r *WorkspaceRepo) ListSharing(ctx context.Context, workspaceID int64) ([]domain.WorkspaceSharingDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.workspace_id, s.group_id, s.access, s.can_compute, s.created_at,
		        g.id, g.name, g.email, g.is_managed_by_app, g.created_at
		 FROM workspace_group_sharing s
		 JOIN managed_groups g ON g.id = s.group_id
		 WHERE s.workspace_id = ?
		 ORDER BY g.email`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.WorkspaceSharingDetail
	for rows.Next() {
		var d domain.WorkspaceSharingDetail
		var canCompute, managed int64
		if err := rows.Scan(
			&d.Sharing.ID, &d.Sharing.WorkspaceID, &d.Sharing.GroupID,
			&d.Sharing.Access, &canCompute, &d.Sharing.CreatedAt,
			&d.Group.ID, &d.Group.Name, &d.Group.Email, &managed, &d.Group.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Sharing.CanCompute = canCompute != 0
		d.Group.IsManagedByApp = managed != 0
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *WorkspaceRepo) listDetails(ctx context.Context, where string, args ...any) ([]domain.WorkspaceDetail, error) {
	query := fmt.Sprintf(
		`SELECT w.id, w.billing_project_id, w.name, w.is_locked, w.is_requester_pays, w.created_at,
		        b.id, b.name, b.has_app_as_user, b.created_at
		 FROM workspaces w
		 JOIN billing_projects b ON b.id = w.billing_project_id
		 %s
		 ORDER BY b.name, w.name`, where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.WorkspaceDetail
	for rows.Next() {
		var d domain.WorkspaceDetail
		var locked, requesterPays, hasApp int64
		if err := rows.Scan(
			&d.Workspace.ID, &d.Workspace.BillingProjectID, &d.Workspace.Name,
			&locked, &requesterPays, &d.Workspace.CreatedAt,
			&d.BillingProject.ID, &d.BillingProject.Name, &hasApp, &d.BillingProject.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Workspace.IsLocked = locked != 0
		d.Workspace.IsRequesterPays = requesterPays != 0
		d.BillingProject.HasAppAsUser = hasApp != 0
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		domains, err := r.authDomains(ctx, details[i].Workspace.ID)
		if err != nil {
			return nil, err
		}
		details[i].AuthDomains = domains
	}
	return details, nil
}

func (r *WorkspaceRepo) authDomains(ctx context.Context, workspaceID int64) ([]domain.ManagedGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.email, g.is_managed_by_app, g.created_at
		 FROM workspace_auth_domains d
		 JOIN managed_groups g ON g.id = d.group_id
		 WHERE d.workspace_id = ?
		 ORDER BY g.name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.ManagedGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func scanWorkspace(row rowScanner) (*domain.Workspace, error) {
	var w domain.Workspace
	var locked, requesterPays int64
	if err := row.Scan(&w.ID, &w.BillingProjectID, &w.Name, &locked, &requesterPays, &w.CreatedAt); err != nil {
		return nil, err
	}
	w.IsLocked = locked != 0
	w.IsRequesterPays = requesterPays != 0
	return &w, nil
}
