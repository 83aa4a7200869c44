package repository

import (
	"context"
	"database/sql"
	"strings"

	"anviltrack/internal/domain"
)

type IgnoredRepo struct {
	db *sql.DB
}

func NewIgnoredRepo(db *sql.DB) *IgnoredRepo {
	return &IgnoredRepo{db: db}
}

func (r *IgnoredRepo) AddGroupMembership(ctx context.Context, i *domain.IgnoredGroupMembership) (*domain.IgnoredGroupMembership, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO ignored_group_memberships (group_id, email, added_by, note) VALUES (?, ?, ?, ?)
		 RETURNING id, group_id, email, added_by, note, created_at`,
		i.GroupID, strings.ToLower(i.Email), i.AddedBy, i.Note)
	var out domain.IgnoredGroupMembership
	if err := row.Scan(&out.ID, &out.GroupID, &out.Email, &out.AddedBy, &out.Note, &out.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *IgnoredRepo) ListGroupMemberships(ctx context.Context, groupID int64) ([]domain.IgnoredGroupMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, email, added_by, note, created_at
		 FROM ignored_group_memberships WHERE group_id = ? ORDER BY email`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ignored []domain.IgnoredGroupMembership
	for rows.Next() {
		var i domain.IgnoredGroupMembership
		if err := rows.Scan(&i.ID, &i.GroupID, &i.Email, &i.AddedBy, &i.Note, &i.CreatedAt); err != nil {
			return nil, err
		}
		ignored = append(ignored, i)
	}
	return ignored, rows.Err()
}

func (r *IgnoredRepo) DeleteGroupMembership(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ignored_group_memberships WHERE id = ?`, id)
	return mapDBError(err)
}

func (r *IgnoredRepo) AddWorkspaceSharing(ctx context.Context, i *domain.IgnoredWorkspaceSharing) (*domain.IgnoredWorkspaceSharing, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO ignored_workspace_sharing (workspace_id, email, added_by, note) VALUES (?, ?, ?, ?)
		 RETURNING id, workspace_id, email, added_by, note, created_at`,
		i.WorkspaceID, strings.ToLower(i.Email), i.AddedBy, i.Note)
	var out domain.IgnoredWorkspaceSharing
	if err := row.Scan(&out.ID, &out.WorkspaceID, &out.Email, &out.AddedBy, &out.Note, &out.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *IgnoredRepo) ListWorkspaceSharings(ctx context.Context, workspaceID int64) ([]domain.IgnoredWorkspaceSharing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, email, added_by, note, created_at
		 FROM ignored_workspace_sharing WHERE workspace_id = ? ORDER BY email`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ignored []domain.IgnoredWorkspaceSharing
	for rows.Next() {
		var i domain.IgnoredWorkspaceSharing
		if err := rows.Scan(&i.ID, &i.WorkspaceID, &i.Email, &i.AddedBy, &i.Note, &i.CreatedAt); err != nil {
			return nil, err
		}
		ignored = append(ignored, i)
	}
	return ignored, rows.Err()
}

func (r *IgnoredRepo) DeleteWorkspaceSharing(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ignored_workspace_sharing WHERE id = ?`, id)
	return mapDBError(err)
}
