package repository

import (
	"context"
	"database/sql"
	"strings"

	"anviltrack/internal/domain"
)

type ManagedGroupRepo struct {
	db *sql.DB
}

func NewManagedGroupRepo(db *sql.DB) *ManagedGroupRepo {
	return &ManagedGroupRepo{db: db}
}

const groupCols = `id, name, email, is_managed_by_app, created_at`

func (r *ManagedGroupRepo) Create(ctx context.Context, g *domain.ManagedGroup) (*domain.ManagedGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO managed_groups (name, email, is_managed_by_app) VALUES (?, ?, ?)
		 RETURNING `+groupCols,
		g.Name, strings.ToLower(g.Email), boolToInt(g.IsManagedByApp))
	out, err := scanGroup(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *ManagedGroupRepo) GetByID(ctx context.Context, id int64) (*domain.ManagedGroup, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM managed_groups WHERE id = ?`, id)
	out, err := scanGroup(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *ManagedGroupRepo) GetByName(ctx context.Context, name string) (*domain.ManagedGroup, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM managed_groups WHERE name = ?`, name)
	out, err := scanGroup(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *ManagedGroupRepo) List(ctx context.Context) ([]domain.ManagedGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+groupCols+` FROM managed_groups ORDER BY name`)
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

func (r *ManagedGroupRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM managed_groups WHERE id = ?`, id)
	return mapDBError(err)
}

func (r *ManagedGroupRepo) AddGroupMembership(ctx context.Context, m *domain.GroupGroupMembership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_group_memberships (parent_group_id, child_group_id, role) VALUES (?, ?, ?)`,
		m.ParentGroupID, m.ChildGroupID, m.Role)
	return mapDBError(err)
}

func (r *ManagedGroupRepo) RemoveGroupMembership(ctx context.Context, parentID, childID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_group_memberships WHERE parent_group_id = ? AND child_group_id = ?`,
		parentID, childID)
	return mapDBError(err)
}

func (r *ManagedGroupRepo) AddAccountMembership(ctx context.Context, m *domain.GroupAccountMembership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_account_memberships (group_id, account_id, role) VALUES (?, ?, ?)`,
		m.GroupID, m.AccountID, m.Role)
	return mapDBError(err)
}

func (r *ManagedGroupRepo) RemoveAccountMembership(ctx context.Context, groupID, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_account_memberships WHERE group_id = ? AND account_id = ?`,
		groupID, accountID)
	return mapDBError(err)
}

func (r *ManagedGroupRepo) ListGroupMemberships(ctx context.Context, parentID int64) ([]domain.GroupGroupMembershipDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.parent_group_id, m.child_group_id, m.role, m.created_at,
		        g.id, g.name, g.email, g.is_managed_by_app, g.created_at
		 FROM group_group_memberships m
		 JOIN managed_groups g ON g.id = m.child_group_id
		 WHERE m.parent_group_id = ?
		 ORDER BY g.name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.GroupGroupMembershipDetail
	for rows.Next() {
		var d domain.GroupGroupMembershipDetail
		var managed int64
		if err := rows.Scan(
			&d.Membership.ID, &d.Membership.ParentGroupID, &d.Membership.ChildGroupID,
			&d.Membership.Role, &d.Membership.CreatedAt,
			&d.ChildGroup.ID, &d.ChildGroup.Name, &d.ChildGroup.Email, &managed, &d.ChildGroup.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.ChildGroup.IsManagedByApp = managed != 0
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *ManagedGroupRepo) ListAccountMemberships(ctx context.Context, groupID int64) ([]domain.GroupMembershipDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.group_id, m.account_id, m.role, m.created_at,
		        a.id, a.uuid, a.email, a.status, a.is_service_account, a.created_at, a.deactivated_at
		 FROM group_account_memberships m
		 JOIN accounts a ON a.id = m.account_id
		 WHERE m.group_id = ?
		 ORDER BY a.email`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.GroupMembershipDetail
	for rows.Next() {
		var d domain.GroupMembershipDetail
		var isSA int64
		var deactivated sql.NullTime
		if err := rows.Scan(
			&d.Membership.ID, &d.Membership.GroupID, &d.Membership.AccountID,
			&d.Membership.Role, &d.Membership.CreatedAt,
			&d.Account.ID, &d.Account.UUID, &d.Account.Email, &d.Account.Status,
			&isSA, &d.Account.CreatedAt, &deactivated,
		); err != nil {
			return nil, err
		}
		d.Account.IsServiceAccount = isSA != 0
		if deactivated.Valid {
			d.Account.DeactivatedAt = &deactivated.Time
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *ManagedGroupRepo) ListAllGroupMemberships(ctx context.Context) ([]domain.GroupGroupMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_group_id, child_group_id, role, created_at
		 FROM group_group_memberships ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []domain.GroupGroupMembership
	for rows.Next() {
		var m domain.GroupGroupMembership
		if err := rows.Scan(&m.ID, &m.ParentGroupID, &m.ChildGroupID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *ManagedGroupRepo) AccountMembershipCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id, COUNT(*) FROM group_account_memberships GROUP BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanGroup(row rowScanner) (*domain.ManagedGroup, error) {
	var g domain.ManagedGroup
	var managed int64
	if err := row.Scan(&g.ID, &g.Name, &g.Email, &managed, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.IsManagedByApp = managed != 0
	return &g, nil
}
