package repository

import (
	"context"
	"database/sql"

	"anviltrack/internal/domain"
)

type BillingProjectRepo struct {
	db *sql.DB
}

func NewBillingProjectRepo(db *sql.DB) *BillingProjectRepo {
	return &BillingProjectRepo{db: db}
}

func (r *BillingProjectRepo) Create(ctx context.Context, p *domain.BillingProject) (*domain.BillingProject, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO billing_projects (name, has_app_as_user) VALUES (?, ?)
		 RETURNING id, name, has_app_as_user, created_at`,
		p.Name, boolToInt(p.HasAppAsUser))
	out, err := scanBillingProject(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *BillingProjectRepo) GetByID(ctx context.Context, id int64) (*domain.BillingProject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, has_app_as_user, created_at FROM billing_projects WHERE id = ?`, id)
	out, err := scanBillingProject(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *BillingProjectRepo) GetByName(ctx context.Context, name string) (*domain.BillingProject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, has_app_as_user, created_at FROM billing_projects WHERE name = ?`, name)
	out, err := scanBillingProject(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *BillingProjectRepo) List(ctx context.Context) ([]domain.BillingProject, error) {
	return r.list(ctx, `SELECT id, name, has_app_as_user, created_at FROM billing_projects ORDER BY name`)
}

func (r *BillingProjectRepo) ListWithAppAsUser(ctx context.Context) ([]domain.BillingProject, error) {
	return r.list(ctx,
		`SELECT id, name, has_app_as_user, created_at FROM billing_projects WHERE has_app_as_user = 1 ORDER BY name`)
}

func (r *BillingProjectRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM billing_projects WHERE id = ?`, id)
	return mapDBError(err)
}

func (r *BillingProjectRepo) list(ctx context.Context, query string) ([]domain.BillingProject, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.BillingProject
	for rows.Next() {
		var p domain.BillingProject
		var hasApp int64
		if err := rows.Scan(&p.ID, &p.Name, &hasApp, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.HasAppAsUser = hasApp != 0
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBillingProject(row rowScanner) (*domain.BillingProject, error) {
	var p domain.BillingProject
	var hasApp int64
	if err := row.Scan(&p.ID, &p.Name, &hasApp, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.HasAppAsUser = hasApp != 0
	return &p, nil
}
