package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"anviltrack/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountCols = `id, uuid, email, status, is_service_account, created_at, deactivated_at`

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	status := a.Status
	if status == "" {
		status = domain.AccountActive
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (uuid, email, status, is_service_account) VALUES (?, ?, ?, ?)
		 RETURNING `+accountCols,
		a.UUID, strings.ToLower(a.Email), status, boolToInt(a.IsServiceAccount))
	out, err := scanAccount(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	out, err := scanAccount(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE email = ?`, strings.ToLower(email))
	out, err := scanAccount(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	return r.list(ctx, `SELECT `+accountCols+` FROM accounts ORDER BY email`)
}

func (r *AccountRepo) ListActive(ctx context.Context) ([]domain.Account, error) {
	return r.list(ctx, `SELECT `+accountCols+` FROM accounts WHERE status = 'ACTIVE' ORDER BY email`)
}

func (r *AccountRepo) SetStatus(ctx context.Context, id int64, status string) error {
	var deactivatedAt any
	if status == domain.AccountInactive {
		deactivatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = ?, deactivated_at = ? WHERE id = ?`, status, deactivatedAt, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("account %d not found", id)
	}
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return mapDBError(err)
}

func (r *AccountRepo) list(ctx context.Context, query string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var isSA int64
	var deactivated sql.NullTime
	if err := row.Scan(&a.ID, &a.UUID, &a.Email, &a.Status, &isSA, &a.CreatedAt, &deactivated); err != nil {
		return nil, err
	}
	a.IsServiceAccount = isSA != 0
	if deactivated.Valid {
		a.DeactivatedAt = &deactivated.Time
	}
	return &a, nil
}
