// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context) ([]User, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

// Queries use ? placeholders and go through Rebind, so the same text runs on
// MySQL and Postgres.
type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, password, phone, role, status,
		       last_login, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password, phone, role, status)
		VALUES (?, ?, ?, ?, ?, ?)`

	args := []any{
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.Status,
	}

	if r.db.DriverName() == core.DriverPostgres {
		err := r.db.GetContext(ctx, user,
			r.db.Rebind(query+" RETURNING "+userColumns),
			args...,
		)
		if err != nil {
			return wrapCreateError(err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return wrapCreateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: last insert id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("create user: reload: %w", err)
	}
	*user = *created

	return nil
}

func wrapCreateError(err error) error {
	if core.IsDuplicateKeyError(err) {
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	return fmt.Errorf("create user: %w", err)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	var user User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER(?)
		ORDER BY id
		LIMIT 1`

	var user User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password = ?, updated_at = NOW()
		WHERE id = ?`

	return r.execOne(ctx, "update password", query, passwordHash, id)
}

func (r *repository) TouchLastLogin(
	ctx context.Context,
	id int64,
	at time.Time,
) error {
	query := `
		UPDATE users
		SET last_login = ?
		WHERE id = ?`

	return r.execOne(ctx, "touch last login", query, at.UTC(), id)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY id`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT role, COUNT(*) AS total
		FROM users
		GROUP BY role`

	var rows []struct {
		Role  string `db:"role"`
		Total int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}

	return counts, nil
}
