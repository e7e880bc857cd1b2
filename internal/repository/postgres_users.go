package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresUsers struct {
	db *pgxpool.Pool
}

const userColumns = `id, name, email, password_hash, role, otp_enabled, email_verified_at, created_at`

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.OTPEnabled, &u.EmailVerifiedAt, &u.CreatedAt)
}

func (r *PostgresUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	), &u)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapErr(err))
	}
	return &u, nil
}

func (r *PostgresUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	), &u)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", mapErr(err))
	}
	return &u, nil
}

func (r *PostgresUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	var out models.User
	err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		u.Name, u.Email, u.PasswordHash, u.Role,
	), &out)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", mapErr(err))
	}
	return &out, nil
}

func (r *PostgresUsers) SetOTPEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET otp_enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("set otp enabled for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUsers) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET email_verified_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("mark user %d verified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
