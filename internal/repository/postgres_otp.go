package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuflow/docuflow/internal/models"
)

type PostgresOtp struct {
	db *pgxpool.Pool
}

func (r *PostgresOtp) InvalidateForEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `UPDATE otp_codes SET verified = TRUE WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("invalidate otp codes for %s: %w", email, err)
	}
	return nil
}

func (r *PostgresOtp) Create(ctx context.Context, code *models.OtpCode) (*models.OtpCode, error) {
	var out models.OtpCode
	err := r.db.QueryRow(ctx,
		`INSERT INTO otp_codes (user_id, email, otp_code, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, email, otp_code, expires_at, verified, created_at`,
		code.UserID, code.Email, code.Code, code.ExpiresAt,
	).Scan(&out.ID, &out.UserID, &out.Email, &out.Code, &out.ExpiresAt, &out.Verified, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert otp code: %w", err)
	}
	return &out, nil
}

func (r *PostgresOtp) LatestValid(ctx context.Context, email string, now time.Time) (*models.OtpCode, error) {
	var o models.OtpCode
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, email, otp_code, expires_at, verified, created_at
		 FROM otp_codes
		 WHERE email = $1 AND NOT verified AND expires_at > $2
		 ORDER BY id DESC LIMIT 1`,
		email, now,
	).Scan(&o.ID, &o.UserID, &o.Email, &o.Code, &o.ExpiresAt, &o.Verified, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("latest otp code for %s: %w", email, mapErr(err))
	}
	return &o, nil
}

func (r *PostgresOtp) MarkVerified(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE otp_codes SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark otp %d verified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
