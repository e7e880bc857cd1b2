// Package otp implements the 4-digit step-up codes bound to an email
// address. Creating a code invalidates every prior code for that email.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
)

const (
	codeDigits = 4
	// Lifetime of a code from issuance.
	TTL = 10 * time.Minute
)

// Mailer delivers the code. Satisfied by mail.Mailer.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

type Service struct {
	codes  repository.OtpRepository
	mailer Mailer
	now    func() time.Time
}

func NewService(codes repository.OtpRepository, mailer Mailer) *Service {
	return &Service{codes: codes, mailer: mailer, now: time.Now}
}

// Request invalidates prior codes for the email, issues a fresh one and
// mails it. The mail send happens after the insert; at-least-once delivery
// is acceptable, a phantom valid-but-unsent code is not, so a failed send
// invalidates the fresh code again.
func (s *Service) Request(ctx context.Context, email string, userID *int64) error {
	if email == "" {
		return apperr.Validation("email is required", map[string]string{"email": "required"})
	}

	if err := s.codes.InvalidateForEmail(ctx, email); err != nil {
		return fmt.Errorf("invalidate prior codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}
	created, err := s.codes.Create(ctx, &models.OtpCode{
		UserID:    userID,
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(TTL),
	})
	if err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		if invErr := s.codes.MarkVerified(ctx, created.ID); invErr != nil {
			return fmt.Errorf("invalidate undelivered code: %w", invErr)
		}
		return err
	}
	return nil
}

// Verify redeems the most recent live code for the email. A matching code is
// consumed; it cannot be redeemed twice.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return apperr.Validation("email and otp code are required", map[string]string{
			"email": "required", "otp_code": "required",
		})
	}

	latest, err := s.codes.LatestValid(ctx, email, s.now())
	if err != nil {
		return apperr.Expired("otp code is invalid or expired")
	}
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		return apperr.Expired("otp code is invalid or expired")
	}
	if err := s.codes.MarkVerified(ctx, latest.ID); err != nil {
		return fmt.Errorf("consume otp code: %w", err)
	}
	return nil
}

// generateCode draws a zero-padded 4-digit code from a cryptographic source.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
