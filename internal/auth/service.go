// Package auth issues bearer tokens, verifies them on every request, and
// handles registration with signed email-verification URLs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/signer"
)

const (
	tokenTTL = 24 * time.Hour
	// verifyRoute is both the frontend path and the route name folded into
	// verification signatures.
	verifyRoute = "/verify-email"
	verifyTTL   = 60 * time.Minute
)

// VerificationMailer delivers the signed verification URL. Satisfied by
// mail.Mailer.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, verificationURL string, user *models.User) error
}

type Service struct {
	users       repository.UserRepository
	signer      *signer.Signer
	mailer      VerificationMailer
	jwtSecret   []byte
	frontendURL string
	now         func() time.Time
}

func NewService(users repository.UserRepository, sg *signer.Signer, mailer VerificationMailer, jwtSecret, frontendURL string) *Service {
	return &Service{
		users:       users,
		signer:      sg,
		mailer:      mailer,
		jwtSecret:   []byte(jwtSecret),
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
	// OTPRequired reports that the user has step-up enabled and must pass
	// OTP verification before the token is usable for sensitive routes.
	OTPRequired bool `json:"otp_required"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid registration", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("an account with this email already exists", map[string]string{"email": "already taken"})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	verifyURL := s.signer.URL(s.frontendURL, verifyRoute, user.ID, user.Email, s.now().Add(verifyTTL))
	if err := s.mailer.SendVerification(ctx, user.Email, verifyURL, user); err != nil {
		// The account exists; verification can be re-requested later.
		return nil, apperr.Dependency("sending verification mail failed", err)
	}

	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.session(user)
}

// VerifyEmail consumes a signed verification URL.
func (s *Service) VerifyEmail(ctx context.Context, userID int64, expires, signature string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}
	if !s.signer.Verify(verifyRoute, user.ID, user.Email, expires, signature, s.now()) {
		return apperr.New(apperr.KindExpired, "verification link is invalid or expired")
	}
	if user.EmailVerifiedAt != nil {
		return nil
	}
	return s.users.MarkEmailVerified(ctx, user.ID, s.now())
}

// SessionForEmail issues a session for an already-authenticated identity,
// used after a successful OTP verification.
func (s *Service) SessionForEmail(ctx context.Context, email string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	sess, err := s.session(user)
	if err != nil {
		return nil, err
	}
	sess.OTPRequired = false
	return sess, nil
}

func (s *Service) SetOTPEnabled(ctx context.Context, userID int64, enabled bool) error {
	return s.users.SetOTPEnabled(ctx, userID, enabled)
}

func (s *Service) session(user *models.User) (*Session, error) {
	claims := &Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: user, OTPRequired: user.OTPEnabled}, nil
}
