// Package repository is the relational store behind the services: one
// interface per aggregate, implemented over pgx. Services depend on the
// interfaces so tests can swap in in-memory fakes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docuflow/docuflow/internal/models"
)

var (
	ErrNotFound = errors.New("repository: not found")
	ErrConflict = errors.New("repository: unique violation")
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	// GetByPDFID resolves a non-trashed document.
	GetByPDFID(ctx context.Context, pdfID string) (*models.Document, error)
	// GetTrashedByPDFID resolves a document currently in the trash.
	GetTrashedByPDFID(ctx context.Context, pdfID string) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	ListActive(ctx context.Context, ownerID int64) ([]models.Document, error)
	ListArchived(ctx context.Context, ownerID int64) ([]models.Document, error)
	ListTrashed(ctx context.Context, ownerID int64) ([]models.Document, error)
	SetArchived(ctx context.Context, id int64, archived bool) error
	Trash(ctx context.Context, id int64, at time.Time) error
	Restore(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
}

type ShareRepository interface {
	// GetPending returns the pending (status 0) share for the pair, or
	// ErrNotFound. Signed shares are retained for record and never
	// considered by the share fan-out.
	GetPending(ctx context.Context, documentID, employeeID int64) (*models.SharedDocument, error)
	Get(ctx context.Context, id int64) (*models.SharedDocument, error)
	Delete(ctx context.Context, id int64) error
	// Create inserts the share and runs send inside the same transactional
	// unit; a send error rolls the insert back. When a concurrent insert
	// wins the unique index, the existing pending share is returned with
	// created = false and send is not called.
	Create(ctx context.Context, share *models.SharedDocument, send func(*models.SharedDocument) error) (created bool, out *models.SharedDocument, err error)
	// MarkSigned persists the resave outcome: name, blob path, canvas,
	// pages, status, signed_at, and a zeroed valid_for.
	MarkSigned(ctx context.Context, share *models.SharedDocument) error
	ListByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error)
	ListSignedByOwner(ctx context.Context, ownerID int64) ([]models.SharedDocument, error)
}

type PartialRepository interface {
	Create(ctx context.Context, p *models.Partial) (*models.Partial, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Partial, error)
}

type EmployeeRepository interface {
	Get(ctx context.Context, id int64) (*models.Employee, error)
	GetOwned(ctx context.Context, ownerID, id int64) (*models.Employee, error)
	List(ctx context.Context, ownerID int64) ([]models.Employee, error)
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type TemplateRepository interface {
	List(ctx context.Context) ([]models.EmailTemplate, error)
	Get(ctx context.Context, id int64) (*models.EmailTemplate, error)
	GetTemplateByName(ctx context.Context, name string) (*models.EmailTemplate, error)
	Create(ctx context.Context, t *models.EmailTemplate) (*models.EmailTemplate, error)
	Update(ctx context.Context, t *models.EmailTemplate) error
	Delete(ctx context.Context, id int64) error
	ListVariables(ctx context.Context, templateID int64) ([]models.EmailTemplateVariable, error)
	UpsertVariable(ctx context.Context, v *models.EmailTemplateVariable) error
}

type OtpRepository interface {
	// InvalidateForEmail marks every prior code for the email as verified.
	InvalidateForEmail(ctx context.Context, email string) error
	Create(ctx context.Context, code *models.OtpCode) (*models.OtpCode, error)
	// LatestValid returns the most recent unverified, unexpired code.
	LatestValid(ctx context.Context, email string, now time.Time) (*models.OtpCode, error)
	MarkVerified(ctx context.Context, id int64) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	SetOTPEnabled(ctx context.Context, id int64, enabled bool) error
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
}

type ActionLogRepository interface {
	Append(ctx context.Context, entry *models.ActionLog) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.ActionLog, error)
	CountByAction(ctx context.Context, userID int64, since time.Time) (map[string]int, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*models.SuperAdminSetting, error)
	Save(ctx context.Context, s *models.SuperAdminSetting) error
}

type BillingRepository interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	CreateSubscription(ctx context.Context, s *models.Subscription) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, providerSubscriptionID, status string, periodEnd *time.Time) error
	GetSubscriptionByUser(ctx context.Context, userID int64) (*models.Subscription, error)
}
