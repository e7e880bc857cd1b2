// Package document implements the signing workflow around uploaded PDFs:
// lifecycle (active, archived, trashed), the per-recipient share fan-out,
// reminders, and the signed re-save that finalizes a share.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/internal/actionlog"
	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/pkg/pdfinfo"
)

// ShareMailer delivers the tokenized share link. Satisfied by mail.Mailer.
type ShareMailer interface {
	SendShareDocument(ctx context.Context, to string, sharedDocumentID int64, documentPDFID string, employeeID int64, kind string) error
}

// HashSource issues share access hashes. Satisfied by token.Issuer.
type HashSource interface {
	AccessHash() (string, error)
}

type Service struct {
	docs      repository.DocumentRepository
	shares    repository.ShareRepository
	partials  repository.PartialRepository
	employees repository.EmployeeRepository
	store     storage.Storage
	mailer    ShareMailer
	tokens    HashSource
	actions   *actionlog.Recorder
	log       *slog.Logger

	// validFor is the lifetime in minutes granted to new shares.
	validFor int
	now      func() time.Time
}

type Deps struct {
	Documents repository.DocumentRepository
	Shares    repository.ShareRepository
	Partials  repository.PartialRepository
	Employees repository.EmployeeRepository
	Storage   storage.Storage
	Mailer    ShareMailer
	Tokens    HashSource
	Actions   *actionlog.Recorder
	Logger    *slog.Logger
	ValidFor  int
}

func NewService(d Deps) *Service {
	return &Service{
		docs:      d.Documents,
		shares:    d.Shares,
		partials:  d.Partials,
		employees: d.Employees,
		store:     d.Storage,
		mailer:    d.Mailer,
		tokens:    d.Tokens,
		actions:   d.Actions,
		log:       d.Logger,
		validFor:  d.ValidFor,
		now:       time.Now,
	}
}

type CreateInput struct {
	PDFID      string
	Name       string
	PDFBase64  string
	Pages      int
	Canvas     json.RawMessage
	UpdateDate int64
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*models.Document, error) {
	if in.PDFID == "" {
		return nil, apperr.Validation("pdf id is required", map[string]string{"PDFId": "required"})
	}
	if in.Name == "" {
		return nil, apperr.Validation("name is required", map[string]string{"name": "required"})
	}
	pdf, err := DecodeBase64PDF(in.PDFBase64)
	if err != nil {
		return nil, err
	}
	if !pdfinfo.IsPDF(pdf) {
		return nil, apperr.Validation("file is not a pdf", map[string]string{"PDFBase64": "must be a PDF document"})
	}
	if in.Pages <= 0 {
		// Derive the page count from the file when the client omits it.
		pages, err := pdfinfo.Inspect(pdf)
		if err != nil {
			return nil, apperr.Validation("pages must be positive", map[string]string{"pages": "must be a positive integer"})
		}
		in.Pages = pages
	}
	canvas, err := normalizeCanvas(in.Canvas)
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.Create(ctx, &models.Document{
		PDFID:      in.PDFID,
		UserID:     ownerID,
		Name:       in.Name,
		FilePath:   pdfKey(in.PDFID),
		Pages:      in.Pages,
		Canvas:     canvas,
		UpdateDate: in.UpdateDate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("a document with this pdf id already exists", map[string]string{"PDFId": "already taken"})
		}
		return nil, fmt.Errorf("create document %s: %w", in.PDFID, err)
	}

	if err := s.store.Put(ctx, doc.FilePath, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
		if delErr := s.docs.ForceDelete(ctx, doc.ID); delErr != nil {
			s.log.Error("rollback of document row failed after blob write error",
				"pdf_id", in.PDFID, "error", delErr)
		}
		return nil, apperr.Dependency("storing pdf failed", err)
	}

	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionCreated)
	return doc, nil
}

type UpdatePatch struct {
	Name       *string
	Pages      *int
	Canvas     json.RawMessage
	PDFBase64  *string
	UpdateDate *int64
}

func (s *Service) Update(ctx context.Context, ownerID int64, pdfID string, patch UpdatePatch) (*models.Document, error) {
	doc, err := s.owned(ctx, ownerID, pdfID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.Pages != nil {
		if *patch.Pages <= 0 {
			return nil, apperr.Validation("pages must be positive", map[string]string{"pages": "must be a positive integer"})
		}
		doc.Pages = *patch.Pages
	}
	if patch.Canvas != nil {
		canvas, err := normalizeCanvas(patch.Canvas)
		if err != nil {
			return nil, err
		}
		doc.Canvas = canvas
	}
	if patch.UpdateDate != nil {
		doc.UpdateDate = *patch.UpdateDate
	}
	if patch.PDFBase64 != nil {
		pdf, err := DecodeBase64PDF(*patch.PDFBase64)
		if err != nil {
			return nil, err
		}
		if !pdfinfo.IsPDF(pdf) {
			return nil, apperr.Validation("file is not a pdf", map[string]string{"PDFBase64": "must be a PDF document"})
		}
		// The blob key is stable across updates.
		if err := s.store.Put(ctx, doc.FilePath, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
			return nil, apperr.Dependency("storing pdf failed", err)
		}
	}

	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionUpdated)
	return doc, nil
}

// ShareOutcome is the per-recipient result of a fan-out. A failed recipient
// never aborts its siblings; the error is carried here instead.
type ShareOutcome struct {
	DocumentPDFID string                 `json:"document_pdf_id"`
	EmployeeID    int64                  `json:"employee_id"`
	Share         *models.SharedDocument `json:"share,omitempty"`
	Created       bool                   `json:"created"`
	Error         string                 `json:"error,omitempty"`
}

type ShareResult struct {
	TotalNewShares int            `json:"total_shares"`
	Outcomes       []ShareOutcome `json:"shares"`
}

func (s *Service) Share(ctx context.Context, ownerID int64, pdfID string, employeeIDs []int64) (*ShareResult, error) {
	if len(employeeIDs) == 0 {
		return nil, apperr.Validation("at least one employee is required", map[string]string{"employee_ids": "required"})
	}
	doc, err := s.owned(ctx, ownerID, pdfID)
	if err != nil {
		return nil, err
	}

	res := &ShareResult{}
	for _, empID := range employeeIDs {
		outcome := s.shareOne(ctx, doc, empID)
		if outcome.Created {
			res.TotalNewShares++
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}
	return res, nil
}

// shareOne runs the fan-out policy for a single recipient: reuse a live
// pending share, replace an expired one, or create fresh and mail the link.
// Insert and mail send run in one transactional unit so a failed send never
// leaves a phantom share behind.
func (s *Service) shareOne(ctx context.Context, doc *models.Document, employeeID int64) ShareOutcome {
	out := ShareOutcome{DocumentPDFID: doc.PDFID, EmployeeID: employeeID}

	emp, err := s.employees.GetOwned(ctx, doc.UserID, employeeID)
	if err != nil {
		out.Error = "employee not found"
		return out
	}

	existing, err := s.shares.GetPending(ctx, doc.ID, employeeID)
	if err == nil {
		if !existing.ExpiredAt(s.now()) {
			out.Share = existing
			return out
		}
		if err := s.shares.Delete(ctx, existing.ID); err != nil {
			out.Error = fmt.Sprintf("replace expired share: %v", err)
			return out
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		out.Error = fmt.Sprintf("look up share: %v", err)
		return out
	}

	hash, err := s.tokens.AccessHash()
	if err != nil {
		out.Error = fmt.Sprintf("issue access hash: %v", err)
		return out
	}

	created, share, err := s.shares.Create(ctx, &models.SharedDocument{
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		EmployeeID: employeeID,
		AccessHash: hash,
		Status:     models.ShareStatusPending,
		ValidFor:   s.validFor,
	}, func(pending *models.SharedDocument) error {
		return s.mailer.SendShareDocument(ctx, emp.Email, pending.ID, doc.PDFID, employeeID, "mail")
	})
	if err != nil {
		s.log.Warn("share failed", "pdf_id", doc.PDFID, "employee_id", employeeID, "error", err)
		out.Error = fmt.Sprintf("create share: %v", err)
		return out
	}

	out.Share = share
	out.Created = created
	if created {
		s.actions.Record(ctx, doc.UserID, doc.ID, &employeeID, models.ActionShared)
	}
	return out
}

// BulkShare applies the share fan-out over the cartesian product. Documents
// the caller does not own are skipped with a warning, not an error.
func (s *Service) BulkShare(ctx context.Context, ownerID int64, pdfIDs []string, employeeIDs []int64) (*ShareResult, error) {
	if len(pdfIDs) == 0 || len(employeeIDs) == 0 {
		return nil, apperr.Validation("document ids and employee ids are required", map[string]string{
			"document_ids": "required",
			"employee_ids": "required",
		})
	}

	res := &ShareResult{}
	for _, pdfID := range pdfIDs {
		doc, err := s.owned(ctx, ownerID, pdfID)
		if err != nil {
			s.log.Warn("bulk share skipping document", "pdf_id", pdfID, "user_id", ownerID, "error", err)
			for _, empID := range employeeIDs {
				res.Outcomes = append(res.Outcomes, ShareOutcome{
					DocumentPDFID: pdfID,
					EmployeeID:    empID,
					Error:         "document not found",
				})
			}
			continue
		}
		for _, empID := range employeeIDs {
			outcome := s.shareOne(ctx, doc, empID)
			if outcome.Created {
				res.TotalNewShares++
			}
			res.Outcomes = append(res.Outcomes, outcome)
		}
	}
	return res, nil
}

func (s *Service) Remind(ctx context.Context, ownerID, sharedDocumentID int64) error {
	share, err := s.shares.Get(ctx, sharedDocumentID)
	if err != nil || share.UserID != ownerID {
		return apperr.NotFound("share not found")
	}
	emp, err := s.employees.Get(ctx, share.EmployeeID)
	if err != nil {
		return apperr.NotFound("employee not found")
	}
	doc, err := s.docs.GetByID(ctx, share.DocumentID)
	if err != nil {
		return apperr.NotFound("document not found")
	}

	if err := s.mailer.SendShareDocument(ctx, emp.Email, share.ID, doc.PDFID, emp.ID, "reminder"); err != nil {
		return err
	}
	s.actions.Record(ctx, ownerID, doc.ID, &emp.ID, models.ActionReminded)
	return nil
}

type ResaveInput struct {
	SharedDocumentID int64
	Name             string
	PDFBase64        string
	Pages            int
	Canvas           json.RawMessage
}

// ResaveSigned finalizes a share with the signed PDF. The caller reached this
// through the tokenized link, so no owner check applies; the share id plus
// hash is the capability.
func (s *Service) ResaveSigned(ctx context.Context, in ResaveInput) (*models.SharedDocument, error) {
	share, err := s.shares.Get(ctx, in.SharedDocumentID)
	if err != nil {
		return nil, apperr.NotFound("share not found")
	}
	if share.Status == models.ShareStatusSigned {
		return nil, apperr.Conflict("share is already signed", nil)
	}
	if in.Name == "" {
		return nil, apperr.Validation("name is required", map[string]string{"name": "required"})
	}
	if in.Pages <= 0 {
		return nil, apperr.Validation("pages must be positive", map[string]string{"pages": "must be a positive integer"})
	}
	pdf, err := DecodeBase64PDF(in.PDFBase64)
	if err != nil {
		return nil, err
	}
	if !pdfinfo.IsPDF(pdf) {
		return nil, apperr.Validation("file is not a pdf", map[string]string{"PDFBase64": "must be a PDF document"})
	}
	canvas, err := normalizeCanvas(in.Canvas)
	if err != nil {
		return nil, err
	}

	// A random suffix keeps identically named signed outputs from colliding.
	key := signedKey(in.Name, uuid.NewString()[:8])
	if err := s.store.Put(ctx, key, bytes.NewReader(pdf), int64(len(pdf)), "application/pdf"); err != nil {
		return nil, apperr.Dependency("storing signed pdf failed", err)
	}

	signedAt := s.now()
	share.SharedDocumentName = &in.Name
	share.FilePath = &key
	share.Canvas = canvas
	share.Pages = &in.Pages
	share.Status = models.ShareStatusSigned
	share.SignedAt = &signedAt
	share.ValidFor = 0
	if err := s.shares.MarkSigned(ctx, share); err != nil {
		return nil, fmt.Errorf("mark share %d signed: %w", share.ID, err)
	}

	s.actions.Record(ctx, share.UserID, share.DocumentID, &share.EmployeeID, models.ActionSigned)
	return share, nil
}

// ResolveShareAccess loads a share for the employee-facing view and verifies
// the link identifiers and its liveness. Expired links return KindExpired so
// the boundary can render the terminal page.
func (s *Service) ResolveShareAccess(ctx context.Context, shareID int64, documentPDFID string, employeeID int64) (*models.SharedDocument, error) {
	share, err := s.shares.Get(ctx, shareID)
	if err != nil {
		return nil, apperr.NotFound("share not found")
	}
	if share.EmployeeID != employeeID {
		return nil, apperr.NotFound("share not found")
	}
	doc, err := s.docs.GetByID(ctx, share.DocumentID)
	if err != nil || doc.PDFID != documentPDFID {
		return nil, apperr.NotFound("share not found")
	}
	if share.ExpiredAt(s.now()) {
		return nil, apperr.New(apperr.KindExpired, "this signing link has expired")
	}
	return share, nil
}

type TrackResult struct {
	Shares       []models.SharedDocument `json:"shares"`
	Total        int                     `json:"total"`
	SignedCount  int                     `json:"signed_count"`
	PendingCount int                     `json:"pending_count"`
}

func (s *Service) Track(ctx context.Context, ownerID int64) (*TrackResult, error) {
	shares, err := s.shares.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	res := &TrackResult{Shares: shares, Total: len(shares)}
	for _, sh := range shares {
		if sh.Status == models.ShareStatusSigned {
			res.SignedCount++
		} else {
			res.PendingCount++
		}
	}
	return res, nil
}

func (s *Service) Archive(ctx context.Context, ownerID int64, pdfID string) error {
	doc, err := s.owned(ctx, ownerID, pdfID)
	if err != nil {
		return err
	}
	if err := s.docs.SetArchived(ctx, doc.ID, true); err != nil {
		return fmt.Errorf("archive document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionArchived)
	return nil
}

func (s *Service) Unarchive(ctx context.Context, ownerID int64, pdfID string) error {
	doc, err := s.owned(ctx, ownerID, pdfID)
	if err != nil {
		return err
	}
	if err := s.docs.SetArchived(ctx, doc.ID, false); err != nil {
		return fmt.Errorf("unarchive document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionRestored)
	return nil
}

func (s *Service) Trash(ctx context.Context, ownerID int64, pdfID string) error {
	doc, err := s.owned(ctx, ownerID, pdfID)
	if err != nil {
		return err
	}
	if err := s.docs.Trash(ctx, doc.ID, s.now()); err != nil {
		return fmt.Errorf("trash document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionTrashed)
	return nil
}

func (s *Service) Restore(ctx context.Context, ownerID int64, pdfID string) error {
	doc, err := s.ownedTrashed(ctx, ownerID, pdfID)
	if err != nil {
		return err
	}
	if err := s.docs.Restore(ctx, doc.ID); err != nil {
		return fmt.Errorf("restore document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionRestored)
	return nil
}

// ForceDelete removes the row and its blob. A missing blob is not an error:
// deletion stays idempotent on the storage side.
func (s *Service) ForceDelete(ctx context.Context, ownerID int64, pdfID string) error {
	doc, err := s.ownedTrashed(ctx, ownerID, pdfID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		return apperr.Dependency("deleting pdf blob failed", err)
	}
	if err := s.docs.ForceDelete(ctx, doc.ID); err != nil {
		return fmt.Errorf("force delete document %s: %w", pdfID, err)
	}
	s.actions.Record(ctx, ownerID, doc.ID, nil, models.ActionDeleted)
	return nil
}

func (s *Service) ListActive(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return s.docs.ListActive(ctx, ownerID)
}

func (s *Service) ListArchived(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return s.docs.ListArchived(ctx, ownerID)
}

func (s *Service) ListTrashed(ctx context.Context, ownerID int64) ([]models.Document, error) {
	return s.docs.ListTrashed(ctx, ownerID)
}

func (s *Service) ListSigned(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	return s.shares.ListSignedByOwner(ctx, ownerID)
}

// ListPendingShares returns the owner's live pending shares, the set a
// reminder fan-out targets.
func (s *Service) ListPendingShares(ctx context.Context, ownerID int64) ([]models.SharedDocument, error) {
	all, err := s.shares.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	now := s.now()
	var out []models.SharedDocument
	for _, sh := range all {
		if sh.Status == models.ShareStatusPending && !sh.ExpiredAt(now) {
			out = append(out, sh)
		}
	}
	return out, nil
}

type PartialInput struct {
	Value      string
	FileType   string
	DocumentID *int64
	EmployeeID *int64
}

// StorePartial saves a reusable overlay asset. Data-URI images are decoded
// into the blob store; anything else is kept as a literal.
func (s *Service) StorePartial(ctx context.Context, ownerID int64, in PartialInput) (*models.Partial, error) {
	if in.Value == "" {
		return nil, apperr.Validation("value is required", map[string]string{"value": "required"})
	}

	p := &models.Partial{
		UserID:     ownerID,
		DocumentID: in.DocumentID,
		EmployeeID: in.EmployeeID,
		FileType:   in.FileType,
	}

	if img, ok := decodeDataURIImage(in.Value); ok {
		key := partialKey(uuid.NewString()[:10])
		if err := s.store.Put(ctx, key, bytes.NewReader(img), int64(len(img)), "image/png"); err != nil {
			return nil, apperr.Dependency("storing partial failed", err)
		}
		p.FilePath = key
		if p.FileType == "" {
			p.FileType = models.PartialTypeSignature
		}
	} else {
		p.FilePath = in.Value
		if p.FileType == "" {
			p.FileType = models.PartialTypeLiteral
		}
	}

	created, err := s.partials.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create partial: %w", err)
	}
	return created, nil
}

func (s *Service) ListPartials(ctx context.Context, ownerID int64) ([]models.Partial, error) {
	return s.partials.ListByOwner(ctx, ownerID)
}

// OpenSignedDocument streams a signed PDF by its bare file name. The name is
// confined to the signed_documents prefix; traversal is rejected.
func (s *Service) OpenSignedDocument(ctx context.Context, fileName string) (io.ReadCloser, error) {
	if fileName == "" || strings.ContainsAny(fileName, "/\\") || strings.Contains(fileName, "..") {
		return nil, apperr.Validation("invalid file name", map[string]string{"file_name": "invalid"})
	}
	rc, err := s.store.Get(ctx, "signed_documents/"+fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("file not found")
		}
		return nil, apperr.Dependency("reading signed pdf failed", err)
	}
	return rc, nil
}

func (s *Service) owned(ctx context.Context, ownerID int64, pdfID string) (*models.Document, error) {
	doc, err := s.docs.GetByPDFID(ctx, pdfID)
	if err != nil || doc.UserID != ownerID {
		return nil, apperr.NotFound("document not found")
	}
	return doc, nil
}

func (s *Service) ownedTrashed(ctx context.Context, ownerID int64, pdfID string) (*models.Document, error) {
	doc, err := s.docs.GetTrashedByPDFID(ctx, pdfID)
	if err != nil || doc.UserID != ownerID {
		return nil, apperr.NotFound("document not found")
	}
	return doc, nil
}

func pdfKey(pdfID string) string { return "pdfs/" + pdfID + ".pdf" }

func signedKey(name, suffix string) string {
	return "signed_documents/" + name + "-" + suffix + ".pdf"
}

func partialKey(token string) string { return "partials/partial-" + token + ".png" }

// normalizeCanvas enforces the only rules the server applies to canvas JSON:
// well formed and under the size limit. Bytes round-trip untouched.
func normalizeCanvas(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) > maxCanvasBytes {
		return nil, apperr.Validation("canvas too large", map[string]string{"canvas": "exceeds size limit"})
	}
	if !json.Valid(raw) {
		return nil, apperr.Validation("canvas is not valid json", map[string]string{"canvas": "malformed"})
	}
	return raw, nil
}

const maxCanvasBytes = 1 << 20
