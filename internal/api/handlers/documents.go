package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/models"
	"github.com/docuflow/docuflow/internal/queue"
)

type DocumentHandler struct {
	svc         *document.Service
	queue       *queue.Client
	frontendURL string
}

func NewDocumentHandler(svc *document.Service, qc *queue.Client, frontendURL string) *DocumentHandler {
	return &DocumentHandler{svc: svc, queue: qc, frontendURL: frontendURL}
}

type storeRequest struct {
	// isResave routes the same endpoint to the signed re-save flow.
	IsResave         bool            `json:"isResave"`
	SharedDocumentID int64           `json:"shared_document_id"`
	PDFID            string          `json:"PDFId"`
	Name             string          `json:"name"`
	PDFBase64        string          `json:"PDFBase64"`
	Pages            int             `json:"pages"`
	Canvas           json.RawMessage `json:"canvas"`
	UpdateDate       int64           `json:"updateDate"`
}

// Store creates a document, or finalizes a share when isResave is set.
func (h *DocumentHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.IsResave || r.URL.Query().Get("isResave") == "true" {
		share, err := h.svc.ResaveSigned(r.Context(), document.ResaveInput{
			SharedDocumentID: req.SharedDocumentID,
			Name:             req.Name,
			PDFBase64:        req.PDFBase64,
			Pages:            req.Pages,
			Canvas:           req.Canvas,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, share)
		return
	}

	doc, err := h.svc.Create(r.Context(), auth.UserID(r.Context()), document.CreateInput{
		PDFID:      req.PDFID,
		Name:       req.Name,
		PDFBase64:  req.PDFBase64,
		Pages:      req.Pages,
		Canvas:     req.Canvas,
		UpdateDate: req.UpdateDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

type updateRequest struct {
	Name       *string         `json:"name"`
	Pages      *int            `json:"pages"`
	Canvas     json.RawMessage `json:"canvas"`
	PDFBase64  *string         `json:"PDFBase64"`
	UpdateDate *int64          `json:"updateDate"`
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.svc.Update(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "pdf_id"), document.UpdatePatch{
		Name:       req.Name,
		Pages:      req.Pages,
		Canvas:     req.Canvas,
		PDFBase64:  req.PDFBase64,
		UpdateDate: req.UpdateDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListActive)
}

func (h *DocumentHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListArchived)
}

func (h *DocumentHandler) ListTrashed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListTrashed)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID int64) ([]models.Document, error)) {
	docs, err := fn(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) lifecycle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID int64, pdfID string) error, status string) {
	if err := fn(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "pdf_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

type shareRequest struct {
	DocumentID  string  `json:"document_id"`
	EmployeeID  *int64  `json:"employee_id"`
	EmployeeIDs []int64 `json:"employee_ids"`
}

func (h *DocumentHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ids := req.EmployeeIDs
	if req.EmployeeID != nil {
		ids = append(ids, *req.EmployeeID)
	}
	res, err := h.svc.Share(r.Context(), auth.UserID(r.Context()), req.DocumentID, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type bulkShareRequest struct {
	DocumentIDs []string `json:"document_ids"`
	EmployeeIDs []int64  `json:"employee_ids"`
}

func (h *DocumentHandler) BulkShare(w http.ResponseWriter, r *http.Request) {
	var req bulkShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.BulkShare(r.Context(), auth.UserID(r.Context()), req.DocumentIDs, req.EmployeeIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *DocumentHandler) Remind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Remind(r.Context(), auth.UserID(r.Context()), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reminded"})
}

// RemindAll enqueues a reminder for every live pending share of the owner.
// Dispatch happens on the worker with at-least-once semantics.
func (h *DocumentHandler) RemindAll(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	pending, err := h.svc.ListPendingShares(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	enqueued := 0
	for _, sh := range pending {
		if err := h.queue.EnqueueShareReminder(queue.ShareReminderPayload{
			OwnerID:          ownerID,
			SharedDocumentID: sh.ID,
		}); err != nil {
			writeError(w, apperr.Dependency("enqueueing reminders failed", err))
			return
		}
		enqueued++
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": enqueued})
}

func (h *DocumentHandler) Track(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Track(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DocumentHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Archive, "archived")
}

func (h *DocumentHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Unarchive, "unarchived")
}

func (h *DocumentHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Trash, "trashed")
}

func (h *DocumentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Restore, "restored")
}

func (h *DocumentHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.ForceDelete, "deleted")
}

func (h *DocumentHandler) ListSigned(w http.ResponseWriter, r *http.Request) {
	shares, err := h.svc.ListSigned(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shares": shares, "count": len(shares)})
}

// EmployeeView is the target of the mailed link: a redirect into the signing
// frontend, or the terminal expired page.
func (h *DocumentHandler) EmployeeView(w http.ResponseWriter, r *http.Request) {
	shareID, err := strconv.ParseInt(chi.URLParam(r, "shared"), 10, 64)
	if err != nil {
		writeError(w, apperr.NotFound("share not found"))
		return
	}
	empID, err := strconv.ParseInt(chi.URLParam(r, "emp"), 10, 64)
	if err != nil {
		writeError(w, apperr.NotFound("share not found"))
		return
	}
	pdfID := chi.URLParam(r, "doc_pdf")

	share, err := h.svc.ResolveShareAccess(r.Context(), shareID, pdfID, empID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindExpired {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, expiredPage)
			return
		}
		writeError(w, err)
		return
	}

	q := url.Values{}
	q.Set("shared_document_id", strconv.FormatInt(share.ID, 10))
	q.Set("document_pdf_id", pdfID)
	q.Set("employee_id", strconv.FormatInt(empID, 10))
	http.Redirect(w, r, fmt.Sprintf("%s/sign?%s", h.frontendURL, q.Encode()), http.StatusFound)
}

const expiredPage = `<!DOCTYPE html>
<html>
<head><title>Link expired</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h1>This signing link has expired</h1>
<p>Ask the sender to share the document again.</p>
</body>
</html>`

type downloadRequest struct {
	FileName string `json:"file_name"`
}

// DownloadSigned streams a signed PDF as an attachment. The same handler
// serves the CORS route; the CORS middleware handles the headers.
func (h *DocumentHandler) DownloadSigned(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rc, err := h.svc.OpenSignedDocument(r.Context(), req.FileName)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming signed document interrupted", "error", err)
	}
}

type partialRequest struct {
	Value      string `json:"value"`
	FileType   string `json:"file_type"`
	DocumentID *int64 `json:"document_id"`
	EmployeeID *int64 `json:"employee_id"`
}

func (h *DocumentHandler) StorePartial(w http.ResponseWriter, r *http.Request) {
	var req partialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.svc.StorePartial(r.Context(), auth.UserID(r.Context()), document.PartialInput{
		Value:      req.Value,
		FileType:   req.FileType,
		DocumentID: req.DocumentID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *DocumentHandler) ListPartials(w http.ResponseWriter, r *http.Request) {
	partials, err := h.svc.ListPartials(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"partials": partials, "count": len(partials)})
}
