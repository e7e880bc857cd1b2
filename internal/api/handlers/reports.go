package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/reports"
)

type ReportsHandler struct {
	svc *reports.Service
}

func NewReportsHandler(svc *reports.Service) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window := 30 * 24 * time.Hour
	if d := r.URL.Query().Get("days"); d != "" {
		if days, err := strconv.Atoi(d); err == nil && days > 0 {
			window = time.Duration(days) * 24 * time.Hour
		}
	}
	summary, err := h.svc.ForOwner(r.Context(), auth.UserID(r.Context()), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReportsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	logs, err := h.svc.Activity(r.Context(), auth.UserID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": logs, "count": len(logs)})
}
