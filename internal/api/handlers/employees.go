package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/employee"
)

const maxImportSize = 5 << 20 // 5 MiB CSV cap

type EmployeeHandler struct {
	svc *employee.Service
}

func NewEmployeeHandler(svc *employee.Service) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"employees": employees, "count": len(employees)})
}

type employeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	emp, err := h.svc.Create(r.Context(), auth.UserID(r.Context()), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperr.NotFound("employee not found"))
		return
	}
	if err := h.svc.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Import ingests a multipart CSV upload. Bad rows are skipped and reported,
// never fatal.
func (h *EmployeeHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, apperr.Validation("invalid upload", map[string]string{"file": "must be a multipart csv upload"}))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validation("invalid upload", map[string]string{"file": "required"}))
		return
	}
	defer file.Close()

	res, err := h.svc.Import(r.Context(), auth.UserID(r.Context()), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
