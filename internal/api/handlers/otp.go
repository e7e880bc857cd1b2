package handlers

import (
	"net/http"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/otp"
)

type OTPHandler struct {
	svc  *otp.Service
	auth *auth.Service
}

func NewOTPHandler(svc *otp.Service, authSvc *auth.Service) *OTPHandler {
	return &OTPHandler{svc: svc, auth: authSvc}
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp_code"`
}

func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" {
		writeError(w, apperr.Validation("invalid request", map[string]string{"email": "required"}))
		return
	}
	if err := h.svc.Request(r.Context(), req.Email, nil); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "code sent"})
}

// Verify checks the submitted code and, on success, issues a session.
// A wrong or expired code is reported as verified:false rather than an
// error envelope.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Verify(r.Context(), req.Email, req.Code); err != nil {
		kind := apperr.KindOf(err)
		if kind == apperr.KindExpired || kind == apperr.KindUnauthorized {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"verified": false,
				"message":  err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}
	session, err := h.auth.SessionForEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verified": true,
		"token":    session.Token,
		"user":     session.User,
	})
}
