package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/auth"
	"github.com/docuflow/docuflow/internal/otp"
)

type AuthHandler struct {
	svc *auth.Service
	otp *otp.Service
}

func NewAuthHandler(svc *auth.Service, otpSvc *otp.Service) *AuthHandler {
	return &AuthHandler{svc: svc, otp: otpSvc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and, when the account has OTP enabled, withholds the
// token until the code is verified.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if session.OTPRequired {
		if err := h.otp.Request(r.Context(), session.User.Email, &session.User.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"otp_required": true,
			"email":        session.User.Email,
		})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// VerifyEmail consumes the signed link mailed at registration.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperr.NotFound("user not found"))
		return
	}
	q := r.URL.Query()
	if err := h.svc.VerifyEmail(r.Context(), userID, q.Get("expires"), q.Get("signature")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

type otpSettingsRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AuthHandler) OTPSettings(w http.ResponseWriter, r *http.Request) {
	var req otpSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SetOTPEnabled(r.Context(), auth.UserID(r.Context()), req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"otp_enabled": req.Enabled})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperr.Unauthorized("unauthenticated"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
