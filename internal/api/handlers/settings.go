package handlers

import (
	"net/http"

	"github.com/docuflow/docuflow/internal/apperr"
	"github.com/docuflow/docuflow/internal/settings"
)

const maxLogoSize = 2 << 20 // 2 MiB

type SettingsHandler struct {
	svc *settings.Service
}

func NewSettingsHandler(svc *settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type settingsRequest struct {
	AppName         *string `json:"app_name"`
	VideoURL        *string `json:"video_url"`
	StripeAppKey    *string `json:"stripe_app_key"`
	StripeSecretKey *string `json:"stripe_secret_key"`
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	st, err := h.svc.Update(r.Context(), settings.UpdateInput{
		AppName:         req.AppName,
		VideoURL:        req.VideoURL,
		StripeAppKey:    req.StripeAppKey,
		StripeSecretKey: req.StripeSecretKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UploadLogo accepts a multipart image upload and swaps the stored logo.
func (h *SettingsHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		writeError(w, apperr.Validation("invalid upload", map[string]string{"logo": "must be a multipart image upload"}))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		writeError(w, apperr.Validation("invalid upload", map[string]string{"logo": "required"}))
		return
	}
	defer file.Close()

	st, err := h.svc.UploadLogo(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
