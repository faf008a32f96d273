package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safenest/internal/settings/models"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/httputil"
)

type Service interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, capacity int, contactEmail string) (*models.Settings, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/site", h.handleSite)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/settings", h.handleSave)
}

type SettingsRequest struct {
	Capacity     *int   `json:"capacity"`
	ContactEmail string `json:"contact_email"`
}

// SiteResponse is the subset of settings the public site renders.
type SiteResponse struct {
	ContactEmail string `json:"contact_email"`
	Capacity     int    `json:"capacity"`
}

func (h *Handler) handleSite(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load site info", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SiteResponse{ContactEmail: st.ContactEmail, Capacity: st.Capacity})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Capacity == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "capacity is required"))
		return
	}
	st, err := h.service.Save(r.Context(), *req.Capacity, req.ContactEmail)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}
