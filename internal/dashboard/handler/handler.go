package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safenest/internal/dashboard/service"
	"safenest/pkg/platform/httputil"
)

type Service interface {
	Overview(ctx context.Context) (*service.Overview, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/dashboard", h.handleOverview)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build dashboard overview", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
