package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safenest/internal/onboarding/models"
	"safenest/internal/onboarding/service"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/httputil"
)

type Service interface {
	Submit(ctx context.Context, in models.Intake) (*models.Request, error)
	Get(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Request, error)
	Advance(ctx context.Context, requestID id.RequestID) (*service.Result, error)
	Update(ctx context.Context, requestID id.RequestID, in models.Intake, status models.Status) (*service.Result, error)
	SetResolved(ctx context.Context, requestID id.RequestID, resolved bool) (*models.Request, error)
	Delete(ctx context.Context, requestID id.RequestID) error
	ReplyLink(ctx context.Context, requestID id.RequestID) (string, error)
}

// Handler serves the public intake form and the admin review queue.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts the unauthenticated intake endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/onboarding", h.handleSubmit)
}

// RegisterAdmin mounts the review queue. r must already be guarded by the
// admin session middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/onboarding", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/advance", h.handleAdvance)
			r.Post("/resolve", h.handleResolve(true))
			r.Delete("/resolve", h.handleResolve(false))
			r.Get("/reply-link", h.handleReplyLink)
		})
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req IntakeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Submit(ctx, req.Intake())
	if err != nil {
		h.logger.WarnContext(ctx, "onboarding submission rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{
		ID:        created.ID,
		Status:    created.Status,
		CreatedAt: created.CreatedAt,
		Message:   "Thank you. Our team will review your request and reach out soon.",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseListFilter(r.URL.Query().Get("status"), httputil.QueryBool(r, "include_resolved"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requests, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Requests: requests, Count: len(requests)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.service.Get(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Update(r.Context(), requestID, req.Intake(), models.Status(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Advance(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleResolve(resolved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, err := h.service.SetResolved(r.Context(), requestID, resolved)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, req)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := httputil.RequireConfirm(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), requestID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReplyLink(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	link, err := h.service.ReplyLink(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReplyLinkResponse{Link: link})
}
