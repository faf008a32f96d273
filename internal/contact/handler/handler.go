package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safenest/internal/contact/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/httputil"
)

type Service interface {
	Submit(ctx context.Context, f models.Fields) (*models.Submission, error)
	Get(ctx context.Context, contactID id.ContactID) (*models.Submission, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Submission, error)
	Update(ctx context.Context, contactID id.ContactID, f models.Fields, resolved bool) (*models.Submission, error)
	SetResolved(ctx context.Context, contactID id.ContactID, resolved bool) (*models.Submission, error)
	Delete(ctx context.Context, contactID id.ContactID) error
	ReplyLink(ctx context.Context, contactID id.ContactID) (string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/contact", h.handleSubmit)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/resolve", h.handleResolve(true))
			r.Delete("/resolve", h.handleResolve(false))
			r.Get("/reply-link", h.handleReplyLink)
		})
	})
}

// ContactRequest is the public contact form body.
type ContactRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Subject string  `json:"subject"`
	Message string  `json:"message"`
}

func (r ContactRequest) Fields() models.Fields {
	return models.Fields{Name: r.Name, Email: r.Email, Phone: r.Phone, Subject: r.Subject, Message: r.Message}
}

type UpdateRequest struct {
	ContactRequest
	Resolved bool `json:"resolved"`
}

type ListResponse struct {
	Contacts []*models.Submission `json:"contacts"`
	Count    int                  `json:"count"`
}

type ReplyLinkResponse struct {
	Link string `json:"link"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := h.service.Submit(r.Context(), req.Fields())
	if err != nil {
		h.logger.WarnContext(r.Context(), "contact submission rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":      sub.ID,
		"message": "Thank you for reaching out. We will get back to you soon.",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	subs, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Contacts: subs, Count: len(subs)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := h.service.Get(r.Context(), contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	sub, err := h.service.Update(r.Context(), contactID, req.Fields(), req.Resolved)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleResolve(resolved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		sub, err := h.service.SetResolved(r.Context(), contactID, resolved)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, sub)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := httputil.RequireConfirm(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), contactID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReplyLink(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	link, err := h.service.ReplyLink(r.Context(), contactID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReplyLinkResponse{Link: link})
}
