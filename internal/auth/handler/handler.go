package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safenest/internal/auth/models"
	"safenest/internal/auth/service"
	"safenest/pkg/email"
	"safenest/pkg/platform/httputil"
)

type Service interface {
	SignIn(ctx context.Context, email, password string) (*service.SignInResult, error)
	SignOut(ctx context.Context) error
	Current(ctx context.Context) (*models.Session, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterSignIn mounts the unauthenticated sign-in route. It is registered
// inside the /api/admin router, next to the guarded group.
func (h *Handler) RegisterSignIn(r chi.Router) {
	r.Post("/session", h.handleSignIn)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/session", h.handleCurrent)
	r.Delete("/session", h.handleSignOut)
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// SessionResponse is the signed-in identity plus a display name for the
// dashboard header.
type SessionResponse struct {
	*models.Session
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Current(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	first, last := email.DeriveNameFromEmail(session.Email)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Session: session, FirstName: first, LastName: last})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "sign out failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
