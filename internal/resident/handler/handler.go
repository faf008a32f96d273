package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"safenest/internal/resident/export"
	"safenest/internal/resident/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/httputil"
	"safenest/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, f models.Fields) (*models.Resident, error)
	Get(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Resident, error)
	Update(ctx context.Context, residentID id.ResidentID, f models.Fields) (*models.Resident, error)
	Delete(ctx context.Context, residentID id.ResidentID) error
	Export(ctx context.Context, filter models.ListFilter) ([]byte, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/residents", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/export", h.handleExport)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

// ResidentRequest is the add/edit resident form body.
type ResidentRequest struct {
	Name             string   `json:"name"`
	Email            *string  `json:"email"`
	Phone            *string  `json:"phone"`
	ChildrenCount    int      `json:"children_count"`
	ChildrenAges     *string  `json:"children_ages"`
	MoveInDate       id.Date  `json:"move_in_date"`
	ExpectedExitDate *id.Date `json:"expected_exit_date"`
	CaseManager      string   `json:"case_manager"`
	Status           string   `json:"status"`
}

func (r ResidentRequest) Fields() models.Fields {
	return models.Fields{
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		ChildrenCount:    r.ChildrenCount,
		ChildrenAges:     r.ChildrenAges,
		MoveInDate:       r.MoveInDate,
		ExpectedExitDate: r.ExpectedExitDate,
		CaseManager:      r.CaseManager,
		Status:           models.Status(r.Status),
	}
}

type ListResponse struct {
	Residents []*models.Resident `json:"residents"`
	Count     int                `json:"count"`
}

func listFilter(r *http.Request) models.ListFilter {
	q := r.URL.Query()
	return models.ListFilter{Status: q.Get("status"), Search: q.Get("q")}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	residents, err := h.service.List(r.Context(), listFilter(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Residents: residents, Count: len(residents)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ResidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), req.Fields())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := h.service.Export(ctx, listFilter(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "resident export failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	filename := "residents-" + requestcontext.Now(ctx).Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resident, err := h.service.Get(r.Context(), residentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resident)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req ResidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), residentID, req.Fields())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	residentID, err := id.ParseResidentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := httputil.RequireConfirm(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), residentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
