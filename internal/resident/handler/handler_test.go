package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safenest/internal/resident/export"
	"safenest/internal/resident/models"
	"safenest/internal/resident/service"
	"safenest/internal/resident/store"
	"safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
	"safenest/pkg/testutil"
)

func newTestRouter() http.Handler {
	svc := service.New(store.NewInMemory(), tx.NewMemoryRunner())
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requestcontext.WithTime(req.Context(), time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC))
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterAdmin(r)
	})
	return r
}

func createResident(t *testing.T, router http.Handler, body string) *models.Resident {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/admin/residents", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Resident](t, rr)
}

func TestCreateAndList(t *testing.T) {
	router := newTestRouter()

	lisa := createResident(t, router, `{
		"name": "Lisa Anderson",
		"email": "lisa.a@email.com",
		"children_count": 3,
		"children_ages": "5, 3, 1",
		"move_in_date": "2024-09-15",
		"expected_exit_date": "2025-03-15"
	}`)
	assert.Equal(t, "Robin Mitchell", lisa.CaseManager)
	assert.Equal(t, models.StatusActive, lisa.Status)

	createResident(t, router, `{"name": "Amanda Brown", "move_in_date": "2024-10-01", "status": "inactive"}`)

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/admin/residents",
			`{"name": "  LISA anderson", "move_in_date": "2024-11-01"}`))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("malformed date is a bad request", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/admin/residents",
			`{"name": "New Person", "move_in_date": "09/15/2024"}`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	for query, expected := range map[string]int{
		"":                    2,
		"?status=all":         2,
		"?status=INACTIVE":    1,
		"?q=lisa.a":           1,
		"?q=%20%20":           2,
		"?status=Moved%20Out": 0,
	} {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/residents"+query))
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, expected, testutil.UnmarshalResponse[ListResponse](t, rr).Count, "query %q", query)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	router := newTestRouter()
	r := createResident(t, router, `{"name": "Lisa Anderson", "move_in_date": "2024-09-15"}`)
	path := "/api/admin/residents/" + r.ID.String()

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPut, path,
		`{"name": "Lisa Anderson", "move_in_date": "2024-09-15", "expected_exit_date": "2024-09-01"}`))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPut, path,
		`{"name": "Lisa Anderson", "move_in_date": "2024-09-15", "status": "Moved Out", "case_manager": "Dana Lee"}`))
	testutil.AssertStatusOK(t, rr)
	updated := testutil.UnmarshalResponse[models.Resident](t, rr)
	assert.Equal(t, models.StatusMovedOut, updated.Status)
	assert.Equal(t, "Dana Lee", updated.CaseManager)
	assert.False(t, updated.UpdatedAt.IsZero())

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path+"?confirm=true"))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path+"?confirm=true"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestExport(t *testing.T) {
	router := newTestRouter()
	createResident(t, router, `{"name": "Lisa Anderson", "move_in_date": "2024-09-15"}`)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/residents/export?status=active"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertContentType(t, rr, export.ContentType)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "residents-2024-10-01.xlsx")
	require.NotZero(t, rr.Body.Len())
}
