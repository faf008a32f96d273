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

	"safenest/internal/onboarding/models"
	"safenest/internal/onboarding/service"
	onboardingstore "safenest/internal/onboarding/store"
	residentstore "safenest/internal/resident/store"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/tx"
	"safenest/pkg/requestcontext"
	"safenest/pkg/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := service.New(onboardingstore.NewInMemory(), residentstore.NewInMemory(), tx.NewMemoryRunner())
	require.NoError(t, err)
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requestcontext.WithAdmin(req.Context(), id.NewSessionID(), testutil.AdminEmail)
				next.ServeHTTP(w, req.WithContext(requestcontext.WithTime(ctx, time.Now())))
			})
		})
		h.RegisterAdmin(r)
	})
	return r
}

func sarahJohnson() IntakeRequest {
	children := 2
	return IntakeRequest{
		FullName:         "Sarah Johnson",
		Email:            "sarah.j@email.com",
		Phone:            "(555) 123-4567",
		ChildrenCount:    &children,
		CurrentSituation: "Staying with family temporarily",
		NeedsDescription: "Safe housing for me and my two children",
	}
}

func submit(t *testing.T, router http.Handler, body IntakeRequest) *SubmitResponse {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/onboarding", body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[SubmitResponse](t, rr)
}

func TestSubmit(t *testing.T) {
	router := newTestRouter(t)

	t.Run("valid intake is created pending review", func(t *testing.T) {
		resp := submit(t, router, sarahJohnson())
		assert.Equal(t, models.StatusPendingReview, resp.Status)
		assert.False(t, resp.ID.IsNil())
	})

	t.Run("missing phone is a validation error", func(t *testing.T) {
		body := sarahJohnson()
		body.Phone = "  "
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/onboarding", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		testutil.AssertErrorDescription(t, rr, "phone is required")
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/onboarding", `{"full_name":"x","admin":true}`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestAdvanceToApproval(t *testing.T) {
	router := newTestRouter(t)
	created := submit(t, router, sarahJohnson())
	path := "/api/admin/onboarding/" + created.ID.String()

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, path+"/advance"))
	testutil.AssertStatusOK(t, rr)
	first := testutil.UnmarshalResponse[service.Result](t, rr)
	assert.Equal(t, models.StatusUnderReview, first.Request.Status)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, path+"/advance"))
	testutil.AssertStatusOK(t, rr)
	second := testutil.UnmarshalResponse[service.Result](t, rr)
	assert.Equal(t, models.StatusApproved, second.Request.Status)
	assert.True(t, second.Promoted)
	require.NotNil(t, second.Resident)
	assert.Equal(t, "Robin Mitchell", second.Resident.CaseManager)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, path+"/advance"))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
}

func TestListFilters(t *testing.T) {
	router := newTestRouter(t)
	created := submit(t, router, sarahJohnson())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding?status=pending%20review"))
	testutil.AssertStatusOK(t, rr)
	list := testutil.UnmarshalResponse[ListResponse](t, rr)
	assert.Equal(t, 1, list.Count)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding?status=Approved"))
	assert.Equal(t, 0, testutil.UnmarshalResponse[ListResponse](t, rr).Count)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding?status=rejected"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/api/admin/onboarding/"+created.ID.String()+"/resolve"))
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding"))
	assert.Equal(t, 0, testutil.UnmarshalResponse[ListResponse](t, rr).Count)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding?include_resolved=true"))
	assert.Equal(t, 1, testutil.UnmarshalResponse[ListResponse](t, rr).Count)
}

func TestDelete(t *testing.T) {
	router := newTestRouter(t)
	created := submit(t, router, sarahJohnson())
	path := "/api/admin/onboarding/" + created.ID.String()

	t.Run("without confirmation", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("with confirmation", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path+"?confirm=true"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, path+"?confirm=true"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		testutil.AssertErrorDescription(t, rr, "onboarding request not found or not permitted")
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding/not-a-uuid"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestReplyLink(t *testing.T) {
	router := newTestRouter(t)
	created := submit(t, router, sarahJohnson())

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/admin/onboarding/"+created.ID.String()+"/reply-link"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[ReplyLinkResponse](t, rr)
	assert.Contains(t, resp.Link, "mailto:sarah.j@email.com?subject=")
}
