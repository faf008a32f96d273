package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/requestcontext"
)

type stubAuthenticator struct {
	sessionID id.SessionID
	email     string
	err       error
	gotToken  string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (id.SessionID, string, error) {
	s.gotToken = token
	return s.sessionID, s.email, s.err
}

func TestRequireAdminSession(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionID := id.NewSessionID()

	var gotEmail string
	var gotSession id.SessionID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = requestcontext.AdminEmail(r.Context())
		gotSession = requestcontext.SessionID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing token", func(t *testing.T) {
		auth := &stubAuthenticator{}
		rr := httptest.NewRecorder()
		RequireAdminSession(auth, logger)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, auth.gotToken)
	})

	t.Run("access denied", func(t *testing.T) {
		auth := &stubAuthenticator{err: dErrors.New(dErrors.CodeForbidden, "access denied")}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		RequireAdminSession(auth, logger)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"error":"forbidden","error_description":"access denied"}`, rr.Body.String())
	})

	t.Run("valid session reaches handler", func(t *testing.T) {
		auth := &stubAuthenticator{sessionID: sessionID, email: "admin@agapesafetynest.org"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		RequireAdminSession(auth, logger)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "tok", auth.gotToken)
		assert.Equal(t, "admin@agapesafetynest.org", gotEmail)
		assert.Equal(t, sessionID, gotSession)
	})
}
