// Package admin guards the admin API behind a signed-in, allow-listed session.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/platform/httputil"
	request "safenest/pkg/platform/middleware/request"
	"safenest/pkg/requestcontext"
)

// SessionAuthenticator resolves a bearer token to a live admin session.
// Implementations re-check the allow-list and end sessions that fail it.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (id.SessionID, string, error)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// RequireAdminSession rejects requests without a valid admin session and
// places the session identity in the context for downstream handlers.
func RequireAdminSession(auth SessionAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := BearerToken(r)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
				return
			}

			sessionID, email, err := auth.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "admin session rejected",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdmin(ctx, sessionID, email)))
		})
	}
}
