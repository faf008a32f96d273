package testutil

import (
	"context"
	"net/http"
	"time"

	id "safenest/pkg/domain"
	"safenest/pkg/requestcontext"
)

// AdminEmail is the allow-listed admin used across tests.
const AdminEmail = "admin@agapesafetynest.org"

// WithAdmin places a signed-in admin session on the request context.
// This simulates what the admin middleware does for authenticated requests.
func WithAdmin(req *http.Request, email string) *http.Request {
	ctx := requestcontext.WithAdmin(req.Context(), id.NewSessionID(), email)
	return req.WithContext(ctx)
}

// AdminContext returns a context carrying an admin session and a fixed request time.
func AdminContext(now time.Time) context.Context {
	ctx := requestcontext.WithAdmin(context.Background(), id.NewSessionID(), AdminEmail)
	return requestcontext.WithTime(ctx, now)
}
