// Package requesttime provides middleware for request-scoped time.
// All operations within a single HTTP request use the same "now" timestamp,
// so created_at, updated_at and audit timestamps agree.
package requesttime

import (
	"net/http"
	"time"

	"safenest/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context. Read it with requestcontext.Now(ctx).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
