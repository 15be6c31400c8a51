package middleware

import (
	"net/http"
	"time"

	"signa/pkg/requestcontext"
)

// RequestTime pins one timestamp per request so every write made while
// serving it carries the same created-at.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
