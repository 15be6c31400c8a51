// Package middleware provides the HTTP middleware chain: request ids,
// request-scoped time, structured request logging, and CORS.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"signa/pkg/requestcontext"
)

// RequestIDHeader is the inbound/outbound header carrying the request id.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns every request an id: the inbound header when the caller
// supplies one, a fresh UUID otherwise. The id is stored in the context and
// echoed on the response so clients can correlate.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
