package testutil

import (
	"context"
	"net/http"
	"time"

	id "signa/pkg/domain"
	"signa/pkg/requestcontext"
)

// WithProjectID adds a project ID to the request context.
// This simulates what the project router middleware would do for routes
// under /projects/{id}. If the projectID is not a valid UUID, it will not
// be added to the context.
func WithProjectID(req *http.Request, projectID string) *http.Request {
	if parsed, err := id.ParseProjectID(projectID); err == nil {
		ctx := requestcontext.WithProjectID(req.Context(), parsed)
		return req.WithContext(ctx)
	}
	return req
}

// WithRequestTime pins the request-scoped clock, simulating the request
// time middleware. Tests that assert on timestamps should always pin time.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
