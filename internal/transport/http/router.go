// Package httptransport assembles the HTTP surface: the middleware chain,
// the operational endpoints, and the /v1 API with its per-project subtree.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	constrainthandler "signa/internal/constraint/handler"
	"signa/internal/platform/metrics"
	"signa/internal/platform/middleware"
	pockethandler "signa/internal/pocket/handler"
	pointcloudhandler "signa/internal/pointcloud/handler"
	projecthandler "signa/internal/project/handler"
	projmodels "signa/internal/project/models"
	propagatehandler "signa/internal/propagate/handler"
	samplehandler "signa/internal/sample/handler"
	sessionhandler "signa/internal/session/handler"
	"signa/pkg/domain"
	"signa/pkg/platform/httputil"
	"signa/pkg/requestcontext"
)

// ProjectResolver verifies that a path's project id names a live project
// before any per-project handler runs. The project service satisfies it.
type ProjectResolver interface {
	Get(ctx context.Context, id domain.ProjectID) (projmodels.Project, error)
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Project    *projecthandler.Handler
	PointCloud *pointcloudhandler.Handler
	Session    *sessionhandler.Handler
	Constraint *constrainthandler.Handler
	Propagate  *propagatehandler.Handler
	Pocket     *pockethandler.Handler
	Sample     *samplehandler.Handler
}

// NewRouter builds the full routing tree.
func NewRouter(h Handlers, projects ProjectResolver, logger *slog.Logger, m *metrics.Metrics, corsOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(corsOrigin))
	r.Use(m.Middleware)
	r.Use(middleware.Recover(logger))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		h.Project.Register(r)

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Use(resolveProject(projects))

			h.Project.RegisterProject(r)
			h.PointCloud.Register(r)
			h.Session.Register(r)
			h.Constraint.Register(r)
			h.Propagate.Register(r)
			h.Pocket.Register(r)
			h.Sample.Register(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveProject parses {projectID}, rejects ids that name no project, and
// stores the id in the context so handlers and log lines share it.
func resolveProject(projects ProjectResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx := r.Context()
			if _, err := projects.Get(ctx, id); err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithProjectID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
