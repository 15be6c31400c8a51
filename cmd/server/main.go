package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	constrainthandler "signa/internal/constraint/handler"
	constraintmetrics "signa/internal/constraint/metrics"
	constraintservice "signa/internal/constraint/service"
	"signa/internal/platform/config"
	"signa/internal/platform/httpserver"
	"signa/internal/platform/logger"
	platformmetrics "signa/internal/platform/metrics"
	pockethandler "signa/internal/pocket/handler"
	pocketmetrics "signa/internal/pocket/metrics"
	pocketservice "signa/internal/pocket/service"
	"signa/internal/pointcloud/decode"
	pointcloudhandler "signa/internal/pointcloud/handler"
	pointcloudmetrics "signa/internal/pointcloud/metrics"
	pointcloudservice "signa/internal/pointcloud/service"
	projecthandler "signa/internal/project/handler"
	projectservice "signa/internal/project/service"
	projectstore "signa/internal/project/store"
	propagatehandler "signa/internal/propagate/handler"
	propagatemetrics "signa/internal/propagate/metrics"
	propagateservice "signa/internal/propagate/service"
	"signa/internal/sample/export"
	samplehandler "signa/internal/sample/handler"
	samplemetrics "signa/internal/sample/metrics"
	sampleservice "signa/internal/sample/service"
	"signa/internal/session"
	sessionhandler "signa/internal/session/handler"
	sessionmetrics "signa/internal/session/metrics"
	sessionservice "signa/internal/session/service"
	httptransport "signa/internal/transport/http"
)

// main wires the dependency graph and owns the server lifecycle. Business
// logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	sessions := session.NewRegistry()

	projectSvc, err := projectservice.New(projectstore.NewInMemoryStore(),
		projectservice.WithLogger(log),
		projectservice.WithSessionDropper(sessions),
	)
	if err != nil {
		log.Error("project service init failed", "error", err)
		os.Exit(1)
	}

	pointcloudSvc, err := pointcloudservice.New(sessions, decode.NewRegistry(),
		pointcloudservice.WithLogger(log),
		pointcloudservice.WithMetrics(pointcloudmetrics.New()),
	)
	if err != nil {
		log.Error("pointcloud service init failed", "error", err)
		os.Exit(1)
	}

	sessionSvc, err := sessionservice.New(sessions, projectSvc,
		sessionservice.WithLogger(log),
		sessionservice.WithMetrics(sessionmetrics.New()),
	)
	if err != nil {
		log.Error("session service init failed", "error", err)
		os.Exit(1)
	}

	constraintSvc, err := constraintservice.New(sessions,
		constraintservice.WithLogger(log),
		constraintservice.WithMetrics(constraintmetrics.New()),
	)
	if err != nil {
		log.Error("constraint service init failed", "error", err)
		os.Exit(1)
	}

	propagateSvc, err := propagateservice.New(sessions, projectSvc,
		propagateservice.WithLogger(log),
		propagateservice.WithMetrics(propagatemetrics.New()),
	)
	if err != nil {
		log.Error("propagate service init failed", "error", err)
		os.Exit(1)
	}

	pocketSvc, err := pocketservice.New(sessions, projectSvc,
		pocketservice.WithLogger(log),
		pocketservice.WithMetrics(pocketmetrics.New()),
	)
	if err != nil {
		log.Error("pocket service init failed", "error", err)
		os.Exit(1)
	}

	sampleSvc, err := sampleservice.New(sessions, projectSvc, export.NewRegistry(),
		sampleservice.WithLogger(log),
		sampleservice.WithMetrics(samplemetrics.New()),
	)
	if err != nil {
		log.Error("sample service init failed", "error", err)
		os.Exit(1)
	}

	handlers := httptransport.Handlers{
		Project:    projecthandler.New(projectSvc, log),
		PointCloud: pointcloudhandler.New(pointcloudSvc, log, cfg.MaxUploadBytes),
		Session:    sessionhandler.New(sessionSvc, log),
		Constraint: constrainthandler.New(constraintSvc, log),
		Propagate:  propagatehandler.New(propagateSvc, log),
		Pocket:     pockethandler.New(pocketSvc, log),
		Sample:     samplehandler.New(sampleSvc, log),
	}
	router := httptransport.NewRouter(handlers, projectSvc, log, platformmetrics.New(), cfg.CORSOrigin)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	sessions.Close(ctx)
	log.Info("server stopped")
}
