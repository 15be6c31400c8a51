// Package service implements project CRUD and per-project configuration.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"signa/internal/project/models"
	"signa/internal/project/store"
	"signa/pkg/domain"
	dErrors "signa/pkg/domain-errors"
	"signa/pkg/platform/sentinel"
	"signa/pkg/requestcontext"
)

const maxNameLength = 200

// SessionDropper tears down a project's labeling session on deletion.
type SessionDropper interface {
	Drop(ctx context.Context, projectID domain.ProjectID)
}

// Service owns the project store.
type Service struct {
	store    *store.InMemoryStore
	sessions SessionDropper
	logger   *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithSessionDropper wires session teardown into project deletion.
func WithSessionDropper(d SessionDropper) Option {
	return func(s *Service) { s.sessions = d }
}

// New constructs the project service.
func New(st *store.InMemoryStore, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("project store is required")
	}
	svc := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create makes a new project with defaulted config, optionally patched.
func (s *Service) Create(ctx context.Context, name string, patch *models.Patch) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, dErrors.New(dErrors.CodeInvalidInput, "project name is required")
	}
	if len(name) > maxNameLength {
		return models.Project{}, dErrors.Newf(dErrors.CodeInvalidInput, "project name exceeds %d characters", maxNameLength)
	}

	cfg := models.DefaultConfig()
	if patch != nil {
		var err error
		cfg, err = patch.Apply(cfg)
		if err != nil {
			return models.Project{}, err
		}
	}
	p := models.Project{
		ID:        domain.NewProjectID(),
		Name:      name,
		CreatedAt: requestcontext.Now(ctx),
		Config:    cfg,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return models.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create project")
	}

	s.logger.InfoContext(ctx, "project created",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", p.ID,
		"name", p.Name,
	)
	return p, nil
}

// Get returns a project.
func (s *Service) Get(ctx context.Context, id domain.ProjectID) (models.Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Project{}, dErrors.Wrap(err, dErrors.CodeNotFound, "project not found")
	}
	return p, nil
}

// List returns all projects.
func (s *Service) List(ctx context.Context) []models.Project {
	return s.store.List(ctx)
}

// Config returns a project's current config. Other modules read their
// tunables through this.
func (s *Service) Config(ctx context.Context, id domain.ProjectID) (models.Config, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return models.Config{}, err
	}
	return p.Config, nil
}

// UpdateConfig applies a partial config update. Sampling counts clamp
// rather than reject; enum and range violations reject.
func (s *Service) UpdateConfig(ctx context.Context, id domain.ProjectID, patch models.Patch) (models.Config, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return models.Config{}, err
	}
	cfg, err := patch.Apply(p.Config)
	if err != nil {
		return models.Config{}, err
	}
	p.Config = cfg
	if err := s.store.Update(ctx, p); err != nil {
		return models.Config{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update project config")
	}

	s.logger.InfoContext(ctx, "project config updated",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", id,
	)
	return cfg, nil
}

// Rename updates the project name.
func (s *Service) Rename(ctx context.Context, id domain.ProjectID, name string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, dErrors.New(dErrors.CodeInvalidInput, "project name is required")
	}
	if len(name) > maxNameLength {
		return models.Project{}, dErrors.Newf(dErrors.CodeInvalidInput, "project name exceeds %d characters", maxNameLength)
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	p.Name = name
	if err := s.store.Update(ctx, p); err != nil {
		return models.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rename project")
	}
	return p, nil
}

// Delete removes a project and tears down its session (constraints,
// seeds, samples, in-flight jobs).
func (s *Service) Delete(ctx context.Context, id domain.ProjectID) error {
	if !s.store.Delete(ctx, id) {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "project not found")
	}
	if s.sessions != nil {
		s.sessions.Drop(ctx, id)
	}
	s.logger.InfoContext(ctx, "project deleted",
		"request_id", requestcontext.RequestID(ctx),
		"project_id", id,
	)
	return nil
}
