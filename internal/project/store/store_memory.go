// Package store keeps projects in memory behind the same interface seam a
// durable implementation would fill.
package store

import (
	"context"
	"sort"
	"sync"

	"signa/internal/project/models"
	"signa/pkg/domain"
	"signa/pkg/platform/sentinel"
)

// InMemoryStore holds projects for the process lifetime.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[domain.ProjectID]models.Project
}

// NewInMemoryStore creates an empty project store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{projects: make(map[domain.ProjectID]models.Project)}
}

// Create inserts a project. Duplicate ids are a conflict.
func (s *InMemoryStore) Create(ctx context.Context, p models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.projects[p.ID] = p
	return nil
}

// Get returns a project by id.
func (s *InMemoryStore) Get(ctx context.Context, id domain.ProjectID) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, sentinel.ErrNotFound
	}
	return p, nil
}

// List returns all projects ordered by creation time, oldest first.
func (s *InMemoryStore) List(ctx context.Context) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Update overwrites a project.
func (s *InMemoryStore) Update(ctx context.Context, p models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.projects[p.ID] = p
	return nil
}

// Delete removes a project. Returns false when absent.
func (s *InMemoryStore) Delete(ctx context.Context, id domain.ProjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return false
	}
	delete(s.projects, id)
	return true
}
