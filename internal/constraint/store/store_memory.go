// Package store holds the project's constraints in insertion order. The
// order is load-bearing: the sample generator resolves label conflicts by
// store order (last writer wins), so iteration must always replay insertion
// order exactly.
package store

import (
	"context"
	"sync"

	"signa/internal/constraint/models"
	"signa/pkg/domain"
	"signa/pkg/platform/sentinel"
)

// InMemoryStore implements the ordered constraint store. In-memory is the
// contract here, not an MVP stand-in: constraints live and die with an open
// project; durable persistence hangs off export.
type InMemoryStore struct {
	mu    sync.RWMutex
	order []domain.ConstraintID
	byID  map[domain.ConstraintID]*models.Constraint
}

// NewInMemoryStore creates an empty constraint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[domain.ConstraintID]*models.Constraint),
	}
}

// Add appends a constraint and returns its id. Re-adding an existing id is
// a conflict; ids are caller-invisible and generated by the constructors.
func (s *InMemoryStore) Add(ctx context.Context, c models.Constraint) (domain.ConstraintID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.ID]; exists {
		return domain.ConstraintID{}, sentinel.ErrConflict
	}
	stored := c.Clone()
	s.byID[c.ID] = &stored
	s.order = append(s.order, c.ID)
	return c.ID, nil
}

// Remove deletes a constraint. Returns false when the id is absent; absence
// is not an error so a stale delete cannot fault the caller.
func (s *InMemoryStore) Remove(ctx context.Context, id domain.ConstraintID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of a constraint.
func (s *InMemoryStore) Get(ctx context.Context, id domain.ConstraintID) (models.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.byID[id]
	if !exists {
		return models.Constraint{}, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// List returns copies of all constraints in insertion order.
func (s *InMemoryStore) List(ctx context.Context) []models.Constraint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Constraint, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Len reports the number of stored constraints.
func (s *InMemoryStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// UpdateTransform overwrites a primitive constraint's transform. Returns
// false without error when the id is absent or not a primitive: drag events
// can race constraint deletion and must be absorbed, not crash.
// The caller validates the transform before calling.
func (s *InMemoryStore) UpdateTransform(ctx context.Context, id domain.ConstraintID, t models.Transform) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.byID[id]
	if !exists || c.Kind != models.KindPrimitive {
		return false
	}
	c.Primitive.Transform = t
	c.Revision++
	return true
}

// SetLabel rewrites a constraint's label. Same absence semantics as
// UpdateTransform.
func (s *InMemoryStore) SetLabel(ctx context.Context, id domain.ConstraintID, label domain.Label) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.byID[id]
	if !exists {
		return false
	}
	c.Label = label
	return true
}

// SetWeight rewrites a constraint's weight. Same absence semantics as
// UpdateTransform.
func (s *InMemoryStore) SetWeight(ctx context.Context, id domain.ConstraintID, weight float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.byID[id]
	if !exists {
		return false
	}
	c.Weight = weight
	return true
}

// Clear removes all constraints.
func (s *InMemoryStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.byID = make(map[domain.ConstraintID]*models.Constraint)
}
