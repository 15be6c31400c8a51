package session

import (
	"context"
	"sync"

	"signa/pkg/domain"
)

// Registry hands out one session per project. Sessions are created lazily
// on first access and torn down on project deletion; there is no
// cross-project sharing.
type Registry struct {
	mu       sync.Mutex
	sessions map[domain.ProjectID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ProjectID]*Session)}
}

// Get returns the project's session, creating it on first use.
func (r *Registry) Get(projectID domain.ProjectID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[projectID]
	if !ok {
		s = New(projectID)
		r.sessions[projectID] = s
	}
	return s
}

// Drop closes and removes the project's session. Safe when none exists.
func (r *Registry) Drop(ctx context.Context, projectID domain.ProjectID) {
	r.mu.Lock()
	s, ok := r.sessions[projectID]
	delete(r.sessions, projectID)
	r.mu.Unlock()

	if ok {
		s.Close(ctx)
	}
}

// Close tears down every session. Called on shutdown.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[domain.ProjectID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close(ctx)
	}
}
