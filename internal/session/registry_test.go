package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/job"
	"signa/pkg/domain"
	"signa/pkg/platform/sentinel"
)

func TestRegistry_GetIsLazyAndStable(t *testing.T) {
	r := NewRegistry()
	a := domain.NewProjectID()
	b := domain.NewProjectID()

	first := r.Get(a)
	require.NotNil(t, first)
	assert.Same(t, first, r.Get(a))
	assert.NotSame(t, first, r.Get(b))
	assert.Equal(t, a, first.ProjectID())
}

func TestRegistry_DropClosesSession(t *testing.T) {
	r := NewRegistry()
	id := domain.NewProjectID()
	s := r.Get(id)

	r.Drop(context.Background(), id)

	err := s.Jobs().Run(context.Background(), job.KindPropagate, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	// The next Get starts a fresh session.
	assert.NotSame(t, s, r.Get(id))
}

func TestRegistry_DropUnknownIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Drop(context.Background(), domain.NewProjectID())
}

func TestRegistry_CloseTearsDownAll(t *testing.T) {
	r := NewRegistry()
	a := r.Get(domain.NewProjectID())
	b := r.Get(domain.NewProjectID())

	r.Close(context.Background())

	for _, s := range []*Session{a, b} {
		err := s.Jobs().Run(context.Background(), job.KindGenerate, func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
}
