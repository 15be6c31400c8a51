package store

import (
	"context"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signa/internal/constraint/models"
	"signa/pkg/domain"
	"signa/pkg/platform/sentinel"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func primitive(t *testing.T) models.Constraint {
	t.Helper()
	c, err := models.NewPrimitive(domain.PrimitiveBox, domain.LabelSolid, models.Transform{
		Size: v3.Vec{X: 1, Y: 1, Z: 1},
	}, 1, now)
	require.NoError(t, err)
	return c
}

func region(t *testing.T, indices ...int) models.Constraint {
	t.Helper()
	c, err := models.NewPaintedRegion(domain.LabelEmpty, indices, 100, 1, now)
	require.NoError(t, err)
	return c
}

func TestAddGetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := primitive(t)

	id, err := s.Add(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)
	assert.Equal(t, 1, s.Len(ctx))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	assert.True(t, s.Remove(ctx, id))
	assert.False(t, s.Remove(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestAdd_DuplicateIDConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := primitive(t)

	_, err := s.Add(ctx, c)
	require.NoError(t, err)
	_, err = s.Add(ctx, c)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestList_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	first := primitive(t)
	second := region(t, 1, 2)
	third := primitive(t)
	for _, c := range []models.Constraint{first, second, third} {
		_, err := s.Add(ctx, c)
		require.NoError(t, err)
	}
	s.Remove(ctx, second.ID)

	listed := s.List(ctx)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, third.ID, listed[1].ID)
}

func TestUpdateTransform(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := primitive(t)
	_, err := s.Add(ctx, c)
	require.NoError(t, err)

	next := models.Transform{Translation: v3.Vec{X: 3}, Size: v3.Vec{X: 2, Y: 2, Z: 2}}
	assert.True(t, s.UpdateTransform(ctx, c.ID, next))

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got.Primitive.Transform)
	assert.Equal(t, int64(1), got.Revision)

	// Absent ids and non-primitives report false, never an error.
	assert.False(t, s.UpdateTransform(ctx, domain.NewConstraintID(), next))
	r := region(t, 1)
	_, err = s.Add(ctx, r)
	require.NoError(t, err)
	assert.False(t, s.UpdateTransform(ctx, r.ID, next))
}

func TestSetLabelAndWeight(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := primitive(t)
	_, err := s.Add(ctx, c)
	require.NoError(t, err)

	assert.True(t, s.SetLabel(ctx, c.ID, domain.LabelEmpty))
	assert.True(t, s.SetWeight(ctx, c.ID, 4))
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelEmpty, got.Label)
	assert.Equal(t, 4.0, got.Weight)

	assert.False(t, s.SetLabel(ctx, domain.NewConstraintID(), domain.LabelSolid))
	assert.False(t, s.SetWeight(ctx, domain.NewConstraintID(), 1))
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := region(t, 1, 2, 3)
	_, err := s.Add(ctx, c)
	require.NoError(t, err)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	got.Region.PointIndices[0] = 99

	again, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Region.PointIndices[0])
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_, err := s.Add(ctx, primitive(t))
	require.NoError(t, err)

	s.Clear(ctx)
	assert.Zero(t, s.Len(ctx))
	assert.Empty(t, s.List(ctx))
}
