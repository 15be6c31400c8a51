package session

import (
	"math"

	"signa/internal/constraint/models"
	dErrors "signa/pkg/domain-errors"
)

// raySession buffers scribble rays between commits. Directions are
// normalized at intake so commit-time validation never trips on rounding.
type raySession struct {
	rays []models.Ray
}

func (s *raySession) add(rays []models.Ray) error {
	normalized := make([]models.Ray, 0, len(rays))
	for i, r := range rays {
		length := r.Direction.Length()
		if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "ray %d direction is degenerate", i)
		}
		r.Direction = r.Direction.DivScalar(length)
		if r.HitDistance <= 0 || math.IsNaN(r.HitDistance) || math.IsInf(r.HitDistance, 0) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "ray %d hit distance must be strictly positive", i)
		}
		if r.LocalSpacing < 0 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "ray %d local spacing cannot be negative", i)
		}
		normalized = append(normalized, r)
	}
	s.rays = append(s.rays, normalized...)
	return nil
}

func (s *raySession) clear() {
	s.rays = nil
}

func (s *raySession) count() int {
	return len(s.rays)
}
