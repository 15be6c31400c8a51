package session

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"signa/internal/constraint/models"
	projmodels "signa/internal/project/models"
	"signa/pkg/domain"
)

// TransformState names the transform session's substate.
type TransformState string

const (
	TransformIdle     TransformState = "idle"
	TransformPlacing  TransformState = "placing"
	TransformSelected TransformState = "selected"
)

// transformSession is the placement/selection/drag sub-state machine of
// Primitive mode. It never touches the constraint store itself; the session
// owns both and keeps the two consistent under its lock.
type transformSession struct {
	state    TransformState
	draft    *models.Constraint
	selected domain.ConstraintID
	gizmo    domain.GizmoMode
}

func newTransformSession() transformSession {
	return transformSession{state: TransformIdle}
}

func (t *transformSession) reset() {
	*t = newTransformSession()
}

// startPlacing installs a new draft, discarding any previous one.
func (t *transformSession) startPlacing(draft models.Constraint) {
	t.state = TransformPlacing
	t.draft = &draft
	t.selected = domain.ConstraintID{}
	t.gizmo = ""
}

// takeDraft removes and returns the pending draft.
func (t *transformSession) takeDraft() *models.Constraint {
	d := t.draft
	t.draft = nil
	t.state = TransformIdle
	return d
}

// selectConstraint enters Selected with the gizmo reset to translate. Any
// pending draft is discarded; selection from Placing is a valid transition.
func (t *transformSession) selectConstraint(id domain.ConstraintID) {
	t.state = TransformSelected
	t.draft = nil
	t.selected = id
	t.gizmo = domain.GizmoTranslate
}

func (t *transformSession) deselect() {
	t.state = TransformIdle
	t.selected = domain.ConstraintID{}
	t.gizmo = ""
}

// Drag is one pointer-move sample during a drag gesture. The rendering
// collaborator resolves screen motion into these fields: Delta is the
// view-plane translation already projected into world space, DX the signed
// horizontal screen delta in pixels, Distance the signed change in pixel
// distance from the gizmo origin, and Axis the rotation axis (0=x, 1=y,
// 2=z).
type Drag struct {
	Delta    v3.Vec  `json:"delta"`
	DX       float64 `json:"dx"`
	Distance float64 `json:"distance"`
	Axis     int     `json:"axis"`
}

// applyDrag produces the transform after one drag sample. Scale clamps at
// the configured floor so a drag that would mathematically invert the
// primitive pins at a strictly positive size instead.
func applyDrag(shape domain.PrimitiveKind, tr models.Transform, gizmo domain.GizmoMode, d Drag, cfg projmodels.Config) models.Transform {
	switch gizmo {
	case domain.GizmoTranslate:
		tr.Translation = tr.Translation.Add(d.Delta)
	case domain.GizmoRotate:
		angle := d.DX * cfg.GizmoRotateSpeed
		switch d.Axis {
		case 0:
			tr.Rotation.X += angle
		case 2:
			tr.Rotation.Z += angle
		default:
			tr.Rotation.Y += angle
		}
	case domain.GizmoScale:
		factor := 1 + d.Distance*cfg.GizmoScaleSpeed
		floor := cfg.MinExtent * 2 // keep strictly above the validation bound
		tr.Size = v3.Vec{
			X: math.Max(tr.Size.X*factor, floor),
			Y: math.Max(tr.Size.Y*factor, floor),
			Z: math.Max(tr.Size.Z*factor, floor),
		}
		if shape == domain.PrimitiveHalfspace {
			// Halfspaces have no size; scale drags are absorbed.
			tr.Size = v3.Vec{}
		}
	}
	return tr
}
