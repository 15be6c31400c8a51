package domain

import dErrors "signa/pkg/domain-errors"

// GizmoMode is the transform operation applied by drags on a selected
// primitive.
type GizmoMode string

const (
	GizmoTranslate GizmoMode = "translate"
	GizmoRotate    GizmoMode = "rotate"
	GizmoScale     GizmoMode = "scale"
)

var validGizmoModes = map[GizmoMode]bool{
	GizmoTranslate: true,
	GizmoRotate:    true,
	GizmoScale:     true,
}

// ParseGizmoMode constructs a GizmoMode from external input.
func ParseGizmoMode(s string) (GizmoMode, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "gizmo mode cannot be empty")
	}
	g := GizmoMode(s)
	if !g.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid gizmo mode %q", s)
	}
	return g, nil
}

// IsValid checks if the gizmo mode is one of the supported enum values.
func (g GizmoMode) IsValid() bool {
	return validGizmoModes[g]
}

// String returns the string representation of the gizmo mode.
func (g GizmoMode) String() string {
	return string(g)
}
