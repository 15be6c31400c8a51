package domain

import dErrors "signa/pkg/domain-errors"

// SlicePlane identifies the axis-aligned plane a 2D slab selection was made
// in. The normal axis is the one missing from the name.
type SlicePlane string

const (
	PlaneXY SlicePlane = "xy"
	PlaneXZ SlicePlane = "xz"
	PlaneYZ SlicePlane = "yz"
)

var validSlicePlanes = map[SlicePlane]bool{
	PlaneXY: true,
	PlaneXZ: true,
	PlaneYZ: true,
}

// ParseSlicePlane constructs a SlicePlane from external input.
func ParseSlicePlane(s string) (SlicePlane, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "slice plane cannot be empty")
	}
	p := SlicePlane(s)
	if !p.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid slice plane %q", s)
	}
	return p, nil
}

// IsValid checks if the plane is one of the supported enum values.
func (p SlicePlane) IsValid() bool {
	return validSlicePlanes[p]
}

// String returns the string representation of the plane.
func (p SlicePlane) String() string {
	return string(p)
}

// NormalAxis returns the index (0=x, 1=y, 2=z) of the axis normal to the
// plane.
func (p SlicePlane) NormalAxis() int {
	switch p {
	case PlaneXY:
		return 2
	case PlaneXZ:
		return 1
	default:
		return 0
	}
}
