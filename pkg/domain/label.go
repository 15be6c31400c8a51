package domain

import dErrors "signa/pkg/domain-errors"

// Label is one of the three SDF sign categories a constraint assigns.
// Invariant: the value must be one of Solid, Empty, Surface.
//
// Usage: construct via ParseLabel at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Label string

const (
	LabelSolid   Label = "solid"
	LabelEmpty   Label = "empty"
	LabelSurface Label = "surface"
)

// labelCycle fixes the wrap-around order of the "next label" action.
var labelCycle = [...]Label{LabelSolid, LabelEmpty, LabelSurface}

var validLabels = map[Label]bool{
	LabelSolid:   true,
	LabelEmpty:   true,
	LabelSurface: true,
}

// ParseLabel constructs a Label from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseLabel(s string) (Label, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "label cannot be empty")
	}
	l := Label(s)
	if !l.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid label %q", s)
	}
	return l, nil
}

// IsValid checks if the label is one of the supported enum values.
func (l Label) IsValid() bool {
	return validLabels[l]
}

// String returns the string representation of the label.
func (l Label) String() string {
	return string(l)
}

// Next returns the following label in the fixed cycle, wrapping around
// after Surface.
func (l Label) Next() Label {
	for i, c := range labelCycle {
		if c == l {
			return labelCycle[(i+1)%len(labelCycle)]
		}
	}
	return LabelSolid
}

// Opposite returns the label on the other side of a boundary: Solid and
// Empty flip, Surface is its own opposite.
func (l Label) Opposite() Label {
	switch l {
	case LabelSolid:
		return LabelEmpty
	case LabelEmpty:
		return LabelSolid
	default:
		return LabelSurface
	}
}

// Phi returns the sign the label implies for a signed-distance value:
// -1 for Solid, +1 for Empty, 0 for Surface.
func (l Label) Phi() float64 {
	switch l {
	case LabelSolid:
		return -1
	case LabelEmpty:
		return 1
	default:
		return 0
	}
}
