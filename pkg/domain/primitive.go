package domain

import dErrors "signa/pkg/domain-errors"

// PrimitiveKind is the closed set of geometric primitives the evaluator can
// score. Dispatch is by tag, never by runtime type inspection.
type PrimitiveKind string

const (
	PrimitiveBox       PrimitiveKind = "box"
	PrimitiveSphere    PrimitiveKind = "sphere"
	PrimitiveCylinder  PrimitiveKind = "cylinder"
	PrimitiveHalfspace PrimitiveKind = "halfspace"
)

var validPrimitiveKinds = map[PrimitiveKind]bool{
	PrimitiveBox:       true,
	PrimitiveSphere:    true,
	PrimitiveCylinder:  true,
	PrimitiveHalfspace: true,
}

// ParsePrimitiveKind constructs a PrimitiveKind from external input.
func ParsePrimitiveKind(s string) (PrimitiveKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "primitive kind cannot be empty")
	}
	k := PrimitiveKind(s)
	if !k.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid primitive kind %q", s)
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k PrimitiveKind) IsValid() bool {
	return validPrimitiveKinds[k]
}

// String returns the string representation of the kind.
func (k PrimitiveKind) String() string {
	return string(k)
}
