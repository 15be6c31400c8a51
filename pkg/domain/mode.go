package domain

import dErrors "signa/pkg/domain-errors"

// Mode is the top-level interaction mode. Exactly one mode is active per
// session; Orbit is the default and mutates nothing.
type Mode string

const (
	ModeOrbit       Mode = "orbit"
	ModePrimitive   Mode = "primitive"
	ModeSlice       Mode = "slice"
	ModeBrush       Mode = "brush"
	ModeSeed        Mode = "seed"
	ModeImport      Mode = "import"
	ModeRayScribble Mode = "ray_scribble"
	ModeClickPocket Mode = "click_pocket"
)

var validModes = map[Mode]bool{
	ModeOrbit:       true,
	ModePrimitive:   true,
	ModeSlice:       true,
	ModeBrush:       true,
	ModeSeed:        true,
	ModeImport:      true,
	ModeRayScribble: true,
	ModeClickPocket: true,
}

// ParseMode constructs a Mode from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "mode cannot be empty")
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid mode %q", s)
	}
	return m, nil
}

// IsValid checks if the mode is one of the supported enum values.
func (m Mode) IsValid() bool {
	return validModes[m]
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}
