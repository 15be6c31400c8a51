// Package domain holds the shared domain primitives: typed ids and the
// closed enums (label, mode, primitive kind, gizmo mode, slice plane) used
// across modules. Typed ids prevent cross-entity assignment at compile time;
// parse functions enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "signa/pkg/domain-errors"
)

// ProjectID identifies a labeling project.
type ProjectID uuid.UUID

// ConstraintID identifies a constraint within a project. Draft primitives
// receive their ConstraintID at placement time so confirm commits the same
// id the client has been holding.
type ConstraintID uuid.UUID

// PocketID identifies a detected pocket within one cloud epoch.
type PocketID uuid.UUID

// parseUUID enforces the shared invariant: ids must be valid, non-empty,
// non-nil UUIDs. Construct ids via the ParseXID functions at trust
// boundaries; direct casting bypasses validation.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s id", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id cannot be nil", kind)
	}
	return u, nil
}

// NewProjectID generates a fresh project id.
func NewProjectID() ProjectID { return ProjectID(uuid.New()) }

// ParseProjectID validates external input into a ProjectID.
func ParseProjectID(s string) (ProjectID, error) {
	u, err := parseUUID(s, "project")
	return ProjectID(u), err
}

func (id ProjectID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id ProjectID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText serializes the id in canonical UUID form.
func (id ProjectID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the id with full boundary validation.
func (id *ProjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseProjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewConstraintID generates a fresh constraint id.
func NewConstraintID() ConstraintID { return ConstraintID(uuid.New()) }

// ParseConstraintID validates external input into a ConstraintID.
func ParseConstraintID(s string) (ConstraintID, error) {
	u, err := parseUUID(s, "constraint")
	return ConstraintID(u), err
}

func (id ConstraintID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id ConstraintID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText serializes the id in canonical UUID form.
func (id ConstraintID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the id with full boundary validation.
func (id *ConstraintID) UnmarshalText(b []byte) error {
	parsed, err := ParseConstraintID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewPocketID generates a fresh pocket id.
func NewPocketID() PocketID { return PocketID(uuid.New()) }

// ParsePocketID validates external input into a PocketID.
func ParsePocketID(s string) (PocketID, error) {
	u, err := parseUUID(s, "pocket")
	return PocketID(u), err
}

func (id PocketID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id PocketID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText serializes the id in canonical UUID form.
func (id PocketID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses the id with full boundary validation.
func (id *PocketID) UnmarshalText(b []byte) error {
	parsed, err := ParsePocketID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
