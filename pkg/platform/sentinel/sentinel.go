package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the job runner, and the
// session layer return these (optionally wrapped) so services can translate
// them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists or versions collide
// - ErrInvalidState: operation not legal in the current mode/session state
// - ErrSuperseded: background job cancelled by a newer request or a cloud swap
// - ErrNoPointCloud: operation needs a point cloud and none is loaded
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrSuperseded   = errors.New("superseded")
	ErrNoPointCloud = errors.New("no point cloud")
	ErrUnavailable  = errors.New("unavailable")
)
