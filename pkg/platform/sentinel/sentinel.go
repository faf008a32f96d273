package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: record does not exist, or a write affected zero rows
// - ErrConflict: a uniqueness rule rejected the write
// - ErrAlreadyUsed: the resource is already claimed (e.g. a promoted request)
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
