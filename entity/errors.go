package entity

import "errors"

// Transient failure classes. Both abort the current event without partial
// state change; the user may simply retry.
var (
	// ErrStoreUnavailable wraps any state store failure.
	ErrStoreUnavailable = errors.New("state store unavailable")

	// ErrOracleUnavailable wraps a failed membership query. It is distinct
	// from a "not a member" answer: a network error must never be read as
	// confirmed absence.
	ErrOracleUnavailable = errors.New("membership check unavailable")
)
