package types

import "errors"

// Primary-path errors. These surface to callers and are never swallowed;
// side-channel failures (portal updates, memory-bridge notifications, audit
// log appends) are logged and ignored instead.
var (
	// ErrNotFound indicates an operation on a nonexistent work item.
	ErrNotFound = errors.New("work item not found")

	// ErrInvalidTransition indicates the lifecycle validator rejected a
	// from-node to to-node move.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrIDUnavailable indicates creation over an ID whose existing record
	// is complete or archived.
	ErrIDUnavailable = errors.New("work item id unavailable")

	// ErrInvalidArgument indicates a caller-supplied value outside the
	// accepted set (e.g. an unknown queue position).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrVersionConflict indicates a write lost the optimistic-concurrency
	// race: the stored record changed since the caller read it.
	ErrVersionConflict = errors.New("work item version conflict")
)
