package contract

import "errors"

// Common storage errors shared by every backend adapter
var (
	// ErrNotFound indicates a missing contract record where existence was required.
	ErrNotFound = errors.New("contract not found")

	// ErrInvalidConfig indicates an unusable adapter configuration: bad root
	// path, missing credentials, or a backend unreachable at construction.
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrUnavailable indicates a transport or connection failure during an
	// operation against an otherwise configured backend.
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrCorrupt indicates a persisted record that fails to parse as a
	// structural contract.
	ErrCorrupt = errors.New("corrupt contract record")

	// ErrNotOpen indicates a data operation issued before Open or after Close
	// on a backend with a connection concept.
	ErrNotOpen = errors.New("storage adapter not open")
)
