package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the memory and agenda engines. Recoverable
// conditions are returned to the caller as structured results; everything
// else (storage, embedding provider) surfaces as a hard failure.
var (
	// ErrNotFound reports an unknown id referenced by a read or mutation.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports an operation rejected by current state, such as
	// deleting an active agenda or writing a vector of the wrong dimension.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput reports a malformed argument (non-positive limit,
	// empty required field).
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbedding reports that the embedding provider failed; the
	// operation did not commit anything.
	ErrEmbedding = errors.New("embedding unavailable")

	// ErrDimensionMismatch reports a vector whose length differs from the
	// dimension fixed at engine initialization. It is a kind of Conflict.
	ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch: %w", ErrConflict)
)

// IsRecoverable reports whether err is a condition the caller can handle
// without operator intervention. Storage and embedding failures are not
// recoverable and must be surfaced as hard errors.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidInput)
}
