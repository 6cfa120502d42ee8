package models

import "errors"

// Error taxonomy. Callers classify with errors.Is and never retry
// validation or not-found failures.
var (
	// ErrValidation marks malformed command arguments, bad formats and
	// unknown field aliases. Storage is never touched.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown id or an empty owner-scoped lookup.
	ErrNotFound = errors.New("not found")

	// ErrExternal marks AI-provider or market-data failures. Caught at the
	// orchestration boundary and converted to degraded output.
	ErrExternal = errors.New("external service error")

	// ErrPersistence marks storage read/write failures.
	ErrPersistence = errors.New("persistence error")
)
