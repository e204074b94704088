package compliance

import "errors"

// Sentinel errors for selection lookups.
// Callers should use errors.Is() to check for these.
var (
	// ErrNotFound indicates a selection referenced an identifier absent
	// from the loaded tables. Views recover by rendering an empty state.
	ErrNotFound = errors.New("compliance: requirement not found")
)
