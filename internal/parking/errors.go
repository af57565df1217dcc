package parking

import "errors"

// Errors returned by the lot, billing and catalog operations. Callers match
// them with errors.Is; the returned errors usually wrap one of these with the
// offending plate or spot id.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyParked   = errors.New("vehicle already parked")
	ErrNotParked       = errors.New("vehicle not parked")
	ErrNoSpotAvailable = errors.New("no spot available")
	ErrNotFound        = errors.New("not found")
)
