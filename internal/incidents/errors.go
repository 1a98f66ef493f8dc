package incidents

import "errors"

// Operation errors. Every failure leaves the incident collection unchanged.
var (
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced incident does not exist.
	ErrNotFound = errors.New("incident not found")

	// ErrConflict is returned when creating an incident with an id that
	// already exists.
	ErrConflict = errors.New("incident id already exists")

	// ErrGeneration is returned when the text-generation collaborator fails
	// or returns unusable output. Generation runs before any write, so this
	// never leaves an incident half-updated.
	ErrGeneration = errors.New("artifact generation failed")
)
