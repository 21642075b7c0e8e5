package entity

import "errors"

// Sentinel errors for entity operations.
var (
	// ErrEntityNotFound is returned when no entity has the requested id.
	ErrEntityNotFound = errors.New("entity: not found")

	// ErrDuplicateEntity is returned when an entity id is already registered.
	ErrDuplicateEntity = errors.New("entity: duplicate id")

	// ErrUnsupportedService is returned for services an entity does not offer.
	ErrUnsupportedService = errors.New("entity: unsupported service")

	// ErrEntryState is returned when a config entry operation is not valid
	// in the entry's current state.
	ErrEntryState = errors.New("entity: invalid config entry state")
)
