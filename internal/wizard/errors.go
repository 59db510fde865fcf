package wizard

import "errors"

var (
	// ErrFrozen is returned for mutations while a submission is in flight.
	ErrFrozen = errors.New("wizard: record is frozen for submission")
	// ErrCompleted is returned for mutations after a successful submission.
	ErrCompleted = errors.New("wizard: application already completed")
	// ErrNotFrozen is returned by MarkSubmitted and Reopen without a prior Submit.
	ErrNotFrozen = errors.New("wizard: record is not frozen")
	// ErrNotAtConfirmation is returned by Submit before the confirmation step is reached.
	ErrNotAtConfirmation = errors.New("wizard: submit is only allowed from the confirmation step")
	// ErrInactiveVariant is returned when a holder patch carries fields of the other holder kind.
	ErrInactiveVariant = errors.New("wizard: fields do not belong to the active holder kind")
	// ErrRegistryNotLoaded is returned when registry data is confirmed before it was fetched.
	ErrRegistryNotLoaded = errors.New("wizard: registry snapshot not loaded")
	// ErrUnknownKind is returned for holder kinds other than individual and organization.
	ErrUnknownKind = errors.New("wizard: unknown holder kind")
	// ErrNilPatch is returned by UpdateSection for a nil patch.
	ErrNilPatch = errors.New("wizard: nil patch")

	// ErrNotFound is returned by lookup collaborators when the key does not exist.
	ErrNotFound = errors.New("wizard: lookup key not found")
)
