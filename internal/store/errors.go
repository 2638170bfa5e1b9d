package store

import "errors"

// Sentinel errors for registry operations.
var (
	ErrRegistryMissing = errors.New("job registry does not exist")
	ErrHashNotFound    = errors.New("subject hash not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrEmptySubject    = errors.New("empty subject")
	ErrReadLock        = errors.New("cannot read-lock job registry")
)
