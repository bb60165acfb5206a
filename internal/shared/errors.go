package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataNotFound is returned when every provider came back empty for a query.
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrUnauthorizedLookup is returned when the link lookup is explicitly rejected.
	ErrUnauthorizedLookup = errors.New("unauthorized lookup")

	// ErrNoAudioStream is returned when a video exposes no audio-only format.
	ErrNoAudioStream = errors.New("no audio stream available")

	// ErrCacheLocked is returned when another process holds the working area.
	ErrCacheLocked = errors.New("working directory is locked by another process")
)

// ProviderQueryError records a single catalog adapter failure
type ProviderQueryError struct {
	Provider Provider
	Err      error
}

func (e *ProviderQueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Provider, e.Err)
}

func (e *ProviderQueryError) Unwrap() error { return e.Err }

// TaggingError is returned when a core textual tag field could not be written
type TaggingError struct {
	Field string
	Err   error
}

func (e *TaggingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tagging failed: %v", e.Err)
	}
	return fmt.Sprintf("tagging %s failed: %v", e.Field, e.Err)
}

func (e *TaggingError) Unwrap() error { return e.Err }

// EntryFailure is the catch-all recorded at the per-entry isolation boundary
type EntryFailure struct {
	Entry PlaylistEntry
	State string
	Err   error
	Stack []byte // set when the failure was a recovered panic
}

func (e *EntryFailure) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Entry.Label(), e.State, e.Err)
}

func (e *EntryFailure) Unwrap() error { return e.Err }
