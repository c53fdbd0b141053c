package types

import (
	"errors"
	"fmt"
)

// Domain errors for search and content loading
var (
	// ErrInvalidQuery is the sentinel behind every ValidationError
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchUnavailable is returned when the index cannot be built
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrContentLoad is the sentinel behind every ContentLoadError
	ErrContentLoad = errors.New("content load failed")
	// ErrInvalidRecord is the sentinel behind every RecordValidationError
	ErrInvalidRecord = errors.New("invalid record")
)

// Query validation reasons
const (
	ReasonEmpty        = "query is empty"
	ReasonTooShort     = "query is too short"
	ReasonTooLong      = "query is too long"
	ReasonSpecialChars = "query contains too many special characters"
)

// ValidationError reports a malformed query. No search is performed and no
// cache is touched when it is returned.
type ValidationError struct {
	Query  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuery
}

// ContentLoadError reports a failed source fetch or parse.
type ContentLoadError struct {
	Source string
	Err    error
}

func (e *ContentLoadError) Error() string {
	return fmt.Sprintf("content source %s: %v", e.Source, e.Err)
}

// Is makes errors.Is(err, ErrContentLoad) true for every ContentLoadError.
func (e *ContentLoadError) Is(target error) bool {
	return target == ErrContentLoad
}

func (e *ContentLoadError) Unwrap() error {
	return e.Err
}

// RecordValidationError reports one malformed record. It is logged and the
// record dropped; it never fails a batch.
type RecordValidationError struct {
	Source string
	ID     string
	Reason string
}

func (e *RecordValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid record from %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("invalid record %s from %s: %s", e.ID, e.Source, e.Reason)
}

func (e *RecordValidationError) Unwrap() error {
	return ErrInvalidRecord
}
