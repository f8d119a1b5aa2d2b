package domain

import (
	"fmt"
	"strings"
)

// ConnectionError is a failure to reach the source or destination store.
type ConnectionError struct {
	Store string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Store, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SourceQueryError is a failed read query against the source.
type SourceQueryError struct {
	Query string
	Err   error
}

func (e *SourceQueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Err)
}

func (e *SourceQueryError) Unwrap() error { return e.Err }

// DateFormatError reports a date column whose raw value is not YYYY-MM-DD.
type DateFormatError struct {
	Field string
	Value any
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("field %s: invalid date %v", e.Field, e.Value)
}

// FieldError reports a scalar column that could not be coerced to its document type.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %v)", e.Field, e.Reason, e.Value)
}

// WriteFailure is one document rejected by the destination.
type WriteFailure struct {
	Index      int    `json:"index"`
	DocumentID string `json:"document_id,omitempty"`
	Reason     string `json:"reason"`
}

// PartialWriteError is returned when some documents of a batch were rejected while the rest were written.
type PartialWriteError struct {
	Collection string
	Failures   []WriteFailure
}

func (e *PartialWriteError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for i, f := range e.Failures {
		if i == 3 {
			reasons = append(reasons, fmt.Sprintf("... %d more", len(e.Failures)-3))
			break
		}
		reasons = append(reasons, fmt.Sprintf("#%d: %s", f.Index, f.Reason))
	}
	return fmt.Sprintf("%s: %d document(s) failed: %s", e.Collection, len(e.Failures), strings.Join(reasons, "; "))
}
