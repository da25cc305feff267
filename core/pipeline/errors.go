package pipeline

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced to the CLI and metrics sinks.
const (
	KindSourceUnavailable = "source_unavailable"
	KindSchemaMismatch    = "schema_mismatch"
	KindInsufficientData  = "insufficient_data"
	KindSinkWrite         = "sink_write_error"
)

// SourceUnavailableError reports that the configured source endpoint could not
// be reached or does not exist. The run is terminal; there is no retry.
type SourceUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Endpoint, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Kind returns the taxonomy name.
func (e *SourceUnavailableError) Kind() string { return KindSourceUnavailable }

// SchemaMismatchError reports that an expected field is absent or unreadable
// at the source.
type SchemaMismatchError struct {
	Endpoint string
	Field    string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s: missing field %q", e.Endpoint, e.Field)
}

// Kind returns the taxonomy name.
func (e *SchemaMismatchError) Kind() string { return KindSchemaMismatch }

// InsufficientDataError reports that too few rows survived cleaning.
type InsufficientDataError struct {
	Kept     int
	Total    int
	Survived float64
	Required float64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d of %d rows survived cleaning (%.2f < %.2f required)",
		e.Kept, e.Total, e.Survived, e.Required)
}

// Kind returns the taxonomy name.
func (e *InsufficientDataError) Kind() string { return KindInsufficientData }

// SinkWriteError reports a failed write to the sink destination. The prior
// sink content is left untouched.
type SinkWriteError struct {
	Destination string
	Err         error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink write failed: %s: %v", e.Destination, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// Kind returns the taxonomy name.
func (e *SinkWriteError) Kind() string { return KindSinkWrite }

// FailureKind maps an error to its taxonomy name, or "unknown".
func FailureKind(err error) string {
	var (
		src    *SourceUnavailableError
		schema *SchemaMismatchError
		data   *InsufficientDataError
		sink   *SinkWriteError
	)
	switch {
	case errors.As(err, &src):
		return KindSourceUnavailable
	case errors.As(err, &schema):
		return KindSchemaMismatch
	case errors.As(err, &data):
		return KindInsufficientData
	case errors.As(err, &sink):
		return KindSinkWrite
	default:
		return "unknown"
	}
}
