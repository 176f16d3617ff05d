package ingest

import "errors"

// Ingestion failures are classified by the stage that failed. Errors
// returned by Service wrap exactly one of these together with the
// underlying cause.
var (
	// ErrParse wraps a *telegram.ParseError.
	ErrParse = errors.New("ingest: parse failed")

	// ErrMapping wraps an *event.FieldError.
	ErrMapping = errors.New("ingest: mapping failed")

	// ErrStorage wraps the repository error.
	ErrStorage = errors.New("ingest: storage failed")

	// ErrTooManyLines is returned by ParseBatch when the input exceeds the
	// configured line limit.
	ErrTooManyLines = errors.New("ingest: too many lines")
)
