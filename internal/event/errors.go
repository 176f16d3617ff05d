package event

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required telegram path is absent.
	ErrMissingField = errors.New("event: missing field")

	// ErrWrongType is returned when a telegram path holds a value of the
	// wrong kind.
	ErrWrongType = errors.New("event: wrong type")

	// ErrNotFound is returned when an event ID does not exist.
	ErrNotFound = errors.New("event: not found")

	// ErrBadEncoding is returned when stored peaks or harmonics text
	// cannot be decoded.
	ErrBadEncoding = errors.New("event: bad encoding")
)

// FieldError names the telegram path that failed to map.
type FieldError struct {
	// Path is "Section.Key" for object sections and "Section[i]" for
	// array sections.
	Path string

	// Want is the expected value kind ("integer", "number", ...).
	Want string

	// Err is ErrMissingField or ErrWrongType.
	Err error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrWrongType) {
		return fmt.Sprintf("%v: %s (want %s)", e.Err, e.Path, e.Want)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Path)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
