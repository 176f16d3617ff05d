package telegram

import (
	"errors"
	"fmt"
)

// Domain errors for the telegram package.
//
// Parse errors are returned as *ParseError wrapping one of these, so callers
// can match with errors.Is:
//
//	if errors.Is(err, telegram.ErrEmptySection) {
//	    // section declared without content
//	}
var (
	// ErrEmptySection is returned when a section header is followed by
	// neither array elements nor key=value pairs.
	ErrEmptySection = errors.New("telegram: section has no elements or key-value pairs")

	// ErrMalformedValue is returned when the value of a key=value pair
	// contains the ':' section delimiter.
	ErrMalformedValue = errors.New("telegram: value contains section delimiter ':'")

	// ErrInvalidDocument is returned when a JSON document does not have the
	// section -> array|object -> scalar shape.
	ErrInvalidDocument = errors.New("telegram: invalid document")
)

// ParseError describes where a telegram failed to parse.
type ParseError struct {
	// Section is the name of the section being read when parsing failed.
	Section string

	// Offset is the byte offset into the input where the problem was found.
	Offset int

	// Err is the underlying cause (ErrEmptySection or ErrMalformedValue).
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (section %q, offset %d)", e.Err, e.Section, e.Offset)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
