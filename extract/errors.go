package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedText marks non-empty text where child elements were required.
	ErrUnexpectedText = errors.New("expected element with children, found text")

	// ErrUnexpectedElement marks child elements where a text value was required.
	ErrUnexpectedElement = errors.New("expected text value, found element")

	// ErrEmptyRoot marks a tree whose root element is missing or has no children.
	ErrEmptyRoot = errors.New("root element has no child elements")
)

// ProcessingError reports a structural mismatch found while extracting
// fields. Extraction stops and no report is produced.
type ProcessingError struct {
	Path string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("error processing report at %s: %v", e.Path, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
