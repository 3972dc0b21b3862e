package xmltree

import "fmt"

// RootElement is the tag every bureau document must start with.
const RootElement = "INProfileResponse"

// ParseError reports XML that could not be read at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatError reports well-formed XML with the wrong shape.
// Empty is set when the root tag matched but carried no content.
type FormatError struct {
	Expected string
	Found    string
	Empty    bool
}

func (e *FormatError) Error() string {
	if e.Empty {
		return fmt.Sprintf("invalid XML format: required root element <%s> is empty", e.Expected)
	}
	return fmt.Sprintf("invalid XML format: missing required root element <%s> (found <%s>)", e.Expected, e.Found)
}
