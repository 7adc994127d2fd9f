package token

import "fmt"

// LexicalErrorKind classifies a LexicalError.
type LexicalErrorKind int

const (
	// NonASCIICharacter is reported for any byte outside the trace alphabet
	// and for letters that start no token pattern.
	NonASCIICharacter LexicalErrorKind = iota
	// NumberOutOfRange is reported when a digit run does not fit in 64 bits.
	NumberOutOfRange
)

// String returns the kind name.
func (k LexicalErrorKind) String() string {
	switch k {
	case NonASCIICharacter:
		return "NonAsciiCharacter"
	case NumberOutOfRange:
		return "NumberOutOfRange"
	default:
		return "Unknown"
	}
}

// LexicalError reports text the lexer could not tokenize.
//
// Format: line:column: message (near "fragment")
type LexicalError struct {
	Kind     LexicalErrorKind
	Pos      Position
	Fragment string
}

// Error implements the error interface.
func (e *LexicalError) Error() string {
	var msg string
	switch e.Kind {
	case NumberOutOfRange:
		msg = "number out of range"
	default:
		msg = "encountered a non-ascii character"
	}
	return fmt.Sprintf("%s: %s (near %q)", e.Pos, msg, e.Fragment)
}
