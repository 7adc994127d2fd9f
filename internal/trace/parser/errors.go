package parser

import (
	"strings"

	"github.com/kolkov/tracecheck/internal/trace/token"
)

// SyntaxError reports the first token that does not fit the record grammar.
//
// Format: line:column: expected X, found Y
//
// When the offending token is a bracket or a bare number in operand
// position, Suggestion points at the normalizer, which folds those forms
// into the canonical grammar.
type SyntaxError struct {
	Expected []token.Kind
	Found    token.Token
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Found.Pos.String())
	b.WriteString(": expected ")
	for i, k := range e.Expected {
		switch {
		case i == 0:
		case i == len(e.Expected)-1:
			b.WriteString(" or ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(k.String())
	}
	b.WriteString(", found ")
	if e.Found.Kind == token.EOF {
		b.WriteString("end of trace")
	} else {
		b.WriteString(e.Found.Kind.String())
		b.WriteString(" ")
		b.WriteString(`"` + e.Found.String() + `"`)
	}
	if s := e.Suggestion(); s != "" {
		b.WriteString("\n\nSuggestion: ")
		b.WriteString(s)
	}
	return b.String()
}

// Suggestion returns a hint for fixing the input, or "".
func (e *SyntaxError) Suggestion() string {
	switch e.Found.Kind {
	case token.LBracket, token.RBracket:
		return "brackets are only valid inside a qualified location (V1.2[3]); " +
			"run with -normalize to accept bracket-delimited operands"
	case token.LineNumber:
		for _, k := range e.Expected {
			if k == token.ThreadID || k == token.LockID || k == token.MemoryLocation {
				return "bare numbers are not operands; run with -normalize to retype them"
			}
		}
	}
	return ""
}
