// Package token implements the lexical layer of the trace front end.
//
// The lexer is the only component that touches raw trace bytes. It turns the
// text into a stream of immutable Tokens using longest-match scanning over
// the trace alphabet:
//
//	T<digits>                    thread identifier
//	L<digits>                    lock identifier
//	V<digits>[.<digits>[<digits>]] memory location
//	<digits>                     line number
//	fork req acq rel join        operation keywords
//	| ( ) [ ] w r                literals
//
// Whitespace (space, tab, CR, LF, form feed) separates tokens and is
// discarded. Any other byte, or a letter that starts no pattern, is a
// LexicalError.
package token

import (
	"fmt"
	"strconv"

	"github.com/kolkov/tracecheck/internal/trace"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Pipe
	LParen
	RParen
	LBracket
	RBracket
	ThreadID
	LockID
	MemoryLocation
	Write
	Read
	Fork
	Request
	Acquire
	Release
	Join
	LineNumber
)

var kindNames = [...]string{
	EOF:            "EOF",
	Pipe:           "'|'",
	LParen:         "'('",
	RParen:         "')'",
	LBracket:       "'['",
	RBracket:       "']'",
	ThreadID:       "ThreadId",
	LockID:         "LockId",
	MemoryLocation: "MemoryLocation",
	Write:          "'w'",
	Read:           "'r'",
	Fork:           "'fork'",
	Request:        "'req'",
	Acquire:        "'acq'",
	Release:        "'rel'",
	Join:           "'join'",
	LineNumber:     "LineNumber",
}

// String returns a human readable name for the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// IsOperation reports whether k is one of the seven operation keywords.
func (k Kind) IsOperation() bool {
	switch k {
	case Write, Read, Fork, Request, Acquire, Release, Join:
		return true
	}
	return false
}

// IsOperand reports whether k can appear as an operation operand.
func (k Kind) IsOperand() bool {
	switch k {
	case ThreadID, LockID, MemoryLocation, LineNumber:
		return true
	}
	return false
}

// Position locates a token in the trace text. Line and Column are 1-based;
// Offset is the 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String formats the position as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is one lexical unit.
//
// Value holds the numeric payload of ThreadID, LockID and LineNumber tokens
// and the variable id of MemoryLocation tokens. Loc is populated for
// MemoryLocation tokens only.
type Token struct {
	Kind  Kind
	Value uint64
	Loc   trace.MemoryLocation
	Pos   Position
}

// String renders the token in trace syntax.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case Pipe:
		return "|"
	case LParen:
		return "("
	case RParen:
		return ")"
	case LBracket:
		return "["
	case RBracket:
		return "]"
	case ThreadID:
		return trace.ThreadID(t.Value).String()
	case LockID:
		return trace.LockID(t.Value).String()
	case MemoryLocation:
		return t.Loc.String()
	case Write:
		return "w"
	case Read:
		return "r"
	case Fork:
		return "fork"
	case Request:
		return "req"
	case Acquire:
		return "acq"
	case Release:
		return "rel"
	case Join:
		return "join"
	case LineNumber:
		return strconv.FormatUint(t.Value, 10)
	default:
		return fmt.Sprintf("<%v>", t.Kind)
	}
}

// Equal reports whether two tokens carry the same kind and payload,
// ignoring position.
func (t Token) Equal(o Token) bool {
	return t.Kind == o.Kind && t.Value == o.Value && t.Loc == o.Loc
}

// Source is a pull-based token stream. After the last token, Next returns an
// EOF token with a nil error on every call. A non-nil error is terminal.
type Source interface {
	Next() (Token, error)
}

// SliceSource serves tokens from a slice.
//
// A slice produced by Tokenize or Drain ends with the EOF token of its
// source, which is served on every call after the last token so that its
// position (the end of input) survives. A slice without one gets an EOF at
// the position of its last token.
type SliceSource struct {
	toks []Token
	pos  int
	eof  Token
}

// NewSliceSource returns a Source over toks.
func NewSliceSource(toks []Token) *SliceSource {
	s := &SliceSource{toks: toks, eof: Token{Kind: EOF}}
	if n := len(toks); n > 0 {
		if toks[n-1].Kind == EOF {
			s.eof = toks[n-1]
			s.toks = toks[:n-1]
		} else {
			s.eof.Pos = toks[n-1].Pos
		}
	}
	return s
}

// Next implements Source.
func (s *SliceSource) Next() (Token, error) {
	if s.pos >= len(s.toks) {
		return s.eof, nil
	}
	t := s.toks[s.pos]
	s.pos++
	if t.Kind == EOF {
		s.eof = t
		s.pos = len(s.toks)
	}
	return t, nil
}

// Drain reads src until EOF and returns the tokens read, ending with the
// EOF token. On error it returns the tokens read so far.
func Drain(src Source) ([]Token, error) {
	var out []Token
	for {
		t, err := src.Next()
		if err != nil {
			return out, err
		}
		out = append(out, t)
		if t.Kind == EOF {
			return out, nil
		}
	}
}
