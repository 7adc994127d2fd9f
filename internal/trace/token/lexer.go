package token

import (
	"bytes"
	"strconv"

	"github.com/kolkov/tracecheck/internal/trace"
)

// maxFragment bounds the text quoted in a LexicalError.
const maxFragment = 16

// keywords maps multi-letter operation keywords to their kinds. Single-letter
// literals (w, r) are handled by the scanner so that "rel"/"req" win over "r".
var keywords = []struct {
	text []byte
	kind Kind
}{
	{[]byte("fork"), Fork},
	{[]byte("req"), Request},
	{[]byte("acq"), Acquire},
	{[]byte("rel"), Release},
	{[]byte("join"), Join},
}

// Lexer scans trace text into tokens.
//
// A Lexer is a Source: call Next until it returns an EOF token or an error.
// The first error is sticky.
type Lexer struct {
	src  []byte
	off  int
	line int
	col  int
	err  error
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans the whole of src.
//
// It returns every token in order, ending with the EOF token that marks the
// end of input, or the first LexicalError.
func Tokenize(src []byte) ([]Token, error) {
	toks, err := Drain(NewLexer(src))
	if err != nil {
		return nil, err
	}
	return toks, nil
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	l.skipSpace()
	pos := l.pos()
	if l.off >= len(l.src) {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	c := l.src[l.off]
	switch {
	case c == '|':
		return l.single(Pipe, pos), nil
	case c == '(':
		return l.single(LParen, pos), nil
	case c == ')':
		return l.single(RParen, pos), nil
	case c == '[':
		return l.single(LBracket, pos), nil
	case c == ']':
		return l.single(RBracket, pos), nil
	case isDigit(c):
		n, err := l.number(pos)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: LineNumber, Value: n, Pos: pos}, nil
	case c == 'T' || c == 'L':
		return l.identifier(c, pos)
	case c == 'V':
		return l.memoryLocation(pos)
	}

	for _, kw := range keywords {
		if bytes.HasPrefix(l.src[l.off:], kw.text) {
			l.advance(len(kw.text))
			return Token{Kind: kw.kind, Pos: pos}, nil
		}
	}
	switch c {
	case 'w':
		return l.single(Write, pos), nil
	case 'r':
		return l.single(Read, pos), nil
	}
	return Token{}, l.fail(NonASCIICharacter, pos)
}

func (l *Lexer) single(k Kind, pos Position) Token {
	l.advance(1)
	return Token{Kind: k, Pos: pos}
}

// identifier scans T<digits> or L<digits>.
func (l *Lexer) identifier(prefix byte, pos Position) (Token, error) {
	if !l.digitAt(l.off + 1) {
		return Token{}, l.fail(NonASCIICharacter, pos)
	}
	l.advance(1)
	n, err := l.number(pos)
	if err != nil {
		return Token{}, err
	}
	k := ThreadID
	if prefix == 'L' {
		k = LockID
	}
	return Token{Kind: k, Value: n, Pos: pos}, nil
}

// memoryLocation scans V<digits> and the optional .<digits>[<digits>]
// qualifier. The qualifier is consumed only when it is complete; otherwise
// the token ends after the variable digits.
func (l *Lexer) memoryLocation(pos Position) (Token, error) {
	if !l.digitAt(l.off + 1) {
		return Token{}, l.fail(NonASCIICharacter, pos)
	}
	l.advance(1)
	v, err := l.number(pos)
	if err != nil {
		return Token{}, err
	}
	loc := trace.Loc(v)

	if l.hasQualifier(l.off) {
		qpos := l.pos()
		l.advance(1) // '.'
		field, err := l.number(qpos)
		if err != nil {
			return Token{}, err
		}
		l.advance(1) // '['
		index, err := l.number(qpos)
		if err != nil {
			return Token{}, err
		}
		l.advance(1) // ']'
		loc = trace.FieldLoc(v, field, index)
	}
	return Token{Kind: MemoryLocation, Value: v, Loc: loc, Pos: pos}, nil
}

// hasQualifier reports whether a complete .<digits>[<digits>] qualifier
// starts at i.
func (l *Lexer) hasQualifier(i int) bool {
	if i >= len(l.src) || l.src[i] != '.' {
		return false
	}
	i++
	if !l.digitAt(i) {
		return false
	}
	for l.digitAt(i) {
		i++
	}
	if i >= len(l.src) || l.src[i] != '[' {
		return false
	}
	i++
	if !l.digitAt(i) {
		return false
	}
	for l.digitAt(i) {
		i++
	}
	return i < len(l.src) && l.src[i] == ']'
}

// number consumes a digit run and converts it.
func (l *Lexer) number(pos Position) (uint64, error) {
	start := l.off
	for l.digitAt(l.off) {
		l.advance(1)
	}
	n, err := strconv.ParseUint(string(l.src[start:l.off]), 10, 64)
	if err != nil {
		return 0, l.fail(NumberOutOfRange, pos)
	}
	return n, nil
}

func (l *Lexer) skipSpace() {
	for l.off < len(l.src) && isSpace(l.src[l.off]) {
		l.advance(1)
	}
}

func (l *Lexer) advance(n int) {
	for ; n > 0 && l.off < len(l.src); n-- {
		if l.src[l.off] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.off++
	}
}

func (l *Lexer) pos() Position {
	return Position{Offset: l.off, Line: l.line, Column: l.col}
}

func (l *Lexer) digitAt(i int) bool {
	return i < len(l.src) && isDigit(l.src[i])
}

func (l *Lexer) fail(kind LexicalErrorKind, pos Position) error {
	end := pos.Offset
	for end < len(l.src) && end-pos.Offset < maxFragment && !isSpace(l.src[end]) {
		end++
	}
	if end == pos.Offset && end < len(l.src) {
		end++
	}
	l.err = &LexicalError{Kind: kind, Pos: pos, Fragment: string(l.src[pos.Offset:end])}
	return l.err
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f':
		return true
	}
	return false
}
