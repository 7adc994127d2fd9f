// Package normalize rewrites superficial token-stream variance into the one
// canonical form accepted by the parser:
//
//	ThreadId | op ( operand ) | LineNumber
//
// Rewrites applied:
//
//  1. Bracket delimiters around an operand become parentheses:
//     acq[L1], acq(L1], acq[L1) → acq(L1).
//  2. A bare operand directly after an operation gets parentheses:
//     acq L1 → acq(L1).
//  3. A bare number used as an operand is retyped by its operation:
//     fork/join → ThreadId, acq/rel/req → LockId, w/r → MemoryLocation.
//     Recorders commonly emit raw addresses, e.g. T6|w(4294967298)|59.
//  4. A bare number heading a record and followed by '|' becomes a ThreadId.
//
// Every identifier, location and operation of the input survives; only
// delimiters are added or replaced and numeric payloads are reclassified.
// Normalization is idempotent. Input that matches none of the rules passes
// through unchanged so the parser can report it.
package normalize

import (
	"github.com/kolkov/tracecheck/internal/trace"
	"github.com/kolkov/tracecheck/internal/trace/token"
)

// Normalize returns the canonical form of toks.
func Normalize(toks []token.Token) []token.Token {
	out, _ := token.Drain(NewSource(token.NewSliceSource(toks)))
	return out
}

// Source is a normalizing token.Source wrapping another source.
type Source struct {
	src   token.Source
	ahead []token.Token // lookahead window, may end with EOF
	out   []token.Token // rewritten tokens waiting to be returned
	err   error
	field int // field index within the current record (0 thread, 1 op, 2 line)
}

// NewSource returns a Source that normalizes src on the fly. It needs at most
// three tokens of lookahead.
func NewSource(src token.Source) *Source {
	return &Source{src: src}
}

// Next implements token.Source.
func (s *Source) Next() (token.Token, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return token.Token{}, s.err
		}
		if err := s.step(); err != nil {
			s.err = err
			return token.Token{}, err
		}
	}
	t := s.out[0]
	s.out = s.out[1:]
	return t, nil
}

// step consumes one input token (or one operation group) and queues its
// rewritten form.
func (s *Source) step() error {
	t, err := s.take()
	if err != nil {
		return err
	}
	if t.Kind == token.EOF {
		s.out = append(s.out, t)
		return nil
	}

	switch {
	case t.Kind == token.LineNumber && s.field == 0:
		next, err := s.peek(0)
		if err != nil {
			return err
		}
		if next.Kind == token.Pipe {
			t.Kind = token.ThreadID
		}
		s.out = append(s.out, t)
	case t.Kind.IsOperation():
		if err := s.operation(t); err != nil {
			return err
		}
	default:
		s.out = append(s.out, t)
	}

	switch {
	case t.Kind == token.Pipe:
		s.field++
	case s.field >= 2:
		s.field = 0
	}
	return nil
}

// operation rewrites an operation keyword and the operand group after it.
func (s *Source) operation(op token.Token) error {
	open, err := s.peek(0)
	if err != nil {
		return err
	}

	if isOpener(open.Kind) {
		operand, err := s.peek(1)
		if err != nil {
			return err
		}
		closer, err := s.peek(2)
		if err != nil {
			return err
		}
		if operand.Kind.IsOperand() && isCloser(closer.Kind) {
			s.ahead = s.ahead[3:]
			s.out = append(s.out,
				op,
				token.Token{Kind: token.LParen, Pos: open.Pos},
				retype(op.Kind, operand),
				token.Token{Kind: token.RParen, Pos: closer.Pos},
			)
			return nil
		}
	} else if open.Kind.IsOperand() {
		s.ahead = s.ahead[1:]
		s.out = append(s.out,
			op,
			token.Token{Kind: token.LParen, Pos: open.Pos},
			retype(op.Kind, open),
			token.Token{Kind: token.RParen, Pos: open.Pos},
		)
		return nil
	}

	s.out = append(s.out, op)
	return nil
}

// retype reclassifies a bare number according to the operation it belongs to.
func retype(op token.Kind, t token.Token) token.Token {
	if t.Kind != token.LineNumber {
		return t
	}
	switch op {
	case token.Fork, token.Join:
		t.Kind = token.ThreadID
	case token.Acquire, token.Release, token.Request:
		t.Kind = token.LockID
	case token.Write, token.Read:
		t.Kind = token.MemoryLocation
		t.Loc = trace.Loc(t.Value)
	}
	return t
}

// take removes and returns the next input token.
func (s *Source) take() (token.Token, error) {
	t, err := s.peek(0)
	if err != nil {
		return token.Token{}, err
	}
	if t.Kind != token.EOF {
		s.ahead = s.ahead[1:]
	}
	return t, nil
}

// peek returns the i-th token of lookahead without consuming it. Past the end
// of input it returns EOF.
func (s *Source) peek(i int) (token.Token, error) {
	for len(s.ahead) <= i {
		if n := len(s.ahead); n > 0 && s.ahead[n-1].Kind == token.EOF {
			return s.ahead[n-1], nil
		}
		t, err := s.src.Next()
		if err != nil {
			return token.Token{}, err
		}
		s.ahead = append(s.ahead, t)
	}
	return s.ahead[i], nil
}

func isOpener(k token.Kind) bool {
	return k == token.LParen || k == token.LBracket
}

func isCloser(k token.Kind) bool {
	return k == token.RParen || k == token.RBracket
}
