// Package parser turns a canonical token stream into a typed trace.
//
// Grammar (one record per event, whitespace already removed by the lexer):
//
//	record  = ThreadId "|" op "(" operand ")" "|" LineNumber
//	op      = "fork" | "join"             (operand ThreadId)
//	        | "acq" | "rel" | "req"       (operand LockId)
//	        | "w" | "r"                   (operand MemoryLocation)
//
// The parser checks shape only: a single left-to-right pass with one token of
// lookahead and no backtracking. Semantic legality (double acquire, join of an
// unknown thread, ...) is left to the analyzer.
package parser

import (
	"github.com/kolkov/tracecheck/internal/trace"
	"github.com/kolkov/tracecheck/internal/trace/token"
)

// Parse parses a complete token slice into a trace.
func Parse(toks []token.Token) (trace.Trace, error) {
	return ParseSource(token.NewSliceSource(toks))
}

// ParseSource parses every record from src.
func ParseSource(src token.Source) (trace.Trace, error) {
	p := New(src)
	var tr trace.Trace
	for {
		ev, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tr, nil
		}
		tr = append(tr, ev)
	}
}

// Parser reads events one record at a time.
type Parser struct {
	src  token.Source
	tok  token.Token // lookahead
	err  error
	init bool
}

// New returns a parser reading from src.
func New(src token.Source) *Parser {
	return &Parser{src: src}
}

// Next parses the next record. It returns ok == false at end of input.
// The first error is sticky.
func (p *Parser) Next() (ev trace.Event, ok bool, err error) {
	if p.err != nil {
		return trace.Event{}, false, p.err
	}
	if !p.init {
		p.init = true
		if err := p.advance(); err != nil {
			return trace.Event{}, false, err
		}
	}
	if p.tok.Kind == token.EOF {
		return trace.Event{}, false, nil
	}

	ev, err = p.record()
	if err != nil {
		p.err = err
		return trace.Event{}, false, err
	}
	return ev, true, nil
}

func (p *Parser) record() (trace.Event, error) {
	thread, err := p.expect(token.ThreadID)
	if err != nil {
		return trace.Event{}, err
	}
	if _, err := p.expect(token.Pipe); err != nil {
		return trace.Event{}, err
	}
	op, err := p.operation()
	if err != nil {
		return trace.Event{}, err
	}
	if _, err := p.expect(token.Pipe); err != nil {
		return trace.Event{}, err
	}
	line, err := p.expect(token.LineNumber)
	if err != nil {
		return trace.Event{}, err
	}
	return trace.Event{
		Line:   trace.Line(line.Value),
		Thread: trace.ThreadID(thread.Value),
		Op:     op,
	}, nil
}

// operations lists every operation keyword, in the order reported in
// SyntaxError.Expected.
var operations = []token.Kind{
	token.Write, token.Read, token.Fork, token.Request,
	token.Acquire, token.Release, token.Join,
}

func (p *Parser) operation() (trace.Operation, error) {
	kw := p.tok
	if !kw.Kind.IsOperation() {
		return nil, p.unexpected(operations...)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	var op trace.Operation
	switch kw.Kind {
	case token.Write, token.Read:
		t, err := p.expect(token.MemoryLocation)
		if err != nil {
			return nil, err
		}
		if kw.Kind == token.Write {
			op = trace.Write{Loc: t.Loc}
		} else {
			op = trace.Read{Loc: t.Loc}
		}
	case token.Acquire, token.Release, token.Request:
		t, err := p.expect(token.LockID)
		if err != nil {
			return nil, err
		}
		lock := trace.LockID(t.Value)
		switch kw.Kind {
		case token.Acquire:
			op = trace.Acquire{Lock: lock}
		case token.Release:
			op = trace.Release{Lock: lock}
		default:
			op = trace.Request{Lock: lock}
		}
	case token.Fork, token.Join:
		t, err := p.expect(token.ThreadID)
		if err != nil {
			return nil, err
		}
		child := trace.ThreadID(t.Value)
		if kw.Kind == token.Fork {
			op = trace.Fork{Child: child}
		} else {
			op = trace.Join{Child: child}
		}
	}

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return op, nil
}

// expect consumes the lookahead if it has kind k.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t := p.tok
	if t.Kind != k {
		return token.Token{}, p.unexpected(k)
	}
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

func (p *Parser) advance() error {
	t, err := p.src.Next()
	if err != nil {
		p.err = err
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) unexpected(expected ...token.Kind) error {
	return &SyntaxError{Expected: expected, Found: p.tok}
}
