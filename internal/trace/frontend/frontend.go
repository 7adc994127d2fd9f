// Package frontend wires the lexer, normalizer and parser into one call that
// turns a trace document into typed events.
//
// Two execution modes produce identical results:
//
//   - Sequential: tokenize the whole text, optionally normalize, then parse.
//   - Pipelined: lexer, normalizer and parser run in separate goroutines
//     connected by buffered channels under an errgroup. Errors travel in-band.
//
// In both modes a lexical error anywhere in the document wins over a syntax
// error, and error positions are the same.
//
// Gzip-compressed input is detected by its magic bytes and decompressed
// transparently.
package frontend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/tracecheck/internal/trace"
	"github.com/kolkov/tracecheck/internal/trace/normalize"
	"github.com/kolkov/tracecheck/internal/trace/parser"
	"github.com/kolkov/tracecheck/internal/trace/token"
)

// stageBuffer is the channel capacity between pipelined stages.
const stageBuffer = 256

// Options controls how a trace is read.
type Options struct {
	// Normalize applies the token normalizer before parsing.
	Normalize bool

	// Pipeline runs the stages concurrently.
	Pipeline bool

	// Logger receives stage timings at debug level. nil discards them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// LoadFile reads and parses the trace at path. The path "-" reads stdin.
func LoadFile(ctx context.Context, path string, opts Options) (trace.Trace, error) {
	if path == "-" {
		return Load(ctx, os.Stdin, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(ctx, f, opts)
}

// Load reads a trace document from r and parses it.
//
// Lexical and syntax errors are returned unwrapped (*token.LexicalError,
// *parser.SyntaxError); I/O errors are wrapped with context.
func Load(ctx context.Context, r io.Reader, opts Options) (trace.Trace, error) {
	text, err := ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, text, opts)
}

// ReadAll reads the whole document, decompressing gzip input.
func ReadAll(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip trace: %w", err)
		}
		defer func() { _ = zr.Close() }()
		text, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("read gzip trace: %w", err)
		}
		return text, nil
	}
	text, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return text, nil
}

// Parse runs the front end over text.
func Parse(ctx context.Context, text []byte, opts Options) (trace.Trace, error) {
	log := opts.logger()
	start := time.Now()

	var (
		tr  trace.Trace
		err error
	)
	if opts.Pipeline {
		tr, err = parsePipelined(ctx, text, opts.Normalize)
	} else {
		tr, err = parseSequential(text, opts.Normalize)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("trace parsed",
		"bytes", len(text),
		"events", len(tr),
		"normalize", opts.Normalize,
		"pipeline", opts.Pipeline,
		"elapsed", time.Since(start))
	return tr, nil
}

// Tokens runs the lexer (and optionally the normalizer) only.
func Tokens(text []byte, normalized bool) ([]token.Token, error) {
	toks, err := token.Tokenize(text)
	if err != nil {
		return nil, err
	}
	if normalized {
		toks = normalize.Normalize(toks)
	}
	return toks, nil
}

func parseSequential(text []byte, normalized bool) (trace.Trace, error) {
	toks, err := Tokens(text, normalized)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks)
}

func parsePipelined(ctx context.Context, text []byte, normalized bool) (trace.Trace, error) {
	g, ctx := errgroup.WithContext(ctx)

	lexed := make(chan item, stageBuffer)
	g.Go(func() error {
		return pump(ctx, token.NewLexer(text), lexed)
	})

	var src token.Source = &chanSource{ctx: ctx, ch: lexed}
	if normalized {
		canon := make(chan item, stageBuffer)
		upstream := src
		g.Go(func() error {
			return pump(ctx, normalize.NewSource(upstream), canon)
		})
		src = &chanSource{ctx: ctx, ch: canon}
	}

	var tr trace.Trace
	g.Go(func() error {
		var err error
		tr, err = parser.ParseSource(src)
		var synErr *parser.SyntaxError
		if errors.As(err, &synErr) {
			// Keep the upstream stages running to the end of input so that a
			// later lexical error is reported instead.
			if lexErr := skipToEnd(src); lexErr != nil {
				return lexErr
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tr, nil
}

// skipToEnd reads src until EOF and returns the error that ended it, if any.
func skipToEnd(src token.Source) error {
	for {
		t, err := src.Next()
		if err != nil || t.Kind == token.EOF {
			return err
		}
	}
}

// item carries one token or a terminal error between stages.
type item struct {
	tok token.Token
	err error
}

// pump copies src into ch until EOF or error, then closes ch. An error is
// forwarded in-band before being returned.
func pump(ctx context.Context, src token.Source, ch chan<- item) error {
	defer close(ch)
	for {
		t, err := src.Next()
		select {
		case ch <- item{tok: t, err: err}:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if t.Kind == token.EOF {
			return nil
		}
	}
}

// chanSource adapts a stage channel to token.Source.
type chanSource struct {
	ctx  context.Context
	ch   <-chan item
	last token.Token
	err  error
	done bool
}

func (c *chanSource) Next() (token.Token, error) {
	if c.err != nil {
		return token.Token{}, c.err
	}
	if c.done {
		return token.Token{Kind: token.EOF, Pos: c.last.Pos}, nil
	}
	select {
	case it, ok := <-c.ch:
		switch {
		case !ok:
			c.done = true
			return token.Token{Kind: token.EOF, Pos: c.last.Pos}, nil
		case it.err != nil:
			c.err = it.err
			return token.Token{}, it.err
		}
		c.last = it.tok
		if it.tok.Kind == token.EOF {
			c.done = true
		}
		return it.tok, nil
	case <-c.ctx.Done():
		c.err = c.ctx.Err()
		return token.Token{}, c.err
	}
}
