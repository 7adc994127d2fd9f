package race

import (
	"context"
	"io"
	"log/slog"

	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/race/report"
	"github.com/kolkov/tracecheck/internal/trace"
	"github.com/kolkov/tracecheck/internal/trace/frontend"
)

// Verdict is the result of checking one trace.
type Verdict = analyzer.Verdict

// Violation is one finding of a check.
type Violation = analyzer.Violation

// Strictness controls how forked threads that are never joined and locks
// still held at the end of the trace are reported.
type Strictness = analyzer.Strictness

const (
	// Lenient ignores unjoined threads and unreleased locks.
	Lenient = analyzer.Lenient
	// Warn reports them as notes. This is the default.
	Warn = analyzer.Warn
	// Strict reports them as violations.
	Strict = analyzer.Strict
)

// Options controls a check.
type Options struct {
	// Normalize accepts the variant spellings of the trace format
	// (bare numbers, bracketed operands, unprefixed thread ids).
	Normalize bool

	// Pipeline runs lexer, normalizer and parser concurrently.
	Pipeline bool

	// Strictness defaults to Lenient when Options is the zero value; use
	// DefaultOptions for the command-line defaults.
	Strictness Strictness

	// LockOrder reports lock-order inversions (potential deadlocks) in
	// addition to deadlocks the trace actually reached.
	LockOrder bool

	// Logger receives debug timings. nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the tracecheck command when no
// flag or config file says otherwise.
func DefaultOptions() Options {
	return Options{Strictness: Warn}
}

func (o Options) frontend() frontend.Options {
	return frontend.Options{Normalize: o.Normalize, Pipeline: o.Pipeline, Logger: o.Logger}
}

func (o Options) analyzer() *analyzer.Analyzer {
	opts := []analyzer.Option{
		analyzer.WithStrictness(o.Strictness),
		analyzer.WithLockOrder(o.LockOrder),
	}
	if o.Logger != nil {
		opts = append(opts, analyzer.WithLogger(o.Logger))
	}
	return analyzer.New(opts...)
}

// Check reads a trace document from r and analyzes it.
//
// A malformed trace yields an error and no verdict; the error is a
// *token.LexicalError or *parser.SyntaxError carrying the line and column.
// Gzip-compressed input is accepted.
func Check(ctx context.Context, r io.Reader, opts Options) (*Verdict, error) {
	tr, err := frontend.Load(ctx, r, opts.frontend())
	if err != nil {
		return nil, err
	}
	return Analyze(tr, opts), nil
}

// CheckFile is Check on the file at path. The path "-" reads stdin.
func CheckFile(ctx context.Context, path string, opts Options) (*Verdict, error) {
	tr, err := frontend.LoadFile(ctx, path, opts.frontend())
	if err != nil {
		return nil, err
	}
	return Analyze(tr, opts), nil
}

// CheckBytes is Check on an in-memory document.
func CheckBytes(ctx context.Context, text []byte, opts Options) (*Verdict, error) {
	tr, err := frontend.Parse(ctx, text, opts.frontend())
	if err != nil {
		return nil, err
	}
	return Analyze(tr, opts), nil
}

// Analyze checks an already parsed trace.
func Analyze(tr trace.Trace, opts Options) *Verdict {
	return opts.analyzer().Analyze(tr)
}

// WriteText renders v in the text format without colour.
func WriteText(w io.Writer, v *Verdict) error {
	return report.Text(w, v, report.Options{})
}

// WriteJSON renders v as a JSON document.
func WriteJSON(w io.Writer, v *Verdict) error {
	return report.JSON(w, v)
}
