package analyzer

import (
	"fmt"
	"log/slog"
)

// Strictness controls how end-of-trace consistency findings are reported:
// forked threads that were never joined and locks still held.
type Strictness uint8

const (
	// Lenient ignores end-of-trace findings.
	Lenient Strictness = iota
	// Warn reports them as notes; the verdict stays clean.
	Warn
	// Strict reports them as violations.
	Strict
)

var strictnessNames = [...]string{
	Lenient: "lenient",
	Warn:    "warn",
	Strict:  "strict",
}

func (s Strictness) String() string {
	if int(s) < len(strictnessNames) {
		return strictnessNames[s]
	}
	return "unknown"
}

// ParseStrictness parses "lenient", "warn" or "strict".
func ParseStrictness(s string) (Strictness, error) {
	for i, name := range strictnessNames {
		if s == name {
			return Strictness(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strictness %q (want lenient, warn or strict)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strictness) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strictness) UnmarshalText(text []byte) error {
	v, err := ParseStrictness(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DefaultMaxCycles bounds the number of cycles reported per graph.
const DefaultMaxCycles = 64

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStrictness sets how end-of-trace findings are reported. Default: Warn.
func WithStrictness(s Strictness) Option {
	return func(a *Analyzer) { a.strictness = s }
}

// WithLockOrder enables lock-order inversion detection.
func WithLockOrder(enabled bool) Option {
	return func(a *Analyzer) { a.lockOrder = enabled }
}

// WithMaxCycles bounds the number of cycles reported per graph. n <= 0
// removes the bound.
func WithMaxCycles(n int) Option {
	return func(a *Analyzer) { a.maxCycles = n }
}

// WithLogger sets the logger receiving analysis summaries at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}
