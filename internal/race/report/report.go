// Package report renders analysis verdicts for people and for tools.
//
// The text format follows the layout of Go's race detector:
//
//	==================
//	WARNING: DATA RACE (write-write)
//	write of V1 by T1 at line 1 races with write by T2 at line 2
//	  lines: 1, 2
//	==================
//	Found 1 violation(s)
//
// A clean verdict prints "no violation found". Headers are coloured by
// category when colour is enabled.
//
// The JSON format is a single object with the verdict, the findings and the
// analysis statistics.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/trace"
)

// CleanMessage is printed for a verdict without violations.
const CleanMessage = "no violation found"

const separator = "=================="

// Format selects the output format.
type Format uint8

const (
	// FormatText is the human-readable report.
	FormatText Format = iota
	// FormatJSON is the machine-readable report.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Options controls rendering.
type Options struct {
	Format Format

	// Color enables ANSI colours in the text format.
	Color bool

	// HideNotes omits end-of-trace notes from the text format.
	HideNotes bool
}

// Write renders v to w in the selected format.
func Write(w io.Writer, v *analyzer.Verdict, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return JSON(w, v)
	default:
		return Text(w, v, opts)
	}
}

// palette holds one colour per category.
type palette struct {
	categories map[analyzer.Category]*color.Color
	clean      *color.Color
	note       *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		categories: map[analyzer.Category]*color.Color{
			analyzer.CategoryRace:        color.New(color.FgHiRed, color.Bold),
			analyzer.CategoryDiscipline:  color.New(color.FgHiYellow, color.Bold),
			analyzer.CategoryDeadlock:    color.New(color.FgHiMagenta, color.Bold),
			analyzer.CategoryConsistency: color.New(color.FgHiCyan, color.Bold),
		},
		clean: color.New(color.FgHiGreen),
		note:  color.New(color.FgHiBlue),
	}
	for _, c := range p.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) all() []*color.Color {
	cs := []*color.Color{p.clean, p.note}
	for _, c := range p.categories {
		cs = append(cs, c)
	}
	return cs
}

// Text writes the human-readable report.
func Text(w io.Writer, v *analyzer.Verdict, opts Options) error {
	p := newPalette(opts.Color)
	ew := &errWriter{w: w}

	if v.Clean() {
		ew.print(p.clean.Sprint(CleanMessage) + "\n")
	} else {
		for _, x := range v.Violations {
			writeViolation(ew, p, x)
		}
		ew.printf("%s\n", separator)
		ew.printf("Found %d violation(s)\n", len(v.Violations))
	}

	if !opts.HideNotes {
		for _, n := range v.Notes {
			ew.print(p.note.Sprintf("note: %s: %s", n.Kind, n.Message) + "\n")
		}
	}
	return ew.err
}

func writeViolation(ew *errWriter, p *palette, x analyzer.Violation) {
	header := fmt.Sprintf("WARNING: %s (%s)", strings.ToUpper(x.Category().String()), x.Kind)
	ew.printf("%s\n", separator)
	ew.print(p.categories[x.Category()].Sprint(header) + "\n")
	ew.printf("%s\n", x.Message)
	ew.printf("  lines: %s\n", joinLines(x.Lines))
}

func joinLines(lines []trace.Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) printf(format string, args ...any) {
	ew.print(fmt.Sprintf(format, args...))
}
