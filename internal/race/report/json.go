package report

import (
	"encoding/json"
	"io"

	"github.com/kolkov/tracecheck/internal/race/analyzer"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Document is the JSON form of a verdict.
type Document struct {
	Clean      bool           `json:"clean"`
	Violations []Finding      `json:"violations"`
	Notes      []Finding      `json:"notes,omitempty"`
	Stats      analyzer.Stats `json:"stats"`
}

// Finding is the JSON form of a violation.
type Finding struct {
	Kind     string       `json:"kind"`
	Category string       `json:"category"`
	Lines    []trace.Line `json:"lines"`
	Threads  []string     `json:"threads,omitempty"`
	Locks    []string     `json:"locks,omitempty"`
	Location string       `json:"location,omitempty"`
	Message  string       `json:"message"`
}

// NewDocument converts v to its JSON form.
func NewDocument(v *analyzer.Verdict) Document {
	return Document{
		Clean:      v.Clean(),
		Violations: findings(v.Violations),
		Notes:      findings(v.Notes),
		Stats:      v.Stats,
	}
}

func findings(vs []analyzer.Violation) []Finding {
	out := make([]Finding, 0, len(vs))
	for _, x := range vs {
		f := Finding{
			Kind:     x.Kind.String(),
			Category: x.Category().String(),
			Lines:    x.Lines,
			Message:  x.Message,
		}
		for _, t := range x.Threads {
			f.Threads = append(f.Threads, t.String())
		}
		for _, l := range x.Locks {
			f.Locks = append(f.Locks, l.String())
		}
		if x.Location != nil {
			f.Location = x.Location.String()
		}
		out = append(out, f)
	}
	return out
}

// JSON writes v as an indented JSON document.
func JSON(w io.Writer, v *analyzer.Verdict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(v))
}
