package analyzer

import (
	"slices"

	"github.com/kolkov/tracecheck/internal/race/thread"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Stats summarizes what the analysis saw.
type Stats struct {
	Events    int `json:"events"`
	Threads   int `json:"threads"`
	Locks     int `json:"locks"`
	Locations int `json:"locations"`

	// WaitEdges counts the wait-for edges added during the replay, including
	// those later withdrawn by a release. OrderEdges counts the edges of the
	// lock-order graph.
	WaitEdges  int `json:"wait_edges"`
	OrderEdges int `json:"order_edges"`
}

// Verdict is the result of analyzing one trace.
type Verdict struct {
	// Violations are all findings, sorted by witnessing lines.
	Violations []Violation

	// Notes are end-of-trace findings reported under Warn strictness.
	// They do not make the verdict unclean.
	Notes []Violation

	Stats Stats

	stamps []thread.Stamp
}

func (r *run) verdict(events int) *Verdict {
	sortViolations(r.violations)
	sortViolations(r.notes)

	v := &Verdict{
		Violations: r.violations,
		Notes:      r.notes,
		Stats: Stats{
			Events:    events,
			Threads:   r.threads.Len(),
			Locks:     r.locks.Len(),
			Locations: r.memory.Len(),
			WaitEdges: r.waitEdges,
		},
		stamps: r.stamps,
	}
	if r.order != nil {
		v.Stats.OrderEdges = r.order.Len()
	}
	return v
}

// Clean reports whether no violation was found.
func (v *Verdict) Clean() bool {
	return len(v.Violations) == 0
}

// HappensBefore reports whether event i happens before event j, where i and
// j index the analyzed trace. The relation is a strict partial order;
// out-of-range indices are unordered.
func (v *Verdict) HappensBefore(i, j int) bool {
	if i < 0 || j < 0 || i >= len(v.stamps) || j >= len(v.stamps) {
		return false
	}
	return v.stamps[i].HappensBefore(v.stamps[j])
}

// Concurrent reports whether events i and j are distinct and unordered.
func (v *Verdict) Concurrent(i, j int) bool {
	if i == j || i < 0 || j < 0 || i >= len(v.stamps) || j >= len(v.stamps) {
		return false
	}
	return !v.HappensBefore(i, j) && !v.HappensBefore(j, i)
}

// ByCategory returns the violations of category c.
func (v *Verdict) ByCategory(c Category) []Violation {
	var out []Violation
	for _, x := range v.Violations {
		if x.Category() == c {
			out = append(out, x)
		}
	}
	return out
}

// Count returns the number of violations of kind k.
func (v *Verdict) Count(k Kind) int {
	n := 0
	for _, x := range v.Violations {
		if x.Kind == k {
			n++
		}
	}
	return n
}

func sortLines(lines []trace.Line) {
	slices.Sort(lines)
}
