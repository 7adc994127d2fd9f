package shadowmem

import (
	"slices"

	"github.com/kolkov/tracecheck/internal/race/thread"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Access is one read or write of a memory location.
type Access struct {
	// Index is the position of the event in the trace.
	Index  int
	Line   trace.Line
	Thread trace.ThreadID
	Write  bool
	Stamp  thread.Stamp

	// Held is the set of locks the thread held, in ascending order.
	Held []trace.LockID
}

// Conflicts reports whether a and later form a conflicting pair: different
// threads, at least one write.
func (a Access) Conflicts(later Access) bool {
	return a.Thread != later.Thread && (a.Write || later.Write)
}

// Protected reports whether a common lock was held at both accesses.
func (a Access) Protected(other Access) bool {
	i, j := 0, 0
	for i < len(a.Held) && j < len(other.Held) {
		switch {
		case a.Held[i] == other.Held[j]:
			return true
		case a.Held[i] < other.Held[j]:
			i++
		default:
			j++
		}
	}
	return false
}

type accessKey struct {
	thread trace.ThreadID
	line   trace.Line
	write  bool
}

// VarState stores the access history of a single memory location.
type VarState struct {
	Loc trace.MemoryLocation

	accesses []Access
	latest   map[accessKey]int
}

// NewVarState creates an empty cell for loc.
func NewVarState(loc trace.MemoryLocation) *VarState {
	return &VarState{Loc: loc, latest: make(map[accessKey]int)}
}

// Len returns the number of retained accesses.
func (vs *VarState) Len() int {
	return len(vs.accesses)
}

// Conflicts returns the retained accesses that race with a: conflicting,
// not ordered before a by happens-before and not protected by a common
// lock. a must be later in the trace than every retained access.
func (vs *VarState) Conflicts(a Access) []Access {
	var races []Access
	for _, prev := range vs.accesses {
		if !prev.Conflicts(a) {
			continue
		}
		if prev.Stamp.HappensBefore(a.Stamp) {
			continue
		}
		if prev.Protected(a) {
			continue
		}
		races = append(races, prev)
	}
	return races
}

// Record adds a to the history, replacing an access it dominates.
func (vs *VarState) Record(a Access) {
	key := accessKey{thread: a.Thread, line: a.Line, write: a.Write}
	if i, ok := vs.latest[key]; ok && slices.Equal(vs.accesses[i].Held, a.Held) {
		vs.accesses[i] = a
		return
	}
	vs.latest[key] = len(vs.accesses)
	vs.accesses = append(vs.accesses, a)
}
