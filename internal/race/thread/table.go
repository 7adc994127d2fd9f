package thread

import "github.com/kolkov/tracecheck/internal/trace"

// Table maps trace thread ids to their states and assigns dense slots in
// order of first reference.
//
// A Table belongs to a single analysis run and is not safe for concurrent
// use.
type Table struct {
	byID  map[trace.ThreadID]*State
	order []*State
}

// NewTable creates an empty thread table.
func NewTable() *Table {
	return &Table{byID: make(map[trace.ThreadID]*State)}
}

// Get returns the state of thread id, or nil if it was never referenced.
func (t *Table) Get(id trace.ThreadID) *State {
	return t.byID[id]
}

// GetOrCreate returns the state of thread id, allocating the next free slot
// on first reference. created reports whether a new state was allocated.
func (t *Table) GetOrCreate(id trace.ThreadID) (s *State, created bool) {
	if s, ok := t.byID[id]; ok {
		return s, false
	}
	s = New(id, len(t.order))
	t.byID[id] = s
	t.order = append(t.order, s)
	return s, true
}

// All returns every state in slot order.
func (t *Table) All() []*State {
	return t.order
}

// Len returns the number of threads referenced so far.
func (t *Table) Len() int {
	return len(t.order)
}
