package shadowmem

import "github.com/kolkov/tracecheck/internal/trace"

// ShadowMemory maps memory locations to their VarState cells.
//
// Two locations share a cell iff every component matches: V1, V1.0[0] and
// V1.0[1] are three distinct cells.
//
// A ShadowMemory belongs to a single analysis run and is not safe for
// concurrent use.
type ShadowMemory struct {
	cells map[trace.MemoryLocation]*VarState
	order []*VarState
}

// NewShadowMemory creates a new empty shadow memory map.
//
// Example:
//
//	sm := NewShadowMemory()
//	vs := sm.GetOrCreate(trace.Loc(1))  // Get or allocate shadow cell
func NewShadowMemory() *ShadowMemory {
	return &ShadowMemory{cells: make(map[trace.MemoryLocation]*VarState)}
}

// GetOrCreate retrieves the VarState for loc, creating it if needed.
func (sm *ShadowMemory) GetOrCreate(loc trace.MemoryLocation) *VarState {
	if vs, ok := sm.cells[loc]; ok {
		return vs
	}
	vs := NewVarState(loc)
	sm.cells[loc] = vs
	sm.order = append(sm.order, vs)
	return vs
}

// Get retrieves the VarState for loc if it exists, nil otherwise.
func (sm *ShadowMemory) Get(loc trace.MemoryLocation) *VarState {
	return sm.cells[loc]
}

// Cells returns every cell in order of first access.
func (sm *ShadowMemory) Cells() []*VarState {
	return sm.order
}

// Len returns the number of distinct locations accessed.
func (sm *ShadowMemory) Len() int {
	return len(sm.order)
}
