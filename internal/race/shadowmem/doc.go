// Package shadowmem implements shadow memory cells for trace race detection.
//
// Shadow memory tracks the access history of every memory location named in
// a trace, so the analyzer can find conflicting accesses that constitute
// data races.
//
// # Overview
//
// For every location the shadow memory keeps a VarState cell that records
// the accesses seen so far, each with:
//   - the issuing thread and source line
//   - its happens-before stamp
//   - the set of locks the thread held at the access
//
// Accesses are bucketed by location, so conflict checks only ever compare
// accesses to the same cell. Cost is proportional to contention on a cell,
// not to the length of the trace.
//
// # Usage
//
//	sm := shadowmem.NewShadowMemory()
//	vs := sm.GetOrCreate(loc)
//	for _, prev := range vs.Conflicts(access) {
//	    // prev and access race
//	}
//	vs.Record(access)
//
// # Pruning
//
// An access is dominated by a later access of the same thread from the same
// line with the same kind and the same held locks: any access that races
// with the earlier one also races with the later one and cites the same
// lines. Record keeps only the latest of such accesses, which bounds a cell
// by the number of distinct (thread, line, kind, lock set) combinations
// rather than by the number of dynamic accesses.
package shadowmem
