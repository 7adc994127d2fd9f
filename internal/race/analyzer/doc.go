// Package analyzer decides whether a trace exhibits a synchronization
// violation.
//
// The analysis replays the events of a trace once, in order, and maintains:
//   - per-thread state (lifecycle, held locks, vector clock)
//   - per-lock state (holder, wait queue, release clock)
//   - per-location access history
//   - a wait-for graph and, optionally, a lock-order graph
//
// # Happens-before
//
// The happens-before order ≺ is the transitive closure of program order,
// Fork(child) → the child's first event, the child's last event → Join(child),
// and Release(L) → the next Acquire(L). It is computed with vector clocks:
//
//	event:       Ct[t]++
//	Fork(u):     Cu := Ct
//	Join(u):     Ct := Ct ⊔ Cu
//	Release(L):  LL := Ct
//	Acquire(L):  Ct := Ct ⊔ LL
//
// The recorded order is only a witness schedule. Two accesses race when they
// are unordered by ≺, so a race is found even if the recorded interleaving
// happened to separate the accesses.
//
// # Findings
//
// Races: conflicting accesses (different threads, at least one write) to
// the same location, unordered by ≺ and not protected by a common lock.
// Each (location, line pair) is reported once.
//
// Lock discipline: double acquire, acquire of a lock held by another thread,
// release by a non-holder, join of a never-forked or already joined thread,
// fork of an id in use, events of a joined thread.
//
// Deadlocks: cycles in the wait-for graph built from lock requests that were
// not immediately granted. With WithLockOrder, cycles in the lock-order
// graph are reported too.
//
// End of trace: unjoined threads and unreleased locks, reported according
// to Strictness.
//
// The pass never stops early: every finding is collected. An Analyzer holds
// only configuration, so it can be reused and shared between goroutines;
// all analysis state is local to one Analyze call.
package analyzer
