// Package race checks recorded traces of concurrent programs for data races,
// lock-discipline violations and deadlocks.
//
// A trace is a text document with one event per record:
//
//	T1|acq(L1)|1
//	T1|w(V1)|2
//	T1|rel(L1)|3
//	T2|acq(L1)|4
//	T2|w(V1)|5
//	T2|rel(L1)|6
//
// Each record names a thread, an operation and a source line. Operations are
// w and r on memory locations (V1, or V1.2[3] for a field element), acq, rel
// and req on locks, and fork and join on threads.
//
// # Quick Start
//
//	v, err := race.CheckFile(ctx, "trace.std", race.DefaultOptions())
//	if err != nil {
//		return err // malformed trace
//	}
//	if !v.Clean() {
//		_ = race.WriteText(os.Stdout, v)
//	}
//
// # How It Works
//
// The trace is treated as one witness schedule. The checker computes the
// happens-before order of its events from program order, fork and join, and
// lock release followed by acquire, using vector clocks. Two accesses to the
// same location by different threads race when at least one is a write,
// neither happens before the other and no common lock protects both. The
// result therefore holds for every interleaving that respects the recorded
// synchronization, not only the recorded one.
//
// Lock discipline is checked as the trace is replayed: double acquire,
// acquire of a lock another thread holds, release of a lock not held, and
// misuse of fork and join. Deadlocks are cycles in the wait-for graph built
// from lock requests that were never granted. With Options.LockOrder the
// checker also reports lock-order inversions, cycles in the lock acquisition
// order that could deadlock under another schedule.
//
// # Strictness
//
// A forked thread that is never joined, or a lock still held when the trace
// ends, is reported according to Options.Strictness: ignored (Lenient), as a
// note that keeps the verdict clean (Warn), or as a violation (Strict).
package race
