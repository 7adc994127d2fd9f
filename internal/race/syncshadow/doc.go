// Package syncshadow implements shadow state for the locks of a trace.
//
// Each lock has a Lock record holding its current holder, the queue of
// threads with an outstanding request for it and its release clock. The
// release clock carries the happens-before edge Release(L) → Acquire(L):
//
//	Release(L):  LL := Ct        (lock clock = thread clock)
//	Acquire(L):  Ct := Ct ⊔ LL   (thread clock joins lock clock)
//
// Where:
//   - Ct is the vector clock for thread t
//   - LL is the release clock for lock L
//   - ⊔ is the join operation (element-wise maximum)
//
// Example:
//
//	T1|acq(L1)|1    // C1 ⊔= L_L1
//	T1|w(V1)|2      // write at C1
//	T1|rel(L1)|3    // L_L1 = C1
//	T2|acq(L1)|4    // C2 ⊔= L_L1 (T2 learns T1's clock)
//	T2|r(V1)|5      // read at C2: no race, line 2 happened before
//
// State is owned by one analysis run; nothing here is safe for concurrent
// use.
package syncshadow
