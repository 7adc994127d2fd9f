// Package vectorclock implements vector clocks for tracking happens-before
// relations between trace events.
//
// Threads are addressed by a dense slot index assigned by the analyzer (the
// n-th distinct thread of a trace gets slot n), so a clock is a plain slice
// that grows on demand. Missing entries read as zero.
//
// Key operations:
//   - Join: synchronization (point-wise maximum), used on acquire, fork and join
//   - LessOrEqual: partial order check, used to decide happens-before
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock represents logical time across the threads of one trace.
//
// Element vc[tid] stores the number of events of thread tid known to have
// happened before the point the clock describes.
//
// Example: {0:5, 2:3} means Thread0@5, Thread2@3, every other thread @0.
type VectorClock struct {
	clocks []uint32
}

// New creates a zero vector clock.
func New() *VectorClock {
	return &VectorClock{}
}

// Clone creates a deep copy of the vector clock.
//
// Clones are used to snapshot a thread's clock at an event and to store a
// lock's release clock.
func (vc *VectorClock) Clone() *VectorClock {
	clone := &VectorClock{clocks: make([]uint32, len(vc.clocks))}
	copy(clone.clocks, vc.clocks)
	return clone
}

// Join performs point-wise maximum: vc = vc ⊔ other.
func (vc *VectorClock) Join(other *VectorClock) {
	if other == nil {
		return
	}
	vc.grow(len(other.clocks))
	for i, c := range other.clocks {
		if c > vc.clocks[i] {
			vc.clocks[i] = c
		}
	}
}

// LessOrEqual checks partial order: vc ⊑ other.
//
// Returns true if vc[i] <= other[i] for every thread i.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, c := range vc.clocks {
		if c > other.Get(i) {
			return false
		}
	}
	return true
}

// HappensBefore reports vc ⊑ other and vc != other, i.e. the strict order
// between the points described by the two clocks.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other) && !other.LessOrEqual(vc)
}

// Concurrent reports whether neither clock is ordered before the other.
func (vc *VectorClock) Concurrent(other *VectorClock) bool {
	return !vc.LessOrEqual(other) && !other.LessOrEqual(vc)
}

// Equal reports whether both clocks hold the same values.
func (vc *VectorClock) Equal(other *VectorClock) bool {
	return vc.LessOrEqual(other) && other.LessOrEqual(vc)
}

// Increment advances the clock for thread tid and returns the new value.
func (vc *VectorClock) Increment(tid int) uint32 {
	vc.grow(tid + 1)
	vc.clocks[tid]++
	return vc.clocks[tid]
}

// Get returns the clock value for thread tid.
func (vc *VectorClock) Get(tid int) uint32 {
	if tid < 0 || tid >= len(vc.clocks) {
		return 0
	}
	return vc.clocks[tid]
}

// Set sets the clock value for thread tid.
func (vc *VectorClock) Set(tid int, clock uint32) {
	vc.grow(tid + 1)
	vc.clocks[tid] = clock
}

// Len returns one past the highest thread slot the clock has storage for.
func (vc *VectorClock) Len() int {
	return len(vc.clocks)
}

// String returns a debug representation of the vector clock.
//
// Format: "{tid1:clock1, tid2:clock2, ...}" showing only non-zero clocks.
func (vc *VectorClock) String() string {
	var parts []string
	for i, c := range vc.clocks {
		if c != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(uint64(c), 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (vc *VectorClock) grow(n int) {
	if n <= len(vc.clocks) {
		return
	}
	if n <= cap(vc.clocks) {
		vc.clocks = vc.clocks[:n]
		return
	}
	grown := make([]uint32, n, max(n, 2*cap(vc.clocks)))
	copy(grown, vc.clocks)
	vc.clocks = grown
}
