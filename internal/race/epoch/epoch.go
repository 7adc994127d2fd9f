// Package epoch implements compact logical timestamps for a single event.
//
// An Epoch is the pair (thread slot, clock) packed into 64 bits:
//   - Top 32 bits: thread slot (dense index assigned by the analyzer)
//   - Bottom 32 bits: clock value of that thread at the event
//
// An epoch e = c@t happens before a vector clock V iff c <= V[t], which makes
// the happens-before check between a past event and a current frontier O(1).
package epoch

import (
	"strconv"

	"github.com/kolkov/tracecheck/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp encoding both thread slot and clock.
// Layout: [TID:32][Clock:32]
//
// Example: 0x0000000500001234 represents TID=5, Clock=0x1234 (4660 decimal).
type Epoch uint64

const (
	// ClockBits is the number of bits allocated for the clock value.
	ClockBits = 32

	// ClockMask is the bitmask for extracting the clock value.
	ClockMask = (1 << ClockBits) - 1
)

// None is the zero epoch. No event has it, since clocks start at 1.
const None Epoch = 0

// NewEpoch creates an epoch from thread slot and clock value.
func NewEpoch(tid int, clock uint32) Epoch {
	return Epoch(uint64(uint32(tid))<<ClockBits | uint64(clock))
}

// Decode extracts the thread slot and clock value from an epoch.
func (e Epoch) Decode() (tid int, clock uint32) {
	return int(uint32(e >> ClockBits)), uint32(e & ClockMask)
}

// TID returns the thread slot.
func (e Epoch) TID() int {
	tid, _ := e.Decode()
	return tid
}

// Clock returns the clock value.
func (e Epoch) Clock() uint32 {
	_, clock := e.Decode()
	return clock
}

// HappensBefore checks if this epoch happened before a vector clock.
//
// Returns true if epoch's clock <= vc[epoch's TID].
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// String returns a human-readable representation of the epoch.
//
// Format: "clock@tid" (e.g., "42@5" means clock=42, tid=5).
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(uint64(clock), 10) + "@" + strconv.Itoa(tid)
}
