package syncshadow

import (
	"slices"

	"github.com/kolkov/tracecheck/internal/race/vectorclock"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Lock is the shadow state of a single lock.
type Lock struct {
	ID trace.LockID

	// AcquireLine is the line of the acquire that granted the current hold.
	AcquireLine trace.Line

	holder       trace.ThreadID
	held         bool
	waiters      []trace.ThreadID
	releaseClock *vectorclock.VectorClock
}

// Holder returns the thread holding the lock, if any.
func (l *Lock) Holder() (trace.ThreadID, bool) {
	return l.holder, l.held
}

// HeldBy reports whether tid holds the lock.
func (l *Lock) HeldBy(tid trace.ThreadID) bool {
	return l.held && l.holder == tid
}

// Grant makes tid the holder, removing it from the wait queue.
func (l *Lock) Grant(tid trace.ThreadID, line trace.Line) {
	l.holder = tid
	l.held = true
	l.AcquireLine = line
	l.Dequeue(tid)
}

// Free clears the holder.
func (l *Lock) Free() {
	l.holder = 0
	l.held = false
	l.AcquireLine = 0
}

// Enqueue appends tid to the wait queue unless it is already waiting.
func (l *Lock) Enqueue(tid trace.ThreadID) {
	if !slices.Contains(l.waiters, tid) {
		l.waiters = append(l.waiters, tid)
	}
}

// Dequeue removes tid from the wait queue.
func (l *Lock) Dequeue(tid trace.ThreadID) {
	if i := slices.Index(l.waiters, tid); i >= 0 {
		l.waiters = slices.Delete(l.waiters, i, i+1)
	}
}

// Waiters returns the wait queue in request order.
func (l *Lock) Waiters() []trace.ThreadID {
	return l.waiters
}

// ReleaseClock returns the clock stored by the last release, or nil if the
// lock was never released.
func (l *Lock) ReleaseClock() *vectorclock.VectorClock {
	return l.releaseClock
}

// SetReleaseClock stores clock as the release clock. The lock keeps clock,
// so the caller must pass a copy it no longer mutates.
func (l *Lock) SetReleaseClock(clock *vectorclock.VectorClock) {
	l.releaseClock = clock
}

// SyncShadow maps lock ids to their shadow state.
//
// Locks are created lazily on first reference and kept until the end of the
// run so that unreleased locks can be reported.
type SyncShadow struct {
	locks map[trace.LockID]*Lock
	order []*Lock
}

// NewSyncShadow creates an empty lock table.
func NewSyncShadow() *SyncShadow {
	return &SyncShadow{locks: make(map[trace.LockID]*Lock)}
}

// GetOrCreate returns the Lock for id, creating it on first reference.
func (s *SyncShadow) GetOrCreate(id trace.LockID) *Lock {
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &Lock{ID: id}
	s.locks[id] = l
	s.order = append(s.order, l)
	return l
}

// Get returns the Lock for id, or nil if the lock was never referenced.
func (s *SyncShadow) Get(id trace.LockID) *Lock {
	return s.locks[id]
}

// All returns every lock in order of first reference.
func (s *SyncShadow) All() []*Lock {
	return s.order
}

// Len returns the number of locks referenced so far.
func (s *SyncShadow) Len() int {
	return len(s.order)
}
