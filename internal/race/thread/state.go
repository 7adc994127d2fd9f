package thread

import (
	"slices"

	"github.com/kolkov/tracecheck/internal/race/epoch"
	"github.com/kolkov/tracecheck/internal/race/vectorclock"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Status is the lifecycle state of a thread.
//
//	NotStarted → Running → (Blocked ⇄ Running) → Terminated
type Status uint8

const (
	// NotStarted threads were referenced (e.g. by a join) but never ran.
	NotStarted Status = iota
	// Running threads may issue events.
	Running
	// Blocked threads have an outstanding lock request.
	Blocked
	// Terminated threads were joined by their parent.
	Terminated
)

var statusNames = [...]string{
	NotStarted: "not-started",
	Running:    "running",
	Blocked:    "blocked",
	Terminated: "terminated",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Stamp is the logical time of one event.
type Stamp struct {
	// Epoch is the issuing thread's clock at the event.
	Epoch epoch.Epoch

	// View is the issuing thread's knowledge of the other threads at the
	// event. It is shared between stamps and must not be mutated.
	View *vectorclock.VectorClock
}

// HappensBefore reports whether the event stamped s happens before the event
// stamped other. The relation is irreflexive.
func (s Stamp) HappensBefore(other Stamp) bool {
	tid, clock := s.Epoch.Decode()
	otherTID, otherClock := other.Epoch.Decode()
	if tid == otherTID {
		return clock < otherClock
	}
	return s.Epoch.HappensBefore(other.View)
}

// State represents the analysis state of a single thread.
//
// Layout:
//   - ID: thread id as written in the trace (T3)
//   - TID: dense slot used to index vector clocks
//   - C: full vector clock of the thread
//   - Epoch: cached C[TID]
type State struct {
	ID     trace.ThreadID
	TID    int
	Status Status

	C     *vectorclock.VectorClock
	Epoch epoch.Epoch

	// Forked is set when a Fork event created the thread; Parent and
	// ForkLine are valid only then.
	Forked   bool
	Parent   trace.ThreadID
	ForkLine trace.Line

	// JoinLine is the line of the Join that terminated the thread.
	JoinLine trace.Line

	// FirstLine and LastLine bound the thread's own events.
	FirstLine trace.Line
	LastLine  trace.Line
	Events    int

	view        *vectorclock.VectorClock
	held        []trace.LockID
	pending     bool
	pendingLock trace.LockID
	pendingLine trace.Line
}

// New creates the state for thread id occupying slot tid.
//
// The thread starts NotStarted at the beginning of logical time.
//
// Example:
//
//	s := New(3, 0)
//	// s.ID = T3, s.TID = 0
//	// s.C = {}, s.Epoch = 0@0
func New(id trace.ThreadID, tid int) *State {
	s := &State{
		ID:  id,
		TID: tid,
		C:   vectorclock.New(),
	}
	s.Epoch = epoch.NewEpoch(tid, 0)
	s.view = s.C
	return s
}

// Start marks the thread Running.
func (s *State) Start() {
	s.Status = Running
}

// Tick advances the thread's clock for a new event at line and returns the
// event's stamp.
//
// Example:
//
//	s := New(1, 0)
//	st := s.Tick(10)  // st.Epoch = 1@0
//	st = s.Tick(11)   // st.Epoch = 2@0
func (s *State) Tick(line trace.Line) Stamp {
	if s.view == s.C {
		s.view = s.C.Clone()
	}
	s.C.Increment(s.TID)
	s.Epoch = epoch.NewEpoch(s.TID, s.C.Get(s.TID))

	if s.Events == 0 {
		s.FirstLine = line
	}
	s.LastLine = line
	s.Events++

	return Stamp{Epoch: s.Epoch, View: s.view}
}

// Join merges vc into the thread's clock (acquire, join).
func (s *State) Join(vc *vectorclock.VectorClock) {
	if vc == nil {
		return
	}
	s.C.Join(vc)
	s.view = s.C
}

// Inherit makes the thread's clock a copy of the parent's (fork).
func (s *State) Inherit(parent *State) {
	s.C = parent.C.Clone()
	s.view = s.C
}

// Snapshot returns a copy of the thread's current clock (release). Later
// ticks of the thread do not change it.
func (s *State) Snapshot() *vectorclock.VectorClock {
	return s.C.Clone()
}

// Held returns the locks held by the thread in ascending order.
//
// The returned slice is shared and must not be modified; it is replaced,
// not mutated, when the held set changes.
func (s *State) Held() []trace.LockID {
	return s.held
}

// AddHeld records that the thread now holds lock.
func (s *State) AddHeld(lock trace.LockID) {
	i, found := slices.BinarySearch(s.held, lock)
	if found {
		return
	}
	s.held = slices.Insert(slices.Clone(s.held), i, lock)
}

// RemoveHeld records that the thread no longer holds lock.
func (s *State) RemoveHeld(lock trace.LockID) {
	i, found := slices.BinarySearch(s.held, lock)
	if !found {
		return
	}
	held := slices.Delete(slices.Clone(s.held), i, i+1)
	if len(held) == 0 {
		held = nil
	}
	s.held = held
}

// Request records an outstanding request for lock issued at line. A Running
// thread becomes Blocked when the lock is already held.
func (s *State) Request(lock trace.LockID, line trace.Line, blocked bool) {
	s.pending = true
	s.pendingLock = lock
	s.pendingLine = line
	if blocked && s.Status == Running {
		s.Status = Blocked
	}
}

// Pending returns the outstanding request, if any.
func (s *State) Pending() (lock trace.LockID, line trace.Line, ok bool) {
	return s.pendingLock, s.pendingLine, s.pending
}

// ClearRequest drops the outstanding request and unblocks the thread.
func (s *State) ClearRequest() {
	s.pending = false
	s.pendingLock = 0
	s.pendingLine = 0
	if s.Status == Blocked {
		s.Status = Running
	}
}

// Terminate marks the thread joined at line.
func (s *State) Terminate(line trace.Line) {
	s.Status = Terminated
	s.JoinLine = line
	s.pending = false
}
