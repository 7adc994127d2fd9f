package analyzer

import (
	"cmp"
	"slices"

	"github.com/kolkov/tracecheck/internal/trace"
)

// Category groups violation kinds.
type Category uint8

const (
	// CategoryRace covers data races.
	CategoryRace Category = iota
	// CategoryDiscipline covers misuse of locks and thread lifecycle.
	CategoryDiscipline
	// CategoryDeadlock covers wait-for cycles and lock-order inversions.
	CategoryDeadlock
	// CategoryConsistency covers end-of-trace checks governed by Strictness.
	CategoryConsistency
)

var categoryNames = [...]string{
	CategoryRace:        "data race",
	CategoryDiscipline:  "lock discipline",
	CategoryDeadlock:    "deadlock",
	CategoryConsistency: "consistency",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Kind identifies a violation.
type Kind uint8

const (
	// WriteWriteRace: two unordered writes.
	WriteWriteRace Kind = iota
	// ReadWriteRace: an earlier read unordered with a later write.
	ReadWriteRace
	// WriteReadRace: an earlier write unordered with a later read.
	WriteReadRace

	// DoubleAcquire: a thread acquires a lock it already holds.
	DoubleAcquire
	// AcquireHeld: a thread acquires a lock held by another thread.
	AcquireHeld
	// ReleaseNotHeld: a thread releases a lock it does not hold.
	ReleaseNotHeld
	// JoinUnforked: a thread joins a thread that was never forked.
	JoinUnforked
	// JoinTerminated: a thread joins a thread that was already joined.
	JoinTerminated
	// ForkInUse: a thread forks an id that is running or was forked before.
	ForkInUse
	// EventAfterTermination: a joined thread issues another event.
	EventAfterTermination

	// Deadlock: a cycle in the wait-for graph.
	Deadlock
	// LockOrderInversion: a cycle in the lock-order graph.
	LockOrderInversion

	// UnjoinedThread: a forked thread was never joined.
	UnjoinedThread
	// UnreleasedLock: a lock is still held at the end of the trace.
	UnreleasedLock
)

var kindInfo = [...]struct {
	name     string
	category Category
}{
	WriteWriteRace:        {"write-write", CategoryRace},
	ReadWriteRace:         {"read-write", CategoryRace},
	WriteReadRace:         {"write-read", CategoryRace},
	DoubleAcquire:         {"double-acquire", CategoryDiscipline},
	AcquireHeld:           {"acquire-held", CategoryDiscipline},
	ReleaseNotHeld:        {"release-not-held", CategoryDiscipline},
	JoinUnforked:          {"join-unforked", CategoryDiscipline},
	JoinTerminated:        {"join-terminated", CategoryDiscipline},
	ForkInUse:             {"fork-in-use", CategoryDiscipline},
	EventAfterTermination: {"event-after-termination", CategoryDiscipline},
	Deadlock:              {"deadlock", CategoryDeadlock},
	LockOrderInversion:    {"lock-order-inversion", CategoryDeadlock},
	UnjoinedThread:        {"unjoined-thread", CategoryConsistency},
	UnreleasedLock:        {"unreleased-lock", CategoryConsistency},
}

func (k Kind) String() string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].name
	}
	return "unknown"
}

// Category returns the category of the kind.
func (k Kind) Category() Category {
	if int(k) < len(kindInfo) {
		return kindInfo[k].category
	}
	return CategoryConsistency
}

// Violation is one finding of the analysis.
type Violation struct {
	Kind Kind

	// Lines are the witnessing source lines. For races they are the earlier
	// and the later access, in trace order.
	Lines []trace.Line

	// Threads and Locks involved, in the order they appear in Message.
	Threads []trace.ThreadID
	Locks   []trace.LockID

	// Location is set for races.
	Location *trace.MemoryLocation

	Message string
}

// Category returns the category of the violation's kind.
func (v Violation) Category() Category {
	return v.Kind.Category()
}

func (v Violation) String() string {
	return v.Kind.String() + ": " + v.Message
}

// compareViolations orders violations by witnessing lines, then by kind,
// then by message.
func compareViolations(a, b Violation) int {
	if c := slices.Compare(a.Lines, b.Lines); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Message, b.Message)
}

func sortViolations(vs []Violation) {
	slices.SortStableFunc(vs, compareViolations)
}
