// Package trace defines the typed event model shared by the front end and
// the analyzer.
//
// A Trace is the ordered list of events recorded by one program execution.
// File order is the recorded interleaving across all threads. Every event
// carries the source line that produced it, the thread that executed it and
// exactly one Operation.
//
// Operation is a closed set: the seven variants declared in this file are the
// only implementations (the interface has an unexported method). Consumers
// dispatch with a type switch over all seven variants:
//
//	switch op := ev.Op.(type) {
//	case trace.Write:
//	case trace.Read:
//	case trace.Acquire:
//	case trace.Release:
//	case trace.Request:
//	case trace.Fork:
//	case trace.Join:
//	}
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// ThreadID identifies a thread (T<n> in the trace text).
type ThreadID uint64

// String returns the trace spelling of the id, e.g. "T3".
func (t ThreadID) String() string {
	return "T" + strconv.FormatUint(uint64(t), 10)
}

// LockID identifies a lock (L<n> in the trace text).
type LockID uint64

// String returns the trace spelling of the id, e.g. "L1".
func (l LockID) String() string {
	return "L" + strconv.FormatUint(uint64(l), 10)
}

// Line is the source line number recorded with an event.
type Line uint64

// String returns the decimal line number.
func (l Line) String() string {
	return strconv.FormatUint(uint64(l), 10)
}

// MemoryLocation identifies a shared memory cell.
//
// V<var> names a whole variable; V<var>.<field>[<index>] names one element of
// a field of that variable. Two locations denote the same cell iff every
// component matches, so MemoryLocation is usable as a map key.
type MemoryLocation struct {
	Var       uint64
	Qualified bool
	Field     uint64
	Index     uint64
}

// Loc returns an unqualified location for variable v.
func Loc(v uint64) MemoryLocation {
	return MemoryLocation{Var: v}
}

// FieldLoc returns the location of element index of field of variable v.
func FieldLoc(v, field, index uint64) MemoryLocation {
	return MemoryLocation{Var: v, Qualified: true, Field: field, Index: index}
}

// String returns the trace spelling of the location, e.g. "V1" or "V1.2[3]".
func (m MemoryLocation) String() string {
	if !m.Qualified {
		return "V" + strconv.FormatUint(m.Var, 10)
	}
	return fmt.Sprintf("V%d.%d[%d]", m.Var, m.Field, m.Index)
}

// OpKind names an operation variant.
type OpKind int

const (
	OpWrite OpKind = iota
	OpRead
	OpAcquire
	OpRelease
	OpRequest
	OpFork
	OpJoin
)

// String returns the trace keyword for the kind.
func (k OpKind) String() string {
	switch k {
	case OpWrite:
		return "w"
	case OpRead:
		return "r"
	case OpAcquire:
		return "acq"
	case OpRelease:
		return "rel"
	case OpRequest:
		return "req"
	case OpFork:
		return "fork"
	case OpJoin:
		return "join"
	default:
		return "unknown"
	}
}

// Operation is the action performed by an event.
type Operation interface {
	Kind() OpKind
	// Operand returns the trace spelling of the single operand.
	Operand() string
	operation()
}

// Write is a store to Loc.
type Write struct{ Loc MemoryLocation }

// Read is a load from Loc.
type Read struct{ Loc MemoryLocation }

// Acquire is a successful lock acquisition.
type Acquire struct{ Lock LockID }

// Release is a lock release.
type Release struct{ Lock LockID }

// Request is an attempt to acquire Lock that has not yet been granted.
type Request struct{ Lock LockID }

// Fork starts thread Child.
type Fork struct{ Child ThreadID }

// Join waits for thread Child to terminate.
type Join struct{ Child ThreadID }

func (Write) Kind() OpKind   { return OpWrite }
func (Read) Kind() OpKind    { return OpRead }
func (Acquire) Kind() OpKind { return OpAcquire }
func (Release) Kind() OpKind { return OpRelease }
func (Request) Kind() OpKind { return OpRequest }
func (Fork) Kind() OpKind    { return OpFork }
func (Join) Kind() OpKind    { return OpJoin }

func (o Write) Operand() string   { return o.Loc.String() }
func (o Read) Operand() string    { return o.Loc.String() }
func (o Acquire) Operand() string { return o.Lock.String() }
func (o Release) Operand() string { return o.Lock.String() }
func (o Request) Operand() string { return o.Lock.String() }
func (o Fork) Operand() string    { return o.Child.String() }
func (o Join) Operand() string    { return o.Child.String() }

func (Write) operation()   {}
func (Read) operation()    {}
func (Acquire) operation() {}
func (Release) operation() {}
func (Request) operation() {}
func (Fork) operation()    {}
func (Join) operation()    {}

// Event is one record of a trace.
type Event struct {
	Line   Line
	Thread ThreadID
	Op     Operation
}

// String renders the event in canonical trace syntax: "T1|acq(L1)|4".
func (e Event) String() string {
	if e.Op == nil {
		return e.Thread.String() + "|?|" + e.Line.String()
	}
	return e.Thread.String() + "|" + e.Op.Kind().String() + "(" + e.Op.Operand() + ")|" + e.Line.String()
}

// Trace is an ordered sequence of events in recorded order.
type Trace []Event

// String renders the trace one event per line.
func (t Trace) String() string {
	var b strings.Builder
	for _, e := range t {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
