package analyzer

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kolkov/tracecheck/internal/race/shadowmem"
	"github.com/kolkov/tracecheck/internal/race/syncshadow"
	"github.com/kolkov/tracecheck/internal/race/thread"
	"github.com/kolkov/tracecheck/internal/race/waitgraph"
	"github.com/kolkov/tracecheck/internal/trace"
)

// Analyzer checks traces for races, lock-discipline violations and
// deadlocks.
type Analyzer struct {
	strictness Strictness
	lockOrder  bool
	maxCycles  int
	log        *slog.Logger
}

// New creates an Analyzer.
//
// Example:
//
//	a := analyzer.New(analyzer.WithStrictness(analyzer.Strict))
//	v := a.Analyze(tr)
//	if !v.Clean() {
//	    // report v.Violations
//	}
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		strictness: Warn,
		maxCycles:  DefaultMaxCycles,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze replays tr and returns the verdict. It never fails: malformed
// semantics are findings, not errors.
func (a *Analyzer) Analyze(tr trace.Trace) *Verdict {
	start := time.Now()

	r := &run{
		Analyzer: a,
		threads:  thread.NewTable(),
		locks:    syncshadow.NewSyncShadow(),
		memory:   shadowmem.NewShadowMemory(),
		waits:    waitgraph.New(),
		reported: make(map[raceKey]struct{}),
		cycles:   make(map[string]struct{}),
		stamps:   make([]thread.Stamp, len(tr)),
	}
	if a.lockOrder {
		r.order = waitgraph.New()
	}

	for i, ev := range tr {
		r.stamps[i] = r.step(i, ev)
	}
	r.finish()

	v := r.verdict(len(tr))
	a.log.Debug("trace analyzed",
		"events", v.Stats.Events,
		"threads", v.Stats.Threads,
		"locks", v.Stats.Locks,
		"locations", v.Stats.Locations,
		"violations", len(v.Violations),
		"notes", len(v.Notes),
		"elapsed", time.Since(start))
	return v
}

// run is the state of one Analyze call.
type run struct {
	*Analyzer

	threads *thread.Table
	locks   *syncshadow.SyncShadow
	memory  *shadowmem.ShadowMemory
	waits   *waitgraph.Graph
	order   *waitgraph.Graph

	stamps   []thread.Stamp
	reported map[raceKey]struct{}

	// waitEdges counts every wait-for edge ever added; waits only holds the
	// live ones. cycles holds the messages of deadlocks already reported.
	waitEdges int
	cycles    map[string]struct{}

	violations []Violation
	notes      []Violation
}

type raceKey struct {
	loc    trace.MemoryLocation
	lo, hi trace.Line
}

func (r *run) report(v Violation) {
	r.violations = append(r.violations, v)
}

// thread returns the state of the thread issuing an event, starting it on
// its first event. The first thread of the trace is the root.
func (r *run) thread(id trace.ThreadID) *thread.State {
	s, _ := r.threads.GetOrCreate(id)
	if s.Status == thread.NotStarted {
		s.Start()
	}
	return s
}

// step replays one event and returns its stamp.
func (r *run) step(i int, ev trace.Event) thread.Stamp {
	s := r.thread(ev.Thread)

	if s.Status == thread.Terminated {
		r.report(Violation{
			Kind:    EventAfterTermination,
			Lines:   []trace.Line{ev.Line, s.JoinLine},
			Threads: []trace.ThreadID{s.ID},
			Message: fmt.Sprintf("%s issues %s(%s) at line %d after being joined at line %d",
				s.ID, ev.Op.Kind(), ev.Op.Operand(), ev.Line, s.JoinLine),
		})
	}

	if lock, line, ok := s.Pending(); ok {
		if acq, isAcquire := ev.Op.(trace.Acquire); !isAcquire || acq.Lock != lock {
			r.stand(s, lock, line)
		}
	}

	switch op := ev.Op.(type) {
	case trace.Write:
		return r.access(i, ev, s, op.Loc, true)
	case trace.Read:
		return r.access(i, ev, s, op.Loc, false)
	case trace.Acquire:
		return r.acquire(ev, s, op.Lock)
	case trace.Release:
		return r.release(ev, s, op.Lock)
	case trace.Request:
		return r.request(ev, s, op.Lock)
	case trace.Fork:
		return r.fork(ev, s, op.Child)
	case trace.Join:
		return r.join(ev, s, op.Child)
	default:
		panic(fmt.Sprintf("analyzer: unhandled operation %T", op))
	}
}

func (r *run) access(i int, ev trace.Event, s *thread.State, loc trace.MemoryLocation, write bool) thread.Stamp {
	stamp := s.Tick(ev.Line)
	a := shadowmem.Access{
		Index:  i,
		Line:   ev.Line,
		Thread: s.ID,
		Write:  write,
		Stamp:  stamp,
		Held:   s.Held(),
	}

	vs := r.memory.GetOrCreate(loc)
	for _, prev := range vs.Conflicts(a) {
		r.race(loc, prev, a)
	}
	vs.Record(a)
	return stamp
}

func (r *run) race(loc trace.MemoryLocation, prev, cur shadowmem.Access) {
	key := raceKey{loc: loc, lo: min(prev.Line, cur.Line), hi: max(prev.Line, cur.Line)}
	if _, dup := r.reported[key]; dup {
		return
	}
	r.reported[key] = struct{}{}

	kind := WriteWriteRace
	switch {
	case !prev.Write:
		kind = ReadWriteRace
	case !cur.Write:
		kind = WriteReadRace
	}

	r.report(Violation{
		Kind:     kind,
		Lines:    []trace.Line{prev.Line, cur.Line},
		Threads:  []trace.ThreadID{prev.Thread, cur.Thread},
		Location: &loc,
		Message: fmt.Sprintf("%s of %s by %s at line %d races with %s by %s at line %d",
			accessVerb(prev.Write), loc, prev.Thread, prev.Line,
			accessVerb(cur.Write), cur.Thread, cur.Line),
	})
}

func accessVerb(write bool) string {
	if write {
		return "write"
	}
	return "read"
}

func (r *run) acquire(ev trace.Event, s *thread.State, id trace.LockID) thread.Stamp {
	lock := r.locks.GetOrCreate(id)
	s.ClearRequest()
	lock.Dequeue(s.ID)

	holder, held := lock.Holder()
	switch {
	case held && holder == s.ID:
		r.report(Violation{
			Kind:    DoubleAcquire,
			Lines:   []trace.Line{ev.Line, lock.AcquireLine},
			Threads: []trace.ThreadID{s.ID},
			Locks:   []trace.LockID{id},
			Message: fmt.Sprintf("%s acquires %s at line %d while already holding it since line %d",
				s.ID, id, ev.Line, lock.AcquireLine),
		})
		return s.Tick(ev.Line)
	case held:
		r.report(Violation{
			Kind:    AcquireHeld,
			Lines:   []trace.Line{ev.Line, lock.AcquireLine},
			Threads: []trace.ThreadID{s.ID, holder},
			Locks:   []trace.LockID{id},
			Message: fmt.Sprintf("%s acquires %s at line %d while %s holds it since line %d",
				s.ID, id, ev.Line, holder, lock.AcquireLine),
		})
		return s.Tick(ev.Line)
	}

	s.Join(lock.ReleaseClock())
	stamp := s.Tick(ev.Line)

	if r.order != nil {
		for _, h := range s.Held() {
			r.order.AddEdge(waitgraph.Edge{
				From:      waitgraph.Node(h),
				To:        waitgraph.Node(id),
				Via:       uint64(s.ID),
				Line:      ev.Line,
				HeldSince: r.locks.Get(h).AcquireLine,
				Gate:      without(s.Held(), h),
			})
		}
	}

	lock.Grant(s.ID, ev.Line)
	s.AddHeld(id)
	return stamp
}

func without(held []trace.LockID, l trace.LockID) []trace.LockID {
	var out []trace.LockID
	for _, h := range held {
		if h != l {
			out = append(out, h)
		}
	}
	return out
}

func (r *run) release(ev trace.Event, s *thread.State, id trace.LockID) thread.Stamp {
	lock := r.locks.GetOrCreate(id)
	stamp := s.Tick(ev.Line)

	if !lock.HeldBy(s.ID) {
		v := Violation{
			Kind:    ReleaseNotHeld,
			Lines:   []trace.Line{ev.Line},
			Threads: []trace.ThreadID{s.ID},
			Locks:   []trace.LockID{id},
			Message: fmt.Sprintf("%s releases %s at line %d without holding it", s.ID, id, ev.Line),
		}
		if holder, held := lock.Holder(); held {
			v.Lines = append(v.Lines, lock.AcquireLine)
			v.Threads = append(v.Threads, holder)
			v.Message += fmt.Sprintf(" (%s holds it since line %d)", holder, lock.AcquireLine)
		}
		r.report(v)
		return stamp
	}

	lock.SetReleaseClock(s.Snapshot())
	lock.Free()
	s.RemoveHeld(id)
	r.waits.RemoveInto(waitgraph.Node(s.ID), uint64(id))
	return stamp
}

func (r *run) request(ev trace.Event, s *thread.State, id trace.LockID) thread.Stamp {
	lock := r.locks.GetOrCreate(id)
	stamp := s.Tick(ev.Line)

	_, held := lock.Holder()
	s.Request(id, ev.Line, held)
	lock.Enqueue(s.ID)
	return stamp
}

// stand turns an unresolved request into a standing wait-for edge against
// the current holder of the lock. The edge lives until the holder releases
// the lock.
func (r *run) stand(s *thread.State, id trace.LockID, line trace.Line) {
	lock := r.locks.GetOrCreate(id)
	if holder, held := lock.Holder(); held {
		added := r.waits.AddEdge(waitgraph.Edge{
			From:      waitgraph.Node(s.ID),
			To:        waitgraph.Node(holder),
			Via:       uint64(id),
			Line:      line,
			HeldSince: lock.AcquireLine,
		})
		if added {
			r.waitEdges++
			r.deadlocks()
		}
	}
	lock.Dequeue(s.ID)
	s.ClearRequest()
}

// deadlocks reports the cycles of the live wait-for graph not reported yet,
// at most maxCycles over the whole run.
func (r *run) deadlocks() {
	for _, c := range r.waits.Cycles(r.maxCycles) {
		if r.maxCycles > 0 && len(r.cycles) >= r.maxCycles {
			return
		}
		v := deadlock(c)
		if _, dup := r.cycles[v.Message]; dup {
			continue
		}
		r.cycles[v.Message] = struct{}{}
		r.report(v)
	}
}

func (r *run) fork(ev trace.Event, s *thread.State, id trace.ThreadID) thread.Stamp {
	stamp := s.Tick(ev.Line)

	child, created := r.threads.GetOrCreate(id)
	if !created && (child.Forked || child.Status != thread.NotStarted) {
		v := Violation{
			Kind:    ForkInUse,
			Lines:   []trace.Line{ev.Line},
			Threads: []trace.ThreadID{s.ID, id},
		}
		switch {
		case child.Forked:
			v.Lines = append(v.Lines, child.ForkLine)
			v.Message = fmt.Sprintf("%s forks %s at line %d, already forked at line %d",
				s.ID, id, ev.Line, child.ForkLine)
		case child.Events > 0:
			v.Lines = append(v.Lines, child.FirstLine)
			v.Message = fmt.Sprintf("%s forks %s at line %d, already running since line %d",
				s.ID, id, ev.Line, child.FirstLine)
		default:
			v.Message = fmt.Sprintf("%s forks %s at line %d, which is already in use", s.ID, id, ev.Line)
		}
		r.report(v)
		return stamp
	}

	child.Inherit(s)
	child.Forked = true
	child.Parent = s.ID
	child.ForkLine = ev.Line
	child.Start()
	return stamp
}

func (r *run) join(ev trace.Event, s *thread.State, id trace.ThreadID) thread.Stamp {
	child, _ := r.threads.GetOrCreate(id)

	switch {
	case child.Status == thread.Terminated:
		r.report(Violation{
			Kind:    JoinTerminated,
			Lines:   []trace.Line{ev.Line, child.JoinLine},
			Threads: []trace.ThreadID{s.ID, id},
			Message: fmt.Sprintf("%s joins %s at line %d, already joined at line %d",
				s.ID, id, ev.Line, child.JoinLine),
		})
		return s.Tick(ev.Line)
	case !child.Forked:
		r.report(Violation{
			Kind:    JoinUnforked,
			Lines:   []trace.Line{ev.Line},
			Threads: []trace.ThreadID{s.ID, id},
			Message: fmt.Sprintf("%s joins %s at line %d, which was never forked", s.ID, id, ev.Line),
		})
		// A thread that ran without a fork still hands its clock over.
		if child.Events == 0 || child == s {
			return s.Tick(ev.Line)
		}
	}

	if lock, line, ok := child.Pending(); ok {
		r.stand(child, lock, line)
	}
	s.Join(child.C)
	stamp := s.Tick(ev.Line)
	child.Terminate(ev.Line)
	return stamp
}

// finish runs the end-of-trace checks.
func (r *run) finish() {
	for _, s := range r.threads.All() {
		if lock, line, ok := s.Pending(); ok {
			r.stand(s, lock, line)
		}
	}

	r.deadlocks()
	if r.order != nil {
		for _, c := range r.order.Cycles(r.maxCycles) {
			if v, ok := inversion(c); ok {
				r.report(v)
			}
		}
	}

	if r.strictness == Lenient {
		return
	}
	var found []Violation
	for _, s := range r.threads.All() {
		if s.Forked && s.Status != thread.Terminated {
			found = append(found, Violation{
				Kind:    UnjoinedThread,
				Lines:   []trace.Line{s.ForkLine},
				Threads: []trace.ThreadID{s.ID, s.Parent},
				Message: fmt.Sprintf("%s forked by %s at line %d is never joined", s.ID, s.Parent, s.ForkLine),
			})
		}
	}
	for _, l := range r.locks.All() {
		if holder, held := l.Holder(); held {
			found = append(found, Violation{
				Kind:    UnreleasedLock,
				Lines:   []trace.Line{l.AcquireLine},
				Threads: []trace.ThreadID{holder},
				Locks:   []trace.LockID{l.ID},
				Message: fmt.Sprintf("%s acquired by %s at line %d is never released", l.ID, holder, l.AcquireLine),
			})
		}
	}
	if r.strictness == Strict {
		r.violations = append(r.violations, found...)
	} else {
		r.notes = append(r.notes, found...)
	}
}

// deadlock describes a wait-for cycle. Each hop reads "waiter requests a
// lock held by the next participant".
func deadlock(c waitgraph.Cycle) Violation {
	v := Violation{Kind: Deadlock}
	var parts []string
	for i, hop := range c.Hops {
		e := hop[0]
		waiter := trace.ThreadID(e.From)
		holder := trace.ThreadID(c.Nodes[(i+1)%len(c.Nodes)])
		lock := trace.LockID(e.Via)
		v.Threads = append(v.Threads, waiter)
		v.Locks = append(v.Locks, lock)
		v.Lines = appendLine(v.Lines, e.Line)
		v.Lines = appendLine(v.Lines, e.HeldSince)
		parts = append(parts, fmt.Sprintf("%s requests %s at line %d held by %s since line %d",
			waiter, lock, e.Line, holder, e.HeldSince))
	}
	sortLines(v.Lines)
	v.Message = strings.Join(parts, "; ")
	return v
}

// inversion describes a lock-order cycle if some choice of one edge per hop
// uses pairwise distinct threads and no gate lock common to every edge.
func inversion(c waitgraph.Cycle) (Violation, bool) {
	chosen := make([]waitgraph.Edge, len(c.Hops))
	if !chooseEdges(c.Hops, chosen, 0) {
		return Violation{}, false
	}

	v := Violation{Kind: LockOrderInversion}
	var parts []string
	for _, e := range chosen {
		t := trace.ThreadID(e.Via)
		v.Threads = append(v.Threads, t)
		v.Locks = append(v.Locks, trace.LockID(e.From))
		v.Lines = appendLine(v.Lines, e.Line)
		v.Lines = appendLine(v.Lines, e.HeldSince)
		parts = append(parts, fmt.Sprintf("%s acquires %s at line %d while holding %s since line %d",
			t, trace.LockID(e.To), e.Line, trace.LockID(e.From), e.HeldSince))
	}
	sortLines(v.Lines)
	v.Message = strings.Join(parts, "; ")
	return v, true
}

func chooseEdges(hops [][]waitgraph.Edge, chosen []waitgraph.Edge, i int) bool {
	if i == len(hops) {
		return !commonGate(chosen)
	}
next:
	for _, e := range hops[i] {
		for _, prev := range chosen[:i] {
			if prev.Via == e.Via {
				continue next
			}
		}
		chosen[i] = e
		if chooseEdges(hops, chosen, i+1) {
			return true
		}
	}
	return false
}

func commonGate(edges []waitgraph.Edge) bool {
	if len(edges) == 0 {
		return false
	}
	for _, g := range edges[0].Gate {
		everywhere := true
		for _, e := range edges[1:] {
			if !containsLock(e.Gate, g) {
				everywhere = false
				break
			}
		}
		if everywhere {
			return true
		}
	}
	return false
}

func containsLock(locks []trace.LockID, l trace.LockID) bool {
	for _, x := range locks {
		if x == l {
			return true
		}
	}
	return false
}

func appendLine(lines []trace.Line, l trace.Line) []trace.Line {
	for _, x := range lines {
		if x == l {
			return lines
		}
	}
	return append(lines, l)
}
