// Package waitgraph implements the directed graphs used for deadlock
// detection and elementary cycle search over them.
//
// Two graphs are built by the analyzer:
//   - the wait-for graph, whose nodes are threads and whose edges read
//     "waiter is blocked on a lock held by holder";
//   - the lock-order graph, whose nodes are locks and whose edges read
//     "some thread acquired To while holding From".
//
// A cycle in the first is a deadlock of the recorded schedule or of one
// close to it; a cycle in the second is a lock-order inversion that may
// deadlock under another schedule.
//
// Cycles are enumerated deterministically: nodes in ascending order, each
// elementary cycle exactly once, rooted at its smallest node.
package waitgraph

import (
	"slices"

	"github.com/kolkov/tracecheck/internal/trace"
)

// Node is a graph vertex: a thread id or a lock id.
type Node uint64

// Edge is a labelled directed edge.
type Edge struct {
	From Node
	To   Node

	// Via distinguishes parallel edges: the lock waited on (wait-for) or
	// the acquiring thread (lock order).
	Via uint64

	// Line is the source line witnessing the edge: the request (wait-for)
	// or the acquire of To (lock order).
	Line trace.Line

	// HeldSince is the line at which the resource behind the edge was
	// acquired: the holder's acquire of Via (wait-for) or the acquire of
	// From (lock order).
	HeldSince trace.Line

	// Gate is the set of other locks held when the edge was created
	// (lock order only).
	Gate []trace.LockID
}

type edgeKey struct {
	from, to Node
	via      uint64
}

// Graph is a directed multigraph with at most one edge per (From, To, Via).
type Graph struct {
	out   map[Node][]Edge
	nodes []Node
	keys  map[edgeKey]struct{}
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		out:  make(map[Node][]Edge),
		keys: make(map[edgeKey]struct{}),
	}
}

// AddEdge inserts e unless an edge with the same (From, To, Via) exists. It
// reports whether e was inserted; the first witness of an edge is kept.
func (g *Graph) AddEdge(e Edge) bool {
	k := edgeKey{from: e.From, to: e.To, via: e.Via}
	if _, dup := g.keys[k]; dup {
		return false
	}
	g.keys[k] = struct{}{}
	g.addNode(e.From)
	g.addNode(e.To)
	g.out[e.From] = append(g.out[e.From], e)
	g.edges = append(g.edges, e)
	return true
}

func (g *Graph) addNode(n Node) {
	if i, found := slices.BinarySearch(g.nodes, n); !found {
		g.nodes = slices.Insert(g.nodes, i, n)
	}
}

// RemoveInto deletes the edges into to labelled via and returns them in
// insertion order. Nodes stay in the graph.
func (g *Graph) RemoveInto(to Node, via uint64) []Edge {
	var removed []Edge
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.To == to && e.Via == via {
			removed = append(removed, e)
			delete(g.keys, edgeKey{from: e.From, to: e.To, via: e.Via})
			continue
		}
		kept = append(kept, e)
	}
	clear(g.edges[len(kept):])
	g.edges = kept

	for _, e := range removed {
		g.out[e.From] = slices.DeleteFunc(g.out[e.From], func(o Edge) bool {
			return o.To == to && o.Via == via
		})
	}
	return removed
}

// Nodes returns every node ever added, in ascending order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

// Between returns the edges from → to in insertion order.
func (g *Graph) Between(from, to Node) []Edge {
	var es []Edge
	for _, e := range g.out[from] {
		if e.To == to {
			es = append(es, e)
		}
	}
	return es
}

// successors returns the distinct targets of n in ascending order.
func (g *Graph) successors(n Node) []Node {
	var succ []Node
	for _, e := range g.out[n] {
		if i, found := slices.BinarySearch(succ, e.To); !found {
			succ = slices.Insert(succ, i, e.To)
		}
	}
	return succ
}

// Cycle is an elementary cycle Nodes[0] → Nodes[1] → ... → Nodes[0].
type Cycle struct {
	Nodes []Node

	// Hops[i] holds the parallel edges Nodes[i] → Nodes[(i+1) % len(Nodes)].
	Hops [][]Edge
}

// Cycles returns the elementary cycles of the graph, at most limit of them
// when limit > 0. Self-loops are cycles of length one.
func (g *Graph) Cycles(limit int) []Cycle {
	comp := g.components()

	var cycles []Cycle
	for _, start := range g.nodes {
		var path []Node
		onPath := make(map[Node]bool)

		var walk func(n Node) bool
		walk = func(n Node) bool {
			path = append(path, n)
			onPath[n] = true
			defer func() {
				path = path[:len(path)-1]
				onPath[n] = false
			}()

			for _, next := range g.successors(n) {
				switch {
				case next == start:
					cycles = append(cycles, g.cycle(slices.Clone(path)))
					if limit > 0 && len(cycles) >= limit {
						return false
					}
				case next > start && !onPath[next] && comp[next] == comp[start]:
					if !walk(next) {
						return false
					}
				}
			}
			return true
		}
		if !walk(start) {
			break
		}
	}
	return cycles
}

func (g *Graph) cycle(nodes []Node) Cycle {
	c := Cycle{Nodes: nodes, Hops: make([][]Edge, len(nodes))}
	for i, n := range nodes {
		c.Hops[i] = g.Between(n, nodes[(i+1)%len(nodes)])
	}
	return c
}

// components labels each node with its strongly connected component
// (Tarjan).
func (g *Graph) components() map[Node]int {
	var (
		index   = make(map[Node]int)
		low     = make(map[Node]int)
		onStack = make(map[Node]bool)
		comp    = make(map[Node]int)
		stack   []Node
		next    int
		label   int
	)

	var connect func(n Node)
	connect = func(n Node) {
		index[n] = next
		low[n] = next
		next++
		stack = append(stack, n)
		onStack[n] = true

		for _, m := range g.successors(n) {
			if _, seen := index[m]; !seen {
				connect(m)
				low[n] = min(low[n], low[m])
			} else if onStack[m] {
				low[n] = min(low[n], index[m])
			}
		}

		if low[n] == index[n] {
			for {
				m := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[m] = false
				comp[m] = label
				if m == n {
					break
				}
			}
			label++
		}
	}

	for _, n := range g.nodes {
		if _, seen := index[n]; !seen {
			connect(n)
		}
	}
	return comp
}
