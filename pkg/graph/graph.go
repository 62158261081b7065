// Package graph materializes the experimental graph of a study or assay:
// material and data nodes joined to the processes that consume and produce
// them. It computes maximal paths for the tabular writer and reachability for
// derivation links and validation.
package graph

import (
	"errors"
	"fmt"

	"isacore/pkg/isa"
)

// ErrCycle is returned when the experimental graph is not acyclic.
var ErrCycle = errors.New("experimental graph has a cycle")

// Vertex is either a node or a process.
type Vertex struct {
	Node    isa.Node
	Process *isa.Process
}

// IsProcess reports whether the vertex is a process application.
func (v Vertex) IsProcess() bool { return v.Process != nil }

// Kind returns the node kind, or "" for a process.
func (v Vertex) Kind() isa.NodeKind {
	if v.Node == nil {
		return ""
	}
	return v.Node.NodeKind()
}

func (v Vertex) ref() any {
	if v.Process != nil {
		return v.Process
	}
	return v.Node
}

func (v Vertex) String() string { return isa.Describe(v.ref()) }

// Graph is an immutable adjacency view over a set of processes. Vertices
// keep the order in which they are first met, which follows the document
// order of the processes.
type Graph struct {
	vertices []Vertex
	index    map[any]int
	succ     [][]int
	pred     [][]int
}

// Build materializes the graph of processes. Edges run from every input to
// the process and from the process to every output; a process without
// outputs is followed by its next process instead. Extra nodes are
// registered first, in the given order, so that nodes untouched by any
// process still appear as isolated vertices.
func Build(processes []*isa.Process, extra ...isa.Node) *Graph {
	g := &Graph{index: make(map[any]int)}
	for _, n := range extra {
		g.add(Vertex{Node: n})
	}
	for _, p := range processes {
		ins := make([]int, 0, len(p.Inputs))
		for _, in := range p.Inputs {
			ins = append(ins, g.add(Vertex{Node: in}))
		}
		pv := g.add(Vertex{Process: p})
		for _, i := range ins {
			g.link(i, pv)
		}
		if len(p.Outputs) > 0 {
			for _, out := range p.Outputs {
				g.link(pv, g.add(Vertex{Node: out}))
			}
		} else if p.NextProcess != nil {
			g.link(pv, g.add(Vertex{Process: p.NextProcess}))
		}
	}
	return g
}

func (g *Graph) add(v Vertex) int {
	key := v.ref()
	if idx, ok := g.index[key]; ok {
		return idx
	}
	idx := len(g.vertices)
	g.index[key] = idx
	g.vertices = append(g.vertices, v)
	g.succ = append(g.succ, nil)
	g.pred = append(g.pred, nil)
	return idx
}

func (g *Graph) link(from, to int) {
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// Vertices returns every vertex in first-met order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Nodes returns the node vertices in first-met order.
func (g *Graph) Nodes() []isa.Node {
	var out []isa.Node
	for _, v := range g.vertices {
		if v.Node != nil {
			out = append(out, v.Node)
		}
	}
	return out
}

// Contains reports whether n or p is a vertex of the graph.
func (g *Graph) Contains(v Vertex) bool {
	_, ok := g.index[v.ref()]
	return ok
}

func (g *Graph) lookup(v Vertex) (int, bool) {
	idx, ok := g.index[v.ref()]
	return idx, ok
}

func (g *Graph) collect(idx []int) []Vertex {
	out := make([]Vertex, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.vertices[i])
	}
	return out
}

// Successors returns the direct successors of v.
func (g *Graph) Successors(v Vertex) []Vertex {
	idx, ok := g.lookup(v)
	if !ok {
		return nil
	}
	return g.collect(g.succ[idx])
}

// Predecessors returns the direct predecessors of v.
func (g *Graph) Predecessors(v Vertex) []Vertex {
	idx, ok := g.lookup(v)
	if !ok {
		return nil
	}
	return g.collect(g.pred[idx])
}

// Roots returns the vertices without predecessors.
func (g *Graph) Roots() []Vertex {
	var out []Vertex
	for i, v := range g.vertices {
		if len(g.pred[i]) == 0 {
			out = append(out, v)
		}
	}
	return out
}

// Sinks returns the vertices without successors.
func (g *Graph) Sinks() []Vertex {
	var out []Vertex
	for i, v := range g.vertices {
		if len(g.succ[i]) == 0 {
			out = append(out, v)
		}
	}
	return out
}

// Path is a maximal root-to-sink walk through the graph.
type Path []Vertex

// Paths enumerates every maximal path starting at a root, in root order
// and then successor order. Vertices already on the current walk are not
// revisited, so a cyclic graph still terminates.
func (g *Graph) Paths() []Path {
	var (
		out   []Path
		walk  []int
		onWay = make([]bool, len(g.vertices))
	)
	var visit func(i int)
	visit = func(i int) {
		walk = append(walk, i)
		onWay[i] = true
		next := 0
		for _, s := range g.succ[i] {
			if onWay[s] {
				continue
			}
			next++
			visit(s)
		}
		if next == 0 {
			out = append(out, Path(g.collect(walk)))
		}
		onWay[i] = false
		walk = walk[:len(walk)-1]
	}
	for i := range g.vertices {
		if len(g.pred[i]) == 0 {
			visit(i)
		}
	}
	return out
}

// Ancestors returns the nodes of the given kind from which v is reachable,
// nearest first.
func (g *Graph) Ancestors(v Vertex, kind isa.NodeKind) []isa.Node {
	return g.reach(v, kind, g.pred)
}

// Descendants returns the nodes of the given kind reachable from v.
func (g *Graph) Descendants(v Vertex, kind isa.NodeKind) []isa.Node {
	return g.reach(v, kind, g.succ)
}

func (g *Graph) reach(v Vertex, kind isa.NodeKind, adj [][]int) []isa.Node {
	start, ok := g.lookup(v)
	if !ok {
		return nil
	}
	seen := map[int]bool{start: true}
	queue := []int{start}
	var out []isa.Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range adj[cur] {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			if n := g.vertices[nb].Node; n != nil && n.NodeKind() == kind {
				out = append(out, n)
			}
			queue = append(queue, nb)
		}
	}
	return out
}

// Reachable reports whether to is reachable from from.
func (g *Graph) Reachable(from, to Vertex) bool {
	target, ok := g.lookup(to)
	if !ok {
		return false
	}
	start, ok := g.lookup(from)
	if !ok {
		return false
	}
	if start == target {
		return true
	}
	seen := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.succ[cur] {
			if s == target {
				return true
			}
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// CycleError lists the vertices left over by a topological sort.
type CycleError struct {
	Vertices []Vertex
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %d vertices involved, first %s", ErrCycle, len(e.Vertices), e.Vertices[0])
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// TopologicalOrder returns the vertices in an order where every edge points
// forward, or a *CycleError.
func (g *Graph) TopologicalOrder() ([]Vertex, error) {
	indeg := make([]int, len(g.vertices))
	for i := range g.vertices {
		indeg[i] = len(g.pred[i])
	}
	var queue, order []int
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, s := range g.succ[cur] {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if len(order) != len(g.vertices) {
		var left []int
		for i, d := range indeg {
			if d > 0 {
				left = append(left, i)
			}
		}
		return g.collect(order), &CycleError{Vertices: g.collect(left)}
	}
	return g.collect(order), nil
}

// Acyclic reports whether the graph has no cycle.
func (g *Graph) Acyclic() bool {
	_, err := g.TopologicalOrder()
	return err == nil
}

// NodeVertex wraps a node.
func NodeVertex(n isa.Node) Vertex { return Vertex{Node: n} }

// ProcessVertex wraps a process.
func ProcessVertex(p *isa.Process) Vertex { return Vertex{Process: p} }
