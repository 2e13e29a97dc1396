// Package graph holds the immutable residue graph of one protein: nodes are
// amino acids, edges carry the mass added when the edge is taken.
package graph

import (
	"errors"
	"fmt"
)

// Sentinel residue symbols marking the unique start and terminal nodes.
const (
	StartSymbol = "__start__"
	EndSymbol   = "__end__"
)

var (
	// ErrNoStart is returned when no node carries StartSymbol.
	ErrNoStart = errors.New("graph: start node not found")
	// ErrNoEnd is returned when no node carries EndSymbol.
	ErrNoEnd = errors.New("graph: end node not found")
	// ErrAmbiguousTerminal is returned when a sentinel symbol appears twice.
	ErrAmbiguousTerminal = errors.New("graph: start or end node is not unique")
	// ErrCycle is returned when a topological order does not exist.
	ErrCycle = errors.New("graph: cycle detected")
	// ErrNodeRange is returned for node ids outside 0..n-1.
	ErrNodeRange = errors.New("graph: node id out of range")
	// ErrNegativeWeight is returned for edges with a negative weight.
	ErrNegativeWeight = errors.New("graph: negative edge weight")
)

// Node is one residue. Optional provenance attributes are nil when absent and
// are only used to order path variants.
type Node struct {
	ID               int
	AminoAcid        string
	Accession        string
	Position         *int
	IsoformAccession string
	IsoformPosition  *int
}

// IsSentinel reports whether the node is the start or end marker.
func (n Node) IsSentinel() bool {
	return n.AminoAcid == StartSymbol || n.AminoAcid == EndSymbol
}

// Edge is a directed weighted edge.
type Edge struct {
	From       int
	To         int
	Weight     float64
	Qualifiers []Qualifier
}

// Graph is a directed acyclic residue graph with dense node ids.
// It is never mutated after New returns.
type Graph struct {
	nodes []Node
	edges []Edge
	out   [][]Edge
	in    []int
}

// New builds a graph from nodes whose ids are exactly 0..len(nodes)-1 (in
// any order) and edges between them.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: make([]Node, len(nodes)),
		edges: make([]Edge, 0, len(edges)),
		out:   make([][]Edge, len(nodes)),
		in:    make([]int, len(nodes)),
	}
	seen := make([]bool, len(nodes))
	for _, n := range nodes {
		if n.ID < 0 || n.ID >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d", ErrNodeRange, n.ID)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("graph: duplicate node id %d", n.ID)
		}
		seen[n.ID] = true
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		if !g.valid(e.From) || !g.valid(e.To) {
			return nil, fmt.Errorf("%w: edge %d->%d", ErrNodeRange, e.From, e.To)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: edge %d->%d weight %g", ErrNegativeWeight, e.From, e.To, e.Weight)
		}
		g.edges = append(g.edges, e)
		g.out[e.From] = append(g.out[e.From], e)
		g.in[e.To]++
	}
	return g, nil
}

func (g *Graph) valid(id int) bool {
	return id >= 0 && id < len(g.nodes)
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given id. It panics on an invalid id.
func (g *Graph) Node(id int) Node { return g.nodes[id] }

// HasNode reports whether id is a valid node id.
func (g *Graph) HasNode(id int) bool { return g.valid(id) }

// Out returns the outgoing edges of id. The slice must not be modified.
func (g *Graph) Out(id int) []Edge { return g.out[id] }

// InDegree returns the number of edges entering id.
func (g *Graph) InDegree(id int) int { return g.in[id] }

// Edges returns all edges in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// EdgeBetween returns the first edge from -> to.
func (g *Graph) EdgeBetween(from, to int) (Edge, bool) {
	if !g.valid(from) || !g.valid(to) {
		return Edge{}, false
	}
	for _, e := range g.out[from] {
		if e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Terminals locates the unique start and end nodes by their sentinel symbol.
func (g *Graph) Terminals() (start, end int, err error) {
	start, end = -1, -1
	for _, n := range g.nodes {
		switch n.AminoAcid {
		case StartSymbol:
			if start >= 0 {
				return 0, 0, fmt.Errorf("%w: %s at %d and %d", ErrAmbiguousTerminal, StartSymbol, start, n.ID)
			}
			start = n.ID
		case EndSymbol:
			if end >= 0 {
				return 0, 0, fmt.Errorf("%w: %s at %d and %d", ErrAmbiguousTerminal, EndSymbol, end, n.ID)
			}
			end = n.ID
		}
	}
	if start < 0 {
		return 0, 0, ErrNoStart
	}
	if end < 0 {
		return 0, 0, ErrNoEnd
	}
	return start, end, nil
}

// PathWeight sums the weights along path using the first edge between each
// consecutive pair. ok is false if two consecutive nodes are not connected.
func (g *Graph) PathWeight(path []int) (w float64, ok bool) {
	for i := 1; i < len(path); i++ {
		e, found := g.EdgeBetween(path[i-1], path[i])
		if !found {
			return 0, false
		}
		w += e.Weight
	}
	return w, true
}
