// Package ordering produces node visitation orders consistent with a graph's
// edges: every node appears after all of its predecessors.
//
// Topological gives a plain order. ByAttributes breaks ties between nodes
// that are ready at the same time by their provenance attributes, so that an
// early-stopping search meets the most canonical path variant first.
package ordering

import (
	"container/heap"
	"fmt"

	"github.com/starford/protweight/internal/graph"
)

// Topological returns a Kahn order of g. Ready nodes are taken in id order.
func Topological(g *graph.Graph) ([]int, error) {
	return kahn(g, &fifo{})
}

// ReverseTopological returns Topological reversed: every node precedes its
// predecessors.
func ReverseTopological(g *graph.Graph) ([]int, error) {
	order, err := Topological(g)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// ByAttributes returns a Kahn order where, among ready nodes, the one with
// the highest attribute priority (see Less) is emitted first.
func ByAttributes(g *graph.Graph) ([]int, error) {
	return kahn(g, &attrHeap{g: g})
}

// Less reports whether node a takes priority over node b:
//  1. longer accession first
//  2. lexicographically smaller accession
//  3. smaller isoform position, missing first
//  4. smaller position, missing first
//  5. smaller id
func Less(a, b graph.Node) bool {
	if len(a.Accession) != len(b.Accession) {
		return len(a.Accession) > len(b.Accession)
	}
	if a.Accession != b.Accession {
		return a.Accession < b.Accession
	}
	if c := comparePos(a.IsoformPosition, b.IsoformPosition); c != 0 {
		return c < 0
	}
	if c := comparePos(a.Position, b.Position); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// comparePos orders optional positions with nil as negative infinity.
func comparePos(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// readySet holds nodes whose predecessors have all been emitted.
type readySet interface {
	push(id int)
	pop() int
	size() int
}

func kahn(g *graph.Graph, ready readySet) ([]int, error) {
	n := g.NumNodes()
	indeg := make([]int, n)
	for id := 0; id < n; id++ {
		indeg[id] = g.InDegree(id)
	}
	for id := 0; id < n; id++ {
		if indeg[id] == 0 {
			ready.push(id)
		}
	}
	order := make([]int, 0, n)
	for ready.size() > 0 {
		id := ready.pop()
		order = append(order, id)
		for _, e := range g.Out(id) {
			indeg[e.To]--
			if indeg[e.To] == 0 {
				ready.push(e.To)
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("%w: %d of %d nodes ordered", graph.ErrCycle, len(order), n)
	}
	return order, nil
}

type fifo struct {
	items []int
	head  int
}

func (q *fifo) push(id int) { q.items = append(q.items, id) }

func (q *fifo) pop() int {
	id := q.items[q.head]
	q.head++
	return id
}

func (q *fifo) size() int { return len(q.items) - q.head }

// attrHeap is a min-heap under Less.
type attrHeap struct {
	g   *graph.Graph
	ids []int
}

func (h *attrHeap) Len() int           { return len(h.ids) }
func (h *attrHeap) Less(i, j int) bool { return Less(h.g.Node(h.ids[i]), h.g.Node(h.ids[j])) }
func (h *attrHeap) Swap(i, j int)      { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *attrHeap) Push(x any)         { h.ids = append(h.ids, x.(int)) }

func (h *attrHeap) Pop() any {
	last := h.ids[len(h.ids)-1]
	h.ids = h.ids[:len(h.ids)-1]
	return last
}

func (h *attrHeap) push(id int) { heap.Push(h, id) }
func (h *attrHeap) pop() int    { return heap.Pop(h).(int) }
func (h *attrHeap) size() int   { return h.Len() }
