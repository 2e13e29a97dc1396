// Package bounds computes reachability bounds: for every node, at most k
// disjoint intervals that together contain every total weight of a path from
// that node to the terminal node.
package bounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/interval"
	"github.com/starford/protweight/internal/ordering"
)

// DefaultK is the bound width used when callers do not choose one.
const DefaultK = 10

// ErrWidth is returned for k < 1.
var ErrWidth = errors.New("bounds: k must be at least 1")

// Bounds is a side table indexed by node id. A node that cannot reach the
// terminal has no intervals.
type Bounds [][]interval.Interval

// Of returns the intervals of node id, or nil for an unknown id.
func (b Bounds) Of(id int) []interval.Interval {
	if id < 0 || id >= len(b) {
		return nil
	}
	return b[id]
}

// Admits reports whether some path from id to the terminal might reach a
// total weight in target.
func (b Bounds) Admits(id int, target interval.Interval) bool {
	return interval.Overlaps(b.Of(id), target)
}

// Width returns the largest interval count of any node.
func (b Bounds) Width() int {
	w := 0
	for _, ivs := range b {
		w = max(w, len(ivs))
	}
	return w
}

// Build computes the bounds of every node of g towards end, visiting nodes in
// reverse topological order. ctx is checked once per node.
func Build(ctx context.Context, g *graph.Graph, end, k int) (Bounds, error) {
	if k < 1 {
		return nil, ErrWidth
	}
	if !g.HasNode(end) {
		return nil, fmt.Errorf("bounds: %w: end %d", graph.ErrNodeRange, end)
	}
	order, err := ordering.ReverseTopological(g)
	if err != nil {
		return nil, fmt.Errorf("bounds: %w", err)
	}

	b := make(Bounds, g.NumNodes())
	b[end] = []interval.Interval{{Lo: 0, Hi: 0}}

	var scratch []interval.Interval
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if id == end {
			continue
		}
		scratch = scratch[:0]
		for _, e := range g.Out(id) {
			for _, iv := range b[e.To] {
				scratch = append(scratch, iv.Shift(e.Weight))
			}
		}
		if len(scratch) == 0 {
			continue
		}
		b[id] = interval.Compact(append([]interval.Interval(nil), scratch...), k)
	}
	return b, nil
}
