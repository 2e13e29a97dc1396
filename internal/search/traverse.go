package search

import (
	"fmt"

	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/ordering"
)

// trail is a shared-prefix path: each step points at the path it extends,
// so branching costs one allocation instead of a copy.
type trail struct {
	node int
	prev *trail
	len  int
}

func (t *trail) extend(node int) *trail {
	return &trail{node: node, prev: t, len: t.len + 1}
}

func (t *trail) path() Path {
	out := make(Path, t.len)
	for cur, i := t, t.len-1; cur != nil; cur, i = cur.prev, i-1 {
		out[i] = cur.node
	}
	return out
}

// dfs descends recursively, exploring one branch fully before the next.
func (w *walker) dfs() error {
	path := make([]int, 1, 32)
	path[0] = w.p.Start
	return w.descend(path, 0)
}

func (w *walker) descend(path []int, weight float64) error {
	node := path[len(path)-1]
	if node == w.p.End {
		w.emit(append(Path(nil), path...), weight)
		return nil
	}
	if len(path) > w.p.Graph.NumNodes() {
		return fmt.Errorf("%w: %d", ErrDepthExceeded, len(path))
	}
	for _, e := range w.p.Graph.Out(node) {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		next := weight + e.Weight
		if !w.admit(e.To, next) {
			continue
		}
		if err := w.descend(append(path, e.To), next); err != nil {
			return err
		}
	}
	return nil
}

type workItem struct {
	trail  *trail
	weight float64
}

// bfs drains a work queue from the front (FIFO, level order) or from the
// back (FILO, depth-first-like).
func (w *walker) bfs(filo bool) error {
	queue := []workItem{{trail: &trail{node: w.p.Start, len: 1}}}
	head := 0
	for head < len(queue) {
		var item workItem
		if filo {
			item = queue[len(queue)-1]
			queue = queue[:len(queue)-1]
		} else {
			item = queue[head]
			queue[head] = workItem{}
			head++
		}

		node := item.trail.node
		if node == w.p.End {
			w.emit(item.trail.path(), item.weight)
			continue
		}
		if item.trail.len > w.p.Graph.NumNodes() {
			return fmt.Errorf("%w: %d", ErrDepthExceeded, item.trail.len)
		}
		for _, e := range w.p.Graph.Out(node) {
			if err := w.ctx.Err(); err != nil {
				return err
			}
			next := item.weight + e.Weight
			if !w.admit(e.To, next) {
				continue
			}
			queue = append(queue, workItem{trail: item.trail.extend(e.To), weight: next})
		}
		if !filo && head > 1024 && head*2 > len(queue) {
			queue = append(queue[:0], queue[head:]...)
			head = 0
		}
	}
	return nil
}

type orderFunc func(*graph.Graph) ([]int, error)

var (
	plainOrder     orderFunc = ordering.Topological
	attributeOrder orderFunc = ordering.ByAttributes
)

// dpState is one partial path known to reach a node.
type dpState struct {
	trail    *trail
	weight   float64
	variants int
}

// topo propagates partial paths node by node in the given order. A node's
// pending set is dropped as soon as it has been pushed to its successors.
// With limitVariants, each state also counts edges carrying the configured
// qualifier type and states over the limit are dropped.
func (w *walker) topo(orderOf orderFunc, limitVariants bool) error {
	g := w.p.Graph
	order, err := orderOf(g)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	pending := make([][]dpState, g.NumNodes())
	pending[w.p.Start] = []dpState{{trail: &trail{node: w.p.Start, len: 1}}}

	err = w.propagate(order, pending, limitVariants)
	for _, s := range pending[w.p.End] {
		w.emit(s.trail.path(), s.weight)
	}
	return err
}

func (w *walker) propagate(order []int, pending [][]dpState, limitVariants bool) error {
	g := w.p.Graph
	for _, id := range order {
		if id == w.p.End {
			return nil
		}
		states := pending[id]
		pending[id] = nil
		if len(states) == 0 {
			continue
		}
		edges := g.Out(id)
		for _, s := range states {
			for _, e := range edges {
				if err := w.ctx.Err(); err != nil {
					return err
				}
				variants := s.variants
				if limitVariants {
					variants += graph.CountType(e.Qualifiers, w.opts.VariantType)
					if variants > w.opts.VariantLimit {
						w.stats.Expanded++
						w.stats.Pruned++
						continue
					}
				}
				next := s.weight + e.Weight
				if !w.admit(e.To, next) {
					continue
				}
				pending[e.To] = append(pending[e.To], dpState{
					trail:    s.trail.extend(e.To),
					weight:   next,
					variants: variants,
				})
			}
		}
	}
	return nil
}
