// Package search enumerates start-to-end paths whose total edge weight lies
// in a target interval, pruning partial paths with reachability bounds.
//
// Every strategy shares one contract: a path is expanded along an edge only
// if the bound of the edge's target overlaps the target interval shifted by
// the weight accumulated so far, and a completed path is emitted only after
// its exact weight is checked against the target interval. Strategies differ
// in visiting order and memory shape, not in the set of paths they return.
//
// Searches are cooperative: the context is consulted before every edge
// expansion, and a cancelled search returns the paths it had already
// confirmed together with the context's error.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/starford/protweight/internal/bounds"
	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/interval"
)

// Strategy names a traversal strategy.
type Strategy string

// Available strategies.
const (
	TopSort                   Strategy = "top_sort"
	BFSFIFO                   Strategy = "bfs_fifo"
	BFSFILO                   Strategy = "bfs_filo"
	DFS                       Strategy = "dfs"
	TopSortAttrs              Strategy = "top_sort_attrs"
	TopSortAttrsLimitVariants Strategy = "top_sort_attrs_limit_var"
)

// Defaults of the variant-limited strategy.
const (
	DefaultVariantType  = "VARIANT"
	DefaultVariantLimit = 3
)

var (
	// ErrUnknownStrategy is returned for a strategy name that is not registered.
	ErrUnknownStrategy = errors.New("search: unknown strategy")
	// ErrNilGraph is returned when the problem carries no graph.
	ErrNilGraph = errors.New("search: graph is nil")
	// ErrBoundsMismatch is returned when bounds were built for another graph.
	ErrBoundsMismatch = errors.New("search: bounds do not match graph")
	// ErrDepthExceeded is returned when a descent is deeper than the graph
	// has nodes, which only a cyclic graph allows.
	ErrDepthExceeded = errors.New("search: depth exceeds node count")
)

// Strategies lists every registered strategy in a stable order.
func Strategies() []Strategy {
	return []Strategy{TopSort, BFSFIFO, BFSFILO, DFS, TopSortAttrs, TopSortAttrsLimitVariants}
}

// Parse resolves a strategy name.
func Parse(name string) (Strategy, error) {
	s := Strategy(strings.TrimSpace(name))
	if slices.Contains(Strategies(), s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Path is an ordered list of node ids from start to end inclusive.
type Path []int

// Problem is one search: a graph, its terminals, the target window and the
// bounds built for the graph's end node.
type Problem struct {
	Graph  *graph.Graph
	Start  int
	End    int
	Target interval.Interval
	Bounds bounds.Bounds
}

func (p Problem) validate() error {
	if p.Graph == nil {
		return ErrNilGraph
	}
	if !p.Graph.HasNode(p.Start) || !p.Graph.HasNode(p.End) {
		return fmt.Errorf("search: %w: start %d end %d", graph.ErrNodeRange, p.Start, p.End)
	}
	if len(p.Bounds) != p.Graph.NumNodes() {
		return fmt.Errorf("%w: %d bounds for %d nodes", ErrBoundsMismatch, len(p.Bounds), p.Graph.NumNodes())
	}
	return nil
}

// Stats counts the work a search did.
type Stats struct {
	Expanded int64 `json:"expanded"`
	Pruned   int64 `json:"pruned"`
	Rejected int64 `json:"rejected"`
}

// Result is the outcome of a search. Paths only holds verified paths.
// Weights[i] is the edge sum the walk accumulated for Paths[i], which tells
// apart paths that only differ in which of two parallel edges they took.
type Result struct {
	Strategy Strategy
	Paths    []Path
	Weights  []float64
	Stats    Stats
}

// Options tune a search.
type Options struct {
	VariantType  string
	VariantLimit int
}

// Option configures Options.
type Option func(*Options)

// WithVariantLimit sets the qualifier type counted by the variant-limited
// strategy and the largest count a path may carry. Other strategies ignore it.
func WithVariantLimit(typ string, limit int) Option {
	return func(o *Options) {
		if typ != "" {
			o.VariantType = typ
		}
		if limit >= 0 {
			o.VariantLimit = limit
		}
	}
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{VariantType: DefaultVariantType, VariantLimit: DefaultVariantLimit}
}

// Run executes strategy s on p. If ctx ends mid-search, Run returns the
// partial result along with ctx.Err().
func Run(ctx context.Context, s Strategy, p Problem, opts ...Option) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	w := &walker{ctx: ctx, p: p, opts: o}
	var err error
	switch s {
	case DFS:
		err = w.dfs()
	case BFSFIFO:
		err = w.bfs(false)
	case BFSFILO:
		err = w.bfs(true)
	case TopSort:
		err = w.topo(plainOrder, false)
	case TopSortAttrs:
		err = w.topo(attributeOrder, false)
	case TopSortAttrsLimitVariants:
		err = w.topo(attributeOrder, true)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return &Result{Strategy: s, Paths: w.paths, Weights: w.weights, Stats: w.stats}, err
}

// walker holds the state shared by every strategy.
type walker struct {
	ctx     context.Context
	p       Problem
	opts    Options
	stats   Stats
	paths   []Path
	weights []float64
}

// pruneSlack widens the shifted target in the prune test, relative to the
// target's magnitude. Bounds sum suffix weights back to front while the walk
// sums them front to back, so the two can differ in the last bits.
const pruneSlack = 1e-9

// admit is the prune test for stepping onto node to with the given
// accumulated weight. It may let a few extra paths through; emit does the
// exact check.
func (w *walker) admit(to int, weight float64) bool {
	w.stats.Expanded++
	t := w.p.Target
	tol := pruneSlack * max(1, math.Abs(t.Lo), math.Abs(t.Hi))
	shifted := interval.Interval{Lo: t.Lo - weight - tol, Hi: t.Hi - weight + tol}
	if w.p.Bounds.Admits(to, shifted) {
		return true
	}
	w.stats.Pruned++
	return false
}

// emit records a completed path if its exact weight is inside the target.
func (w *walker) emit(path Path, weight float64) {
	if !w.p.Target.Contains(weight) {
		w.stats.Rejected++
		return
	}
	w.paths = append(w.paths, path)
	w.weights = append(w.weights, weight)
}
