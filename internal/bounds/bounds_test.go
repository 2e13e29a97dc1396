package bounds

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/interval"
)

func build(t *testing.T, nodes int, edges []graph.Edge) *graph.Graph {
	t.Helper()
	ns := make([]graph.Node, nodes)
	for i := range ns {
		ns[i] = graph.Node{ID: i, AminoAcid: "A"}
	}
	ns[0].AminoAcid = graph.StartSymbol
	ns[nodes-1].AminoAcid = graph.EndSymbol
	g, err := graph.New(ns, edges)
	require.NoError(t, err)
	return g
}

// suffixWeights enumerates every total weight from id to end.
func suffixWeights(g *graph.Graph, id, end int) []float64 {
	if id == end {
		return []float64{0}
	}
	var out []float64
	for _, e := range g.Out(id) {
		for _, w := range suffixWeights(g, e.To, end) {
			out = append(out, w+e.Weight)
		}
	}
	return out
}

func TestBuildChain(t *testing.T) {
	g := build(t, 4, []graph.Edge{
		{From: 0, To: 1, Weight: 5},
		{From: 1, To: 2, Weight: 5},
		{From: 2, To: 3, Weight: 0},
	})
	b, err := Build(context.Background(), g, 3, DefaultK)
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Lo: 0, Hi: 0}}, b.Of(3))
	assert.Equal(t, []interval.Interval{{Lo: 0, Hi: 0}}, b.Of(2))
	assert.Equal(t, []interval.Interval{{Lo: 5, Hi: 5}}, b.Of(1))
	assert.Equal(t, []interval.Interval{{Lo: 10, Hi: 10}}, b.Of(0))
}

func TestBuildWidthOneCollapsesBands(t *testing.T) {
	// 0 -> 1 -> 3 (w 0..2 band) and 0 -> 2 -> 3 (8..10 band)
	g := build(t, 4, []graph.Edge{
		{From: 0, To: 1, Weight: 0},
		{From: 0, To: 1, Weight: 2},
		{From: 0, To: 2, Weight: 8},
		{From: 0, To: 2, Weight: 10},
		{From: 1, To: 3, Weight: 0},
		{From: 2, To: 3, Weight: 0},
	})
	wide, err := Build(context.Background(), g, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Lo: 0, Hi: 2}, {Lo: 8, Hi: 10}}, wide.Of(0))
	assert.False(t, wide.Admits(0, interval.Interval{Lo: 4, Hi: 6}))

	narrow, err := Build(context.Background(), g, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Lo: 0, Hi: 10}}, narrow.Of(0))
	assert.True(t, narrow.Admits(0, interval.Interval{Lo: 4, Hi: 6}))
}

func TestBuildUnreachableNodeHasNoBound(t *testing.T) {
	// node 2 is a dead end
	g := build(t, 4, []graph.Edge{
		{From: 0, To: 1, Weight: 1},
		{From: 0, To: 2, Weight: 1},
		{From: 1, To: 3, Weight: 1},
	})
	b, err := Build(context.Background(), g, 3, 3)
	require.NoError(t, err)
	assert.Empty(t, b.Of(2))
	assert.False(t, b.Admits(2, interval.Interval{Lo: -1e9, Hi: 1e9}))
	assert.Nil(t, b.Of(99))
}

func TestBuildRejectsBadInput(t *testing.T) {
	g := build(t, 2, []graph.Edge{{From: 0, To: 1}})
	_, err := Build(context.Background(), g, 1, 0)
	assert.ErrorIs(t, err, ErrWidth)
	_, err = Build(context.Background(), g, 7, 1)
	assert.ErrorIs(t, err, graph.ErrNodeRange)

	cyclic := build(t, 3, []graph.Edge{{From: 0, To: 1}, {From: 1, To: 0}, {From: 1, To: 2}})
	_, err = Build(context.Background(), cyclic, 2, 1)
	assert.ErrorIs(t, err, graph.ErrCycle)
}

func TestBuildHonoursCancellation(t *testing.T) {
	g := build(t, 2, []graph.Edge{{From: 0, To: 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, g, 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// randomLayered returns a layered DAG so every node lies on a start-end path.
func randomLayered(rng *rand.Rand, layers, width int) []graph.Edge {
	id := func(layer, i int) int { return 1 + layer*width + i }
	end := 1 + layers*width
	var edges []graph.Edge
	for i := 0; i < width; i++ {
		edges = append(edges, graph.Edge{From: 0, To: id(0, i), Weight: float64(rng.Intn(200)) / 10})
	}
	for l := 0; l+1 < layers; l++ {
		for i := 0; i < width; i++ {
			for j := 0; j < width; j++ {
				if rng.Intn(2) == 0 || j == i {
					edges = append(edges, graph.Edge{From: id(l, i), To: id(l+1, j), Weight: float64(rng.Intn(200)) / 10})
				}
			}
		}
	}
	for i := 0; i < width; i++ {
		edges = append(edges, graph.Edge{From: id(layers-1, i), To: end, Weight: 0})
	}
	return edges
}

func TestBuildSoundAndNarrow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		layers, width := 4, 3
		n := 2 + layers*width
		g := build(t, n, randomLayered(rng, layers, width))
		for _, k := range []int{1, 2, 5, 10} {
			b, err := Build(context.Background(), g, n-1, k)
			require.NoError(t, err)
			assert.LessOrEqual(t, b.Width(), k)
			for id := 0; id < n; id++ {
				assert.True(t, interval.Disjoint(b.Of(id)), "node %d: %v", id, b.Of(id))
				for _, w := range suffixWeights(g, id, n-1) {
					assert.True(t, b.Admits(id, interval.Interval{Lo: w, Hi: w}),
						"k=%d node %d misses %g in %v", k, id, w, b.Of(id))
				}
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := build(t, 14, randomLayered(rng, 4, 3))
	a, err := Build(context.Background(), g, 13, 4)
	require.NoError(t, err)
	b, err := Build(context.Background(), g, 13, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
