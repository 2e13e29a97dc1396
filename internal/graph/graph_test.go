package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T) *Graph {
	t.Helper()
	nodes := []Node{
		{ID: 0, AminoAcid: StartSymbol},
		{ID: 1, AminoAcid: "A"},
		{ID: 2, AminoAcid: "C"},
		{ID: 3, AminoAcid: EndSymbol},
	}
	edges := []Edge{
		{From: 0, To: 1, Weight: 5},
		{From: 1, To: 2, Weight: 5},
		{From: 2, To: 3, Weight: 0},
	}
	g, err := New(nodes, edges)
	require.NoError(t, err)
	return g
}

func TestNewAndAccessors(t *testing.T) {
	g := chain(t)
	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, "A", g.Node(1).AminoAcid)
	assert.Len(t, g.Out(0), 1)
	assert.Equal(t, 0, g.InDegree(0))
	assert.Equal(t, 1, g.InDegree(3))

	e, ok := g.EdgeBetween(1, 2)
	require.True(t, ok)
	assert.Equal(t, 5.0, e.Weight)
	_, ok = g.EdgeBetween(0, 3)
	assert.False(t, ok)
	_, ok = g.EdgeBetween(-1, 3)
	assert.False(t, ok)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New([]Node{{ID: 1}}, nil)
	assert.ErrorIs(t, err, ErrNodeRange)

	_, err = New([]Node{{ID: 0}, {ID: 0}}, nil)
	assert.Error(t, err)

	_, err = New([]Node{{ID: 0}, {ID: 1}}, []Edge{{From: 0, To: 2}})
	assert.ErrorIs(t, err, ErrNodeRange)

	_, err = New([]Node{{ID: 0}, {ID: 1}}, []Edge{{From: 0, To: 1, Weight: -1}})
	assert.ErrorIs(t, err, ErrNegativeWeight)
}

func TestTerminals(t *testing.T) {
	start, end, err := chain(t).Terminals()
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	g, _ := New([]Node{{ID: 0, AminoAcid: "A"}, {ID: 1, AminoAcid: EndSymbol}}, nil)
	_, _, err = g.Terminals()
	assert.ErrorIs(t, err, ErrNoStart)

	g, _ = New([]Node{{ID: 0, AminoAcid: StartSymbol}, {ID: 1, AminoAcid: "A"}}, nil)
	_, _, err = g.Terminals()
	assert.ErrorIs(t, err, ErrNoEnd)

	g, _ = New([]Node{
		{ID: 0, AminoAcid: StartSymbol},
		{ID: 1, AminoAcid: StartSymbol},
		{ID: 2, AminoAcid: EndSymbol},
	}, nil)
	_, _, err = g.Terminals()
	assert.ErrorIs(t, err, ErrAmbiguousTerminal)
}

func TestPathWeight(t *testing.T) {
	g := chain(t)
	w, ok := g.PathWeight([]int{0, 1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 10.0, w)

	_, ok = g.PathWeight([]int{0, 2})
	assert.False(t, ok)
}

func TestQualifierCount(t *testing.T) {
	assert.Equal(t, 1, Leaf("VARIANT").Count("VARIANT"))
	assert.Equal(t, 0, Leaf("SIGNAL").Count("VARIANT"))

	// the cheapest alternative decides
	g := Group(Leaf("VARIANT"), Leaf("MUTAGEN"))
	assert.Equal(t, 0, g.Count("VARIANT"))
	g = Group(Leaf("VARIANT"), Group(Leaf("VARIANT"), Leaf("VARIANT")))
	assert.Equal(t, 1, g.Count("VARIANT"))
	assert.Equal(t, 0, Group().Count("VARIANT"))

	qs := []Qualifier{Leaf("VARIANT"), Group(Leaf("VARIANT")), Leaf("SIGNAL")}
	assert.Equal(t, 2, CountType(qs, "VARIANT"))
}

func TestQualifierString(t *testing.T) {
	assert.Equal(t, "VARIANT", Leaf("VARIANT").String())
	assert.Equal(t, "{VARIANT/MUTAGEN}", Group(Leaf("VARIANT"), Leaf("MUTAGEN")).String())
}
