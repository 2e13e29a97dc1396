package masstable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeight(t *testing.T) {
	w, ok := Weight("GA")
	assert.True(t, ok)
	assert.InDelta(t, 128.058578, w, 1e-9)

	w, ok = Weight("")
	assert.True(t, ok)
	assert.Zero(t, w)

	_, ok = Weight("GXA")
	assert.False(t, ok)
}

func TestIsobaricResidues(t *testing.T) {
	l, _ := Residue('L')
	i, _ := Residue('I')
	j, _ := Residue('J')
	assert.Equal(t, l, i)
	assert.Equal(t, l, j)
}

func TestSymbols(t *testing.T) {
	assert.Len(t, Symbols(), 23)
	for _, s := range Symbols() {
		m, ok := Residue(s)
		assert.True(t, ok)
		assert.Positive(t, m)
	}
}
