package interval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ivs(pairs ...float64) []Interval {
	out := make([]Interval, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Interval{Lo: pairs[i], Hi: pairs[i+1]})
	}
	return out
}

func TestMergeOverlapping(t *testing.T) {
	cases := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, nil},
		{"single", ivs(1, 2), ivs(1, 2)},
		{"disjoint", ivs(1, 2, 3, 4), ivs(1, 2, 3, 4)},
		{"overlap", ivs(1, 3, 2, 5), ivs(1, 5)},
		{"touching merges", ivs(1, 2, 2, 4), ivs(1, 4)},
		{"contained", ivs(1, 10, 2, 3, 4, 5), ivs(1, 10)},
		{"running max", ivs(0, 10, 1, 2, 9, 12, 20, 21), ivs(0, 12, 20, 21)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MergeOverlapping(tc.in))
		})
	}
}

func TestMergeClosestPair(t *testing.T) {
	got := MergeClosestPair(ivs(0, 1, 10, 11, 12, 13, 30, 31))
	assert.Equal(t, ivs(0, 1, 10, 13, 30, 31), got)

	// leftmost pair wins a tie
	got = MergeClosestPair(ivs(0, 1, 3, 4, 6, 7))
	assert.Equal(t, ivs(0, 4, 6, 7), got)

	single := ivs(1, 2)
	assert.Equal(t, single, MergeClosestPair(single))
}

func TestCompactRespectsWidth(t *testing.T) {
	in := ivs(50, 50, 0, 0, 10, 10, 20, 20, 21, 21)
	for k := 1; k <= 6; k++ {
		cp := append([]Interval(nil), in...)
		got := Compact(cp, k)
		assert.LessOrEqual(t, len(got), k)
		assert.True(t, Disjoint(got), "k=%d: %v", k, got)
		for _, orig := range in {
			assert.True(t, Overlaps(got, orig), "k=%d lost %v", k, orig)
		}
	}
	assert.Equal(t, ivs(0, 50), Compact(append([]Interval(nil), in...), 1))
}

func TestCompactCollapsesDisjointBands(t *testing.T) {
	got := Compact(ivs(8, 10, 0, 2), 1)
	require.Equal(t, ivs(0, 10), got)
	// the merged band admits a window no real weight reaches
	assert.True(t, Overlaps(got, Interval{Lo: 4, Hi: 6}))
}

func TestOverlaps(t *testing.T) {
	bounds := ivs(0, 2, 5, 7, 10, 10)
	cases := []struct {
		target Interval
		want   bool
	}{
		{Interval{-5, -1}, false},
		{Interval{-1, 0}, true},
		{Interval{2, 2}, true},
		{Interval{2.5, 4.5}, false},
		{Interval{3, 5}, true},
		{Interval{6, 6}, true},
		{Interval{8, 9.99}, false},
		{Interval{10, 11}, true},
		{Interval{10.01, 20}, false},
		{Interval{-100, 100}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Overlaps(bounds, tc.target), "target %v", tc.target)
	}
	assert.False(t, Overlaps(nil, Interval{0, 1}))
}

func TestOverlapsAgreesWithLinearScan(t *testing.T) {
	bounds := ivs(-3, -1, 0.5, 0.75, 4, 9, 11, 11, 15, 40)
	for lo := -5.0; lo < 45; lo += 0.25 {
		for _, width := range []float64{0, 0.1, 1, 3} {
			target := Interval{Lo: lo, Hi: lo + width}
			linear := false
			for _, b := range bounds {
				if b.Intersects(target) {
					linear = true
				}
			}
			require.Equal(t, linear, Overlaps(bounds, target), "target %v", target)
		}
	}
}

func TestShiftAndContains(t *testing.T) {
	iv := New(5, 3)
	assert.Equal(t, Interval{3, 5}, iv)
	assert.Equal(t, Interval{-7, -5}, iv.Shift(-10))
	assert.True(t, iv.Contains(3))
	assert.True(t, iv.Contains(5))
	assert.False(t, iv.Contains(5.0001))
	assert.Equal(t, ivs(1, 2, 3, 4), ShiftAll(ivs(0, 1, 2, 3), 1))
}

func TestJSONIsPairArray(t *testing.T) {
	data, err := json.Marshal(ivs(1, 2.5))
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2.5]]`, string(data))

	var back []Interval
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ivs(1, 2.5), back)
}
