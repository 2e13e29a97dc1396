// Package interval implements the closed-interval algebra used to summarise
// reachable path weights and to test them against a query window.
package interval

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo float64
	Hi float64
}

// New returns [lo, hi]. Arguments are swapped if given in reverse.
func New(lo, hi float64) Interval {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Interval{Lo: lo, Hi: hi}
}

// Shift returns the interval moved by w.
func (iv Interval) Shift(w float64) Interval {
	return Interval{Lo: iv.Lo + w, Hi: iv.Hi + w}
}

// Contains reports whether x lies in the closed interval.
func (iv Interval) Contains(x float64) bool {
	return iv.Lo <= x && x <= iv.Hi
}

// Intersects reports whether two closed intervals share at least one point.
func (iv Interval) Intersects(other Interval) bool {
	return iv.Lo <= other.Hi && other.Lo <= iv.Hi
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Lo, iv.Hi)
}

// MarshalJSON encodes the interval as a two element array.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{iv.Lo, iv.Hi})
}

// UnmarshalJSON decodes a two element array.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	*iv = Interval{Lo: pair[0], Hi: pair[1]}
	return nil
}

// ShiftAll returns a new slice with every interval moved by w.
func ShiftAll(ivs []Interval, w float64) []Interval {
	out := make([]Interval, len(ivs))
	for i, iv := range ivs {
		out[i] = iv.Shift(w)
	}
	return out
}

// SortByLo sorts intervals in place by their lower endpoint.
func SortByLo(ivs []Interval) {
	slices.SortFunc(ivs, func(a, b Interval) int {
		switch {
		case a.Lo < b.Lo:
			return -1
		case a.Lo > b.Lo:
			return 1
		case a.Hi < b.Hi:
			return -1
		case a.Hi > b.Hi:
			return 1
		}
		return 0
	})
}

// MergeOverlapping collapses intervals sorted by Lo into the minimal set of
// disjoint intervals covering the same union. An interval whose Lo is not
// greater than the running maximum Hi joins the current run.
func MergeOverlapping(sorted []Interval) []Interval {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Lo <= cur.Hi {
			cur.Hi = max(cur.Hi, iv.Hi)
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	return append(out, cur)
}

// MergeClosestPair merges the adjacent pair of disjoint sorted intervals with
// the smallest gap into one spanning interval. The leftmost pair wins ties.
// Inputs with fewer than two intervals are returned unchanged.
func MergeClosestPair(ivs []Interval) []Interval {
	if len(ivs) < 2 {
		return ivs
	}
	best := 0
	bestGap := ivs[1].Lo - ivs[0].Hi
	for i := 1; i < len(ivs)-1; i++ {
		if gap := ivs[i+1].Lo - ivs[i].Hi; gap < bestGap {
			best, bestGap = i, gap
		}
	}
	out := make([]Interval, 0, len(ivs)-1)
	out = append(out, ivs[:best]...)
	out = append(out, Interval{Lo: ivs[best].Lo, Hi: max(ivs[best].Hi, ivs[best+1].Hi)})
	return append(out, ivs[best+2:]...)
}

// Compact sorts ivs, merges overlaps and then merges closest pairs until at
// most k intervals remain. The result covers a superset of the input union.
// k < 1 is treated as 1. The input slice is reordered.
func Compact(ivs []Interval, k int) []Interval {
	if k < 1 {
		k = 1
	}
	SortByLo(ivs)
	merged := MergeOverlapping(ivs)
	for len(merged) > k {
		merged = MergeClosestPair(merged)
	}
	return merged
}

// Overlaps reports whether any interval of the sorted, disjoint set bounds
// intersects target. It runs a binary search over the upper endpoints.
func Overlaps(bounds []Interval, target Interval) bool {
	i := sort.Search(len(bounds), func(i int) bool {
		return bounds[i].Hi >= target.Lo
	})
	return i < len(bounds) && bounds[i].Lo <= target.Hi
}

// Disjoint reports whether ivs is sorted ascending with no two intervals
// sharing a point.
func Disjoint(ivs []Interval) bool {
	for i, iv := range ivs {
		if iv.Lo > iv.Hi {
			return false
		}
		if i > 0 && ivs[i-1].Hi >= iv.Lo {
			return false
		}
	}
	return true
}
