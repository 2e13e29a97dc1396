package graph

import "strings"

// Qualifier annotates an edge with a feature such as VARIANT or SIGNAL. It is
// either a leaf carrying a type tag or a group of alternatives, one of which
// applies.
type Qualifier struct {
	Type  string
	AnyOf []Qualifier
}

// Leaf returns a qualifier with the given type.
func Leaf(typ string) Qualifier { return Qualifier{Type: typ} }

// Group returns an OR-group over alternatives.
func Group(alternatives ...Qualifier) Qualifier { return Qualifier{AnyOf: alternatives} }

// IsGroup reports whether q is an OR-group.
func (q Qualifier) IsGroup() bool { return q.AnyOf != nil }

// Count returns how many times typ is certainly present in q. A group counts
// as its cheapest alternative; an empty group counts zero.
func (q Qualifier) Count(typ string) int {
	if !q.IsGroup() {
		if q.Type == typ {
			return 1
		}
		return 0
	}
	least := -1
	for _, alt := range q.AnyOf {
		if c := alt.Count(typ); least < 0 || c < least {
			least = c
		}
	}
	return max(least, 0)
}

func (q Qualifier) String() string {
	if !q.IsGroup() {
		return q.Type
	}
	parts := make([]string, len(q.AnyOf))
	for i, alt := range q.AnyOf {
		parts[i] = alt.String()
	}
	return "{" + strings.Join(parts, "/") + "}"
}

// CountType sums Count(typ) over qualifiers.
func CountType(qs []Qualifier, typ string) int {
	n := 0
	for _, q := range qs {
		n += q.Count(typ)
	}
	return n
}
