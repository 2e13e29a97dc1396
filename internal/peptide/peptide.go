// Package peptide turns node paths of a protein graph into peptide
// sequences and FASTA records.
package peptide

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/protweight/internal/graph"
)

// FASTALineWidth is the number of residues per FASTA sequence line.
const FASTALineWidth = 60

var (
	// ErrEmptyPath is returned for a path without nodes.
	ErrEmptyPath = errors.New("peptide: path is empty")
	// ErrBadPath is returned when a path string cannot be parsed.
	ErrBadPath = errors.New("peptide: malformed path")
	// ErrNodeRange is returned for node ids outside the graph.
	ErrNodeRange = errors.New("peptide: node id out of range")
	// ErrDisconnected is returned when two consecutive nodes share no edge.
	ErrDisconnected = errors.New("peptide: path is not connected")
	// ErrNotTerminal is returned when a path does not run start to end.
	ErrNotTerminal = errors.New("peptide: path does not go from the start node to the end node")
)

// ParsePath parses one path written as "0,1,2" or "0->1->2".
func ParsePath(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyPath
	}
	parts := strings.Split(strings.ReplaceAll(s, "->", ","), ",")
	path := make([]int, len(parts))
	for i, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, s)
		}
		path[i] = id
	}
	return path, nil
}

// ParsePaths parses ";"-separated paths. Empty segments are skipped.
func ParsePaths(s string) ([][]int, error) {
	var out [][]int
	for _, seg := range strings.Split(s, ";") {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		p, err := ParsePath(seg)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Format writes a path as "0->1->2".
func Format(path []int) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "->")
}

// Validate checks that path lies in g, is connected, and runs from the start
// sentinel to the end sentinel.
func Validate(g *graph.Graph, path []int) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	for _, id := range path {
		if id < 0 || id >= g.NumNodes() {
			return fmt.Errorf("%w: %d in %s", ErrNodeRange, id, Format(path))
		}
	}
	for i := 1; i < len(path); i++ {
		if _, ok := g.EdgeBetween(path[i-1], path[i]); !ok {
			return fmt.Errorf("%w: %s", ErrDisconnected, Format(path))
		}
	}
	if g.Node(path[0]).AminoAcid != graph.StartSymbol || g.Node(path[len(path)-1]).AminoAcid != graph.EndSymbol {
		return fmt.Errorf("%w: %s", ErrNotTerminal, Format(path))
	}
	return nil
}

// Sequence concatenates the residues of path, leaving out the sentinels.
func Sequence(g *graph.Graph, path []int) string {
	var b strings.Builder
	for _, id := range path {
		n := g.Node(id)
		if n.IsSentinel() {
			continue
		}
		b.WriteString(n.AminoAcid)
	}
	return b.String()
}

// Qualifiers lists the qualifiers on the edges of path in order. Where two
// nodes share several edges, the first one is used.
func Qualifiers(g *graph.Graph, path []int) []string {
	var out []string
	for i := 1; i < len(path); i++ {
		e, ok := g.EdgeBetween(path[i-1], path[i])
		if !ok {
			continue
		}
		for _, q := range e.Qualifiers {
			out = append(out, q.String())
		}
	}
	return out
}

// Record is one FASTA entry.
type Record struct {
	Head string `json:"head"`
	Seq  string `json:"seq"`
}

// NewRecord builds the FASTA record of a validated path.
func NewRecord(g *graph.Graph, accession string, path []int) Record {
	head := fmt.Sprintf(">lcl|PEPTIDE_%s|PATH=%s|QUALIFIERS=%s",
		accession, Format(path), strings.Join(Qualifiers(g, path), ","))
	return Record{Head: head, Seq: Sequence(g, path)}
}

// FASTA renders records with sequences wrapped at FASTALineWidth.
func FASTA(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Head)
		b.WriteByte('\n')
		for i := 0; i < len(r.Seq); i += FASTALineWidth {
			b.WriteString(r.Seq[i:min(i+FASTALineWidth, len(r.Seq))])
			b.WriteByte('\n')
		}
	}
	return b.String()
}
