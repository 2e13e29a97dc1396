// Package testutil provides shared test helpers for graph directories,
// graph fixtures and bound stores.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/protweight/internal/boundstore"
	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/masstable"
	"github.com/starford/protweight/internal/parser"
	"github.com/starford/protweight/internal/storage"
)

// TestStore creates a temporary SQLite bound store that is automatically
// cleaned up.
func TestStore(t *testing.T) *boundstore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "protweight-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := boundstore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestGraphs creates a temporary nested graph directory with a provider.
func TestGraphs(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir, storage.Nested)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

func intp(v int) *int { return &v }

func mass(t testing.TB, residue string) float64 {
	t.Helper()
	m, ok := masstable.Residue(residue[0])
	if !ok {
		t.Fatalf("testutil: no mass for %q", residue)
	}
	return m
}

// Peptide returns the linear graph of seq: start, one node per residue, end.
// The edge into a residue node weighs that residue's mass.
func Peptide(t testing.TB, accession, seq string) *parser.Document {
	t.Helper()
	doc := &parser.Document{Accession: accession}
	doc.Nodes = append(doc.Nodes, parser.NodeDoc{ID: 0, AminoAcid: graph.StartSymbol})
	for i := 0; i < len(seq); i++ {
		id := i + 1
		doc.Nodes = append(doc.Nodes, parser.NodeDoc{
			ID: id, AminoAcid: seq[i : i+1], Accession: accession, Position: intp(id),
		})
		doc.Edges = append(doc.Edges, parser.EdgeDoc{Source: id - 1, Target: id, MonoWeight: mass(t, seq[i:i+1])})
	}
	end := len(seq) + 1
	doc.Nodes = append(doc.Nodes, parser.NodeDoc{ID: end, AminoAcid: graph.EndSymbol})
	doc.Edges = append(doc.Edges, parser.EdgeDoc{Source: end - 1, Target: end})
	return doc
}

// Variant adds an alternative residue alt at 1-based position pos of a
// Peptide document. The edge into the alternative node is qualified VARIANT.
// The end node keeps the highest id.
func Variant(t testing.TB, doc *parser.Document, pos int, alt string) *parser.Document {
	t.Helper()
	end := len(doc.Nodes) - 1
	altID := end
	doc.Nodes[end].ID = end + 1
	for i := range doc.Edges {
		if doc.Edges[i].Target == end {
			doc.Edges[i].Target = end + 1
		}
	}
	doc.Nodes = append(doc.Nodes[:end], parser.NodeDoc{
		ID: altID, AminoAcid: alt, Accession: doc.Accession, Position: intp(pos),
	}, doc.Nodes[end])

	next := pos + 1
	if next == end {
		next = end + 1
	}
	doc.Edges = append(doc.Edges,
		parser.EdgeDoc{Source: pos - 1, Target: altID, MonoWeight: mass(t, alt),
			Qualifiers: []parser.QualifierDoc{{Type: "VARIANT"}}},
		parser.EdgeDoc{Source: altID, Target: next, MonoWeight: weightInto(doc, next)},
	)
	return doc
}

func weightInto(doc *parser.Document, id int) float64 {
	for _, e := range doc.Edges {
		if e.Target == id {
			return e.MonoWeight
		}
	}
	return 0
}

// WriteGraph stores doc as JSON under accession.
func WriteGraph(t testing.TB, fs storage.Provider, accession string, doc *parser.Document) {
	t.Helper()
	data, err := parser.Encode(doc, parser.JSON)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Write(accession, ".json", data); err != nil {
		t.Fatal(err)
	}
}

// Graph builds the graph of doc.
func Graph(t testing.TB, doc *parser.Document) *graph.Graph {
	t.Helper()
	g, err := doc.Graph()
	if err != nil {
		t.Fatal(err)
	}
	return g
}
