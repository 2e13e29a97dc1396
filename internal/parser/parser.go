// Package parser decodes protein graph documents (JSON or YAML) into
// graph.Graph values.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/protweight/internal/graph"
)

// Format is a graph document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions that are not graph documents.
var ErrUnknownFormat = errors.New("parser: unknown graph format")

// Extensions lists the file extensions recognised as graph documents, in
// lookup order.
var Extensions = []string{".json", ".yaml", ".yml"}

// FormatOf maps a file name to its document format.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// Document is the on-disk shape of a graph.
type Document struct {
	Accession string    `json:"accession,omitempty" yaml:"accession,omitempty"`
	Nodes     []NodeDoc `json:"nodes" yaml:"nodes"`
	Edges     []EdgeDoc `json:"edges" yaml:"edges"`
}

// NodeDoc is one node of a Document.
type NodeDoc struct {
	ID               int    `json:"id" yaml:"id"`
	AminoAcid        string `json:"aminoacid" yaml:"aminoacid"`
	Accession        string `json:"accession,omitempty" yaml:"accession,omitempty"`
	Position         *int   `json:"position,omitempty" yaml:"position,omitempty"`
	IsoformAccession string `json:"isoform_accession,omitempty" yaml:"isoform_accession,omitempty"`
	IsoformPosition  *int   `json:"isoform_position,omitempty" yaml:"isoform_position,omitempty"`
}

// EdgeDoc is one edge of a Document.
type EdgeDoc struct {
	Source     int            `json:"source" yaml:"source"`
	Target     int            `json:"target" yaml:"target"`
	MonoWeight float64        `json:"mono_weight" yaml:"mono_weight"`
	Qualifiers []QualifierDoc `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty"`
}

// QualifierDoc is either {type: X} or {any_of: [...]}.
type QualifierDoc struct {
	Type  string         `json:"type,omitempty" yaml:"type,omitempty"`
	AnyOf []QualifierDoc `json:"any_of,omitempty" yaml:"any_of,omitempty"`
}

func (q QualifierDoc) qualifier() (graph.Qualifier, error) {
	switch {
	case q.Type != "" && q.AnyOf != nil:
		return graph.Qualifier{}, fmt.Errorf("parser: qualifier has both type %q and any_of", q.Type)
	case q.AnyOf != nil:
		alts := make([]graph.Qualifier, len(q.AnyOf))
		for i, a := range q.AnyOf {
			alt, err := a.qualifier()
			if err != nil {
				return graph.Qualifier{}, err
			}
			alts[i] = alt
		}
		return graph.Group(alts...), nil
	case q.Type == "":
		return graph.Qualifier{}, errors.New("parser: qualifier without type")
	}
	return graph.Leaf(q.Type), nil
}

func qualifierDoc(q graph.Qualifier) QualifierDoc {
	if !q.IsGroup() {
		return QualifierDoc{Type: q.Type}
	}
	alts := make([]QualifierDoc, len(q.AnyOf))
	for i, a := range q.AnyOf {
		alts[i] = qualifierDoc(a)
	}
	return QualifierDoc{AnyOf: alts}
}

// Decode reads a document in the given format.
func Decode(data []byte, f Format) (*Document, error) {
	var doc Document
	switch f {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parser: decode json: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parser: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return &doc, nil
}

// Parse decodes data and builds the graph it describes.
func Parse(data []byte, f Format) (*graph.Graph, error) {
	doc, err := Decode(data, f)
	if err != nil {
		return nil, err
	}
	return doc.Graph()
}

// Graph builds the graph.Graph of d.
func (d *Document) Graph() (*graph.Graph, error) {
	if len(d.Nodes) == 0 {
		return nil, errors.New("parser: graph has no nodes")
	}
	nodes := make([]graph.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = graph.Node{
			ID:               n.ID,
			AminoAcid:        n.AminoAcid,
			Accession:        n.Accession,
			Position:         n.Position,
			IsoformAccession: n.IsoformAccession,
			IsoformPosition:  n.IsoformPosition,
		}
	}
	edges := make([]graph.Edge, len(d.Edges))
	for i, e := range d.Edges {
		var qs []graph.Qualifier
		for _, qd := range e.Qualifiers {
			q, err := qd.qualifier()
			if err != nil {
				return nil, fmt.Errorf("parser: edge %d->%d: %w", e.Source, e.Target, err)
			}
			qs = append(qs, q)
		}
		edges[i] = graph.Edge{From: e.Source, To: e.Target, Weight: e.MonoWeight, Qualifiers: qs}
	}
	g, err := graph.New(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	return g, nil
}

// FromGraph converts g back into a document.
func FromGraph(accession string, g *graph.Graph) *Document {
	d := &Document{Accession: accession}
	for id := 0; id < g.NumNodes(); id++ {
		n := g.Node(id)
		d.Nodes = append(d.Nodes, NodeDoc{
			ID:               n.ID,
			AminoAcid:        n.AminoAcid,
			Accession:        n.Accession,
			Position:         n.Position,
			IsoformAccession: n.IsoformAccession,
			IsoformPosition:  n.IsoformPosition,
		})
	}
	for _, e := range g.Edges() {
		ed := EdgeDoc{Source: e.From, Target: e.To, MonoWeight: e.Weight}
		for _, q := range e.Qualifiers {
			ed.Qualifiers = append(ed.Qualifiers, qualifierDoc(q))
		}
		d.Edges = append(d.Edges, ed)
	}
	return d
}

// Encode writes d in the given format.
func Encode(d *Document, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(d, "", "  ")
	case YAML:
		return yaml.Marshal(d)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
