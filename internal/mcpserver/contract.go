package mcpserver

// GraphFormatContract describes the protein graph document format that
// LLM consumers should follow when creating graphs.
const GraphFormatContract = `# protweight Graph Format Contract

A protein graph is a directed acyclic graph of residues. Every document
stored by protweight MUST follow this structure (JSON shown; YAML uses the
same keys).

## Structure

` + "```" + `json
{
  "accession": "P12345",
  "nodes": [
    {"id": 0, "aminoacid": "__start__"},
    {"id": 1, "aminoacid": "M", "accession": "P12345", "position": 1},
    {"id": 2, "aminoacid": "K", "accession": "P12345", "position": 2},
    {"id": 3, "aminoacid": "R", "isoform_accession": "P12345-2", "isoform_position": 2},
    {"id": 4, "aminoacid": "__end__"}
  ],
  "edges": [
    {"source": 0, "target": 1, "mono_weight": 131.040485},
    {"source": 1, "target": 2, "mono_weight": 128.094963},
    {"source": 1, "target": 3, "mono_weight": 156.101111,
     "qualifiers": [{"type": "VARIANT"}]},
    {"source": 2, "target": 4, "mono_weight": 0},
    {"source": 3, "target": 4, "mono_weight": 0}
  ]
}
` + "```" + `

## Rules

1. **Node ids** are exactly 0..n-1, each used once, in any order.
2. **Sentinels.** Exactly one node has ` + "`" + `aminoacid: __start__` + "`" + ` and exactly one has
   ` + "`" + `aminoacid: __end__` + "`" + `. Every other node carries one residue letter.
3. **Edges** point from ` + "`" + `source` + "`" + ` to ` + "`" + `target` + "`" + `; both must be existing ids.
   The graph MUST NOT contain cycles.
4. **mono_weight** is the weight of the residue entered by the edge and MUST NOT be
   negative. Edges into ` + "`" + `__end__` + "`" + ` weigh 0. A path weighs the sum of its edges.
5. **Qualifiers** are optional. Each is either ` + "`" + `{"type": "VARIANT"}` + "`" + ` or a group of
   alternatives ` + "`" + `{"any_of": [{"type": "SIGNAL"}, {"type": "PROPEP"}]}` + "`" + `, never both.
6. **Provenance** (` + "`" + `accession` + "`" + `, ` + "`" + `position` + "`" + `, ` + "`" + `isoform_accession` + "`" + `,
   ` + "`" + `isoform_position` + "`" + `) is optional and only orders equivalent paths.
7. **Accessions** used to store a graph are alphanumeric ([a-zA-Z0-9]).

## Paths

A path is written as node ids joined by ` + "`" + `->` + "`" + ` or ` + "`" + `,` + "`" + ` (e.g. ` + "`" + `0->1->2->4` + "`" + `);
several paths are separated by ` + "`" + `;` + "`" + `. Valid paths start at ` + "`" + `__start__` + "`" + `, end at
` + "`" + `__end__` + "`" + ` and follow existing edges.
`
