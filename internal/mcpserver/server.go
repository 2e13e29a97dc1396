// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes protweight tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/protweight/internal/apperr"
	"github.com/starford/protweight/internal/parser"
	"github.com/starford/protweight/internal/peptide"
	"github.com/starford/protweight/internal/queryservice"
	"github.com/starford/protweight/internal/search"
	"github.com/starford/protweight/internal/storage"
)

// GraphFormatURI names the graph format contract resource.
const GraphFormatURI = "protweight://graph-format"

// Server wraps the MCP server with protweight tools.
type Server struct {
	mcp    *server.MCPServer
	graphs storage.Provider
	svc    *queryservice.Service
}

func algorithmNames() []string {
	var out []string
	for _, s := range search.Strategies() {
		out = append(out, string(s))
	}
	return out
}

// New creates a new MCP server with all protweight tools registered.
func New(graphs storage.Provider, svc *queryservice.Service) *Server {
	s := &Server{graphs: graphs, svc: svc}

	s.mcp = server.NewMCPServer(
		"protweight",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_weight",
		mcp.WithDescription("Find all start-to-end paths of a protein graph whose summed "+
			"residue weight lies within a tolerance of the given monoisotopic weight. "+
			"Returns JSON with the paths, their weights and peptide sequences."),
		mcp.WithString("accession", mcp.Required(), mcp.Description("Protein accession, e.g. P12345")),
		mcp.WithNumber("mono_weight", mcp.Required(), mcp.Description("Monoisotopic weight in Da")),
		mcp.WithNumber("mass_tolerance", mcp.Required(), mcp.Description("Tolerance around mono_weight")),
		mcp.WithString("unit", mcp.Required(), mcp.Enum(queryservice.UnitPPM, queryservice.UnitDa),
			mcp.Description("Unit of mass_tolerance")),
		mcp.WithNumber("k", mcp.Description("Intervals kept per node for pruning (default 10)")),
		mcp.WithNumber("timeout", mcp.Description("Search timeout in seconds")),
		mcp.WithString("algorithm", mcp.Enum(algorithmNames()...), mcp.Description("Search strategy")),
		mcp.WithString("variant_type", mcp.Description("Qualifier type counted by top_sort_attrs_limit_var (default VARIANT)")),
		mcp.WithNumber("variant_limit", mcp.Description("Maximum edges of variant_type per path for top_sort_attrs_limit_var")),
	), s.queryWeight)

	s.mcp.AddTool(mcp.NewTool("path_to_peptide",
		mcp.WithDescription("Translate node paths of a protein graph into peptide sequences, "+
			"or into FASTA entries when fasta is true."),
		mcp.WithString("accession", mcp.Required(), mcp.Description("Protein accession")),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Paths such as 0->3->7, several separated by ;")),
		mcp.WithBoolean("fasta", mcp.Description("Return FASTA entries instead of plain sequences")),
	), s.pathToPeptide)

	s.mcp.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the accessions of all stored protein graphs."),
	), s.listGraphs)

	s.mcp.AddTool(mcp.NewTool("create_graph",
		mcp.WithDescription("Store a new protein graph document. Content MUST follow the graph "+
			"format contract; read it first via get_graph_contract or the "+GraphFormatURI+" resource."),
		mcp.WithString("accession", mcp.Required(), mcp.Description("Alphanumeric protein accession")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Graph document")),
		mcp.WithString("format", mcp.Enum(string(parser.JSON), string(parser.YAML)),
			mcp.Description("Document format (default json)")),
	), s.createGraph)

	s.mcp.AddTool(mcp.NewTool("get_graph_contract",
		mcp.WithDescription("Returns the protein graph document format contract."),
	), s.getGraphContract)

	s.mcp.AddResource(
		mcp.NewResource(GraphFormatURI, "Graph Format Contract",
			mcp.WithResourceDescription("Document format of the protein graphs served by protweight."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGraphFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError renders err for the model. Unexpected failures keep their
// message short.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrGraphInconsistency):
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError("internal error")
}

// optNumber reads an optional numeric argument.
func optNumber(req mcp.CallToolRequest, name string) (*float64, error) {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return nil, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: not a number", name)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: not a number", name)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%s: not a number", name)
	}
	return &f, nil
}

func optInt(req mcp.CallToolRequest, name string) (*int, error) {
	f, err := optNumber(req, name)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != float64(int(*f)) {
		return nil, fmt.Errorf("%s: not an integer", name)
	}
	n := int(*f)
	return &n, nil
}

func (s *Server) queryWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accession, err := req.RequireString("accession")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := req.RequireString("unit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := queryservice.Request{Unit: unit}
	if alg, ok := req.GetArguments()["algorithm"].(string); ok {
		q.Algorithm = alg
	}
	if typ, ok := req.GetArguments()["variant_type"].(string); ok {
		q.VariantType = typ
	}
	if q.MonoWeight, err = optNumber(req, "mono_weight"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if q.MassTolerance, err = optNumber(req, "mass_tolerance"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if q.Timeout, err = optNumber(req, "timeout"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if q.K, err = optInt(req, "k"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if q.VariantLimit, err = optInt(req, "variant_limit"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.svc.Query(ctx, accession, q)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pathToPeptide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accession, err := req.RequireString("accession")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := peptide.ParsePaths(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.Peptides(accession, paths)
	if err != nil {
		return toolError(err), nil
	}
	if fasta, _ := req.GetArguments()["fasta"].(bool); fasta {
		return mcp.NewToolResultText(peptide.FASTA(records)), nil
	}
	seqs := make([]string, len(records))
	for i, r := range records {
		seqs[i] = r.Seq
	}
	return mcp.NewToolResultText(strings.Join(seqs, "\n")), nil
}

func (s *Server) listGraphs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.svc.ListGraphs()
	if err != nil {
		return toolError(err), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no graphs found"), nil
	}
	accs := make([]string, len(metas))
	for i, m := range metas {
		accs[i] = m.Accession
	}
	return mcp.NewToolResultText(strings.Join(accs, "\n")), nil
}

func (s *Server) createGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accession, err := req.RequireString("accession")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := parser.JSON
	if f, ok := req.GetArguments()["format"].(string); ok && f != "" {
		format = parser.Format(f)
	}
	ext := map[parser.Format]string{parser.JSON: ".json", parser.YAML: ".yaml"}[format]
	if ext == "" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}

	if !storage.ValidAccession(accession) {
		return mcp.NewToolResultError(fmt.Sprintf("accession can only consist of [a-zA-Z0-9]: %q", accession)), nil
	}
	if _, _, readErr := s.graphs.Read(accession); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph already exists: %s", accession)), nil
	}

	data := []byte(content)
	g, err := parser.Parse(data, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, _, err := g.Terminals(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.graphs.Write(accession, ext, data); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d nodes, %d edges)", accession, g.NumNodes(), g.NumEdges())), nil
}

func (s *Server) getGraphContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GraphFormatContract), nil
}

func (s *Server) readGraphFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphFormatURI,
			MIMEType: "text/markdown",
			Text:     GraphFormatContract,
		},
	}, nil
}
