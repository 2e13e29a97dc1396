package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/protweight/internal/boundcache"
	"github.com/starford/protweight/internal/masstable"
	"github.com/starford/protweight/internal/models"
	"github.com/starford/protweight/internal/queryservice"
	"github.com/starford/protweight/internal/storage"
	"github.com/starford/protweight/internal/testutil"
)

func testServer(t *testing.T) (*Server, *storage.FS) {
	t.Helper()
	_, fs := testutil.TestGraphs(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cache := boundcache.New(testutil.TestStore(t), boundcache.WithLogger(logger))
	svc := queryservice.New(fs, cache, queryservice.DefaultSettings(), logger)
	return New(fs, svc), fs
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "query_weight":
		result, err = srv.queryWeight(ctx, req)
	case "path_to_peptide":
		result, err = srv.pathToPeptide(ctx, req)
	case "list_graphs":
		result, err = srv.listGraphs(ctx, req)
	case "create_graph":
		result, err = srv.createGraph(ctx, req)
	case "get_graph_contract":
		result, err = srv.getGraphContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestQueryWeight(t *testing.T) {
	srv, fs := testServer(t)
	testutil.WriteGraph(t, fs, "P12345", testutil.Peptide(t, "P12345", "PEPTIDE"))
	w, _ := masstable.Weight("PEPTIDE")

	r := callTool(t, srv, "query_weight", map[string]any{
		"accession":      "P12345",
		"mono_weight":    w,
		"mass_tolerance": 5.0,
		"unit":           "ppm",
		"k":              3.0,
	})
	if r.IsError {
		t.Fatalf("query failed: %s", resultText(r))
	}
	var resp models.QueryResponse
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Sequence != "PEPTIDE" || resp.K != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestQueryWeight_VariantType(t *testing.T) {
	srv, fs := testServer(t)
	testutil.WriteGraph(t, fs, "P2", testutil.Variant(t, testutil.Peptide(t, "P2", "PEPTIDE"), 3, "K"))
	w, _ := masstable.Weight("PEKTIDE")

	query := func(variantType string) []models.QueryResult {
		t.Helper()
		args := map[string]any{
			"accession":      "P2",
			"mono_weight":    w,
			"mass_tolerance": 0.001,
			"unit":           "Da",
			"algorithm":      "top_sort_attrs_limit_var",
			"variant_limit":  0.0,
		}
		if variantType != "" {
			args["variant_type"] = variantType
		}
		r := callTool(t, srv, "query_weight", args)
		if r.IsError {
			t.Fatalf("query failed: %s", resultText(r))
		}
		var resp models.QueryResponse
		if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
			t.Fatal(err)
		}
		return resp.Results
	}

	if got := query(""); len(got) != 0 {
		t.Errorf("VARIANT edges counted by default, got %+v", got)
	}
	got := query("CONFLICT")
	if len(got) != 1 || got[0].Sequence != "PEKTIDE" {
		t.Errorf("counting CONFLICT only: results = %+v", got)
	}
}

func TestQueryWeight_Errors(t *testing.T) {
	srv, fs := testServer(t)
	testutil.WriteGraph(t, fs, "P1", testutil.Peptide(t, "P1", "MK"))

	cases := map[string]map[string]any{
		"missing accession": {"mono_weight": 100.0, "mass_tolerance": 1.0, "unit": "Da"},
		"missing weight":    {"accession": "P1", "mass_tolerance": 1.0, "unit": "Da"},
		"fractional k":      {"accession": "P1", "mono_weight": 100.0, "mass_tolerance": 1.0, "unit": "Da", "k": 2.5},
		"bad algorithm":     {"accession": "P1", "mono_weight": 100.0, "mass_tolerance": 1.0, "unit": "Da", "algorithm": "x"},
		"unknown graph":     {"accession": "Q1", "mono_weight": 100.0, "mass_tolerance": 1.0, "unit": "Da"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "query_weight", args); !r.IsError {
				t.Errorf("expected error, got %s", resultText(r))
			}
		})
	}
}

func TestPathToPeptide(t *testing.T) {
	srv, fs := testServer(t)
	testutil.WriteGraph(t, fs, "P1", testutil.Peptide(t, "P1", "MK"))

	r := callTool(t, srv, "path_to_peptide", map[string]any{"accession": "P1", "paths": "0->1->2->3;0,1,2,3"})
	if got := resultText(r); got != "MK\nMK" {
		t.Errorf("sequences = %q", got)
	}

	r = callTool(t, srv, "path_to_peptide", map[string]any{"accession": "P1", "paths": "0->1->2->3", "fasta": true})
	if got := resultText(r); !strings.HasPrefix(got, ">lcl|PEPTIDE_P1|PATH=0->1->2->3") {
		t.Errorf("fasta = %q", got)
	}

	r = callTool(t, srv, "path_to_peptide", map[string]any{"accession": "P1", "paths": "0->2"})
	if !r.IsError {
		t.Error("expected error for disconnected path")
	}
}

func TestListGraphs(t *testing.T) {
	srv, fs := testServer(t)
	if got := resultText(callTool(t, srv, "list_graphs", map[string]any{})); got != "no graphs found" {
		t.Errorf("empty list = %q", got)
	}
	testutil.WriteGraph(t, fs, "P1", testutil.Peptide(t, "P1", "MK"))
	if got := resultText(callTool(t, srv, "list_graphs", map[string]any{})); got != "P1" {
		t.Errorf("list = %q", got)
	}
}

func TestCreateGraph(t *testing.T) {
	srv, fs := testServer(t)
	doc := `{"nodes": [{"id": 0, "aminoacid": "__start__"}, {"id": 1, "aminoacid": "G"}, {"id": 2, "aminoacid": "__end__"}],
		"edges": [{"source": 0, "target": 1, "mono_weight": 57.021464}, {"source": 1, "target": 2, "mono_weight": 0}]}`

	r := callTool(t, srv, "create_graph", map[string]any{"accession": "Q1", "content": doc})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	if _, _, err := fs.Read("Q1"); err != nil {
		t.Fatalf("graph not stored: %v", err)
	}

	r = callTool(t, srv, "create_graph", map[string]any{"accession": "Q1", "content": doc})
	if !r.IsError {
		t.Error("expected error for existing graph")
	}

	noEnd := `{"nodes": [{"id": 0, "aminoacid": "__start__"}], "edges": []}`
	for name, args := range map[string]map[string]any{
		"bad accession": {"accession": "Q-2", "content": doc},
		"no end":        {"accession": "Q3", "content": noEnd},
		"bad format":    {"accession": "Q4", "content": doc, "format": "xml"},
		"not yaml":      {"accession": "Q5", "content": "nodes: [", "format": "yaml"},
	} {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "create_graph", args); !r.IsError {
				t.Errorf("expected error, got %s", resultText(r))
			}
		})
	}
}

func TestGraphContract(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "get_graph_contract", map[string]any{})); got != GraphFormatContract {
		t.Error("contract tool does not return the contract")
	}
	contents, err := srv.readGraphFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != GraphFormatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
