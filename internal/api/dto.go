package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/protweight/internal/models"
	"github.com/starford/protweight/internal/peptide"
	"github.com/starford/protweight/internal/queryservice"
)

// QueryWeightRequest is the request body of POST /{accession}/query_weight.
type QueryWeightRequest = queryservice.Request

// QueryWeightResponse is the answer to a weight query.
type QueryWeightResponse = models.QueryResponse

// GraphListResponse wraps the graph listing.
type GraphListResponse struct {
	Graphs []models.GraphMetadata `json:"graphs" validate:"required"`
	Total  int                    `json:"total" example:"42" validate:"required"`
}

// BoundsResponse is the bound table of one graph.
type BoundsResponse = queryservice.BoundsView

// FASTARecord is one entry of a JSON path_to_fasta response.
type FASTARecord = peptide.Record

// Return types of the path endpoints.
const (
	returnsText = "text"
	returnsJSON = "json"
)

// PathRequest selects paths for path_to_peptide and path_to_fasta. Both
// fields accept either id arrays or strings such as "0->1->2" ("0,1;0,2"
// for Paths).
type PathRequest struct {
	Path    pathField  `json:"path,omitempty"`
	Paths   pathsField `json:"paths,omitempty"`
	Returns string     `json:"returns,omitempty" example:"text" enums:"text,json"`
}

func (p *PathRequest) all() [][]int {
	out := append([][]int(nil), p.Paths...)
	if len(p.Path) > 0 {
		out = append(out, p.Path)
	}
	return out
}

func (p *PathRequest) validate() error {
	switch p.Returns {
	case "", returnsText, returnsJSON:
		return nil
	}
	return fmt.Errorf("returns must be %q or %q", returnsText, returnsJSON)
}

type pathField []int

func (p *pathField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*p = nil
			return nil
		}
		path, err := peptide.ParsePath(s)
		if err != nil {
			return err
		}
		*p = path
		return nil
	}
	var ids []int
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("%w: %s", peptide.ErrBadPath, b)
	}
	*p = ids
	return nil
}

type pathsField [][]int

func (p *pathsField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		paths, err := peptide.ParsePaths(s)
		if err != nil {
			return err
		}
		*p = paths
		return nil
	}
	var items []pathField
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("%w: %s", peptide.ErrBadPath, b)
	}
	out := make([][]int, 0, len(items))
	for _, it := range items {
		if len(it) > 0 {
			out = append(out, it)
		}
	}
	*p = out
	return nil
}
