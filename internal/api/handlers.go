package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/protweight/internal/apperr"
	"github.com/starford/protweight/internal/peptide"
	"github.com/starford/protweight/internal/queryservice"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *queryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *queryservice.Service) *Handler {
	return &Handler{svc: svc}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func floatParam(q url.Values, name string) (*float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, invalid("%s: not a number: %q", name, s)
	}
	return &f, nil
}

func intParam(q url.Values, name string) (*int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid("%s: not an integer: %q", name, s)
	}
	return &n, nil
}

// weightRequestFromQuery reads a weight query from URL parameters.
func weightRequestFromQuery(q url.Values) (queryservice.Request, error) {
	req := queryservice.Request{
		Unit:        q.Get("unit"),
		Algorithm:   q.Get("algorithm"),
		VariantType: q.Get("variant_type"),
	}
	var err error
	if req.MonoWeight, err = floatParam(q, "mono_weight"); err != nil {
		return req, err
	}
	if req.MassTolerance, err = floatParam(q, "mass_tolerance"); err != nil {
		return req, err
	}
	if req.Timeout, err = floatParam(q, "timeout"); err != nil {
		return req, err
	}
	if req.K, err = intParam(q, "k"); err != nil {
		return req, err
	}
	if req.VariantLimit, err = intParam(q, "variant_limit"); err != nil {
		return req, err
	}
	return req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", apperr.ErrInvalidInput, err)
	}
	return nil
}

// ListGraphs handles GET /api/graphs.
//
//	@Summary		List stored protein graphs
//	@Tags			graphs
//	@Produce		json
//	@Success		200	{object}	GraphListResponse
//	@Security		BearerAuth
//	@Router			/graphs [get]
func (h *Handler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.svc.ListGraphs()
	if err != nil {
		writeError(w, r, "list graphs", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphListResponse{Graphs: graphs, Total: len(graphs)})
}

// QueryWeight handles GET and POST /api/{accession}/query_weight.
//
//	@Summary		Find peptide paths whose weight lies in a tolerance window
//	@Tags			query
//	@Accept			json
//	@Produce		json
//	@Param			accession		path		string				true	"Protein accession"
//	@Param			mono_weight		query		number				false	"Monoisotopic weight in Da (GET)"
//	@Param			mass_tolerance	query		number				false	"Tolerance (GET)"
//	@Param			unit			query		string				false	"ppm or Da (GET)"
//	@Param			body			body		QueryWeightRequest	false	"Query (POST)"
//	@Success		200				{object}	QueryWeightResponse
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Failure		422				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{accession}/query_weight [get]
//	@Router			/{accession}/query_weight [post]
func (h *Handler) QueryWeight(w http.ResponseWriter, r *http.Request) {
	var (
		req queryservice.Request
		err error
	)
	if r.Method == http.MethodPost {
		err = decodeBody(w, r, &req)
	} else {
		req, err = weightRequestFromQuery(r.URL.Query())
	}
	if err != nil {
		writeError(w, r, "query weight", err)
		return
	}

	resp, err := h.svc.Query(r.Context(), chi.URLParam(r, "accession"), req)
	if err != nil {
		writeError(w, r, "query weight", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// pathRequest merges path selections from the URL and, for POST, the body.
// JSON output is chosen if either asks for it.
func pathRequest(w http.ResponseWriter, r *http.Request) ([][]int, bool, error) {
	q := r.URL.Query()
	var fromQuery PathRequest
	if s := q.Get("path"); strings.TrimSpace(s) != "" {
		p, err := peptide.ParsePath(s)
		if err != nil {
			return nil, false, invalid("%v", err)
		}
		fromQuery.Path = p
	}
	if s := q.Get("paths"); s != "" {
		ps, err := peptide.ParsePaths(s)
		if err != nil {
			return nil, false, invalid("%v", err)
		}
		fromQuery.Paths = ps
	}
	fromQuery.Returns = q.Get("returns")
	if err := fromQuery.validate(); err != nil {
		return nil, false, invalid("%v", err)
	}

	paths := fromQuery.all()
	asJSON := fromQuery.Returns == returnsJSON
	if r.Method == http.MethodPost {
		var body PathRequest
		if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
			return nil, false, err
		}
		if err := body.validate(); err != nil {
			return nil, false, invalid("%v", err)
		}
		paths = append(paths, body.all()...)
		asJSON = asJSON || body.Returns == returnsJSON
	}
	if len(paths) == 0 {
		return nil, false, invalid("a path needs to be provided")
	}
	return paths, asJSON, nil
}

// PathToPeptide handles GET and POST /api/{accession}/path_to_peptide.
//
//	@Summary		Translate node paths into peptide sequences
//	@Tags			paths
//	@Accept			json
//	@Produce		json,plain
//	@Param			accession	path		string		true	"Protein accession"
//	@Param			path		query		string		false	"One path, e.g. 0->3->7"
//	@Param			paths		query		string		false	"Paths separated by ;"
//	@Param			returns		query		string		false	"text or json"	Enums(text, json)
//	@Param			body		body		PathRequest	false	"Paths (POST)"
//	@Success		200			{array}		string
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{accession}/path_to_peptide [get]
//	@Router			/{accession}/path_to_peptide [post]
func (h *Handler) PathToPeptide(w http.ResponseWriter, r *http.Request) {
	paths, asJSON, err := pathRequest(w, r)
	if err != nil {
		writeError(w, r, "path to peptide", err)
		return
	}
	records, err := h.svc.Peptides(chi.URLParam(r, "accession"), paths)
	if err != nil {
		writeError(w, r, "path to peptide", err)
		return
	}
	seqs := make([]string, len(records))
	for i, rec := range records {
		seqs[i] = rec.Seq
	}
	if asJSON {
		writeJSON(w, http.StatusOK, seqs)
		return
	}
	writeText(w, http.StatusOK, strings.Join(seqs, "\n"))
}

// PathToFASTA handles GET and POST /api/{accession}/path_to_fasta.
//
//	@Summary		Render node paths as FASTA entries
//	@Tags			paths
//	@Accept			json
//	@Produce		json,plain
//	@Param			accession	path		string		true	"Protein accession"
//	@Param			path		query		string		false	"One path, e.g. 0->3->7"
//	@Param			paths		query		string		false	"Paths separated by ;"
//	@Param			returns		query		string		false	"text or json"	Enums(text, json)
//	@Param			body		body		PathRequest	false	"Paths (POST)"
//	@Success		200			{array}		FASTARecord
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{accession}/path_to_fasta [get]
//	@Router			/{accession}/path_to_fasta [post]
func (h *Handler) PathToFASTA(w http.ResponseWriter, r *http.Request) {
	paths, asJSON, err := pathRequest(w, r)
	if err != nil {
		writeError(w, r, "path to fasta", err)
		return
	}
	records, err := h.svc.Peptides(chi.URLParam(r, "accession"), paths)
	if err != nil {
		writeError(w, r, "path to fasta", err)
		return
	}
	if asJSON {
		writeJSON(w, http.StatusOK, records)
		return
	}
	writeText(w, http.StatusOK, peptide.FASTA(records))
}

// Bounds handles GET /api/{accession}/bounds.
//
//	@Summary		Inspect the reachability bounds of a graph
//	@Tags			bounds
//	@Produce		json
//	@Param			accession	path		string	true	"Protein accession"
//	@Param			k			query		int		false	"Intervals per node"
//	@Success		200			{object}	BoundsResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{accession}/bounds [get]
func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	k, err := intParam(r.URL.Query(), "k")
	if err != nil {
		writeError(w, r, "bounds", err)
		return
	}
	width := 0
	if k != nil {
		if *k < 1 {
			writeError(w, r, "bounds", invalid("k must be at least 1"))
			return
		}
		width = *k
	}
	view, err := h.svc.Bounds(r.Context(), chi.URLParam(r, "accession"), width)
	if err != nil {
		writeError(w, r, "bounds", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
