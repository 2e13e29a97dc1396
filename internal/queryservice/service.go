// Package queryservice coordinates weight queries: it loads a graph, resolves
// its reachability bounds, runs a search strategy under a timeout and shapes
// the verified paths into a response.
package queryservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/starford/protweight/internal/apperr"
	"github.com/starford/protweight/internal/boundcache"
	"github.com/starford/protweight/internal/bounds"
	"github.com/starford/protweight/internal/boundstore"
	"github.com/starford/protweight/internal/graph"
	"github.com/starford/protweight/internal/masstable"
	"github.com/starford/protweight/internal/metrics"
	"github.com/starford/protweight/internal/models"
	"github.com/starford/protweight/internal/parser"
	"github.com/starford/protweight/internal/peptide"
	"github.com/starford/protweight/internal/search"
	"github.com/starford/protweight/internal/storage"
)

// Settings are the service-wide query defaults.
type Settings struct {
	// WeightFactor scales daltons into graph edge units.
	WeightFactor     float64
	DefaultK         int
	DefaultTimeout   time.Duration
	MaxTimeout       time.Duration // 0 disables the cap
	DefaultAlgorithm search.Strategy
	VariantType      string
	VariantLimit     int
}

// DefaultSettings mirrors the defaults of the query config section.
func DefaultSettings() Settings {
	return Settings{
		WeightFactor:     1,
		DefaultK:         bounds.DefaultK,
		DefaultTimeout:   10000 * time.Second,
		DefaultAlgorithm: search.TopSort,
		VariantType:      search.DefaultVariantType,
		VariantLimit:     search.DefaultVariantLimit,
	}
}

// Service answers weight and peptide queries.
type Service struct {
	graphs   storage.Provider
	cache    *boundcache.Cache
	settings Settings
	logger   *slog.Logger
}

// New creates a Service.
func New(graphs storage.Provider, cache *boundcache.Cache, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.WeightFactor <= 0 {
		settings.WeightFactor = 1
	}
	if settings.DefaultK < 1 {
		settings.DefaultK = bounds.DefaultK
	}
	if settings.DefaultTimeout <= 0 {
		settings.DefaultTimeout = DefaultSettings().DefaultTimeout
	}
	if settings.DefaultAlgorithm == "" {
		settings.DefaultAlgorithm = search.TopSort
	}
	return &Service{graphs: graphs, cache: cache, settings: settings, logger: logger}
}

// Settings returns the effective settings.
func (s *Service) Settings() Settings { return s.settings }

// Loaded is a parsed graph together with its terminals.
type Loaded struct {
	Meta  models.GraphMetadata
	Graph *graph.Graph
	Start int
	End   int
}

// Load reads and parses the graph of accession.
func (s *Service) Load(accession string) (*Loaded, error) {
	data, meta, err := s.graphs.Read(accession)
	if err != nil {
		return nil, err
	}
	f, err := parser.FormatOf(meta.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrGraphInconsistency, err)
	}
	g, err := parser.Parse(data, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrGraphInconsistency, accession, err)
	}
	start, end, err := g.Terminals()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrGraphInconsistency, accession, err)
	}
	return &Loaded{Meta: meta, Graph: g, Start: start, End: end}, nil
}

// ListGraphs returns metadata of every stored graph.
func (s *Service) ListGraphs() ([]models.GraphMetadata, error) {
	out, err := s.graphs.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInternal, err)
	}
	return out, nil
}

// BoundsView is the bound table of one graph.
type BoundsView struct {
	Accession string            `json:"accession"`
	Checksum  string            `json:"checksum"`
	K         int               `json:"k"`
	Source    boundcache.Source `json:"source"`
	Width     int               `json:"width"`
	Bounds    bounds.Bounds     `json:"bounds"`
}

func (s *Service) resolve(ctx context.Context, l *Loaded, k int) (bounds.Bounds, boundcache.Source, error) {
	key := boundstore.Key{Accession: l.Meta.Accession, Checksum: l.Meta.Checksum, K: k}
	b, src, err := s.cache.Get(ctx, key, l.Graph, l.End)
	if err != nil {
		return nil, "", classify(err)
	}
	metrics.ObserveBoundLookup(string(src))
	return b, src, nil
}

// Bounds returns the bounds of accession with at most k intervals per node,
// building them if needed.
func (s *Service) Bounds(ctx context.Context, accession string, k int) (*BoundsView, error) {
	if k == 0 {
		k = s.settings.DefaultK
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1", apperr.ErrInvalidInput)
	}
	l, err := s.Load(accession)
	if err != nil {
		return nil, err
	}
	b, src, err := s.resolve(ctx, l, k)
	if err != nil {
		return nil, err
	}
	return &BoundsView{
		Accession: accession,
		Checksum:  l.Meta.Checksum,
		K:         k,
		Source:    src,
		Width:     b.Width(),
		Bounds:    b,
	}, nil
}

// Query runs a weight query against the graph of accession.
func (s *Service) Query(ctx context.Context, accession string, req Request) (resp *models.QueryResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	algorithm := s.settings.DefaultAlgorithm
	if req.Algorithm != "" {
		algorithm = search.Strategy(req.Algorithm)
	}
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("query: panic",
				slog.String("accession", accession),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			resp, err = nil, fmt.Errorf("%w: %v", apperr.ErrInternal, r)
		}
		if err != nil {
			metrics.ObserveQuery(string(algorithm), metrics.OutcomeError, time.Since(started), 0)
		}
	}()

	k := s.settings.DefaultK
	if req.K != nil {
		k = *req.K
	}
	timeout := s.settings.DefaultTimeout
	if req.Timeout != nil {
		timeout = seconds(*req.Timeout)
	}
	if s.settings.MaxTimeout > 0 && timeout > s.settings.MaxTimeout {
		timeout = s.settings.MaxTimeout
	}
	variantType, variantLimit := s.settings.VariantType, s.settings.VariantLimit
	if req.VariantType != "" {
		variantType = req.VariantType
	}
	if req.VariantLimit != nil {
		variantLimit = *req.VariantLimit
	}

	target, err := TargetInterval(*req.MonoWeight, *req.MassTolerance, req.Unit, s.settings.WeightFactor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	l, err := s.Load(accession)
	if err != nil {
		return nil, err
	}
	b, _, err := s.resolve(ctx, l, k)
	if err != nil {
		return nil, err
	}

	problem := search.Problem{Graph: l.Graph, Start: l.Start, End: l.End, Target: target, Bounds: b}
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t0 := time.Now()
	res, runErr := search.Run(searchCtx, algorithm, problem, search.WithVariantLimit(variantType, variantLimit))
	elapsed := min(time.Since(t0), timeout)

	timedOut := false
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.DeadlineExceeded):
		timedOut = true
	default:
		return nil, classify(runErr)
	}

	resp = &models.QueryResponse{
		QueryID:   uuid.NewString(),
		Accession: accession,
		Algorithm: string(algorithm),
		K:         k,
		Target:    [2]float64{target.Lo / s.settings.WeightFactor, target.Hi / s.settings.WeightFactor},
		Time:      elapsed.Seconds(),
		TimedOut:  timedOut,
		Results:   make([]models.QueryResult, 0, len(res.Paths)),
		Stats: models.QueryStats{
			Expanded: res.Stats.Expanded,
			Pruned:   res.Stats.Pruned,
			Rejected: res.Stats.Rejected,
		},
	}
	for i, p := range res.Paths {
		resp.Results = append(resp.Results, s.result(l.Graph, p, res.Weights[i]))
	}

	outcome := metrics.OutcomeOK
	if timedOut {
		outcome = metrics.OutcomeTimedOut
	}
	metrics.ObserveSearch(res.Stats.Expanded, res.Stats.Pruned, res.Stats.Rejected)
	metrics.ObserveQuery(string(algorithm), outcome, time.Since(started), len(resp.Results))
	s.logger.Info("query: done",
		slog.String("query_id", resp.QueryID),
		slog.String("accession", accession),
		slog.String("algorithm", string(algorithm)),
		slog.Int("k", k),
		slog.Int("paths", len(resp.Results)),
		slog.Bool("timed_out", timedOut),
		slog.Duration("took", elapsed))
	return resp, nil
}

// result derives the sequence and dalton weight of a verified path. Residues
// missing from the mass table fall back to the edge sum the search verified.
func (s *Service) result(g *graph.Graph, p search.Path, sum float64) models.QueryResult {
	seq := peptide.Sequence(g, p)
	w, ok := masstable.Weight(seq)
	if !ok {
		w = sum / s.settings.WeightFactor
	}
	return models.QueryResult{Path: append([]int(nil), p...), Weight: w, Sequence: seq}
}

// Peptides validates paths against the graph of accession and returns their
// FASTA records.
func (s *Service) Peptides(accession string, paths [][]int) ([]peptide.Record, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", apperr.ErrInvalidInput)
	}
	l, err := s.Load(accession)
	if err != nil {
		return nil, err
	}
	out := make([]peptide.Record, 0, len(paths))
	for _, p := range paths {
		if err := peptide.Validate(l.Graph, p); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
		out = append(out, peptide.NewRecord(l.Graph, accession, p))
	}
	return out, nil
}

// seconds converts a positive number of seconds, saturating at the largest
// representable duration.
func seconds(sec float64) time.Duration {
	if sec >= float64(math.MaxInt64)/float64(time.Second) {
		return math.MaxInt64
	}
	return time.Duration(sec * float64(time.Second))
}

// classify maps search and bound failures onto apperr kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, graph.ErrCycle),
		errors.Is(err, graph.ErrNodeRange),
		errors.Is(err, graph.ErrNoStart),
		errors.Is(err, graph.ErrNoEnd),
		errors.Is(err, graph.ErrAmbiguousTerminal),
		errors.Is(err, search.ErrBoundsMismatch):
		return fmt.Errorf("%w: %v", apperr.ErrGraphInconsistency, err)
	case errors.Is(err, search.ErrUnknownStrategy), errors.Is(err, bounds.ErrWidth):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %v", apperr.ErrInternal, err)
}
