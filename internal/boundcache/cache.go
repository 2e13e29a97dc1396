// Package boundcache serves reachability bounds from memory, falling back to
// a persistent boundstore.Store and finally to building them. At most one
// build runs per key at any time.
package boundcache

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/protweight/internal/bounds"
	"github.com/starford/protweight/internal/boundstore"
	"github.com/starford/protweight/internal/graph"
)

// DefaultMaxEntries bounds the in-memory LRU.
const DefaultMaxEntries = 256

// Source tells where a Get result came from.
type Source string

const (
	FromMemory Source = "memory"
	FromStore  Source = "store"
	FromBuild  Source = "build"
)

// BuildFunc computes bounds of g towards end.
type BuildFunc func(ctx context.Context, g *graph.Graph, end, k int) (bounds.Bounds, error)

// BuildHook is told about every completed build.
type BuildHook func(key boundstore.Key, took time.Duration)

type entry struct {
	key    boundstore.Key
	bounds bounds.Bounds
}

// Cache is safe for concurrent use.
type Cache struct {
	store      boundstore.Store
	build      BuildFunc
	onBuilt    BuildHook
	logger     *slog.Logger
	maxEntries int

	mu      sync.Mutex
	entries map[boundstore.Key]*list.Element
	lru     *list.List
	flight  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	builds atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries sets the number of bound tables kept in memory.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithBuildFunc replaces bounds.Build.
func WithBuildFunc(fn BuildFunc) Option {
	return func(c *Cache) { c.build = fn }
}

// WithBuildHook registers fn to run after each build.
func WithBuildHook(fn BuildHook) Option {
	return func(c *Cache) { c.onBuilt = fn }
}

// New returns a cache over store.
func New(store boundstore.Store, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		build:      bounds.Build,
		logger:     slog.Default(),
		maxEntries: DefaultMaxEntries,
		entries:    make(map[boundstore.Key]*list.Element),
		lru:        list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the persistent store behind the cache.
func (c *Cache) Store() boundstore.Store { return c.store }

// Get returns the bounds of key, building them from g and end on a miss.
// Concurrent callers for the same key share one build, which runs detached
// from ctx cancellation; ctx only bounds how long this caller waits.
func (c *Cache) Get(ctx context.Context, key boundstore.Key, g *graph.Graph, end int) (bounds.Bounds, Source, error) {
	if b, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return b, FromMemory, nil
	}
	c.misses.Add(1)

	ch := c.flight.DoChan(key.String(), func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), key, g, end)
	})
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, "", res.Err
		}
		f := res.Val.(filled)
		return f.bounds, f.source, nil
	}
}

type filled struct {
	bounds bounds.Bounds
	source Source
}

func (c *Cache) fill(ctx context.Context, key boundstore.Key, g *graph.Graph, end int) (filled, error) {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("bounds: store read failed", slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	if ok && len(b) == g.NumNodes() {
		c.insert(key, b)
		return filled{b, FromStore}, nil
	}

	start := time.Now()
	b, err = c.build(ctx, g, end, key.K)
	if err != nil {
		return filled{}, fmt.Errorf("bounds: build %s: %w", key, err)
	}
	took := time.Since(start)
	c.builds.Add(1)
	c.logger.Debug("bounds: built",
		slog.String("accession", key.Accession),
		slog.Int("k", key.K),
		slog.Int("nodes", g.NumNodes()),
		slog.Duration("took", took))

	if err := c.store.Put(ctx, key, b); err != nil {
		c.logger.Warn("bounds: store write failed", slog.String("key", key.String()), slog.String("error", err.Error()))
	}
	c.insert(key, b)
	if c.onBuilt != nil {
		c.onBuilt(key, took)
	}
	return filled{b, FromBuild}, nil
}

func (c *Cache) lookup(key boundstore.Key) (bounds.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*entry).bounds, true
}

func (c *Cache) insert(key boundstore.Key, b bounds.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).bounds = b
		c.lru.MoveToFront(el)
		return
	}
	c.entries[key] = c.lru.PushFront(&entry{key: key, bounds: b})
	for c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Invalidate forgets every bound table of accession, in memory and in the
// store.
func (c *Cache) Invalidate(ctx context.Context, accession string) error {
	c.mu.Lock()
	for k, el := range c.entries {
		if k.Accession == accession {
			c.lru.Remove(el)
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return c.store.DeleteAccession(ctx, accession)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Builds  int64 `json:"builds"`
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := c.lru.Len()
	c.mu.Unlock()
	return Stats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load(), Builds: c.builds.Load()}
}
