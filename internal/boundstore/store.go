// Package boundstore persists reachability bounds so that they survive
// restarts. Entries are keyed by accession, graph checksum and bound width;
// a changed graph file therefore never reads stale bounds.
package boundstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/protweight/internal/bounds"
)

// Key identifies one persisted bound table.
type Key struct {
	Accession string
	Checksum  string
	K         int
}

func (k Key) String() string {
	return k.Accession + "/" + k.Checksum + "/" + strconv.Itoa(k.K)
}

func parseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("boundstore: malformed key %q", s)
	}
	k, err := strconv.Atoi(parts[2])
	if err != nil {
		return Key{}, fmt.Errorf("boundstore: malformed key %q: %w", s, err)
	}
	return Key{Accession: parts[0], Checksum: parts[1], K: k}, nil
}

// Store is the persistence interface of the bound cache.
type Store interface {
	// Get returns the bounds of key; ok is false when none are stored.
	Get(ctx context.Context, key Key) (b bounds.Bounds, ok bool, err error)
	// Put stores b under key, replacing any previous entry.
	Put(ctx context.Context, key Key, b bounds.Bounds) error
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]Key, error)
	// Delete removes one entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// DeleteAccession removes every entry of accession.
	DeleteAccession(ctx context.Context, accession string) error
	Close() error
}

func encode(b bounds.Bounds) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("boundstore: encode: %w", err)
	}
	return data, nil
}

func decode(data []byte) (bounds.Bounds, error) {
	var b bounds.Bounds
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("boundstore: decode: %w", err)
	}
	return b, nil
}

// Open returns the store for driver: "sqlite", "badger" or "memory".
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(path)
	case "badger":
		return OpenBadger(path)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("boundstore: unknown driver %q", driver)
}
