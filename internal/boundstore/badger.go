package boundstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/starford/protweight/internal/bounds"
)

const keyPrefix = "bounds/"

// Badger stores bounds in an embedded Badger key-value database.
type Badger struct {
	db *badger.DB
}

var _ Store = (*Badger)(nil)

// OpenBadger opens the database directory at path, creating it if needed.
// An empty path opens an in-memory database.
func OpenBadger(path string) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("boundstore: create badger dir %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("boundstore: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func storeKey(key Key) []byte {
	return []byte(keyPrefix + key.String())
}

// Get returns the stored bounds of key.
func (s *Badger) Get(_ context.Context, key Key) (bounds.Bounds, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("boundstore: get %s: %w", key, err)
	}
	b, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put stores the bounds of key.
func (s *Badger) Put(_ context.Context, key Key, b bounds.Bounds) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(key), data)
	}); err != nil {
		return fmt.Errorf("boundstore: put %s: %w", key, err)
	}
	return nil
}

// scan calls fn for every key under prefix.
func (s *Badger) scan(ctx context.Context, prefix string, fn func(raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys lists every stored key.
func (s *Badger) Keys(ctx context.Context) ([]Key, error) {
	var out []Key
	err := s.scan(ctx, keyPrefix, func(raw []byte) error {
		k, err := parseKey(string(raw[len(keyPrefix):]))
		if err != nil {
			return err
		}
		out = append(out, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boundstore: keys: %w", err)
	}
	return out, nil
}

// Delete removes one entry.
func (s *Badger) Delete(_ context.Context, key Key) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(key))
	}); err != nil {
		return fmt.Errorf("boundstore: delete %s: %w", key, err)
	}
	return nil
}

// DeleteAccession removes every entry of accession.
func (s *Badger) DeleteAccession(ctx context.Context, accession string) error {
	var doomed [][]byte
	if err := s.scan(ctx, keyPrefix+accession+"/", func(raw []byte) error {
		doomed = append(doomed, raw)
		return nil
	}); err != nil {
		return fmt.Errorf("boundstore: delete %s: %w", accession, err)
	}
	if len(doomed) == 0 {
		return nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range doomed {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("boundstore: delete %s: %w", accession, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("boundstore: delete %s: %w", accession, err)
	}
	return nil
}

// Close closes the database.
func (s *Badger) Close() error {
	return s.db.Close()
}
