package boundcache

import (
	"context"
	"log/slog"

	"github.com/starford/protweight/internal/boundstore"
	"github.com/starford/protweight/internal/storage"
)

// Sync removes persisted bounds whose graph file no longer exists or no
// longer has the checksum the bounds were built from. It returns the
// number of removed entries.
func Sync(ctx context.Context, store boundstore.Store, graphs storage.Provider, logger *slog.Logger) (int, error) {
	metas, err := graphs.List()
	if err != nil {
		return 0, err
	}
	current := make(map[string]string, len(metas))
	for _, m := range metas {
		current[m.Accession] = m.Checksum
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range keys {
		if cs, ok := current[k.Accession]; ok && cs == k.Checksum {
			continue
		}
		if err := store.Delete(ctx, k); err != nil {
			logger.Warn("sync: delete failed", slog.String("key", k.String()), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("key", k.String()))
	}
	return removed, nil
}
