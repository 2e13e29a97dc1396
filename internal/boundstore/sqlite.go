package boundstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/protweight/internal/bounds"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bounds (
	accession TEXT    NOT NULL,
	checksum  TEXT    NOT NULL,
	k         INTEGER NOT NULL,
	data      BLOB    NOT NULL,
	built_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (accession, checksum, k)
);

CREATE INDEX IF NOT EXISTS idx_bounds_accession ON bounds(accession);
`

// SQLite stores bounds in a single SQLite table.
type SQLite struct {
	conn *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("boundstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("boundstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("boundstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Get returns the stored bounds of key.
func (s *SQLite) Get(ctx context.Context, key Key) (bounds.Bounds, bool, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx,
		`SELECT data FROM bounds WHERE accession = ? AND checksum = ? AND k = ?`,
		key.Accession, key.Checksum, key.K,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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

// Put upserts the bounds of key.
func (s *SQLite) Put(ctx context.Context, key Key, b bounds.Bounds) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO bounds (accession, checksum, k, data, built_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(accession, checksum, k) DO UPDATE SET
			data     = excluded.data,
			built_at = excluded.built_at
	`, key.Accession, key.Checksum, key.K, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("boundstore: put %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key.
func (s *SQLite) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT accession, checksum, k FROM bounds ORDER BY accession, k`)
	if err != nil {
		return nil, fmt.Errorf("boundstore: keys: %w", err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Accession, &k.Checksum, &k.K); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Delete removes one entry.
func (s *SQLite) Delete(ctx context.Context, key Key) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM bounds WHERE accession = ? AND checksum = ? AND k = ?`,
		key.Accession, key.Checksum, key.K)
	if err != nil {
		return fmt.Errorf("boundstore: delete %s: %w", key, err)
	}
	return nil
}

// DeleteAccession removes every entry of accession.
func (s *SQLite) DeleteAccession(ctx context.Context, accession string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM bounds WHERE accession = ?`, accession); err != nil {
		return fmt.Errorf("boundstore: delete %s: %w", accession, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
