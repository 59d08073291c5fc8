package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mindforge-ai/conscience/internal/domain"
)

// ErrUnknownLayer is returned when a caller names a layer the store was
// not opened with.
var ErrUnknownLayer = errors.New("unknown memory layer")

// dsnPragmas enables WAL so same-layer writers queue behind the busy
// timeout while readers keep seeing the last committed state.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// indexFile is the database file name inside each layer directory.
const indexFile = "index.db"

// schema is applied idempotently every time a layer is opened. The FTS5
// table indexes record content externally and is kept in sync by
// triggers, so the records table stays the single source of truth.
const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
	content,
	content='records',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
	INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
	INSERT INTO records_fts(records_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
	INSERT INTO records_fts(records_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	INSERT INTO records_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`

// Store owns one full-text index per memory layer, each in its own
// SQLite database under the base data directory. Layers never share
// documents; operations against different layers proceed in parallel.
type Store struct {
	dbs map[domain.Layer]*sql.DB
}

// Open creates or reopens the five layer indices under baseDir. Layer
// directories are created as needed; an existing database resumes
// serving the records it held before.
func Open(baseDir string) (*Store, error) {
	s := &Store{dbs: make(map[domain.Layer]*sql.DB, len(domain.AllLayers()))}
	for _, layer := range domain.AllLayers() {
		db, err := openLayer(baseDir, layer)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open layer %s: %w", layer, err)
		}
		s.dbs[layer] = db
	}
	return s, nil
}

func openLayer(baseDir string, layer domain.Layer) (*sql.DB, error) {
	dir := filepath.Join(baseDir, string(layer))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, indexFile)+dsnPragmas)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Store commits content to the named layer's index and returns the
// fully populated record. The record is visible to searches against
// the same layer as soon as this returns.
func (s *Store) Store(ctx context.Context, layer domain.Layer, content string) (*domain.MemoryRecord, error) {
	db, err := s.db(layer)
	if err != nil {
		return nil, err
	}

	rec := &domain.MemoryRecord{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Layer:     layer,
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO records (id, content, created_at) VALUES (?, ?, ?)`,
		rec.ID, rec.Content, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// Search runs a relevance-ranked full-text query against the single
// named layer and returns at most limit records, best match first. A
// query that sanitizes to no usable terms matches nothing.
func (s *Store) Search(ctx context.Context, layer domain.Layer, query string, limit int) ([]domain.MemoryRecord, error) {
	db, err := s.db(layer)
	if err != nil {
		return nil, err
	}

	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.content, r.created_at
		 FROM records r
		 JOIN records_fts ON records_fts.rowid = r.rowid
		 WHERE records_fts MATCH ?
		 ORDER BY records_fts.rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var records []domain.MemoryRecord
	for rows.Next() {
		var rec domain.MemoryRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse record timestamp: %w", err)
		}
		rec.Layer = layer
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count reports how many records one layer holds.
func (s *Store) Count(ctx context.Context, layer domain.Layer) (int64, error) {
	db, err := s.db(layer)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Optimize merges the layer's FTS b-tree segments. Maintenance only;
// search correctness never depends on it.
func (s *Store) Optimize(ctx context.Context, layer domain.Layer) error {
	db, err := s.db(layer)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO records_fts(records_fts) VALUES ('optimize')`); err != nil {
		return fmt.Errorf("optimize index: %w", err)
	}
	return nil
}

// Ping verifies every layer database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	for layer, db := range s.dbs {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping layer %s: %w", layer, err)
		}
	}
	return nil
}

// Close closes every layer database.
func (s *Store) Close() error {
	var firstErr error
	for layer, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close layer %s: %w", layer, err)
		}
	}
	return firstErr
}

func (s *Store) db(layer domain.Layer) (*sql.DB, error) {
	db, ok := s.dbs[layer]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
	}
	return db, nil
}
