// SPDX-License-Identifier: MIT

// Package sqlitestore implements the document store on an embedded SQLite
// database. Documents and reports are stored as JSON rows; dotted-path
// updates go through the document package, so the engine sees identical
// semantics to any remote store.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pbartsch/mediamend/internal/document"
	"github.com/pbartsch/mediamend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS reports (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (collection, id)
);
`

// Store is a SQLite-backed store.Store.
type Store struct {
	db                *sql.DB
	reportCollections store.ReportCollections
}

// Open opens (and if needed creates) the database at path. Reports are filed
// under the configured collection names.
func Open(path string, reportCollections store.ReportCollections) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent scans.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db, reportCollections: reportCollections}, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (document.Value, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return document.Null(), fmt.Errorf("document %s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return document.Null(), fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return decodeDocument(data)
}

func (s *Store) SetDocument(ctx context.Context, collection, id string, value document.Value) error {
	data, err := encodeDocument(value)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, unixepoch())
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = unixepoch()`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, collection, id string, updates map[string]document.Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("document %s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	for path, value := range updates {
		next, applyErr := document.Apply(doc, document.ParsePath(path), value)
		if applyErr != nil {
			return fmt.Errorf("update %s/%s field %q: %w", collection, id, path, applyErr)
		}
		doc = next
	}

	encoded, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = unixepoch() WHERE collection = ? AND id = ?`,
		encoded, collection, id,
	); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (s *Store) PageCollection(ctx context.Context, collection, pageToken string, limit int) (store.Page, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? AND id > ? ORDER BY id LIMIT ?`,
		collection, pageToken, limit,
	)
	if err != nil {
		return store.Page{}, fmt.Errorf("page collection %q: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var page store.Page
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return store.Page{}, fmt.Errorf("page collection %q: %w", collection, err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return store.Page{}, fmt.Errorf("page collection %q document %q: %w", collection, id, err)
		}
		page.Documents = append(page.Documents, store.Document{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return store.Page{}, fmt.Errorf("page collection %q: %w", collection, err)
	}
	if len(page.Documents) == limit {
		page.NextPageToken = page.Documents[len(page.Documents)-1].ID
	}
	return page, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) SaveReport(ctx context.Context, kind store.ReportKind, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (collection, id, data, created_at) VALUES (?, ?, ?, unixepoch())`,
		s.reportCollections.Name(kind), id, string(data),
	)
	if err != nil {
		return fmt.Errorf("save %s report %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) LoadReport(ctx context.Context, kind store.ReportKind, id string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM reports WHERE collection = ? AND id = ?`, s.reportCollections.Name(kind), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s/%s: %w", kind, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s report %s: %w", kind, id, err)
	}
	return []byte(data), nil
}

func (s *Store) Close() error { return s.db.Close() }

func encodeDocument(v document.Value) (string, error) {
	data, err := json.Marshal(v.ToGo())
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

func decodeDocument(data string) (document.Value, error) {
	var raw any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return document.Null(), fmt.Errorf("decode document: %w", err)
	}
	return rehydrate(raw), nil
}

// rehydrate restores the timestamps encodeDocument flattened into RFC 3339
// strings, so the engine sees the same value kinds it wrote regardless of
// which store implementation served the read.
func rehydrate(v any) document.Value {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return document.Timestamp(ts)
		}
		return document.String(t)
	case []any:
		seq := make([]document.Value, len(t))
		for i := range t {
			seq[i] = rehydrate(t[i])
		}
		return document.Sequence(seq...)
	case map[string]any:
		m := make(map[string]document.Value, len(t))
		for k, mv := range t {
			m[k] = rehydrate(mv)
		}
		return document.Mapping(m)
	default:
		return document.FromGo(t)
	}
}
