package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	rerrors "github.com/corsolab/ritrova/internal/errors"
)

// schema is the document store schema. Documents are immutable rows;
// re-ingestion of a source deletes and re-inserts.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	source_id   TEXT NOT NULL,
	course_id   TEXT NOT NULL,
	book_id     TEXT NOT NULL DEFAULT '',
	chunk_index INTEGER NOT NULL,
	page_number INTEGER NOT NULL DEFAULT 0,
	language    TEXT NOT NULL DEFAULT 'it',
	tags        TEXT NOT NULL DEFAULT '',
	text        TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(course_id, book_id);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_id);
`

// SQLiteStore persists documents in SQLite and implements DocumentSource.
// Safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Verify interface implementation at compile time.
var _ DocumentSource = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) a document store at path.
// Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, fmt.Errorf("open document store: %w", err))
	}

	// WAL allows concurrent readers during ingestion.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, fmt.Errorf("configure document store: %w", err))
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, fmt.Errorf("migrate document store: %w", err))
	}

	return &SQLiteStore{db: db}, nil
}

// SaveDocuments inserts documents in a single transaction. Existing rows for
// the same source are replaced first, so re-ingestion is atomic per source.
func (s *SQLiteStore) SaveDocuments(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replace per source: any corpus change is a full re-ingestion.
	seen := make(map[string]struct{})
	for _, d := range docs {
		if _, ok := seen[d.SourceID]; ok {
			continue
		}
		seen[d.SourceID] = struct{}{}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE source_id = ?", d.SourceID); err != nil {
			return rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, source_id, course_id, book_id, chunk_index, page_number, language, tags, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		createdAt := d.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			d.ID, d.SourceID, d.Scope.CourseID, d.Scope.BookID,
			d.ChunkIndex, d.PageNumber, d.Language,
			strings.Join(d.Tags, ","), d.Text, createdAt)
		if err != nil {
			return rerrors.Wrap(rerrors.ErrCodeStoreIO, fmt.Errorf("insert document %s: %w", d.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	return nil
}

// GetDocuments returns all documents within a scope, ordered by source and
// chunk position. Implements DocumentSource.
func (s *SQLiteStore) GetDocuments(ctx context.Context, scope Scope) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, source_id, course_id, book_id, chunk_index, page_number, language, tags, text, created_at
		FROM documents WHERE course_id = ?`
	args := []any{scope.CourseID}
	if scope.BookID != "" {
		query += " AND book_id = ?"
		args = append(args, scope.BookID)
	}
	query += " ORDER BY source_id, chunk_index"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		var d Document
		var tags string
		if err := rows.Scan(&d.ID, &d.SourceID, &d.Scope.CourseID, &d.Scope.BookID,
			&d.ChunkIndex, &d.PageNumber, &d.Language, &tags, &d.Text, &d.CreatedAt); err != nil {
			return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
		}
		if tags != "" {
			d.Tags = strings.Split(tags, ",")
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}

	return docs, nil
}

// DeleteSource removes all documents produced by one source. The caller is
// responsible for invalidating caches and indexes for the affected scope.
func (s *SQLiteStore) DeleteSource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE source_id = ?", sourceID); err != nil {
		return rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	return nil
}

// CountDocuments returns the number of documents in a scope.
func (s *SQLiteStore) CountDocuments(ctx context.Context, scope Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT COUNT(*) FROM documents WHERE course_id = ?"
	args := []any{scope.CourseID}
	if scope.BookID != "" {
		query += " AND book_id = ?"
		args = append(args, scope.BookID)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, rerrors.Wrap(rerrors.ErrCodeStoreIO, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
