// Package store provides the document model and the SQLite-backed document
// store consumed by the retrieval engine. Documents are immutable once
// ingested; re-ingesting a source replaces its documents wholesale.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Scope is the (course, optional book) boundary that partitions the corpus
// for indexing, filtering, and cache invalidation.
type Scope struct {
	CourseID string
	BookID   string // optional; empty means all books in the course
}

// Valid reports whether the scope carries the required course identifier.
func (s Scope) Valid() bool {
	return strings.TrimSpace(s.CourseID) != ""
}

// Key returns the canonical scope identifier used for index registries and
// cache keys. A book-less scope covers the whole course.
func (s Scope) Key() string {
	if s.BookID == "" {
		return "c=" + s.CourseID
	}
	return "c=" + s.CourseID + ",b=" + s.BookID
}

// Contains reports whether a document scope falls within this scope.
// A course-wide scope contains every book of the course.
func (s Scope) Contains(other Scope) bool {
	if s.CourseID != other.CourseID {
		return false
	}
	return s.BookID == "" || s.BookID == other.BookID
}

func (s Scope) String() string {
	return s.Key()
}

// Document is an atomic unit of retrievable text with provenance metadata.
type Document struct {
	ID         string // unique document ID (UUID at ingestion)
	SourceID   string // identifier of the source material (file, book upload)
	Text       string
	Scope      Scope
	ChunkIndex int // position of this chunk within its source
	PageNumber int // 0 when unknown
	Language   string
	Tags       []string
	CreatedAt  time.Time
}

// DedupKey identifies the physical passage independently of the retrieval
// channel that found it: the same (source, chunk) retrieved by both channels
// must collapse to a single result.
func (d *Document) DedupKey() string {
	return fmt.Sprintf("%s:%d", d.SourceID, d.ChunkIndex)
}

// DocumentSource yields the corpus for a scope. It is the capability the
// ingestion pipeline exposes to the engine.
type DocumentSource interface {
	// GetDocuments returns every document within the scope, in ingestion
	// order. An empty slice is not an error; index builds decide how to
	// treat empty corpora.
	GetDocuments(ctx context.Context, scope Scope) ([]*Document, error)
}
