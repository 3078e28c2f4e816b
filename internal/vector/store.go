// Package vector implements the dense retrieval channel: an HNSW vector
// store over chunk embeddings and a fail-soft retriever on top of it.
package vector

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/corsolab/ritrova/internal/store"
)

// Config configures the HNSW vector store.
type Config struct {
	Dimensions int
	M          int
	EfSearch   int
}

// Hit is a single nearest-neighbor match.
type Hit struct {
	DocID    string
	Distance float32
}

// Store is an in-memory HNSW vector store with scope metadata per entry,
// so searches can be restricted to a course or book. Deletions are lazy:
// the graph node stays behind but is never returned.
type Store struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config Config

	idMap   map[string]uint64
	keyMap  map[uint64]string
	scopes  map[string]store.Scope
	nextKey uint64

	closed bool
}

// storeMetadata carries ID mappings and scope tags for persistence.
type storeMetadata struct {
	IDMap   map[string]uint64
	Scopes  map[string]store.Scope
	NextKey uint64
	Config  Config
}

// NewStore creates an HNSW vector store with cosine distance.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector store requires positive dimensions, got %d", cfg.Dimensions)
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &Store{
		graph:  graph,
		config: cfg,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
		scopes: make(map[string]store.Scope),
	}, nil
}

// Add inserts vectors tagged with the scope of their source documents.
// Existing IDs are replaced via lazy deletion of the old graph node.
func (s *Store) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("documents and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.config.Dimensions, len(v))
		}
	}

	for i, doc := range docs {
		if existingKey, exists := s.idMap[doc.ID]; exists {
			delete(s.keyMap, existingKey)
			delete(s.idMap, doc.ID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[doc.ID] = key
		s.keyMap[key] = doc.ID
		s.scopes[doc.ID] = doc.Scope
	}

	return nil
}

// Search returns the k nearest neighbors within the given scope. The graph
// carries mixed scopes, so we overfetch and filter the results down.
func (s *Store) Search(ctx context.Context, query []float32, scope store.Scope, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.config.Dimensions, len(query))
	}
	if s.graph.Len() == 0 || k <= 0 {
		return []Hit{}, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	// Overfetch to compensate for out-of-scope and lazily deleted nodes.
	fetch := k * 4
	if fetch > s.graph.Len() {
		fetch = s.graph.Len()
	}
	nodes := s.graph.Search(normalized, fetch)

	hits := make([]Hit, 0, k)
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			continue
		}
		if docScope, ok := s.scopes[id]; !ok || !scope.Contains(docScope) {
			continue
		}
		hits = append(hits, Hit{
			DocID:    id,
			Distance: s.graph.Distance(normalized, node.Value),
		})
		if len(hits) == k {
			break
		}
	}

	return hits, nil
}

// Delete removes vectors by document ID. The graph nodes are orphaned
// rather than removed.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, id := range ids {
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
			delete(s.scopes, id)
		}
	}
	return nil
}

// DeleteScope removes all vectors whose scope falls within the given scope.
func (s *Store) DeleteScope(ctx context.Context, scope store.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for id, docScope := range s.scopes {
		if scope.Contains(docScope) {
			if key, exists := s.idMap[id]; exists {
				delete(s.keyMap, key)
				delete(s.idMap, id)
			}
			delete(s.scopes, id)
		}
	}
	return nil
}

// Contains reports whether the document ID has an active vector.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	_, exists := s.idMap[id]
	return exists
}

// Count returns the number of active vectors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.idMap)
}

// Dimensions returns the configured vector width.
func (s *Store) Dimensions() int {
	return s.config.Dimensions
}

// Save persists the graph and its metadata to disk atomically.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create vector store directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(path + ".meta")
}

func (s *Store) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}

	meta := storeMetadata{
		IDMap:   s.idMap,
		Scopes:  s.scopes,
		NextKey: s.nextKey,
		Config:  s.config,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load restores the graph and metadata from disk.
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// coder/hnsw Import requires an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func (s *Store) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var meta storeMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	s.idMap = meta.IDMap
	s.scopes = meta.Scopes
	s.nextKey = meta.NextKey
	s.config = meta.Config
	s.keyMap = make(map[uint64]string, len(s.idMap))
	for id, key := range s.idMap {
		s.keyMap[key] = id
	}
	if s.scopes == nil {
		s.scopes = make(map[string]store.Scope)
	}
	return nil
}

// Close releases the graph.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
