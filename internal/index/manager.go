package index

import (
	"context"
	"log/slog"
	"sync"

	"github.com/corsolab/ritrova/internal/store"
)

// Manager owns one immutable Index per scope. Indexes are built lazily on
// first use and replaced with copy-and-swap on rebuild: a build runs against
// the document source outside the lock, then the finished index is swapped
// in under the lock. Readers holding the previous index keep a consistent
// snapshot; they never observe a partially built one.
type Manager struct {
	source store.DocumentSource
	cfg    Config

	mu      sync.RWMutex
	indexes map[string]*Index
}

// NewManager creates a manager over the given document source.
func NewManager(source store.DocumentSource, cfg Config) *Manager {
	return &Manager{
		source:  source,
		cfg:     cfg,
		indexes: make(map[string]*Index),
	}
}

// Get returns the index for a scope, building it on first use.
func (m *Manager) Get(ctx context.Context, scope store.Scope) (*Index, error) {
	m.mu.RLock()
	idx, ok := m.indexes[scope.Key()]
	m.mu.RUnlock()
	if ok {
		return idx, nil
	}
	return m.Build(ctx, scope)
}

// Peek returns the index for a scope if it has been built, without
// triggering a build.
func (m *Manager) Peek(scope store.Scope) (*Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[scope.Key()]
	return idx, ok
}

// PeekKey is Peek by scope key, for callers iterating Scopes().
func (m *Manager) PeekKey(key string) (*Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[key]
	return idx, ok
}

// Build constructs the scope's index from the document source and swaps it
// in. Idempotent: rebuilding an existing scope replaces it wholesale.
//
// The build runs on a detached context: an index rebuild is background
// maintenance, and the cancellation of whichever request happened to trigger
// it must not abort it for everyone else.
func (m *Manager) Build(ctx context.Context, scope store.Scope) (*Index, error) {
	buildCtx := context.WithoutCancel(ctx)

	docs, err := m.source.GetDocuments(buildCtx, scope)
	if err != nil {
		return nil, err
	}

	idx, err := Build(scope, docs, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.indexes[scope.Key()] = idx
	m.mu.Unlock()

	stats := idx.Stats()
	slog.Debug("lexical_index_built",
		slog.String("scope", scope.Key()),
		slog.Int("documents", stats.DocumentCount),
		slog.Int("terms", stats.TermCount),
		slog.Float64("avg_doc_length", stats.AvgDocLength))

	return idx, nil
}

// Invalidate drops the index for a scope. When the scope covers a whole
// course, every book-level index of that course is dropped too, so a corpus
// change can never leave a narrower stale index behind.
func (m *Manager) Invalidate(scope store.Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, idx := range m.indexes {
		if scope.Contains(idx.Scope()) || idx.Scope().Contains(scope) {
			delete(m.indexes, key)
		}
	}
}

// Scopes returns the keys of all currently built indexes.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.indexes))
	for k := range m.indexes {
		keys = append(keys, k)
	}
	return keys
}
