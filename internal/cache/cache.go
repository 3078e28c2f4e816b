// Package cache provides a TTL result cache for search responses, keyed by
// stage, scope, query hash, and ranking parameters.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/corsolab/ritrova/internal/store"
)

// Defaults for the result cache.
const (
	DefaultTTL  = 30 * time.Minute
	DefaultSize = 512
)

// Store is the result cache contract. The Noop implementation satisfies it
// for bypass mode.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	InvalidateScope(scope store.Scope) int
	Purge()
	Len() int
}

// Key builds a cache key from the pipeline stage, the raw query, the scope,
// the result limit, and a token describing the ranking parameters. The query
// is hashed so arbitrary text cannot break the key format.
func Key(stage, query string, scope store.Scope, k int, params string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s|%s|%s|k=%d|%s", stage, scope.Key(), hex.EncodeToString(sum[:8]), k, params)
}

// LRU is an expirable LRU result cache.
type LRU struct {
	inner *expirable.LRU[string, any]
}

var _ Store = (*LRU)(nil)

// NewLRU creates a result cache with the given capacity and TTL.
// Non-positive arguments fall back to the defaults.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU{inner: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Get returns the cached value for key, if present and not expired.
func (c *LRU) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

// Set stores a value under key.
func (c *LRU) Set(key string, value any) {
	c.inner.Add(key, value)
}

// InvalidateScope drops every entry whose scope overlaps the given scope in
// either containment direction, and returns the number of entries removed.
// Invalidating a course drops entries cached for its individual books, and
// invalidating a book also drops course-wide entries, whose results may
// include that book's documents. This mirrors index invalidation: the two
// must drop together or a cached ranking survives its index.
func (c *LRU) InvalidateScope(scope store.Scope) int {
	removed := 0
	for _, key := range c.inner.Keys() {
		// Entry scope token sits between the first two separators.
		parts := strings.SplitN(key, "|", 3)
		if len(parts) < 3 {
			continue
		}
		entry, ok := parseScopeToken(parts[1])
		if !ok {
			continue
		}
		if scope.Contains(entry) || entry.Contains(scope) {
			if c.inner.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

// parseScopeToken inverts store.Scope.Key.
func parseScopeToken(token string) (store.Scope, bool) {
	var s store.Scope
	for _, part := range strings.Split(token, ",") {
		switch {
		case strings.HasPrefix(part, "c="):
			s.CourseID = part[len("c="):]
		case strings.HasPrefix(part, "b="):
			s.BookID = part[len("b="):]
		default:
			return store.Scope{}, false
		}
	}
	return s, s.Valid()
}

// Purge drops all entries.
func (c *LRU) Purge() {
	c.inner.Purge()
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	return c.inner.Len()
}

// Noop is a cache that stores nothing. Used when caching is disabled or a
// request asks to bypass it.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Get(string) (any, bool)          { return nil, false }
func (Noop) Set(string, any)                 {}
func (Noop) InvalidateScope(store.Scope) int { return 0 }
func (Noop) Purge()                          {}
func (Noop) Len() int                        { return 0 }
