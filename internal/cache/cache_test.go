package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsolab/ritrova/internal/store"
)

var (
	fisica    = store.Scope{CourseID: "fisica-1"}
	meccanica = store.Scope{CourseID: "fisica-1", BookID: "meccanica"}
	storia    = store.Scope{CourseID: "storia-2"}
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("search", "energia cinetica", fisica, 10, "m=hybrid")
	b := Key("search", "energia cinetica", fisica, 10, "m=hybrid")
	assert.Equal(t, a, b)
}

func TestKey_SensitiveToEveryComponent(t *testing.T) {
	base := Key("search", "energia", fisica, 10, "m=hybrid")

	assert.NotEqual(t, base, Key("lexical", "energia", fisica, 10, "m=hybrid"))
	assert.NotEqual(t, base, Key("search", "attrito", fisica, 10, "m=hybrid"))
	assert.NotEqual(t, base, Key("search", "energia", storia, 10, "m=hybrid"))
	assert.NotEqual(t, base, Key("search", "energia", fisica, 20, "m=hybrid"))
	assert.NotEqual(t, base, Key("search", "energia", fisica, 10, "m=rrf"))
}

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(8, time.Minute)

	key := Key("search", "energia", fisica, 10, "p")
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, "value")
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestLRU_InvalidateScope(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set(Key("search", "energia", fisica, 10, "p"), 1)
	c.Set(Key("search", "attrito", fisica, 10, "p"), 2)
	c.Set(Key("search", "energia", storia, 10, "p"), 3)

	removed := c.InvalidateScope(fisica)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(Key("search", "energia", storia, 10, "p"))
	assert.True(t, ok, "entries of other scopes must survive")
}

func TestLRU_InvalidateCourseCoversBooks(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set(Key("search", "energia", meccanica, 10, "p"), 1)

	removed := c.InvalidateScope(fisica)

	assert.Equal(t, 1, removed, "course invalidation drops book-scoped entries")
	assert.Equal(t, 0, c.Len())
}

func TestLRU_InvalidateBookDropsCourseWide(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set(Key("search", "energia", fisica, 10, "p"), 1)
	c.Set(Key("search", "energia", meccanica, 10, "p"), 2)
	termo := store.Scope{CourseID: "fisica-1", BookID: "termodinamica"}
	c.Set(Key("search", "energia", termo, 10, "p"), 3)

	removed := c.InvalidateScope(meccanica)

	// Course-wide results may include the book's documents, so they go too.
	assert.Equal(t, 2, removed)
	_, ok := c.Get(Key("search", "energia", fisica, 10, "p"))
	assert.False(t, ok, "course-wide entries drop with the book")
	_, ok = c.Get(Key("search", "energia", termo, 10, "p"))
	assert.True(t, ok, "sibling book entries survive")
}

func TestLRU_SimilarScopePrefixUnaffected(t *testing.T) {
	c := NewLRU(8, time.Minute)
	similar := store.Scope{CourseID: "fisica-10"}
	c.Set(Key("search", "energia", similar, 10, "p"), 1)

	removed := c.InvalidateScope(fisica)

	assert.Equal(t, 0, removed, "fisica-10 is not within fisica-1")
	assert.Equal(t, 1, c.Len())
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU(8, 20*time.Millisecond)
	key := Key("search", "energia", fisica, 10, "p")
	c.Set(key, 1)

	_, ok := c.Get(key)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "entries expire after the TTL")
}

func TestLRU_Purge(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set(Key("search", "energia", fisica, 10, "p"), 1)
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNoop_StoresNothing(t *testing.T) {
	var c Store = Noop{}
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.InvalidateScope(fisica))
}
