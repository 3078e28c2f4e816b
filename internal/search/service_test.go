package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsolab/ritrova/internal/cache"
	rerrors "github.com/corsolab/ritrova/internal/errors"
	"github.com/corsolab/ritrova/internal/index"
	"github.com/corsolab/ritrova/internal/store"
	"github.com/corsolab/ritrova/internal/vector"
)

// --- Test fixtures ---

type memSource struct {
	docs map[string][]*store.Document
}

func (s *memSource) GetDocuments(_ context.Context, scope store.Scope) ([]*store.Document, error) {
	return s.docs[scope.Key()], nil
}

type fakeDense struct {
	outcome vector.Outcome
	calls   int
}

func (f *fakeDense) Retrieve(_ context.Context, _ string, _ store.Scope, _ int) vector.Outcome {
	f.calls++
	return f.outcome
}

var fisica = store.Scope{CourseID: "fisica-1"}

func fisicaCorpus() []*store.Document {
	texts := []string{
		"il gatto corre nel prato",
		"il cane corre veloce",
		"la macchina è veloce sulla strada",
	}
	docs := make([]*store.Document, len(texts))
	for i, txt := range texts {
		docs[i] = &store.Document{
			ID:         []string{"doc-gatto", "doc-cane", "doc-macchina"}[i],
			SourceID:   "dispensa.txt",
			Text:       txt,
			Scope:      fisica,
			ChunkIndex: i,
			CreatedAt:  time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
	}
	return docs
}

func newTestService(dense DenseChannel, results cache.Store) *Service {
	source := &memSource{docs: map[string][]*store.Document{
		fisica.Key(): fisicaCorpus(),
	}}
	mgr := index.NewManager(source, index.DefaultConfig())
	return NewService(mgr, dense, results, DefaultServiceConfig())
}

// --- Validation ---

func TestSearch_InvalidScope(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.Search(context.Background(), "veloce", SearchOptions{})
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.ErrCodeInvalidScope))
}

func TestSearch_NegativeLimit(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.Search(context.Background(), "veloce", SearchOptions{Scope: fisica, Limit: -1})
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.ErrCodeInvalidQuery))
}

func TestSearch_ShortQueryReturnsStructuredResponse(t *testing.T) {
	svc := newTestService(nil, nil)

	// A query of stop words only is a validation failure reported in the
	// response body, never an error.
	resp, err := svc.Search(context.Background(), "il la di", SearchOptions{Scope: fisica})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.Message)
}

// --- Lexical path ---

func TestSearch_LexicalRanking(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
	})
	require.NoError(t, err)

	// Only the two documents containing "veloce" come back.
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.NotEqual(t, "doc-gatto", r.Document.ID)
		assert.Equal(t, MethodLexical, r.Channel)
		assert.True(t, r.InLexical)
		assert.False(t, r.InSemantic)
	}
	assert.Equal(t, 2, resp.TotalCount)
	assert.InDelta(t, 100.0, resp.Results[0].Score, 1e-9)
}

func TestSearch_SingleDocumentCourse(t *testing.T) {
	// Courses with one document have no term with positive raw IDF; the
	// match must still come back.
	ripasso := store.Scope{CourseID: "ripasso"}
	source := &memSource{docs: map[string][]*store.Document{
		ripasso.Key(): {{
			ID: "doc-unico", SourceID: "appunti.txt",
			Text:  "la macchina corre veloce",
			Scope: ripasso,
		}},
	}}
	mgr := index.NewManager(source, index.DefaultConfig())
	svc := NewService(mgr, nil, nil, DefaultServiceConfig())

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  ripasso,
		Method: MethodLexical,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-unico", resp.Results[0].Document.ID)
	assert.Greater(t, resp.Results[0].Score, 0.0)
}

func TestSearch_EmptyScopeDegradesGracefully(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  store.Scope{CourseID: "corso-vuoto"},
		Method: MethodHybrid,
	})
	require.NoError(t, err, "an unbuildable scope degrades, it does not crash")
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.Message)
}

// --- Hybrid path and degradation ---

func TestSearch_HybridFusesChannels(t *testing.T) {
	dense := &fakeDense{outcome: vector.Outcome{Results: []vector.ScoredHit{
		{DocID: "doc-gatto", Score: 85},
	}}}
	svc := newTestService(dense, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodHybrid,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dense.calls)

	// Lexical found cane+macchina, semantic found gatto: all three fused.
	require.Len(t, resp.Results, 3)
	channels := map[string]Method{}
	for _, r := range resp.Results {
		channels[r.Document.ID] = r.Channel
	}
	assert.Equal(t, MethodSemantic, channels["doc-gatto"])
	assert.Equal(t, MethodLexical, channels["doc-cane"])
	assert.Empty(t, resp.Message)
}

func TestSearch_DenseFailureFallsBackToLexical(t *testing.T) {
	dense := &fakeDense{outcome: vector.Outcome{
		Failure: rerrors.ChannelUnavailable("semantic", errors.New("connection refused")),
	}}
	svc := newTestService(dense, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodHybrid,
	})
	require.NoError(t, err, "partial failure degrades, it is not surfaced")

	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, MethodLexical, r.Channel)
	}
	assert.Contains(t, resp.Message, "semantic search unavailable")
}

func TestSearch_SemanticMethodWithFailedChannel(t *testing.T) {
	dense := &fakeDense{outcome: vector.Outcome{
		Failure: rerrors.ChannelUnavailable("semantic", errors.New("timeout")),
	}}
	svc := newTestService(dense, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodSemantic,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.Message)
}

func TestSearch_StaleVectorIDsSkipped(t *testing.T) {
	dense := &fakeDense{outcome: vector.Outcome{Results: []vector.ScoredHit{
		{DocID: "doc-rimosso", Score: 99},
		{DocID: "doc-gatto", Score: 50},
	}}}
	svc := newTestService(dense, nil)

	resp, err := svc.Search(context.Background(), "gatto", SearchOptions{
		Scope:  fisica,
		Method: MethodSemantic,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-gatto", resp.Results[0].Document.ID)
}

// --- Finalization ---

func TestSearch_LimitAndTotalCount(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "corre veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
		Limit:  1,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 3, resp.TotalCount)
}

func TestSearch_SortDateOverridesRelevance(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "corre veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
		Sort:   SortDate,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Results), 2)
	for i := 1; i < len(resp.Results); i++ {
		prev := resp.Results[i-1].Document.CreatedAt
		cur := resp.Results[i].Document.CreatedAt
		assert.False(t, prev.Before(cur), "results must be newest first")
	}
}

func TestSearch_FacetsCoverReturnedPage(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
	})
	require.NoError(t, err)
	assert.Equal(t, len(resp.Results), resp.Facets.BySource["dispensa.txt"])
	assert.Equal(t, len(resp.Results), resp.Facets.ByScope[fisica.Key()])
	assert.Equal(t, len(resp.Results), resp.Facets.ByChannel[string(MethodLexical)])
}

func TestSearch_HighlightsAttached(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	require.NotEmpty(t, resp.Results[0].Highlights)
	assert.Contains(t, resp.Results[0].Highlights[0], "veloce")
}

func TestSearch_FilterByMinTextLength(t *testing.T) {
	svc := newTestService(nil, nil)

	resp, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:  fisica,
		Method: MethodLexical,
		Filter: &SearchFilter{MinTextLength: 25},
	})
	require.NoError(t, err)
	// Only "la macchina è veloce sulla strada" is long enough.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-macchina", resp.Results[0].Document.ID)
}

// --- Caching ---

func TestSearch_CachesAndInvalidatesByScope(t *testing.T) {
	results := cache.NewLRU(16, time.Minute)
	source := &memSource{docs: map[string][]*store.Document{
		fisica.Key(): fisicaCorpus(),
		"c=storia-2": {{
			ID: "doc-storia", SourceID: "storia.txt",
			Text:  "la rivoluzione industriale era veloce",
			Scope: store.Scope{CourseID: "storia-2"},
		}},
	}}
	mgr := index.NewManager(source, index.DefaultConfig())
	svc := NewService(mgr, nil, results, DefaultServiceConfig())

	_, err := svc.Search(context.Background(), "veloce", SearchOptions{Scope: fisica, Method: MethodLexical})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "veloce", SearchOptions{Scope: store.Scope{CourseID: "storia-2"}, Method: MethodLexical})
	require.NoError(t, err)
	require.Equal(t, 2, results.Len())

	// Invalidating fisica drops its cache entry and index, storia survives.
	svc.InvalidateCache(fisica)
	assert.Equal(t, 1, results.Len())
	_, fisicaBuilt := mgr.Peek(fisica)
	assert.False(t, fisicaBuilt)
	_, storiaBuilt := mgr.Peek(store.Scope{CourseID: "storia-2"})
	assert.True(t, storiaBuilt)
}

func TestInvalidateCache_BookScopeDropsCourseEntries(t *testing.T) {
	results := cache.NewLRU(16, time.Minute)
	svc := newTestService(nil, results)

	_, err := svc.Search(context.Background(), "veloce", SearchOptions{Scope: fisica, Method: MethodLexical})
	require.NoError(t, err)
	require.Equal(t, 1, results.Len())

	// Re-ingesting one book changes what a course-wide search should
	// return, so the course-wide cache entry and index must both go.
	book := store.Scope{CourseID: fisica.CourseID, BookID: "meccanica"}
	svc.InvalidateCache(book)

	assert.Equal(t, 0, results.Len(), "course-wide cached response must not outlive the book's corpus")
	_, built := svc.indexes.Peek(fisica)
	assert.False(t, built)
}

func TestSearch_CachedResponseNotAliased(t *testing.T) {
	results := cache.NewLRU(16, time.Minute)
	svc := newTestService(nil, results)
	opts := SearchOptions{Scope: fisica, Method: MethodLexical}

	first, err := svc.Search(context.Background(), "veloce", opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.Results)
	wantScore := first.Results[0].Score
	require.NotEmpty(t, first.Results[0].Highlights)
	wantHighlight := first.Results[0].Highlights[0]

	// A caller mutating its response must not corrupt the cached entry.
	first.Results[0].Score = -1
	first.Results[0].Highlights[0] = "manomesso"
	first.Results = first.Results[:0]

	second, err := svc.Search(context.Background(), "veloce", opts)
	require.NoError(t, err)
	require.NotEmpty(t, second.Results)
	assert.Equal(t, wantScore, second.Results[0].Score)
	assert.Equal(t, wantHighlight, second.Results[0].Highlights[0])
}

func TestSearch_BypassCacheSkipsStore(t *testing.T) {
	results := cache.NewLRU(16, time.Minute)
	svc := newTestService(nil, results)

	_, err := svc.Search(context.Background(), "veloce", SearchOptions{
		Scope:       fisica,
		Method:      MethodLexical,
		BypassCache: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, results.Len())
}

func TestParamsToken_SensitiveToFusionParams(t *testing.T) {
	mgr := index.NewManager(&memSource{docs: map[string][]*store.Document{}}, index.DefaultConfig())

	cfgA := DefaultServiceConfig()
	cfgB := DefaultServiceConfig()
	cfgB.Weights = Weights{Lexical: 0.7, Semantic: 0.3}
	cfgC := DefaultServiceConfig()
	cfgC.FusionMethod = FusionRRF

	opts := SearchOptions{Scope: fisica, Method: MethodHybrid, Sort: SortRelevance}
	tokenA := NewService(mgr, nil, nil, cfgA).paramsToken(opts)
	tokenB := NewService(mgr, nil, nil, cfgB).paramsToken(opts)
	tokenC := NewService(mgr, nil, nil, cfgC).paramsToken(opts)

	assert.NotEqual(t, tokenA, tokenB, "weight changes must change the cache key")
	assert.NotEqual(t, tokenA, tokenC, "fusion method changes must change the cache key")
}

// --- Suggestions ---

func TestSuggest_PrefixCompletions(t *testing.T) {
	svc := newTestService(nil, nil)
	require.NoError(t, svc.BuildIndex(context.Background(), fisica))

	suggestions := svc.Suggest("vel", 10)
	assert.Equal(t, []string{"veloce"}, suggestions)

	suggestions = svc.Suggest("c", 10)
	assert.Contains(t, suggestions, "cane")
	assert.Contains(t, suggestions, "corre")
}

func TestBuildIndex_EmptyScope(t *testing.T) {
	svc := newTestService(nil, nil)

	err := svc.BuildIndex(context.Background(), store.Scope{CourseID: "vuoto"})
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.ErrCodeEmptyCorpus))
}
