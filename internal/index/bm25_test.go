package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/corsolab/ritrova/internal/errors"
	"github.com/corsolab/ritrova/internal/store"
	"github.com/corsolab/ritrova/internal/text"
)

func testScope() store.Scope {
	return store.Scope{CourseID: "fisica-1"}
}

func makeDocs(texts ...string) []*store.Document {
	docs := make([]*store.Document, len(texts))
	for i, txt := range texts {
		docs[i] = &store.Document{
			ID:         fmt.Sprintf("doc-%d", i),
			SourceID:   fmt.Sprintf("src-%d", i),
			Text:       txt,
			Scope:      testScope(),
			ChunkIndex: 0,
		}
	}
	return docs
}

func TestBuild_EmptyCorpus(t *testing.T) {
	_, err := Build(testScope(), nil, DefaultConfig())
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.ErrCodeEmptyCorpus))
}

func TestBuild_StopWordsOnlyCorpus(t *testing.T) {
	// Documents that normalize to zero tokens must fail the build, not
	// produce an index with avgDocLen == 0.
	docs := makeDocs("il la e", "di che per")
	_, err := Build(testScope(), docs, DefaultConfig())
	require.Error(t, err)
	assert.True(t, rerrors.HasCode(err, rerrors.ErrCodeEmptyCorpus))
}

func TestScore_RanksMatchingDocsFirst(t *testing.T) {
	// Given: the three-document corpus with "veloce" in docs 1 and 2 only
	docs := makeDocs(
		"il gatto corre",
		"il cane corre veloce",
		"la macchina è veloce",
	)
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	// When: scoring the query "veloce"
	scores := idx.Score(text.Normalize("veloce"))

	// Then: docs 1 and 2 outrank doc 0, which scores zero
	require.Len(t, scores, 3)
	assert.Contains(t, []int{1, 2}, scores[0].DocIndex)
	assert.Contains(t, []int{1, 2}, scores[1].DocIndex)
	assert.Equal(t, 0, scores[2].DocIndex)
	assert.Greater(t, scores[0].Score, 0.0)
	assert.Greater(t, scores[1].Score, 0.0)
	assert.Equal(t, 0.0, scores[2].Score)
}

func TestScore_SingleDocumentCorpus(t *testing.T) {
	// With one document every term has df == N and a negative raw IDF;
	// the positive floor keeps the corpus searchable.
	idx, err := Build(testScope(), makeDocs("la macchina corre veloce"), DefaultConfig())
	require.NoError(t, err)

	assert.Greater(t, idx.IDF("veloce"), 0.0)

	scores := idx.Score(text.Normalize("veloce"))
	require.Len(t, scores, 1)
	assert.True(t, scores[0].Matched)
	assert.Greater(t, scores[0].Score, 0.0)
}

func TestScore_TwoDocumentCorpus(t *testing.T) {
	// df == N/2 makes the raw IDF exactly zero; the matching document must
	// still outrank the non-matching one with a positive score.
	docs := makeDocs(
		"il gatto corre",
		"la macchina è veloce",
	)
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	scores := idx.Score(text.Normalize("veloce"))
	require.Len(t, scores, 2)
	assert.Equal(t, 1, scores[0].DocIndex)
	assert.True(t, scores[0].Matched)
	assert.Greater(t, scores[0].Score, 0.0)
	assert.False(t, scores[1].Matched)
	assert.Equal(t, 0.0, scores[1].Score)
}

func TestIDF_AlwaysPositiveForIndexedTerms(t *testing.T) {
	corpora := [][]string{
		{"la macchina corre veloce"},
		{"gatto veloce", "cane veloce"},
		{"il gatto corre", "il cane corre veloce", "la macchina è veloce"},
	}
	for _, texts := range corpora {
		idx, err := Build(testScope(), makeDocs(texts...), DefaultConfig())
		require.NoError(t, err)
		for _, term := range idx.Vocabulary() {
			assert.Greater(t, idx.IDF(term), 0.0, "term %q in %d-doc corpus", term, len(texts))
		}
	}
}

func TestScore_TermFrequencyMonotonic(t *testing.T) {
	// Holding document length constant, more occurrences of the query term
	// never score lower.
	base := strings.Fields("gatto cane macchina albero strada fiume monte")
	var prev float64
	for tf := 1; tf <= 5; tf++ {
		words := append([]string{}, base[:7-tf]...)
		for i := 0; i < tf; i++ {
			words = append(words, "veloce")
		}
		docs := makeDocs(
			strings.Join(words, " "),
			"documento qualunque senza termini utili",
			"testo generico privo di rilevanza",
		)
		idx, err := Build(testScope(), docs, DefaultConfig())
		require.NoError(t, err)

		scores := idx.Score([]string{"veloce"})
		require.Equal(t, 0, scores[0].DocIndex)
		assert.GreaterOrEqual(t, scores[0].Score, prev, "tf=%d", tf)
		prev = scores[0].Score
	}
}

func TestIDF_RarerTermsWeighMore(t *testing.T) {
	docs := makeDocs(
		"energia cinetica potenziale",
		"energia termica",
		"energia elettrica",
		"attrito radente",
	)
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	// df(attrito)=1 < df(energia)=3, so idf(attrito) > idf(energia)
	assert.Greater(t, idx.IDF("attrito"), idx.IDF("energia"))
}

func TestIDF_UnknownTermSafety(t *testing.T) {
	texts := []string{
		"energia cinetica rotazionale",
		"energia termica interna",
		"energia elettrica statica",
		"attrito radente dinamico",
		"quantità moto lineare",
		"velocità angolare media",
		"accelerazione tangenziale",
		"lavoro forza conservativa",
		"potenza media istantanea",
		"campo gravitazionale uniforme",
	}
	idx, err := Build(testScope(), makeDocs(texts...), DefaultConfig())
	require.NoError(t, err)

	// Scoring an out-of-vocabulary term never panics and never errors.
	scores := idx.Score([]string{"inesistente"})
	require.Len(t, scores, len(texts))

	// The smoothed unknown IDF sits strictly below a singleton term's IDF.
	assert.Less(t, idx.IDF("inesistente"), idx.IDF("cinetica"))
	assert.Greater(t, idx.IDF("inesistente"), 0.0)
}

func TestScore_TiesKeepCorpusOrder(t *testing.T) {
	docs := makeDocs(
		"gatto veloce",
		"cane veloce",
	)
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	scores := idx.Score([]string{"veloce"})
	require.Len(t, scores, 2)
	// Identical tf and length: stable sort keeps insertion order.
	assert.Equal(t, 0, scores[0].DocIndex)
	assert.Equal(t, 1, scores[1].DocIndex)
}

func TestStats(t *testing.T) {
	docs := makeDocs("gatto corre veloce", "cane dorme")
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	stats := idx.Stats()
	assert.Equal(t, 2, stats.DocumentCount)
	assert.Equal(t, 5, stats.TermCount)
	assert.InDelta(t, 2.5, stats.AvgDocLength, 1e-9)
}

func TestVocabulary_Sorted(t *testing.T) {
	docs := makeDocs("zaino gatto energia")
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"energia", "gatto", "zaino"}, idx.Vocabulary())
}

func TestDocumentByID(t *testing.T) {
	docs := makeDocs("gatto", "cane")
	idx, err := Build(testScope(), docs, DefaultConfig())
	require.NoError(t, err)

	require.NotNil(t, idx.DocumentByID("doc-1"))
	assert.Equal(t, "cane", idx.DocumentByID("doc-1").Text)
	assert.Nil(t, idx.DocumentByID("missing"))
}
