// Package index implements the in-memory lexical index: Okapi BM25 scoring
// over a scope's corpus, with a scope-keyed manager that builds indexes
// lazily and swaps them wholesale on rebuild.
package index

import (
	"math"
	"sort"

	rerrors "github.com/corsolab/ritrova/internal/errors"
	"github.com/corsolab/ritrova/internal/store"
	"github.com/corsolab/ritrova/internal/text"
)

// Config holds the BM25 ranking parameters. The defaults are tuned for the
// length distribution of Italian course-material chunks.
type Config struct {
	// K1 is the term-frequency saturation parameter.
	K1 float64
	// B is the length-normalization strength.
	B float64
	// Epsilon offsets the smoothed unknown-term IDF below the corpus minimum.
	Epsilon float64
}

// DefaultConfig returns the default BM25 parameters.
func DefaultConfig() Config {
	return Config{K1: 1.2, B: 0.75, Epsilon: 0.25}
}

// Stats describes a built index.
type Stats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// DocScore pairs a corpus position with its BM25 score for a query.
// Matched distinguishes a genuine zero score from the absence of any query
// term in the document.
type DocScore struct {
	DocIndex int
	Score    float64
	Matched  bool
}

// Index is an immutable BM25 index over one scope's corpus. All fields are
// fixed at build time; concurrent readers share it without locking. Rebuilds
// produce a fresh Index that the Manager swaps in.
type Index struct {
	scope      store.Scope
	docs       []*store.Document
	termFreqs  []map[string]int // per-document term counts
	docLens    []int            // per-document token counts
	idf        map[string]float64
	unknownIDF float64
	avgDocLen  float64
	cfg        Config
	docByID    map[string]*store.Document
	vocab      []string // sorted vocabulary snapshot for suggestions
}

// Build constructs an index from a corpus. It fails with an empty-corpus
// error when there are no documents or no document yields any valid token:
// a degenerate index with avgDocLen == 0 would divide by zero at query time.
func Build(scope store.Scope, docs []*store.Document, cfg Config) (*Index, error) {
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultConfig().K1
	}
	if cfg.B < 0 || cfg.B > 1 {
		cfg.B = DefaultConfig().B
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultConfig().Epsilon
	}

	if len(docs) == 0 {
		return nil, rerrors.EmptyCorpus(scope.Key())
	}

	idx := &Index{
		scope:     scope,
		docs:      docs,
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		idf:       make(map[string]float64),
		cfg:       cfg,
		docByID:   make(map[string]*store.Document, len(docs)),
	}

	df := make(map[string]int)
	totalLen := 0

	for i, doc := range docs {
		tokens := text.Normalize(doc.Text)
		freqs := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freqs[t]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range freqs {
			df[term]++
		}
		idx.docByID[doc.ID] = doc
	}

	if totalLen == 0 {
		return nil, rerrors.EmptyCorpus(scope.Key())
	}

	n := float64(len(docs))
	idx.avgDocLen = float64(totalLen) / n

	idfSum := 0.0
	for term, d := range df {
		v := math.Log((n - float64(d) + 0.5) / (float64(d) + 0.5))
		idx.idf[term] = v
		idfSum += v
	}

	// Terms in half the corpus or more get a non-positive raw IDF, which
	// would rank a matching document at or below a non-matching one.
	// Replace those with a small positive floor proportional to the
	// average IDF. On tiny corpora the average itself can be non-positive,
	// so the floor bottoms out at Epsilon: every indexed term must carry a
	// strictly positive weight or matching documents become unfindable.
	avgIDF := idfSum / float64(len(idx.idf))
	floor := cfg.Epsilon * avgIDF
	if floor <= 0 {
		floor = cfg.Epsilon
	}
	maxIDF := math.Inf(-1)
	for term, v := range idx.idf {
		if v <= 0 {
			v = floor
			idx.idf[term] = v
		}
		if v > maxIDF {
			maxIDF = v
		}
	}

	// Out-of-vocabulary terms score with a smoothed IDF below every known
	// term, so any query term contributes a bounded value instead of a miss.
	idx.unknownIDF = math.Log(n+1) - maxIDF - cfg.Epsilon

	idx.vocab = make([]string, 0, len(idx.idf))
	for term := range idx.idf {
		idx.vocab = append(idx.vocab, term)
	}
	sort.Strings(idx.vocab)

	return idx, nil
}

// IDF returns the inverse document frequency for a term, falling back to the
// smoothed unknown-term value for out-of-vocabulary input.
func (x *Index) IDF(term string) float64 {
	if v, ok := x.idf[term]; ok {
		return v
	}
	return x.unknownIDF
}

// Score computes the BM25 score of every corpus document against the query
// tokens, returned in descending score order (ties keep corpus order).
// Unknown terms never error; they contribute through the smoothed IDF with
// zero term frequency, i.e. nothing.
func (x *Index) Score(queryTokens []string) []DocScore {
	scores := make([]DocScore, len(x.docs))
	for i := range x.docs {
		score, matched := x.scoreDoc(i, queryTokens)
		scores[i] = DocScore{DocIndex: i, Score: score, Matched: matched}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})

	return scores
}

// scoreDoc applies the Okapi BM25 formula for one document. The second
// return reports whether any query term occurs in the document.
func (x *Index) scoreDoc(i int, queryTokens []string) (float64, bool) {
	freqs := x.termFreqs[i]
	docLen := float64(x.docLens[i])
	norm := x.cfg.K1 * (1 - x.cfg.B + x.cfg.B*docLen/x.avgDocLen)

	score := 0.0
	matched := false
	for _, term := range queryTokens {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		matched = true
		score += x.IDF(term) * (tf * (x.cfg.K1 + 1)) / (tf + norm)
	}
	return score, matched
}

// Document returns the corpus document at position i.
func (x *Index) Document(i int) *store.Document {
	return x.docs[i]
}

// DocumentByID resolves a document ID to its corpus document, used by the
// dense channel to attach provenance. Returns nil when the ID is not part
// of this scope's corpus (e.g. a stale vector-store entry).
func (x *Index) DocumentByID(id string) *store.Document {
	return x.docByID[id]
}

// Vocabulary returns the sorted term vocabulary snapshot.
func (x *Index) Vocabulary() []string {
	return x.vocab
}

// Scope returns the scope this index covers.
func (x *Index) Scope() store.Scope {
	return x.scope
}

// Stats returns index statistics.
func (x *Index) Stats() Stats {
	return Stats{
		DocumentCount: len(x.docs),
		TermCount:     len(x.idf),
		AvgDocLength:  x.avgDocLen,
	}
}
