// Package search implements the hybrid retrieval core: query expansion,
// channel fusion, and the orchestrator that combines the lexical index with
// the dense retriever into one ranked, deduplicated result list.
package search

import (
	"fmt"
	"time"

	"github.com/corsolab/ritrova/internal/store"
)

// Method selects the retrieval channel(s) for a search.
type Method string

const (
	MethodLexical  Method = "lexical"
	MethodSemantic Method = "semantic"
	MethodHybrid   Method = "hybrid"
)

// Valid reports whether the method is one of the recognized values.
func (m Method) Valid() bool {
	switch m {
	case MethodLexical, MethodSemantic, MethodHybrid:
		return true
	}
	return false
}

// SortOrder controls final result ordering. Anything other than relevance
// replaces the fused ranking outright instead of blending with it.
type SortOrder string

const (
	SortRelevance    SortOrder = "relevance"
	SortDate         SortOrder = "date"
	SortAlphabetical SortOrder = "alphabetical"
	SortConfidence   SortOrder = "confidence"
)

// Valid reports whether the sort order is recognized. An empty value is
// treated as relevance by the orchestrator.
func (s SortOrder) Valid() bool {
	switch s {
	case SortRelevance, SortDate, SortAlphabetical, SortConfidence, "":
		return true
	}
	return false
}

// FusionMethod selects the fusion algorithm for hybrid searches.
type FusionMethod string

const (
	FusionWeighted FusionMethod = "weighted"
	FusionRRF      FusionMethod = "rrf"
)

// Weights holds the channel weights for weighted-sum fusion.
type Weights struct {
	Lexical  float64
	Semantic float64
}

// DefaultWeights favors the semantic channel 0.6 to 0.4.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.4, Semantic: 0.6}
}

// Normalize rescales the weights to sum to 1.0. Degenerate weights fall
// back to the defaults.
func (w Weights) Normalize() Weights {
	sum := w.Lexical + w.Semantic
	if w.Lexical < 0 || w.Semantic < 0 || sum == 0 {
		return DefaultWeights()
	}
	return Weights{Lexical: w.Lexical / sum, Semantic: w.Semantic / sum}
}

// SearchFilter enumerates every recognized result filter. Zero values mean
// "no constraint" for that field.
type SearchFilter struct {
	CourseIDs     []string
	BookIDs       []string
	Tags          []string
	DateFrom      time.Time
	DateTo        time.Time
	ConfidenceMin float64 // applied to the normalized 0-100 score
	ConfidenceMax float64
	PageFrom      int
	PageTo        int
	IsPublic      *bool // matches the "public" document tag
	IsFavorite    *bool // matches the "favorite" document tag
	MinTextLength int
}

// matchesDocument applies the document-level constraints.
func (f *SearchFilter) matchesDocument(doc *store.Document) bool {
	if f == nil {
		return true
	}
	if len(f.CourseIDs) > 0 && !containsString(f.CourseIDs, doc.Scope.CourseID) {
		return false
	}
	if len(f.BookIDs) > 0 && !containsString(f.BookIDs, doc.Scope.BookID) {
		return false
	}
	for _, tag := range f.Tags {
		if !containsString(doc.Tags, tag) {
			return false
		}
	}
	if !f.DateFrom.IsZero() && doc.CreatedAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && doc.CreatedAt.After(f.DateTo) {
		return false
	}
	if f.PageFrom > 0 && doc.PageNumber < f.PageFrom {
		return false
	}
	if f.PageTo > 0 && doc.PageNumber > f.PageTo {
		return false
	}
	if f.IsPublic != nil && containsString(doc.Tags, "public") != *f.IsPublic {
		return false
	}
	if f.IsFavorite != nil && containsString(doc.Tags, "favorite") != *f.IsFavorite {
		return false
	}
	if f.MinTextLength > 0 && len(doc.Text) < f.MinTextLength {
		return false
	}
	return true
}

// matchesScore applies the confidence range to the normalized 0-100 score.
func (f *SearchFilter) matchesScore(score float64) bool {
	if f == nil {
		return true
	}
	if f.ConfidenceMin > 0 && score < f.ConfidenceMin {
		return false
	}
	if f.ConfidenceMax > 0 && score > f.ConfidenceMax {
		return false
	}
	return true
}

// fingerprint returns a stable token for cache keys.
func (f *SearchFilter) fingerprint() string {
	if f == nil {
		return "f0"
	}
	pub, fav := "-", "-"
	if f.IsPublic != nil {
		pub = fmt.Sprintf("%t", *f.IsPublic)
	}
	if f.IsFavorite != nil {
		fav = fmt.Sprintf("%t", *f.IsFavorite)
	}
	return fmt.Sprintf("f1:c=%v,b=%v,t=%v,d=%d-%d,cf=%.2f-%.2f,p=%d-%d,pub=%s,fav=%s,mtl=%d",
		f.CourseIDs, f.BookIDs, f.Tags,
		f.DateFrom.Unix(), f.DateTo.Unix(),
		f.ConfidenceMin, f.ConfidenceMax,
		f.PageFrom, f.PageTo, pub, fav, f.MinTextLength)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// ScoredResult is one ranked passage with provenance. Score is always on
// the normalized 0-100 scale; the raw per-channel scores are preserved
// separately because their units are not comparable.
type ScoredResult struct {
	Document    *store.Document
	Score       float64 // normalized 0-100
	Channel     Method  // hybrid when both channels found the passage
	InLexical   bool
	InSemantic  bool
	RawLexical  float64 // raw BM25 score
	RawSemantic float64 // dense similarity score (0-100 scale)
	Highlights  []string
}

// Facets summarizes the returned result page.
type Facets struct {
	BySource  map[string]int
	ByScope   map[string]int
	ByChannel map[string]int
}

// SearchResponse is the orchestrator's public result envelope. A degraded
// or failed search still yields a well-formed response; Message explains
// any reduced mode.
type SearchResponse struct {
	Results      []ScoredResult
	TotalCount   int
	Facets       Facets
	Message      string
	SearchTimeMS int64
}

// Clone returns a copy whose Results and Highlights slices are independent
// of the receiver, so cached responses never alias what callers receive.
// Document pointers stay shared: documents are immutable once ingested.
func (r *SearchResponse) Clone() *SearchResponse {
	copied := *r
	copied.Results = make([]ScoredResult, len(r.Results))
	copy(copied.Results, r.Results)
	for i, res := range r.Results {
		if len(res.Highlights) > 0 {
			hs := make([]string, len(res.Highlights))
			copy(hs, res.Highlights)
			copied.Results[i].Highlights = hs
		}
	}
	return &copied
}

// SearchOptions carries the per-request parameters alongside the query.
type SearchOptions struct {
	Scope       store.Scope
	Limit       int // 0 = service default
	Method      Method
	Sort        SortOrder
	Filter      *SearchFilter
	BypassCache bool
}
