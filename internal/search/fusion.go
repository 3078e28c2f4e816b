package search

import (
	"sort"

	"github.com/corsolab/ritrova/internal/store"
)

// DefaultRRFConstant is the standard RRF smoothing parameter, empirically
// validated across domains (used by Azure AI Search, OpenSearch, etc.).
const DefaultRRFConstant = 60

// ChannelHit is one ranked entry from a single retrieval channel, ordered
// best-first by the caller.
type ChannelHit struct {
	Doc   *store.Document
	Score float64
}

// FusedHit is one deduplicated passage after fusion. Score carries the
// fused value: [0,1] for weighted-sum, the raw reciprocal-rank sum for RRF.
// The per-channel raw scores are preserved since their units differ.
type FusedHit struct {
	Doc        *store.Document
	Score      float64
	LexScore   float64
	SemScore   float64
	InLexical  bool
	InSemantic bool

	order int // insertion order, tie-break for the stable sort
}

// FuseWeighted merges the two channels with weighted-sum fusion. Each
// channel's scores are normalized to [0,1] by that channel's max, then
// combined with the (renormalized) weights; a passage absent from a channel
// contributes 0 for it. Only the first occurrence of a passage within a
// channel counts. Output is sorted descending, ties in insertion order.
func FuseWeighted(lexical, semantic []ChannelHit, w Weights) []FusedHit {
	if len(lexical) == 0 && len(semantic) == 0 {
		return []FusedHit{}
	}
	w = w.Normalize()

	lexMax := maxScore(lexical)
	semMax := maxScore(semantic)

	hits, _ := collect(lexical, semantic)
	for _, h := range hits {
		var lex, sem float64
		if h.InLexical && lexMax > 0 {
			lex = h.LexScore / lexMax
		}
		if h.InSemantic && semMax > 0 {
			sem = h.SemScore / semMax
		}
		h.Score = w.Semantic*sem + w.Lexical*lex
	}

	return sortFused(hits)
}

// FuseRRF merges the two channels with Reciprocal Rank Fusion: for each
// passage, the sum over channels containing it of 1/(k+rank+1), rank being
// the 0-indexed position of its first occurrence in that channel. A passage
// absent from a channel contributes nothing for it. RRF is rank-based and
// never mixes in the channels' raw scores.
func FuseRRF(lexical, semantic []ChannelHit, k int) []FusedHit {
	if len(lexical) == 0 && len(semantic) == 0 {
		return []FusedHit{}
	}
	if k <= 0 {
		k = DefaultRRFConstant
	}

	hits, byKey := collect(lexical, semantic)

	seen := make(map[string]bool, len(byKey))
	for rank, ch := range lexical {
		key := ch.Doc.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		byKey[key].Score += 1.0 / float64(k+rank+1)
	}
	clear(seen)
	for rank, ch := range semantic {
		key := ch.Doc.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		byKey[key].Score += 1.0 / float64(k+rank+1)
	}

	return sortFused(hits)
}

// collect builds the deduplicated passage set across both channels in a
// single pass. For duplicate keys within one channel only the first
// occurrence sets that channel's raw score; channel membership is merged
// rather than dropping either copy's information.
func collect(lexical, semantic []ChannelHit) ([]*FusedHit, map[string]*FusedHit) {
	byKey := make(map[string]*FusedHit, len(lexical)+len(semantic))
	hits := make([]*FusedHit, 0, len(lexical)+len(semantic))

	get := func(doc *store.Document) *FusedHit {
		key := doc.DedupKey()
		if h, ok := byKey[key]; ok {
			return h
		}
		h := &FusedHit{Doc: doc, order: len(hits)}
		byKey[key] = h
		hits = append(hits, h)
		return h
	}

	for _, ch := range lexical {
		h := get(ch.Doc)
		if !h.InLexical {
			h.InLexical = true
			h.LexScore = ch.Score
		}
	}
	for _, ch := range semantic {
		h := get(ch.Doc)
		if !h.InSemantic {
			h.InSemantic = true
			h.SemScore = ch.Score
		}
	}

	return hits, byKey
}

// sortFused orders hits by fused score descending, stable on insertion
// order so identical inputs always produce identical output.
func sortFused(hits []*FusedHit) []FusedHit {
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].order < hits[b].order
	})

	out := make([]FusedHit, len(hits))
	for i, h := range hits {
		out[i] = *h
	}
	return out
}

// Dedup collapses duplicate passages within a single channel's ranked list,
// keeping the first occurrence. Single-channel search paths go through this
// before finalization.
func Dedup(hits []ChannelHit) []ChannelHit {
	if len(hits) == 0 {
		return hits
	}
	seen := make(map[string]struct{}, len(hits))
	out := make([]ChannelHit, 0, len(hits))
	for _, h := range hits {
		key := h.Doc.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

func maxScore(hits []ChannelHit) float64 {
	max := 0.0
	for _, h := range hits {
		if h.Score > max {
			max = h.Score
		}
	}
	return max
}
