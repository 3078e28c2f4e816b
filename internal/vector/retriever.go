package vector

import (
	"context"
	"log/slog"

	"github.com/corsolab/ritrova/internal/embed"
	rerrors "github.com/corsolab/ritrova/internal/errors"
	"github.com/corsolab/ritrova/internal/store"
)

// ScoredHit is a dense match with its distance mapped to a 0-100 score.
type ScoredHit struct {
	DocID string
	Score float64
}

// Outcome reports a dense retrieval attempt. A non-nil Failure means the
// channel was unavailable; Results is empty in that case. Callers decide
// whether to degrade or surface the failure.
type Outcome struct {
	Results []ScoredHit
	Failure error
}

// Ok reports whether the retrieval succeeded.
func (o Outcome) Ok() bool { return o.Failure == nil }

// Retriever runs the dense channel: embeds the query and searches the
// vector store. It never returns an error; failures are carried in the
// Outcome so the orchestrator can degrade to lexical-only search.
type Retriever struct {
	embedder embed.Embedder
	store    *Store
}

// NewRetriever creates a dense retriever over the given embedder and store.
func NewRetriever(embedder embed.Embedder, vs *Store) *Retriever {
	return &Retriever{embedder: embedder, store: vs}
}

// Retrieve embeds the query and returns up to k scoped matches. Cosine
// distance d maps to score max(0, (1-d)*100), so identical vectors score
// 100 and anything at or past orthogonal scores 0.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope store.Scope, k int) Outcome {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("dense channel embedding failed",
			slog.String("scope", scope.Key()),
			slog.String("error", err.Error()))
		return Outcome{Failure: rerrors.ChannelUnavailable("semantic", err)}
	}

	hits, err := r.store.Search(ctx, vec, scope, k)
	if err != nil {
		slog.Warn("dense channel search failed",
			slog.String("scope", scope.Key()),
			slog.String("error", err.Error()))
		return Outcome{Failure: rerrors.ChannelUnavailable("semantic", err)}
	}

	scored := make([]ScoredHit, 0, len(hits))
	for _, h := range hits {
		score := (1.0 - float64(h.Distance)) * 100.0
		if score < 0 {
			score = 0
		}
		scored = append(scored, ScoredHit{DocID: h.DocID, Score: score})
	}
	return Outcome{Results: scored}
}

// Available reports whether the embedding backend is reachable.
func (r *Retriever) Available(ctx context.Context) bool {
	return r.embedder.Available(ctx)
}
