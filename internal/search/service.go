package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/corsolab/ritrova/internal/cache"
	rerrors "github.com/corsolab/ritrova/internal/errors"
	"github.com/corsolab/ritrova/internal/index"
	"github.com/corsolab/ritrova/internal/store"
	"github.com/corsolab/ritrova/internal/text"
	"github.com/corsolab/ritrova/internal/vector"
)

// DenseChannel is the dense retrieval capability consumed by the service.
// Implementations must fail soft: all failures travel in the Outcome.
type DenseChannel interface {
	Retrieve(ctx context.Context, query string, scope store.Scope, k int) vector.Outcome
}

// Config tunes the orchestrator.
type Config struct {
	Weights        Weights
	FusionMethod   FusionMethod
	RRFConstant    int
	MinQueryLength int
	MaxResults     int
	DefaultLimit   int
}

// DefaultServiceConfig returns the orchestrator defaults.
func DefaultServiceConfig() Config {
	return Config{
		Weights:        DefaultWeights(),
		FusionMethod:   FusionWeighted,
		RRFConstant:    DefaultRRFConstant,
		MinQueryLength: 2,
		MaxResults:     100,
		DefaultLimit:   10,
	}
}

// Service is the hybrid search orchestrator. It owns the query lifecycle:
// normalization, concurrent channel dispatch, degradation, fusion, and
// result finalization. Dependencies are injected at construction; indexes
// build lazily per scope on first search.
type Service struct {
	cfg     Config
	indexes *index.Manager
	dense   DenseChannel
	cache   cache.Store
	nocache cache.Store
}

// NewService creates the orchestrator. A nil dense channel disables
// semantic retrieval entirely; hybrid searches then degrade to lexical.
func NewService(indexes *index.Manager, dense DenseChannel, results cache.Store, cfg Config) *Service {
	if cfg.FusionMethod == "" {
		cfg.FusionMethod = FusionWeighted
	}
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = DefaultRRFConstant
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 2
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxResults {
		cfg.DefaultLimit = 10
	}
	cfg.Weights = cfg.Weights.Normalize()
	if results == nil {
		results = cache.Noop{}
	}
	return &Service{
		cfg:     cfg,
		indexes: indexes,
		dense:   dense,
		cache:   results,
		nocache: cache.Noop{},
	}
}

// Search runs a query against the scope and returns ranked, deduplicated
// passages with highlights and facets. Channel failures degrade inside this
// call; only malformed requests surface as errors.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	started := time.Now()

	if !opts.Scope.Valid() {
		return nil, rerrors.Newf(rerrors.ErrCodeInvalidScope, "scope requires a course ID, got %q", opts.Scope.Key())
	}
	if opts.Limit < 0 {
		return nil, rerrors.InvalidQuery(fmt.Sprintf("result limit must not be negative, got %d", opts.Limit))
	}
	if opts.Method == "" {
		opts.Method = MethodHybrid
	}
	if !opts.Method.Valid() {
		return nil, rerrors.InvalidQuery(fmt.Sprintf("unknown search method %q", opts.Method))
	}
	if opts.Sort == "" {
		opts.Sort = SortRelevance
	}
	if !opts.Sort.Valid() {
		return nil, rerrors.InvalidQuery(fmt.Sprintf("unknown sort order %q", opts.Sort))
	}

	limit := opts.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}

	trimmed := strings.TrimSpace(query)
	baseTokens := text.Normalize(trimmed)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinQueryLength || len(baseTokens) == 0 {
		// Validation failures are structured responses, not errors, so a UI
		// can show "refine your search" alongside an empty page.
		return &SearchResponse{
			Results:      []ScoredResult{},
			Facets:       ComputeFacets(nil),
			Message:      "query too short or contains only stop words",
			SearchTimeMS: time.Since(started).Milliseconds(),
		}, nil
	}

	results := s.cache
	if opts.BypassCache {
		results = s.nocache
	}

	key := cache.Key("search", trimmed, opts.Scope, limit, s.paramsToken(opts))
	if cached, ok := results.Get(key); ok {
		if resp, ok := cached.(*SearchResponse); ok {
			copied := resp.Clone()
			copied.SearchTimeMS = time.Since(started).Milliseconds()
			return copied, nil
		}
	}

	resp := s.retrieve(ctx, trimmed, baseTokens, limit, opts)
	resp.SearchTimeMS = time.Since(started).Milliseconds()

	// A cancelled request must not publish a possibly partial computation.
	if ctx.Err() == nil {
		results.Set(key, resp)
	}
	// The cached entry and the returned response must not alias: a caller
	// mutating its results would corrupt every later cache hit.
	return resp.Clone(), nil
}

// retrieve runs the channel fan-out, degradation, fusion, and finalization.
func (s *Service) retrieve(ctx context.Context, query string, baseTokens []string, limit int, opts SearchOptions) *SearchResponse {
	// Overfetch per channel so dedup and filters do not starve the page.
	channelK := limit * 3
	if channelK > s.cfg.MaxResults*3 {
		channelK = s.cfg.MaxResults * 3
	}

	if opts.Method == MethodSemantic && s.dense == nil {
		return emptyResponse("semantic search is not configured, try lexical search")
	}
	wantDense := opts.Method != MethodLexical && s.dense != nil

	var (
		idx     *index.Index
		idxErr  error
		outcome vector.Outcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		idx, idxErr = s.indexes.Get(gctx, opts.Scope)
		return nil
	})
	if wantDense {
		g.Go(func() error {
			outcome = s.dense.Retrieve(gctx, query, opts.Scope, channelK)
			return nil
		})
	}
	_ = g.Wait()

	if idxErr != nil {
		// Without a corpus there is nothing to resolve dense hits against
		// either, so every path ends empty here.
		slog.Warn("lexical index unavailable",
			slog.String("scope", opts.Scope.Key()),
			slog.String("error", idxErr.Error()))
		return emptyResponse("no indexed documents for this scope; ingest course material first")
	}

	var lexical []ChannelHit
	if opts.Method != MethodSemantic {
		lexical = lexicalHits(idx, Expand(baseTokens), channelK)
	}

	var semantic []ChannelHit
	var message string
	if wantDense {
		if outcome.Ok() {
			semantic = resolveDense(idx, outcome.Results)
		} else {
			slog.Warn("dense channel degraded",
				slog.String("scope", opts.Scope.Key()),
				slog.String("error", outcome.Failure.Error()))
			if opts.Method == MethodSemantic {
				return emptyResponse("semantic search unavailable, try lexical search")
			}
			message = "semantic search unavailable, showing lexical results only"
		}
	}

	fused := s.fuse(opts.Method, lexical, semantic)
	scored := s.finalize(fused, baseTokens, limit, opts)
	scored.Message = message
	if len(scored.Results) == 0 && scored.Message == "" {
		scored.Message = "no results found for this query"
	}
	return scored
}

// fuse merges the channel lists according to the search method. The
// single-channel methods skip fusion but still pass through dedup, with
// their raw scores preserved on the hits.
func (s *Service) fuse(method Method, lexical, semantic []ChannelHit) []FusedHit {
	switch method {
	case MethodLexical:
		return singleChannel(Dedup(lexical), true)
	case MethodSemantic:
		return singleChannel(Dedup(semantic), false)
	}

	// Hybrid with an empty or degraded dense channel falls back to the
	// lexical list alone; fusing against an empty counterpart would only
	// rescale it.
	if len(semantic) == 0 {
		return singleChannel(Dedup(lexical), true)
	}
	if len(lexical) == 0 {
		return singleChannel(Dedup(semantic), false)
	}

	if s.cfg.FusionMethod == FusionRRF {
		return FuseRRF(lexical, semantic, s.cfg.RRFConstant)
	}
	return FuseWeighted(lexical, semantic, s.cfg.Weights)
}

// finalize normalizes scores to 0-100, applies filters, handles sort
// overrides, truncates to the page size, and attaches highlights and
// facets.
func (s *Service) finalize(fused []FusedHit, baseTokens []string, limit int, opts SearchOptions) *SearchResponse {
	maxFused := 0.0
	for _, h := range fused {
		if h.Score > maxFused {
			maxFused = h.Score
		}
	}

	candidates := make([]ScoredResult, 0, len(fused))
	for _, h := range fused {
		score := 0.0
		if maxFused > 0 {
			score = h.Score / maxFused * 100
		}
		if !opts.Filter.matchesDocument(h.Doc) || !opts.Filter.matchesScore(score) {
			continue
		}
		candidates = append(candidates, ScoredResult{
			Document:    h.Doc,
			Score:       score,
			Channel:     channelOf(h),
			InLexical:   h.InLexical,
			InSemantic:  h.InSemantic,
			RawLexical:  h.LexScore,
			RawSemantic: h.SemScore,
		})
	}

	// A non-relevance sort replaces the fused ranking outright rather than
	// blending with it.
	switch opts.Sort {
	case SortDate:
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Document.CreatedAt.After(candidates[b].Document.CreatedAt)
		})
	case SortAlphabetical:
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Document.Text < candidates[b].Document.Text
		})
	case SortConfidence:
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Score > candidates[b].Score
		})
	}

	total := len(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Highlights = Highlights(candidates[i].Document.Text, baseTokens)
	}

	return &SearchResponse{
		Results:    candidates,
		TotalCount: total,
		Facets:     ComputeFacets(candidates),
	}
}

// BuildIndex eagerly (re)builds the lexical index for a scope. Idempotent;
// rebuilding replaces the previous index wholesale.
func (s *Service) BuildIndex(ctx context.Context, scope store.Scope) error {
	if !scope.Valid() {
		return rerrors.Newf(rerrors.ErrCodeInvalidScope, "scope requires a course ID, got %q", scope.Key())
	}
	_, err := s.indexes.Build(ctx, scope)
	return err
}

// InvalidateCache drops both the cached results and the lexical indexes for
// a scope. The two invalidate together: dropping only one would serve
// results inconsistent with the corpus. The ingestion collaborator calls
// this after any corpus mutation.
func (s *Service) InvalidateCache(scope store.Scope) {
	removed := s.cache.InvalidateScope(scope)
	s.indexes.Invalidate(scope)
	slog.Info("scope_invalidated",
		slog.String("scope", scope.Key()),
		slog.Int("cache_entries_removed", removed))
}

// Suggest returns prefix completions from the vocabularies of all built
// indexes. The partial query is normalized first so suggestions match
// indexed terms exactly.
func (s *Service) Suggest(partial string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	tokens := text.Normalize(partial)
	var prefix string
	if len(tokens) > 0 {
		prefix = tokens[len(tokens)-1]
	} else {
		prefix = strings.ToLower(strings.TrimSpace(partial))
	}
	if prefix == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for _, key := range s.indexes.Scopes() {
		idx, ok := s.indexes.PeekKey(key)
		if !ok {
			continue
		}
		for _, term := range prefixRange(idx.Vocabulary(), prefix) {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			out = append(out, term)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats reports the built index statistics per scope key.
func (s *Service) Stats() map[string]index.Stats {
	out := make(map[string]index.Stats)
	for _, key := range s.indexes.Scopes() {
		if idx, ok := s.indexes.PeekKey(key); ok {
			out[key] = idx.Stats()
		}
	}
	return out
}

// paramsToken encodes everything besides query, scope, and limit that can
// change the result set, so fusion weight or method changes never serve a
// stale cached ranking.
func (s *Service) paramsToken(opts SearchOptions) string {
	return fmt.Sprintf("m=%s|sort=%s|fuse=%s,l=%.3f,s=%.3f,k=%d|%s",
		opts.Method, opts.Sort,
		s.cfg.FusionMethod, s.cfg.Weights.Lexical, s.cfg.Weights.Semantic, s.cfg.RRFConstant,
		opts.Filter.fingerprint())
}

// lexicalHits converts BM25 scores to channel hits, keeping only documents
// that contain at least one query term. Matched is the filter, not the
// score: a low score is still a hit, no term overlap is not.
func lexicalHits(idx *index.Index, queryTokens []string, k int) []ChannelHit {
	scores := idx.Score(queryTokens)
	hits := make([]ChannelHit, 0, k)
	for _, ds := range scores {
		if !ds.Matched {
			continue
		}
		hits = append(hits, ChannelHit{Doc: idx.Document(ds.DocIndex), Score: ds.Score})
		if len(hits) == k {
			break
		}
	}
	return hits
}

// resolveDense maps dense hits back to corpus documents. Vector entries
// with no corpus document (stale after re-ingestion) are skipped.
func resolveDense(idx *index.Index, hits []vector.ScoredHit) []ChannelHit {
	out := make([]ChannelHit, 0, len(hits))
	for _, h := range hits {
		doc := idx.DocumentByID(h.DocID)
		if doc == nil {
			continue
		}
		out = append(out, ChannelHit{Doc: doc, Score: h.Score})
	}
	return out
}

// singleChannel lifts one channel's hits into the fused representation.
func singleChannel(hits []ChannelHit, isLexical bool) []FusedHit {
	out := make([]FusedHit, len(hits))
	for i, h := range hits {
		out[i] = FusedHit{Doc: h.Doc, Score: h.Score, order: i}
		if isLexical {
			out[i].InLexical = true
			out[i].LexScore = h.Score
		} else {
			out[i].InSemantic = true
			out[i].SemScore = h.Score
		}
	}
	return out
}

func channelOf(h FusedHit) Method {
	switch {
	case h.InLexical && h.InSemantic:
		return MethodHybrid
	case h.InSemantic:
		return MethodSemantic
	default:
		return MethodLexical
	}
}

func emptyResponse(message string) *SearchResponse {
	return &SearchResponse{
		Results: []ScoredResult{},
		Facets:  ComputeFacets(nil),
		Message: message,
	}
}
