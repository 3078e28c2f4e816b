package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/corsolab/ritrova/internal/cache"
	"github.com/corsolab/ritrova/internal/config"
	"github.com/corsolab/ritrova/internal/embed"
	"github.com/corsolab/ritrova/internal/index"
	"github.com/corsolab/ritrova/internal/search"
	"github.com/corsolab/ritrova/internal/store"
	"github.com/corsolab/ritrova/internal/vector"
)

// app bundles the wired engine components for a CLI invocation.
type app struct {
	cfg      *config.Config
	docs     *store.SQLiteStore
	indexes  *index.Manager
	embedder embed.Embedder
	vectors  *vector.Store
	service  *search.Service
}

// openApp loads config and wires the engine. When withDense is false the
// embedding backend is never touched and searches run lexical-only.
func openApp(withDense bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	docs, err := store.OpenSQLite(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	indexes := index.NewManager(docs, index.Config{
		K1: cfg.Search.BM25K1,
		B:  cfg.Search.BM25B,
	})

	a := &app{cfg: cfg, docs: docs, indexes: indexes}

	var dense search.DenseChannel
	if withDense {
		a.embedder = embed.NewCachedEmbedder(embed.NewOllamaEmbedder(embed.OllamaConfig{
			Host:       cfg.Ollama.Host,
			Model:      cfg.Ollama.Model,
			Dimensions: cfg.Ollama.Dimensions,
			BatchSize:  cfg.Ollama.BatchSize,
			Timeout:    cfg.Ollama.Timeout,
		}), 0)

		a.vectors, err = vector.NewStore(vector.Config{Dimensions: cfg.Ollama.Dimensions})
		if err != nil {
			docs.Close()
			return nil, err
		}
		if _, statErr := os.Stat(cfg.Store.VectorPath); statErr == nil {
			if err := a.vectors.Load(cfg.Store.VectorPath); err != nil {
				slog.Warn("vector index load failed, starting empty",
					slog.String("path", cfg.Store.VectorPath),
					slog.String("error", err.Error()))
			}
		}
		dense = vector.NewRetriever(a.embedder, a.vectors)
	}

	var results cache.Store = cache.Noop{}
	if cfg.Cache.Enabled {
		results = cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL)
	}

	a.service = search.NewService(indexes, dense, results, search.Config{
		Weights: search.Weights{
			Lexical:  cfg.Search.LexicalWeight,
			Semantic: cfg.Search.SemanticWeight,
		},
		FusionMethod:   search.FusionMethod(cfg.Search.FusionMethod),
		RRFConstant:    cfg.Search.RRFConstant,
		MinQueryLength: cfg.Search.MinQueryLength,
		MaxResults:     cfg.Search.MaxResults,
		DefaultLimit:   cfg.Search.DefaultLimit,
	})

	return a, nil
}

// Close releases all resources.
func (a *app) Close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.docs != nil {
		_ = a.docs.Close()
	}
}
