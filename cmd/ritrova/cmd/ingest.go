package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/chunk"
	"github.com/corsolab/ritrova/internal/store"
)

type ingestOptions struct {
	course  string
	book    string
	tags    []string
	noEmbed bool
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <glob>...",
		Short: "Ingest course material into the document store",
		Long: `Ingest reads text files matched by the glob patterns, splits them into
paragraph chunks, stores them, and embeds them for semantic search.
Re-ingesting a file replaces its previous chunks wholesale.

Examples:
  ritrova ingest --course fisica-1 "materiale/**/*.txt"
  ritrova ingest --course fisica-1 --book meccanica "cap*.md" --tags meccanica`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&opts.book, "book", "b", "", "Book identifier within the course")
	cmd.Flags().StringSliceVarP(&opts.tags, "tags", "t", nil, "Tags attached to every chunk")
	cmd.Flags().BoolVar(&opts.noEmbed, "no-embed", false, "Skip embedding (lexical search only)")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}

func runIngest(cmd *cobra.Command, patterns []string, opts ingestOptions) error {
	app, err := openApp(!opts.noEmbed)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	scope := store.Scope{CourseID: opts.course, BookID: opts.book}
	if !scope.Valid() {
		return fmt.Errorf("course identifier must not be empty")
	}

	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched the given patterns")
	}

	var docs []*store.Document
	now := time.Now().UTC()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sourceID := filepath.Base(path)
		for _, passage := range chunk.Split(string(data), chunk.Options{}) {
			docs = append(docs, &store.Document{
				ID:         uuid.NewString(),
				SourceID:   sourceID,
				Text:       passage.Text,
				Scope:      scope,
				ChunkIndex: passage.Index,
				PageNumber: passage.Page,
				Language:   "it",
				Tags:       opts.tags,
				CreatedAt:  now,
			})
		}
	}
	if len(docs) == 0 {
		return fmt.Errorf("matched files contain no text")
	}

	if err := app.docs.SaveDocuments(ctx, docs); err != nil {
		return err
	}
	slog.Info("documents_saved",
		slog.String("scope", scope.Key()),
		slog.Int("files", len(paths)),
		slog.Int("chunks", len(docs)))

	if !opts.noEmbed {
		bar := progressbar.NewOptions(len(docs),
			progressbar.OptionSetDescription("embedding"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		batch := app.cfg.Ollama.BatchSize
		if batch <= 0 {
			batch = 32
		}
		for start := 0; start < len(docs); start += batch {
			end := start + batch
			if end > len(docs) {
				end = len(docs)
			}
			part := docs[start:end]
			texts := make([]string, len(part))
			for i, d := range part {
				texts[i] = d.Text
			}
			vecs, err := app.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks: %w", err)
			}
			chunkDocs := make([]store.Document, len(part))
			for i, d := range part {
				chunkDocs[i] = *d
			}
			if err := app.vectors.Add(ctx, chunkDocs, vecs); err != nil {
				return err
			}
			_ = bar.Add(len(part))
		}
		if err := app.vectors.Save(app.cfg.Store.VectorPath); err != nil {
			return fmt.Errorf("save vector index: %w", err)
		}
	}

	// Corpus changed: stale indexes and cached results go together.
	app.service.InvalidateCache(scope)

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d files into %s\n",
		len(docs), len(paths), scope.Key())
	return nil
}
