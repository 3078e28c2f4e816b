package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/search"
	"github.com/corsolab/ritrova/internal/store"
)

type searchFlags struct {
	course  string
	book    string
	limit   int
	method  string
	sort    string
	format  string
	tags    []string
	noCache bool
}

func newSearchCmd() *cobra.Command {
	var opts searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed course material",
		Long: `Search runs a hybrid query over a course's indexed material, fusing
BM25 keyword ranking with semantic vector retrieval. When the embedding
backend is unreachable the search degrades to lexical results.

Examples:
  ritrova search --course fisica-1 "principio di inerzia"
  ritrova search --course fisica-1 --method lexical "attrito"
  ritrova search --course fisica-1 --format json "energia cinetica"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&opts.book, "book", "b", "", "Book identifier within the course")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.method, "method", "m", "hybrid", "Search method: lexical, semantic, hybrid")
	cmd.Flags().StringVar(&opts.sort, "sort", "relevance", "Sort order: relevance, date, alphabetical, confidence")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringSliceVarP(&opts.tags, "tags", "t", nil, "Require these document tags")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the result cache")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchFlags) error {
	method := search.Method(opts.method)
	app, err := openApp(method != search.MethodLexical)
	if err != nil {
		return err
	}
	defer app.Close()

	var filter *search.SearchFilter
	if len(opts.tags) > 0 {
		filter = &search.SearchFilter{Tags: opts.tags}
	}

	resp, err := app.service.Search(cmd.Context(), query, search.SearchOptions{
		Scope:       store.Scope{CourseID: opts.course, BookID: opts.book},
		Limit:       opts.limit,
		Method:      method,
		Sort:        search.SortOrder(opts.sort),
		Filter:      filter,
		BypassCache: opts.noCache,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResults(cmd, query, resp)
	return nil
}

func printResults(cmd *cobra.Command, query string, resp *search.SearchResponse) {
	out := cmd.OutOrStdout()

	if resp.Message != "" {
		fmt.Fprintf(out, "note: %s\n", resp.Message)
	}
	if len(resp.Results) == 0 {
		fmt.Fprintf(out, "No results for %q.\n", query)
		return
	}

	fmt.Fprintf(out, "%d of %d results for %q (%dms)\n\n",
		len(resp.Results), resp.TotalCount, query, resp.SearchTimeMS)

	for i, r := range resp.Results {
		fmt.Fprintf(out, "%2d. [%5.1f] %s #%d (%s)\n",
			i+1, r.Score, r.Document.SourceID, r.Document.ChunkIndex, r.Channel)
		if len(r.Highlights) > 0 {
			for _, h := range r.Highlights {
				fmt.Fprintf(out, "      %s\n", h)
			}
		} else {
			fmt.Fprintf(out, "      %s\n", preview(r.Document.Text, 120))
		}
	}
}

// preview truncates text on a rune boundary.
func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
