package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/store"
)

func newIndexCmd() *cobra.Command {
	var course, book string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the lexical index for a scope",
		Long: `Index builds (or rebuilds) the BM25 lexical index for a scope.
Searches build indexes lazily on first use; this command exists to warm
them eagerly and to verify a scope has indexable content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			scope := store.Scope{CourseID: course, BookID: book}
			if err := app.service.BuildIndex(cmd.Context(), scope); err != nil {
				return err
			}

			stats := app.service.Stats()[scope.Key()]
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %d documents, %d terms, avg length %.1f\n",
				scope.Key(), stats.DocumentCount, stats.TermCount, stats.AvgDocLength)
			return nil
		},
	}

	cmd.Flags().StringVarP(&course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Book identifier within the course")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
