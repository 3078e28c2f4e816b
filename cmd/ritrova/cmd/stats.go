package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/store"
)

func newStatsCmd() *cobra.Command {
	var course, book string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and index statistics for a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			scope := store.Scope{CourseID: course, BookID: book}
			out := cmd.OutOrStdout()

			count, err := app.docs.CountDocuments(ctx, scope)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Scope:     %s\n", scope.Key())
			fmt.Fprintf(out, "Documents: %d\n", count)

			if count == 0 {
				return nil
			}
			if err := app.service.BuildIndex(ctx, scope); err != nil {
				return err
			}
			stats := app.service.Stats()[scope.Key()]
			fmt.Fprintf(out, "Terms:     %d\n", stats.TermCount)
			fmt.Fprintf(out, "Avg chunk: %.1f tokens\n", stats.AvgDocLength)
			return nil
		},
	}

	cmd.Flags().StringVarP(&course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Book identifier within the course")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
