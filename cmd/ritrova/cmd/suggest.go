package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/store"
)

func newSuggestCmd() *cobra.Command {
	var course, book string
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <partial-query>",
		Short: "Autocomplete a partial query from the indexed vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			// Suggestions come from built indexes; warm the scope first.
			scope := store.Scope{CourseID: course, BookID: book}
			if err := app.service.BuildIndex(cmd.Context(), scope); err != nil {
				return err
			}

			suggestions := app.service.Suggest(args[0], limit)
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No suggestions.")
				return nil
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Book identifier within the course")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of suggestions")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
