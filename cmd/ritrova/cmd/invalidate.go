package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/store"
)

func newInvalidateCmd() *cobra.Command {
	var course, book string

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached results and lexical indexes for a scope",
		Long: `Invalidate drops a scope's cached search results together with its
lexical indexes. Run it after modifying course material outside the
ingest command. Other scopes are unaffected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(false)
			if err != nil {
				return err
			}
			defer app.Close()

			scope := store.Scope{CourseID: course, BookID: book}
			if !scope.Valid() {
				return fmt.Errorf("course identifier must not be empty")
			}
			app.service.InvalidateCache(scope)
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", scope.Key())
			return nil
		},
	}

	cmd.Flags().StringVarP(&course, "course", "c", "", "Course identifier (required)")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Book identifier within the course")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}
