package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newBookmarksCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List the bookmarks you have reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.bookmarks(cmd.Context())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset <bookmark...>",
		Short: "Return to a bookmark you have reached (same as reset)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.reset(cmd.Context(), strings.Join(args, " "))
		},
	})
	return cmd
}
