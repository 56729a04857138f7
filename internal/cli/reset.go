package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newResetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <bookmark...>",
		Short: "Return to a bookmark you have reached",
		Long: `Return to a state you have already visited.

The bookmark is its number in the bookmarks list, its state id or its label.
The list of reached bookmarks is kept as it is.

Example:
  advpal reset 1
  advpal reset Dark Room`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.reset(cmd.Context(), strings.Join(args, " "))
		},
	}
}
