package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newChooseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "choose <selection...>",
		Short: "Choose an option by number or label",
		Long: `Follow one of the current state's options.

A number picks the option shown with that number; anything else must match
an option label exactly. Words are joined with single spaces.

Example:
  advpal choose 2
  advpal choose Go left`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.choose(cmd.Context(), strings.Join(args, " "))
		},
	}
}
