package cli

import (
	"github.com/spf13/cobra"
)

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current state again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.show(cmd.Context())
		},
	}
}
