package cli

import (
	"github.com/spf13/cobra"
)

func newUnloadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unload",
		Short: "Remove the channel's story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.unload(cmd.Context())
		},
	}
}
