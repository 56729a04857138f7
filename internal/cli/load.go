package cli

import (
	"github.com/spf13/cobra"
)

func newLoadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path|url>",
		Short: "Load a story and enter its start",
		Long: `Load a story document into the channel and show its starting state.

The document is JSON, or YAML when the file name ends in .yaml or .yml.
Loading replaces any story the channel already has; an invalid document
leaves the current story untouched.

Example:
  advpal load stories/cave.json
  advpal load https://example.com/cave.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd.Context(), args[0])
		},
	}
}
