package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSayCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "say <text...>",
		Short: "Send a chat line to the story",
		Long: `Send a line of free text, as if typed into the channel.

If the channel has a story and the text names one of its options (by number
or label), the option is chosen. Any other text is ignored silently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.say(cmd.Context(), strings.Join(args, " "))
		},
	}
}
