// Package cli provides the command-line interface for advpal.
//
// The CLI is built on Cobra. Every subcommand acts on one channel's story:
// the channel named by --channel, or the configured default. Dependencies
// are carried by [App]; anything not injected is built from configuration
// before the subcommand runs.
//
// Commands:
//   - load: load a story and enter its start state
//   - choose: follow an option by number or label
//   - reset, bookmarks reset: return to a reached bookmark
//   - bookmarks: list reached bookmarks
//   - show: show the current state
//   - unload: drop the channel's story
//   - say: free-text message path
//   - play: interactive loop over stdin
//   - config path, config init: locate or write the config file
//
// Failures are returned as [ExitError] values so that commands stay
// testable; only [Execute] calls os.Exit.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "advpal",
		Short: "Play branching stories with bookmarks",
		Long: `advpal plays interactive-fiction documents: load a story, pick options
by number or label, and return to any bookmark you have reached.

Each channel holds one story and its progress, which persist between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.channel, "channel", "", "channel to act on (default from config)")
	pf.StringVar(&flags.configPath, "config", "", "config file (default: user config dir, then ./advpal.yaml)")
	pf.StringVar(&flags.backend, "store", "", "store backend: memory, file, redis or sqlite")

	rootCmd.AddCommand(
		newLoadCommand(app),
		newChooseCommand(app),
		newResetCommand(app),
		newBookmarksCommand(app),
		newUnloadCommand(app),
		newShowCommand(app),
		newSayCommand(app),
		newPlayCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// ExecuteResult is the outcome of a CLI run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// Run executes the CLI with args and the given streams.
//
// Errors that are not [ExitError] values, such as configuration or flag
// errors, are printed to errOut and reported with exit code 1.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) ExecuteResult {
	return RunWithApp(ctx, &App{}, args, in, out, errOut)
}

// RunWithApp is [Run] with pre-built dependencies.
func RunWithApp(ctx context.Context, app *App, args []string, in io.Reader, out, errOut io.Writer) ExecuteResult {
	defer app.Close()

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(errOut, "Error:", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute runs the CLI on the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	result := Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(result.ExitCode)
}
