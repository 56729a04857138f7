package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"advpal/internal/router"
)

func newPlayCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "play [path|url]",
		Short: "Play interactively, reading lines from stdin",
		Long: `Start an interactive session on the channel.

With an argument the story is loaded first; without one the current state
of the channel's story is shown. Each line typed is then handled like a
chat message: lines starting with the command prefix are commands, and any
other line chooses the option it names.

Type "advpal quit" or send end-of-file to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				if err := app.load(ctx, args[0]); err != nil {
					return err
				}
			} else {
				_ = app.show(ctx)
			}
			return app.repl(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// repl reads lines until end of input or a quit command. Rejected commands
// are printed and do not stop the loop.
func (a *App) repl(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		route, err := router.Parse(scanner.Text(), a.Config.CommandPrefix)
		if errors.Is(err, router.ErrEmptyLine) {
			continue
		}
		if err != nil {
			a.Printer.Error(err)
			continue
		}
		if route.Kind == router.KindQuit {
			return nil
		}
		_ = a.dispatch(ctx, route)
	}
}

// dispatch runs a routed line. Free text is treated as a choice so that a
// mistyped option is reported instead of ignored.
func (a *App) dispatch(ctx context.Context, route router.Route) error {
	switch route.Kind {
	case router.KindLoad:
		return a.load(ctx, route.Arg)
	case router.KindChoose, router.KindMessage:
		return a.choose(ctx, route.Arg)
	case router.KindReset:
		return a.reset(ctx, route.Arg)
	case router.KindBookmarks:
		return a.bookmarks(ctx)
	case router.KindUnload:
		return a.unload(ctx)
	case router.KindShow:
		return a.show(ctx)
	case router.KindHelp:
		a.Printer.Help()
		return nil
	default:
		return fmt.Errorf("unhandled route %q", route.Kind)
	}
}
