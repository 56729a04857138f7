package cli

import (
	"context"

	"go.uber.org/zap"
)

// The handlers below run one story command against a.Channel and print its
// outcome. A rejection is printed as an error embed and reported as an
// [ExitError] so the process exits non-zero.

func (a *App) load(ctx context.Context, src string) error {
	doc, err := a.Fetcher.Fetch(ctx, src)
	if err != nil {
		return a.fail(err)
	}
	r, err := a.Sessions.Load(ctx, a.Channel, doc.Data, doc.Name)
	if err != nil {
		return a.fail(err)
	}
	a.Printer.State(r)
	return nil
}

func (a *App) choose(ctx context.Context, selection string) error {
	r, err := a.Sessions.Choose(ctx, a.Channel, selection)
	if err != nil {
		return a.fail(err)
	}
	a.Printer.State(r)
	return nil
}

func (a *App) reset(ctx context.Context, ref string) error {
	r, err := a.Sessions.ResetBookmark(ctx, a.Channel, ref)
	if err != nil {
		return a.fail(err)
	}
	a.Printer.State(r)
	return nil
}

func (a *App) bookmarks(ctx context.Context) error {
	list, err := a.Sessions.ListBookmarks(ctx, a.Channel)
	if err != nil {
		return a.fail(err)
	}
	a.Printer.Bookmarks(list)
	return nil
}

func (a *App) show(ctx context.Context) error {
	r, err := a.Sessions.Current(ctx, a.Channel)
	if err != nil {
		return a.fail(err)
	}
	a.Printer.State(r)
	return nil
}

func (a *App) unload(ctx context.Context) error {
	if err := a.Sessions.Unload(ctx, a.Channel); err != nil {
		return a.fail(err)
	}
	a.Printer.Info("Story unloaded", "")
	return nil
}

// say prints nothing when text does not pick an option.
func (a *App) say(ctx context.Context, text string) error {
	r, ok, err := a.Sessions.Message(ctx, a.Channel, text)
	if err != nil {
		return a.fail(err)
	}
	if ok {
		a.Printer.State(r)
	}
	return nil
}

func (a *App) fail(err error) error {
	a.Logger.Debug("command rejected", zap.String("channel", a.Channel), zap.Error(err))
	a.Printer.Error(err)
	return NewExitError(1)
}
