package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advpal/internal/config"
	"advpal/internal/fetch"
	"advpal/internal/logging"
	"advpal/internal/render"
	"advpal/internal/session"
	"advpal/internal/store"
	redisstore "advpal/internal/store/redis"
	sqlitestore "advpal/internal/store/sqlite"
)

// Sessions is the story command surface used by the CLI.
// [session.Service] implements this interface.
type Sessions interface {
	Load(ctx context.Context, channel string, doc []byte, name string) (session.Rendering, error)
	Choose(ctx context.Context, channel, selection string) (session.Rendering, error)
	ResetBookmark(ctx context.Context, channel, ref string) (session.Rendering, error)
	ListBookmarks(ctx context.Context, channel string) (session.BookmarkList, error)
	Current(ctx context.Context, channel string) (session.Rendering, error)
	Unload(ctx context.Context, channel string) error
	Message(ctx context.Context, channel, text string) (session.Rendering, bool, error)
}

// Fetcher retrieves story documents. [fetch.Fetcher] implements this interface.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (fetch.Document, error)
}

// App holds the dependencies shared by all commands.
//
// Fields left nil are built from Config in the root command's pre-run hook,
// so tests can inject any subset of them.
type App struct {
	Config   *config.Config
	Sessions Sessions
	Fetcher  Fetcher
	Printer  *render.Renderer
	Logger   *zap.Logger

	// Channel is the channel every command acts on.
	Channel string

	closers []func() error
}

// rootFlags holds the global flag values.
type rootFlags struct {
	channel    string
	configPath string
	backend    string
}

// setup fills in every dependency the caller did not inject.
func (a *App) setup(cmd *cobra.Command, flags *rootFlags) error {
	if a.Config == nil {
		cfg, err := config.NewLoader().LoadWithPath(flags.configPath)
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if flags.backend != "" {
		a.Config.Store.Backend = flags.backend
		if err := a.Config.Validate(); err != nil {
			return err
		}
	}

	switch {
	case flags.channel != "":
		a.Channel = flags.channel
	case a.Channel == "":
		a.Channel = a.Config.Channel
	}
	if err := store.ValidateChannel(a.Channel); err != nil {
		return fmt.Errorf("%w: %q", err, a.Channel)
	}

	if a.Logger == nil {
		logger, err := logging.New(logging.Config{
			Level:    a.Config.Log.Level,
			Encoding: a.Config.Log.Encoding,
		})
		if err != nil {
			return err
		}
		a.Logger = logger
		a.closers = append(a.closers, func() error {
			_ = logger.Sync()
			return nil
		})
	}

	if a.Printer == nil {
		a.Printer = render.New(cmd.OutOrStdout(), render.Config{
			Width:  a.Config.Render.Width,
			Color:  a.Config.Render.Color,
			Prefix: a.Config.CommandPrefix,
		})
	}

	if a.Fetcher == nil {
		a.Fetcher = fetch.New(fetch.Config{
			Timeout:  a.Config.Fetch.Timeout,
			MaxBytes: a.Config.Fetch.MaxBytes,
		}, a.Logger)
	}

	if a.Sessions == nil {
		st, err := openStore(cmd.Context(), a.Config.Store)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, st.Close)
		a.Logger.Debug("store opened",
			zap.String("backend", a.Config.Store.Backend),
			zap.String("channel", a.Channel),
		)
		a.Sessions = session.NewService(st,
			session.WithLogger(a.Logger),
			session.WithCommandPrefix(a.Config.CommandPrefix),
		)
	}
	return nil
}

// Close releases everything setup opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendFile:
		return store.NewFile(cfg.Dir)
	case config.BackendRedis:
		return redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.BackendSQLite:
		return sqlitestore.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
