package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/companion/internal/cell"
	"git.home.luguber.info/inful/companion/internal/config"
	"git.home.luguber.info/inful/companion/internal/kvstore"
	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
	"git.home.luguber.info/inful/companion/internal/retry"
)

// commandTimeout bounds one-shot commands, store round trips included.
const commandTimeout = 30 * time.Second

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"companion.yaml" env:"COMPANION_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init   InitCmd   `cmd:"" help:"Write a default configuration file"`
	Status StatusCmd `cmd:"" help:"Show how the companion is doing"`
	Feed   FeedCmd   `cmd:"" help:"Feed the companion one can"`
	Pet    PetCmd    `cmd:"" help:"Pet the companion"`
	Award  AwardCmd  `cmd:"" help:"Award cans earned elsewhere"`
	Run    RunCmd    `cmd:"" help:"Keep the companion running in the foreground"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig reads the configuration file, falling back to defaults when it
// does not exist, and applies its logging section.
func (c *CLI) LoadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(c.Config); os.IsNotExist(err) {
		slog.Debug("No configuration file; using defaults", logfields.Path(c.Config))
		cfg = config.Default()
	} else {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	ConfigureLogging(cfg.Logging, c.Verbose)
	return cfg, nil
}

// ConfigureLogging installs the default logger described by cfg. verbose
// forces debug level.
func ConfigureLogging(cfg config.LoggingConfig, verbose bool) {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Session is an opened store with a mounted engine on top.
type Session struct {
	Store  kvstore.Store
	Cells  lifecycle.Cells
	Engine *lifecycle.Engine
}

// OpenSession opens the configured store and mounts an engine on it. timers
// may be nil for commands that never activate the engine; recorder may be
// nil to skip metrics.
func OpenSession(ctx context.Context, cfg *config.Config, timers lifecycle.Timers, recorder metrics.Recorder) (*Session, error) {
	storeOpts := cfg.Store.Options()
	storeOpts.Recorder = recorder
	var store kvstore.Store
	err := retry.FromConfig(cfg.Store.OpenRetry).Do(ctx, "open store", func(ctx context.Context) error {
		opened, err := kvstore.Open(ctx, storeOpts)
		store = opened
		return err
	})
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	cellOpts := []cell.Option{cell.WithLogger(logger)}
	engineOpts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithTickInterval(cfg.Schedule.TickInterval.Std()),
		lifecycle.WithSaveInterval(cfg.Schedule.SaveInterval.Std()),
		lifecycle.WithCatchUpOnResume(cfg.Schedule.CatchUpOnResume),
	}
	if recorder != nil {
		cellOpts = append(cellOpts, cell.WithRecorder(recorder))
		engineOpts = append(engineOpts, lifecycle.WithRecorder(recorder))
	}
	if d := cfg.Store.WriteTimeout.Std(); d > 0 {
		cellOpts = append(cellOpts, cell.WithWriteTimeout(d))
	}

	keys := lifecycle.Keys{Cans: cfg.Keys.Cans, State: cfg.Keys.State, Timestamp: cfg.Keys.Timestamp}
	cells := lifecycle.NewCells(store, keys, cfg.Pet, clockwork.NewRealClock(), cellOpts...)
	engine := lifecycle.New(cells, cfg.Pet, timers, engineOpts...)

	if err := engine.Mount(ctx); err != nil {
		_ = engine.Close(ctx)
		_ = store.Close()
		return nil, err
	}
	return &Session{Store: store, Cells: cells, Engine: engine}, nil
}

// Close saves unsaved changes, drains pending writes and closes the store.
func (s *Session) Close(ctx context.Context) error {
	engineErr := s.Engine.Close(ctx)
	if err := s.Store.Close(); err != nil {
		return err
	}
	return engineErr
}

// withSession runs fn against a mounted engine and always closes it.
func withSession(root *CLI, fn func(ctx context.Context, s *Session) error) (err error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	s, err := OpenSession(ctx, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, s)
}
