package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/companion/internal/config"
	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
	"git.home.luguber.info/inful/companion/internal/schedule"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Metrics bool   `help:"Serve /metrics and /status even if monitoring is disabled in the config"`
	Listen  string `help:"Monitoring listen address (overrides monitoring.listen)"`
	NoWatch bool   `name:"no-watch" help:"Do not reload pet tuning when the config file changes"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if r.Metrics {
		cfg.Monitoring.Enabled = true
	}
	if r.Listen != "" {
		cfg.Monitoring.Listen = r.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watchPath := ""
	if !r.NoWatch {
		if _, statErr := os.Stat(root.Config); statErr == nil {
			watchPath = root.Config
		}
	}
	return RunCompanion(ctx, cfg, RunOptions{ConfigPath: watchPath, Input: os.Stdin, Output: os.Stdout})
}

// RunOptions wires the foreground loop to its surroundings.
type RunOptions struct {
	// ConfigPath enables tuning hot reload when set.
	ConfigPath string
	Input      io.Reader
	Output     io.Writer
}

// RunCompanion mounts and activates the engine, then serves console commands
// until ctx is done or the console quits. Shutdown deactivates the engine and
// waits for the final save, bounded by schedule.shutdown_timeout.
func RunCompanion(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	slog.Info("Starting companion", logfields.Backend(string(cfg.Store.Backend)))

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	sched, err := schedule.NewScheduler()
	if err != nil {
		return err
	}
	sched.Start(ctx)

	sess, err := OpenSession(ctx, cfg, sched, recorder)
	if err != nil {
		_ = sched.Stop(context.Background())
		return err
	}

	var monitor *MonitorServer
	if cfg.Monitoring.Enabled {
		monitor = NewMonitorServer(cfg.Monitoring.Listen, reg, sess.Engine)
		if err := monitor.Start(); err != nil {
			slog.Warn("Monitoring disabled", logfields.Error(err))
			monitor = nil
		}
	}

	var watcher *lifecycle.ConfigWatcher
	if opts.ConfigPath != "" {
		watcher, err = lifecycle.NewConfigWatcher(opts.ConfigPath, cfg, sess.Engine)
		if err == nil {
			err = watcher.Start(ctx)
		}
		if err != nil {
			slog.Warn("Config hot reload disabled", logfields.Error(err))
			watcher = nil
		}
	}

	states := make(chan lifecycle.AppState, 4)
	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		sess.Engine.Watch(watchCtx, states)
	}()
	stopSignals := notifyAppState(watchCtx, states)

	runErr := sess.Engine.Activate()
	if runErr == nil {
		_, _ = fmt.Fprintln(opts.Output, consoleHelp)
		console := NewConsole(sess.Engine, opts.Output, states)
		consoleCtx, stopConsole := context.WithCancel(ctx)
		consoleDone := make(chan error, 1)
		go func() { consoleDone <- console.Serve(consoleCtx, opts.Input) }()

		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received")
		case err := <-consoleDone:
			if err != nil {
				slog.Warn("Console input failed", logfields.Error(err))
			}
		}
		stopConsole()
	}

	return shutdown(ctx, cfg, shutdownParts{
		session:   sess,
		scheduler: sched,
		monitor:   monitor,
		watcher:   watcher,
		stopInputs: func() {
			stopSignals()
			stopWatch()
			<-watchDone
		},
		cause: runErr,
	})
}

type shutdownParts struct {
	session    *Session
	scheduler  *schedule.Scheduler
	monitor    *MonitorServer
	watcher    *lifecycle.ConfigWatcher
	stopInputs func()
	cause      error
}

func shutdown(runCtx context.Context, cfg *config.Config, p shutdownParts) error {
	p.stopInputs()
	if p.watcher != nil {
		_ = p.watcher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), cfg.Schedule.ShutdownTimeout.Std())
	defer cancel()

	if p.monitor != nil {
		if err := p.monitor.Stop(ctx); err != nil {
			slog.Warn("Failed to stop monitoring server", logfields.Error(err))
		}
	}

	// Close deactivates first so the save triggers are gone before the
	// scheduler stops.
	closeErr := p.session.Close(ctx)
	if err := p.scheduler.Stop(ctx); err != nil {
		slog.Warn("Failed to stop scheduler", logfields.Error(err))
	}

	if p.cause != nil {
		return p.cause
	}
	if closeErr != nil {
		return closeErr
	}
	slog.Info("Companion stopped")
	return nil
}
