package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/companion/internal/config"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/pet"
)

// TuningTarget receives reloaded tuning. *Engine implements it.
type TuningTarget interface {
	SetTuning(t pet.Tuning) error
}

// ConfigWatcher reloads the pet tuning when the configuration file changes.
// Other sections are only read at startup.
type ConfigWatcher struct {
	configPath   string
	target       TuningTarget
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu         sync.Mutex
	current    *config.Config
	stopChan   chan struct{}
	stopOnce   sync.Once
	reloadChan chan struct{}
	reloaded   chan error
}

// NewConfigWatcher creates a watcher for configPath. current is the
// configuration the process started with.
func NewConfigWatcher(configPath string, current *config.Config, target TuningTarget) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath:   absPath,
		target:       target,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		current:      current,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
	}, nil
}

// SetDebounce changes the quiet period before a reload.
func (cw *ConfigWatcher) SetDebounce(d time.Duration) { cw.debounceTime = d }

// Reloaded returns a channel that receives the outcome of every reload
// attempt. It must be called before Start.
func (cw *ConfigWatcher) Reloaded() <-chan error {
	cw.reloaded = make(chan error, 8)
	return cw.reloaded
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Watch the directory: editors replace files instead of writing in place.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Watching configuration", logfields.Path(cw.configPath))
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				cw.triggerReload()
			case event.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.Path(event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case <-cw.reloadChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounceTime, func() {
				err := cw.performReload()
				if err != nil {
					slog.Error("Failed to reload configuration", logfields.Error(err))
				}
				if cw.reloaded != nil {
					select {
					case cw.reloaded <- err:
					default:
					}
				}
			})
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// Reload already pending
	}
}

func (cw *ConfigWatcher) performReload() error {
	next, err := config.Load(cw.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.current != nil {
		if next.Store != cw.current.Store || next.Keys != cw.current.Keys || next.Schedule != cw.current.Schedule {
			slog.Warn("Store, keys and schedule changes take effect after restart", logfields.Path(cw.configPath))
		}
		if next.Pet == cw.current.Pet {
			slog.Debug("Pet tuning unchanged")
			return nil
		}
	}

	if err := cw.target.SetTuning(next.Pet); err != nil {
		return fmt.Errorf("failed to apply tuning: %w", err)
	}
	cw.current = next
	slog.Info("Configuration reloaded", logfields.Section("pet"))
	return nil
}
