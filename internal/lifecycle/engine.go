// Package lifecycle drives the companion while the host is in the foreground:
// it rehydrates the persisted state once, runs the decay and save triggers
// while active, and serializes user actions against them.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/companion/internal/cell"
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
	"git.home.luguber.info/inful/companion/internal/pet"
)

var (
	// ErrNotMounted is returned by actions issued before Mount.
	ErrNotMounted = errors.RuntimeError("engine is not mounted").WithRetry(errors.RetryUserAction).Build()
	// ErrInvalidAward is returned for non-positive awards and for awards that
	// would take the can count past pet.MaxCans.
	ErrInvalidAward = errors.ValidationError("invalid can award").Build()
)

const (
	DefaultTickInterval = time.Second
	DefaultSaveInterval = 5 * time.Second
)

// Engine owns the working companion state.
//
// Every callback (trigger fire, user action, app-state change) runs under one
// mutex. Each activation gets a fresh generation; a trigger that fires after
// its activation ended sees a stale generation and does nothing.
type Engine struct {
	cells    Cells
	timers   Timers
	clock    clockwork.Clock
	logger   *slog.Logger
	recorder metrics.Recorder

	tickInterval    time.Duration
	saveInterval    time.Duration
	catchUpOnResume bool

	mountMu sync.Mutex
	mounted bool

	mu            sync.Mutex
	tuning        pet.Tuning
	state         pet.State
	dirty         bool
	phase         Phase
	generation    uint64
	session       string
	jobs          []string
	inactiveSince time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c clockwork.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithRecorder(r metrics.Recorder) Option { return func(e *Engine) { e.recorder = r } }

// WithTickInterval sets how often the decay trigger fires. Each fire applies
// exactly one interval of decay.
func WithTickInterval(d time.Duration) Option { return func(e *Engine) { e.tickInterval = d } }

func WithSaveInterval(d time.Duration) Option { return func(e *Engine) { e.saveInterval = d } }

// WithCatchUpOnResume applies decay for the time spent inactive whenever the
// engine becomes active again, not only at Mount.
func WithCatchUpOnResume(enabled bool) Option {
	return func(e *Engine) { e.catchUpOnResume = enabled }
}

// New creates an inactive, unmounted engine.
func New(cells Cells, tuning pet.Tuning, timers Timers, opts ...Option) *Engine {
	e := &Engine{
		cells:        cells,
		timers:       timers,
		clock:        clockwork.NewRealClock(),
		logger:       slog.Default(),
		recorder:     metrics.NoopRecorder{},
		tickInterval: DefaultTickInterval,
		saveInterval: DefaultSaveInterval,
		tuning:       tuning,
		state:        tuning.Initial(),
		phase:        PhaseInactive,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mount loads the persisted values and catches the state up with the time
// that passed since the last save. It runs once per process; later calls
// return immediately.
func (e *Engine) Mount(ctx context.Context) error {
	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	if e.mounted {
		return nil
	}

	if err := e.cells.open(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "waiting for persisted values").Build()
	}

	snap := e.cells.State.Get()
	savedAt := snap.SavedAtMS
	if savedAt <= 0 {
		savedAt = e.cells.Timestamp.Get()
	}
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = e.tuning.Rehydrate(snap.State, time.UnixMilli(savedAt), now)
	e.inactiveSince = now
	e.mounted = true

	e.logger.Info("Companion rehydrated",
		logfields.Elapsed(now.Sub(time.UnixMilli(savedAt))),
		logfields.Level(e.tuning.LevelOf(e.state.Experience)),
		logfields.Fullness(e.state.Fullness),
		logfields.Happiness(e.state.Happiness),
		logfields.Cans(e.cells.Cans.Get()))
	e.publishLocked()
	return nil
}

// Mounted reports whether Mount completed.
func (e *Engine) Mounted() bool {
	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	return e.mounted
}

// Activate starts the decay and save triggers. Activating an active engine
// does nothing.
func (e *Engine) Activate() error {
	if !e.Mounted() {
		return ErrNotMounted
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseActive {
		return nil
	}

	if e.catchUpOnResume && !e.inactiveSince.IsZero() {
		away := e.clock.Since(e.inactiveSince)
		e.state = e.tuning.ApplyDecay(e.state, away)
		e.dirty = true
		e.logger.Debug("Applied decay for inactive period", logfields.Elapsed(away))
	}

	e.generation++
	gen := e.generation
	session := uuid.NewString()

	decayID, err := e.timers.ScheduleEvery(triggerDecay, e.tickInterval, func() { e.onDecay(gen) })
	if err != nil {
		return errors.WrapError(err, errors.CategoryScheduler, "register decay trigger").Build()
	}
	saveID, err := e.timers.ScheduleEvery(triggerSave, e.saveInterval, func() { e.onSave(gen) })
	if err != nil {
		if rmErr := e.timers.Remove(decayID); rmErr != nil {
			e.logger.Warn("Failed to remove decay trigger", logfields.Error(rmErr))
		}
		return errors.WrapError(err, errors.CategoryScheduler, "register save trigger").Build()
	}

	e.jobs = []string{decayID, saveID}
	e.session = session
	e.phase = PhaseActive
	e.recorder.SetPhase(true)
	e.logger.Info("Companion active", logfields.Session(session))
	return nil
}

// Deactivate stops both triggers and saves once. The returned Pending
// completes when that save reached the store; it is nil if the engine was
// not active.
func (e *Engine) Deactivate() *cell.Pending {
	e.mu.Lock()
	if e.phase != PhaseActive {
		e.mu.Unlock()
		return nil
	}
	jobs, session := e.jobs, e.session
	e.jobs = nil
	e.session = ""
	e.generation++
	e.phase = PhaseInactive
	e.inactiveSince = e.clock.Now()
	e.recorder.SetPhase(false)
	e.mu.Unlock()

	// Removed outside the lock: a fire already waiting on it is stale by now.
	for _, id := range jobs {
		if err := e.timers.Remove(id); err != nil {
			e.logger.Warn("Failed to remove trigger", logfields.Session(session), logfields.Error(err))
		}
	}
	e.logger.Info("Companion inactive", logfields.Session(session))
	return e.Save()
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// HandleAppState reacts to a foreground signal. Only crossing the
// active/non-active boundary has an effect.
func (e *Engine) HandleAppState(s AppState) *cell.Pending {
	e.logger.Debug("App state changed", logfields.AppState(string(s)))
	if s.Foreground() {
		if err := e.Activate(); err != nil {
			e.logger.Error("Failed to activate", logfields.Error(err))
		}
		return nil
	}
	return e.Deactivate()
}

// Watch applies app-state signals until ctx is done or states is closed.
func (e *Engine) Watch(ctx context.Context, states <-chan AppState) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			e.HandleAppState(s)
		}
	}
}

// Save persists the working state and the save timestamp now.
func (e *Engine) Save() *cell.Pending {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

func (e *Engine) saveLocked() *cell.Pending {
	now := e.clock.Now().UnixMilli()
	statePending := e.cells.State.Set(pet.Snapshot{State: e.state, SavedAtMS: now})
	tsPending := e.cells.Timestamp.Set(now)
	e.dirty = false
	return cell.Join(statePending, tsPending, e.cells.Cans.Resync())
}

func (e *Engine) onDecay(gen uint64) {
	e.guard(triggerDecay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation || e.phase != PhaseActive {
			return
		}
		e.state = e.tuning.ApplyDecay(e.state, e.tickInterval)
		e.dirty = true
		e.recorder.IncTrigger(triggerDecay)
		e.publishLocked()
	})
}

func (e *Engine) onSave(gen uint64) {
	e.guard(triggerSave, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation || e.phase != PhaseActive {
			return
		}
		e.saveLocked()
		e.recorder.IncTrigger(triggerSave)
	})
}

// guard keeps a panicking trigger from taking the timer goroutine down.
func (e *Engine) guard(trigger string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Trigger panicked", logfields.Trigger(trigger), slog.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// Feed feeds the companion one can.
func (e *Engine) Feed() (pet.FeedOutcome, error) {
	if !e.Mounted() {
		return "", ErrNotMounted
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next, cans, outcome := e.tuning.Feed(e.state, e.cells.Cans.Get())
	if outcome.Accepted() {
		e.state = next
		e.dirty = true
		e.cells.Cans.Set(cans)
	}
	e.recorder.IncAction("feed", string(outcome))
	e.logger.Debug("Feed", logfields.Outcome(string(outcome)), logfields.Cans(cans))
	e.publishLocked()
	return outcome, nil
}

// Pet pets the companion.
func (e *Engine) Pet() (pet.PetOutcome, error) {
	if !e.Mounted() {
		return "", ErrNotMounted
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next, outcome := e.tuning.Pet(e.state)
	if outcome.Accepted() {
		e.state = next
		e.dirty = true
	}
	e.recorder.IncAction("pet", string(outcome))
	e.logger.Debug("Pet", logfields.Outcome(string(outcome)))
	e.publishLocked()
	return outcome, nil
}

// AwardCans adds n cans and returns the new total. Awards that would push
// the total past pet.MaxCans are rejected.
func (e *Engine) AwardCans(n int) (int, error) {
	if n <= 0 || n > pet.MaxCans {
		return 0, ErrInvalidAward.WithContext("amount", n)
	}
	if !e.Mounted() {
		return 0, ErrNotMounted
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.cells.Cans.Get()
	if n > pet.MaxCans-current {
		return 0, ErrInvalidAward.WithContext("amount", n).WithContext("cans", current)
	}
	e.cells.Cans.Set(current + n)
	total := current + n
	e.recorder.IncAction("award", "awarded")
	e.logger.Debug("Cans awarded", slog.Int("amount", n), logfields.Cans(total))
	e.publishLocked()
	return total, nil
}

// Status is a read-only snapshot of the engine.
type Status struct {
	pet.View
	Phase   Phase  `json:"phase"`
	Session string `json:"session,omitempty"`
	Mounted bool   `json:"mounted"`
}

// Status returns the current view of the companion.
func (e *Engine) Status() Status {
	mounted := e.Mounted()
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		View:    e.tuning.Describe(e.state, e.cells.Cans.Get()),
		Phase:   e.phase,
		Session: e.session,
		Mounted: mounted,
	}
}

// State returns the working state.
func (e *Engine) State() pet.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tuning returns the active tuning.
func (e *Engine) Tuning() pet.Tuning {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tuning
}

// SetTuning swaps the balancing constants and re-clamps the working state
// against the new maxima.
func (e *Engine) SetTuning(t pet.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tuning = t
	e.state = t.Normalize(e.state)
	e.dirty = true
	e.publishLocked()
	e.logger.Info("Tuning updated", logfields.Level(t.LevelOf(e.state.Experience)))
	return nil
}

// Close deactivates the engine, saves unsaved changes and drains all cell
// writes, bounded by ctx.
func (e *Engine) Close(ctx context.Context) error {
	pending := e.Deactivate()

	mounted := e.Mounted()
	e.mu.Lock()
	if pending == nil && mounted {
		if e.dirty {
			pending = e.saveLocked()
		} else {
			pending = e.cells.Cans.Resync()
		}
	}
	e.mu.Unlock()

	if err := pending.Wait(ctx); err != nil {
		e.logger.Warn("Final save failed", logfields.Error(err))
	}
	return e.cells.Close(ctx)
}

func (e *Engine) publishLocked() {
	e.recorder.SetCompanion(metrics.CompanionStats{
		Fullness:   e.state.Fullness,
		Happiness:  e.state.Happiness,
		Experience: e.state.Experience,
		Level:      e.tuning.LevelOf(e.state.Experience),
		Cans:       e.cells.Cans.Get(),
	})
}
