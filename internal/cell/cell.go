// Package cell provides typed values that are mirrored into a durable
// key-value store.
//
// A Cell starts with its default value, loads the stored value once in the
// background and writes every change back asynchronously, in order. Load and
// write failures never reach the caller: the in-memory value stays
// authoritative and the problem is logged.
package cell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/kvstore"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
)

// ErrClosed is reported by writes scheduled after Close.
var ErrClosed = errors.StoreError("cell is closed").WithRetry(errors.RetryNever).Build()

// Cell is a value of type T persisted under one store key.
type Cell[T any] struct {
	store        kvstore.Store
	key          string
	codec        Codec[T]
	logger       *slog.Logger
	recorder     metrics.Recorder
	writeTimeout time.Duration

	openOnce sync.Once
	ready    chan struct{}

	mu      sync.Mutex
	value   T
	encoded string
	touched bool // set before the load finished
	found   bool

	// unsynced is set while the latest encoding failed to reach the store.
	unsynced bool

	queue   []write
	tail    *Pending
	wake    chan struct{}
	running bool
	stopped chan struct{}
	closed  bool
}

type write struct {
	encoded string
	pending *Pending
}

// Option configures a Cell.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	recorder     metrics.Recorder
	writeTimeout time.Duration
}

// WithLogger sets the logger used for load and write failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder counts failed writes.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithWriteTimeout bounds each individual store write. Zero means no bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// New creates a cell holding defaultValue until the stored value is loaded.
// Nothing is read or written until Open or the first change.
func New[T any](store kvstore.Store, key string, codec Codec[T], defaultValue T, opts ...Option) *Cell[T] {
	o := options{logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cell[T]{
		store:        store,
		key:          key,
		codec:        codec,
		logger:       o.logger.With(logfields.Key(key)),
		recorder:     o.recorder,
		writeTimeout: o.writeTimeout,
		ready:        make(chan struct{}),
		value:        defaultValue,
		wake:         make(chan struct{}, 1),
		stopped:      make(chan struct{}),
	}
	if encoded, err := codec.Encode(defaultValue); err == nil {
		c.encoded = encoded
	}
	return c
}

// Key returns the store key.
func (c *Cell[T]) Key() string { return c.key }

// Open starts the one-time background load. Later calls do nothing.
func (c *Cell[T]) Open(ctx context.Context) {
	c.openOnce.Do(func() {
		go c.load(ctx)
	})
}

// Ready reports whether the load has finished.
func (c *Cell[T]) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// AwaitReady blocks until the load finished or ctx is done.
func (c *Cell[T]) AwaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Found reports whether the load produced a stored value that is now in use.
func (c *Cell[T]) Found() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.found
}

// Get returns the current in-memory value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value. When its stored form differs from the current one
// a write is scheduled.
func (c *Cell[T]) Set(value T) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(value)
}

// Update replaces the value with fn(current). fn runs under the cell's lock
// and must not call back into the cell.
func (c *Cell[T]) Update(fn func(T) T) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(fn(c.value))
}

func (c *Cell[T]) setLocked(value T) *Pending {
	c.value = value
	c.touched = true

	encoded, err := c.codec.Encode(value)
	if err != nil {
		c.logger.Warn("Cannot encode value; keeping it in memory only", logfields.Error(err))
		return Resolved(err)
	}
	if encoded == c.encoded {
		return Resolved(nil)
	}
	c.encoded = encoded
	if c.closed {
		return Resolved(ErrClosed)
	}
	c.unsynced = false
	return c.enqueueLocked(encoded)
}

// Resync schedules the current value again if its last write failed. It is
// a no-op while the store is up to date.
func (c *Cell[T]) Resync() *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.unsynced {
		return Resolved(nil)
	}
	if c.closed {
		return Resolved(ErrClosed)
	}
	c.unsynced = false
	return c.enqueueLocked(c.encoded)
}

// Unsynced reports whether the latest value failed to reach the store.
func (c *Cell[T]) Unsynced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsynced
}

// Flush waits until every write scheduled so far has finished.
func (c *Cell[T]) Flush(ctx context.Context) error {
	c.mu.Lock()
	tail := c.tail
	c.mu.Unlock()

	if tail == nil {
		return nil
	}
	select {
	case <-tail.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the write queue and stops the writer. Changes made after
// Close stay in memory only.
func (c *Cell[T]) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	running := c.running
	c.mu.Unlock()

	if !running {
		return nil
	}
	c.signal()
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cell[T]) load(ctx context.Context) {
	defer close(c.ready)

	stored, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.Warn("Load failed; using default", logfields.Error(err))
		return
	}
	raw, ok := stored.Get()
	if !ok {
		c.logger.Debug("No stored value; using default")
		return
	}

	decoded := c.codec.Decode(raw)
	if decoded.IsErr() {
		c.logger.Warn("Stored value is invalid; using default", logfields.Error(decoded.UnwrapErr()))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.touched {
		c.logger.Debug("Value changed before load finished; discarding stored value")
		return
	}
	c.value = decoded.Unwrap()
	c.found = true
	if encoded, err := c.codec.Encode(c.value); err == nil {
		c.encoded = encoded
	}
}

func (c *Cell[T]) enqueueLocked(encoded string) *Pending {
	p := newPending()
	c.queue = append(c.queue, write{encoded: encoded, pending: p})
	c.tail = p
	if !c.running {
		c.running = true
		go c.writeLoop()
	}
	c.signal()
	return p
}

func (c *Cell[T]) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cell[T]) writeLoop() {
	defer close(c.stopped)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 {
			if c.closed {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
			<-c.wake
			c.mu.Lock()
		}
		w := c.queue[0]
		c.queue[0] = write{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		err := c.persist(w.encoded)
		c.mu.Lock()
		if w.encoded == c.encoded {
			c.unsynced = err != nil
		}
		c.mu.Unlock()
		w.pending.resolve(err)
	}
}

func (c *Cell[T]) persist(encoded string) error {
	ctx := context.Background()
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	if err := c.store.Set(ctx, c.key, encoded); err != nil {
		c.recorder.IncPersistFailure(c.key)
		c.logger.Warn("Persist failed; in-memory value stays current", logfields.Error(err))
		return err
	}
	return nil
}
