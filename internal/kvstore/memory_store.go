package kvstore

import (
	"context"
	"maps"
	"sync"

	"git.home.luguber.info/inful/companion/internal/foundation"
)

// MemoryStore is an in-memory Store. It is the backend for ephemeral runs and
// lets tests inject failures and hold loads open.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	calls  MemoryCalls
	getErr error
	setErr error
	gate   <-chan struct{}
	closed bool
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Get int
	Set int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemoryStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := ValidateKey(key); err != nil {
		return foundation.None[string](), err
	}

	m.mu.Lock()
	m.calls.Get++
	gate, getErr, closed := m.gate, m.getErr, m.closed
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return foundation.None[string](), ctx.Err()
		}
	}
	if closed {
		return foundation.None[string](), ErrClosed
	}
	if getErr != nil {
		return foundation.None[string](), wrapStoreErr("get", "memory", key, getErr)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[key]; ok {
		return foundation.Some(v), nil
	}
	return foundation.None[string](), nil
}

// Set stores value under key.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Set++
	if m.closed {
		return ErrClosed
	}
	if m.setErr != nil {
		return wrapStoreErr("set", "memory", key, m.setErr)
	}
	m.data[key] = value
	return nil
}

// Close marks the store closed. Data is kept for inspection.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Seed writes a value without counting a call or checking failures.
func (m *MemoryStore) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Raw returns the stored value directly.
func (m *MemoryStore) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Snapshot returns a copy of all stored values.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// Calls returns the invocation counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// FailGets makes every Get fail with err until called with nil.
func (m *MemoryStore) FailGets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// FailSets makes every Set fail with err until called with nil.
func (m *MemoryStore) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// HoldGets blocks Get calls until the returned release func is called.
func (m *MemoryStore) HoldGets() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gate = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
			m.mu.Lock()
			m.gate = nil
			m.mu.Unlock()
		})
	}
}
