package kvstore

import (
	"context"
	"time"

	"git.home.luguber.info/inful/companion/internal/foundation"
	"git.home.luguber.info/inful/companion/internal/metrics"
)

// InstrumentedStore times every operation of an inner Store.
type InstrumentedStore struct {
	inner    Store
	backend  string
	recorder metrics.Recorder
	now      func() time.Time
}

// Instrument wraps store so its operations are reported to recorder.
func Instrument(store Store, backend string, recorder metrics.Recorder) *InstrumentedStore {
	return &InstrumentedStore{inner: store, backend: backend, recorder: recorder, now: time.Now}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	start := s.now()
	v, err := s.inner.Get(ctx, key)
	s.recorder.ObserveStoreOp(s.backend, "get", s.now().Sub(start), metrics.ResultOf(err == nil))
	return v, err
}

func (s *InstrumentedStore) Set(ctx context.Context, key, value string) error {
	start := s.now()
	err := s.inner.Set(ctx, key, value)
	s.recorder.ObserveStoreOp(s.backend, "set", s.now().Sub(start), metrics.ResultOf(err == nil))
	return err
}

func (s *InstrumentedStore) Close() error { return s.inner.Close() }

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() Store { return s.inner }
