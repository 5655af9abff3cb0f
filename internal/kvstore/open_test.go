package kvstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/metrics"
)

type opRecorder struct {
	metrics.NoopRecorder
	ops []string
}

func (r *opRecorder) ObserveStoreOp(backend, op string, _ time.Duration, result metrics.ResultLabel) {
	r.ops = append(r.ops, backend+"/"+op+"/"+string(result))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want any
	}{
		{"memory", Options{Backend: BackendMemory}, &MemoryStore{}},
		{"fs", Options{Backend: BackendFS, Path: t.TempDir()}, &FSStore{}},
		{"sqlite", Options{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "kv.db")}, &SQLiteStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(t.Context(), tt.opts)
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.want, store)
		})
	}

	_, err := Open(t.Context(), Options{Backend: "redis"})
	assert.Error(t, err)

	_, err = Open(t.Context(), Options{Backend: BackendNATS})
	assert.Error(t, err, "nats without url")
}

func TestOpenInstrumented(t *testing.T) {
	rec := &opRecorder{}
	store, err := Open(t.Context(), Options{Backend: BackendMemory, Recorder: rec})
	require.NoError(t, err)
	defer store.Close()

	require.IsType(t, &InstrumentedStore{}, store)
	assert.IsType(t, &MemoryStore{}, store.(*InstrumentedStore).Unwrap())

	require.NoError(t, store.Set(t.Context(), "can", "1"))
	_, err = store.Get(t.Context(), "can")
	require.NoError(t, err)
	_ = store.Set(t.Context(), "", "1")

	assert.Equal(t, []string{"memory/set/success", "memory/get/success", "memory/set/failure"}, rec.ops)
}
