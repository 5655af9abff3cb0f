package kvstore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
)

// backends returns one fresh instance of every backend. NATS runs against an
// embedded JetStream server.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	mem, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	file, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	js, err := NewNATSStore(t.Context(), runJetStream(t), "contract")
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":        NewMemoryStore(),
		"fs":            fs,
		"sqlite-memory": mem,
		"sqlite-file":   file,
		"nats":          js,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			got, err := store.Get(ctx, "can")
			require.NoError(t, err)
			assert.True(t, got.IsNone(), "absent key")

			require.NoError(t, store.Set(ctx, "can", "3"))
			got, err = store.Get(ctx, "can")
			require.NoError(t, err)
			assert.Equal(t, "3", got.Unwrap())

			require.NoError(t, store.Set(ctx, "can", "4"))
			got, err = store.Get(ctx, "can")
			require.NoError(t, err)
			assert.Equal(t, "4", got.Unwrap(), "overwrite")

			require.NoError(t, store.Set(ctx, "petData", ""))
			got, err = store.Get(ctx, "petData")
			require.NoError(t, err)
			assert.True(t, got.IsSome(), "empty string is a value")

			payload := `{"experience":1.5,"fullness":80,"happiness":60,"savedAt":1700000000000}`
			require.NoError(t, store.Set(ctx, "petData", payload))
			got, err = store.Get(ctx, "petData")
			require.NoError(t, err)
			assert.Equal(t, payload, got.Unwrap())

			err = store.Set(ctx, "../escape", "x")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Set(t.Context(), "petLastTimestamp", "1"))
					_, err := store.Get(t.Context(), "petLastTimestamp")
					assert.NoError(t, err, "reader %d", i)
				}()
			}
			wg.Wait()
		})
	}
}

func TestValidateKey(t *testing.T) {
	for _, ok := range []string{"can", "petData", "pet_last-timestamp.v2"} {
		assert.NoError(t, ValidateKey(ok), ok)
	}
	for _, bad := range []string{"", ".hidden", "a/b", "a b", "ключ", "a\\b"} {
		err := ValidateKey(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
}
