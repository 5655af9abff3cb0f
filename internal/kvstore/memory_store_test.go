package kvstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
)

func TestMemoryStoreFailureInjection(t *testing.T) {
	s := NewMemoryStore()
	s.Seed("can", "1")

	s.FailGets(fmt.Errorf("offline"))
	_, err := s.Get(t.Context(), "can")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStore))

	s.FailGets(nil)
	s.FailSets(fmt.Errorf("read-only"))
	require.Error(t, s.Set(t.Context(), "can", "2"))
	raw, _ := s.Raw("can")
	assert.Equal(t, "1", raw)

	assert.Equal(t, MemoryCalls{Get: 1, Set: 1}, s.Calls())
}

func TestMemoryStoreHoldGets(t *testing.T) {
	s := NewMemoryStore()
	s.Seed("can", "5")
	release := s.HoldGets()

	done := make(chan string, 1)
	go func() {
		v, _ := s.Get(context.Background(), "can")
		done <- v.UnwrapOr("")
	}()

	select {
	case <-done:
		t.Fatal("get returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release() // idempotent
	assert.Equal(t, "5", <-done)
}

func TestMemoryStoreHeldGetHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	release := s.HoldGets()
	defer release()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := s.Get(ctx, "can")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set(t.Context(), "can", "1"), ErrClosed)
	_, err := s.Get(t.Context(), "can")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStoreSnapshotIsCopy(t *testing.T) {
	s := NewMemoryStore()
	s.Seed("can", "1")
	snap := s.Snapshot()
	snap["can"] = "9"
	raw, _ := s.Raw("can")
	assert.Equal(t, "1", raw)
}
