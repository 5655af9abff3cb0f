package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStarted(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler()
	require.NoError(t, err)
	s.Start(t.Context())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s := newStarted(t)

		id, err := s.ScheduleEvery("decay", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.Equal(t, []string{"decay"}, s.Jobs())
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s := newStarted(t)

		_, err := s.ScheduleEvery("decay", 0, func() {})
		require.Error(t, err)
		_, err = s.ScheduleEvery("decay", -time.Second, func() {})
		require.Error(t, err)
	})

	t.Run("runs repeatedly", func(t *testing.T) {
		s := newStarted(t)
		var runs atomic.Int32

		_, err := s.ScheduleEvery("save", 20*time.Millisecond, func() { runs.Add(1) })
		require.NoError(t, err)

		require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	})
}

func TestScheduler_Remove(t *testing.T) {
	s := newStarted(t)
	var runs atomic.Int32

	id, err := s.ScheduleEvery("decay", 20*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Remove(id))
	assert.Empty(t, s.Jobs())

	// Allow an in-flight run to finish, then expect silence.
	time.Sleep(40 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())

	assert.Error(t, s.Remove("not-a-uuid"))
}
