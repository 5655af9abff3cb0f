package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
)

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer, chan lifecycle.AppState, *Session) {
	t.Helper()
	s := openMemorySession(t)
	var out bytes.Buffer
	states := make(chan lifecycle.AppState, 4)
	return NewConsole(s.Engine, &out, states), &out, states, s
}

func TestConsoleHandle(t *testing.T) {
	c, out, states, s := newTestConsole(t)
	ctx := t.Context()

	quit, err := c.Handle(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, quit)

	_, err = c.Handle(ctx, "Award 4")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Engine.Status().Cans)
	assert.Contains(t, out.String(), "You have 4 cans")

	_, err = c.Handle(ctx, "award")
	assert.Error(t, err)
	_, err = c.Handle(ctx, "award many")
	assert.Error(t, err)
	_, err = c.Handle(ctx, "award -1")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidAward)

	_, err = c.Handle(ctx, "status")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Cans      4")

	_, err = c.Handle(ctx, "background")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.AppBackground, <-states)
	_, err = c.Handle(ctx, "resume")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.AppActive, <-states)

	_, err = c.Handle(ctx, "dance")
	assert.ErrorContains(t, err, "unknown command")

	quit, err = c.Handle(ctx, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestConsoleServeStopsAtQuit(t *testing.T) {
	c, out, _, s := newTestConsole(t)

	err := c.Serve(t.Context(), strings.NewReader("award 1\nnonsense\nquit\naward 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Engine.Status().Cans)
	assert.Contains(t, out.String(), "error: unknown command")
}

func TestConsoleServeStopsAtEOF(t *testing.T) {
	c, _, _, s := newTestConsole(t)

	require.NoError(t, c.Serve(t.Context(), strings.NewReader("award 2")))
	assert.Equal(t, 2, s.Engine.Status().Cans)
}
