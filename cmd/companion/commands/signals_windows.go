//go:build windows

package commands

import (
	"context"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
)

// notifyAppState is a no-op: Windows has no job-control signals.
func notifyAppState(_ context.Context, _ chan<- lifecycle.AppState) (stop func()) {
	return func() {}
}
