//go:build !windows

package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/logfields"
)

// notifyAppState maps job-control signals onto app states: SIGTSTP sends the
// companion to the background and SIGCONT brings it back.
func notifyAppState(ctx context.Context, states chan<- lifecycle.AppState) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTSTP, syscall.SIGCONT)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				state := lifecycle.AppActive
				if sig == syscall.SIGTSTP {
					state = lifecycle.AppBackground
				}
				slog.Debug("Signal received", slog.String("signal", sig.String()), logfields.AppState(string(state)))
				select {
				case states <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return func() { signal.Stop(sigs) }
}
