package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/logfields"
)

const consoleHelp = "commands: feed, pet, award N, status, active, background, inactive, quit"

// Console turns text commands into engine actions and app-state changes.
type Console struct {
	engine *lifecycle.Engine
	out    io.Writer
	states chan<- lifecycle.AppState
}

// NewConsole creates a console writing replies to out. App-state commands
// are forwarded to states.
func NewConsole(engine *lifecycle.Engine, out io.Writer, states chan<- lifecycle.AppState) *Console {
	return &Console{engine: engine, out: out, states: states}
}

// Serve reads commands line by line until quit, EOF or ctx is done.
func (c *Console) Serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			quit, err := c.Handle(ctx, line)
			if err != nil {
				slog.Debug("Command rejected", logfields.Action(line), logfields.Error(err))
				_, _ = fmt.Fprintf(c.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Handle executes one command line and reports whether the console should stop.
func (c *Console) Handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true, nil
	case "feed":
		return false, Feed(c.out, c.engine)
	case "pet":
		return false, Pet(c.out, c.engine)
	case "award":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: award N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("award: %q is not a number", args[0])
		}
		return false, Award(c.out, c.engine, n)
	case "status":
		return false, WriteStatus(c.out, c.engine.Status(), false)
	case "help":
		_, err := fmt.Fprintln(c.out, consoleHelp)
		return false, err
	default:
		state, err := lifecycle.ParseAppState(cmd)
		if err != nil {
			return false, fmt.Errorf("unknown command %q (%s)", cmd, consoleHelp)
		}
		select {
		case c.states <- state:
		case <-ctx.Done():
			return true, nil
		}
		return false, nil
	}
}
