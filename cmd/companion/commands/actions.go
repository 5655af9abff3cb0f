package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/pet"
)

// FeedCmd implements the 'feed' command.
type FeedCmd struct{}

func (f *FeedCmd) Run(_ *Global, root *CLI) error {
	return withSession(root, func(_ context.Context, s *Session) error {
		return Feed(os.Stdout, s.Engine)
	})
}

// PetCmd implements the 'pet' command.
type PetCmd struct{}

func (p *PetCmd) Run(_ *Global, root *CLI) error {
	return withSession(root, func(_ context.Context, s *Session) error {
		return Pet(os.Stdout, s.Engine)
	})
}

// AwardCmd implements the 'award' command.
type AwardCmd struct {
	Amount int `arg:"" help:"Number of cans to award"`
}

func (a *AwardCmd) Run(_ *Global, root *CLI) error {
	return withSession(root, func(_ context.Context, s *Session) error {
		return Award(os.Stdout, s.Engine, a.Amount)
	})
}

// Feed feeds the companion and reports the outcome on out.
func Feed(out io.Writer, e *lifecycle.Engine) error {
	outcome, err := e.Feed()
	if err != nil {
		return err
	}
	if !outcome.Accepted() {
		_, err = fmt.Fprintln(out, pet.Notice(outcome))
		return err
	}
	st := e.Status()
	_, err = fmt.Fprintf(out, "Fed. Fullness %d%%, %d cans left.\n", st.FullnessPercent, st.Cans)
	return err
}

// Pet pets the companion and reports the outcome on out.
func Pet(out io.Writer, e *lifecycle.Engine) error {
	outcome, err := e.Pet()
	if err != nil {
		return err
	}
	if !outcome.Accepted() {
		_, err = fmt.Fprintln(out, pet.Notice(outcome))
		return err
	}
	_, err = fmt.Fprintf(out, "Petted. Happiness %d%%.\n", e.Status().HappinessPercent)
	return err
}

// Award adds n cans and reports the new total on out.
func Award(out io.Writer, e *lifecycle.Engine, n int) error {
	total, err := e.AwardCans(n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Awarded %d. You have %d cans.\n", n, total)
	return err
}
