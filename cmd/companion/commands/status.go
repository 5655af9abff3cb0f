package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	JSON bool `help:"Print the status as JSON"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	return withSession(root, func(_ context.Context, sess *Session) error {
		return WriteStatus(os.Stdout, sess.Engine.Status(), s.JSON)
	})
}

// WriteStatus renders st as text or indented JSON.
func WriteStatus(w io.Writer, st lifecycle.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	_, err := fmt.Fprintf(w,
		"Level %d (%.0f/%.0f xp)\nFullness  %3d%% (%.1f/%.0f)\nHappiness %3d%% (%.1f/%.0f)\nCans      %d\nPhase     %s\n",
		st.Level, st.RestExperience, st.ExperiencePerLevel,
		st.FullnessPercent, st.Fullness, st.MaxFullness,
		st.HappinessPercent, st.Happiness, st.MaxHappiness,
		st.Cans, st.Phase)
	return err
}
