package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/config"
	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/pet"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.StoreBackendMemory}
	return cfg
}

func openMemorySession(t *testing.T) *Session {
	t.Helper()
	s, err := OpenSession(t.Context(), memoryConfig(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.yaml")
	var out bytes.Buffer

	require.NoError(t, RunInit(&out, path, false))
	assert.Contains(t, out.String(), "initialized successfully")
	assert.FileExists(t, path)

	require.Error(t, RunInit(&out, path, false))
}

func TestSessionPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Backend: config.StoreBackendFS, Path: dir}

	hungry, err := pet.SnapshotCodec{}.Encode(pet.Snapshot{
		State:     pet.State{Fullness: 10, Happiness: 10},
		SavedAtMS: time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "petData.kv"), []byte(hungry), 0o600))

	s, err := OpenSession(t.Context(), cfg, nil, nil)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, Award(&out, s.Engine, 3))
	require.NoError(t, Feed(&out, s.Engine))
	require.NoError(t, Pet(&out, s.Engine))
	require.NoError(t, s.Close(t.Context()))

	assert.Contains(t, out.String(), "You have 3 cans")
	assert.Contains(t, out.String(), "2 cans left")
	assert.Contains(t, out.String(), "Petted.")

	s, err = OpenSession(t.Context(), cfg, nil, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close(t.Context()) }()
	st := s.Engine.Status()
	assert.Equal(t, 2, st.Cans)
	assert.InDelta(t, 30.0, st.Fullness, 0.5)
	assert.InDelta(t, 20.0, st.Happiness, 0.5)
	assert.InDelta(t, 15.0, st.Experience, 1e-9)
}

func TestActionsReportRejections(t *testing.T) {
	s := openMemorySession(t)
	var out bytes.Buffer

	require.NoError(t, Feed(&out, s.Engine))
	require.NoError(t, Pet(&out, s.Engine))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, pet.Notices(pet.FeedAlreadyFull), lines[0])
	assert.Contains(t, pet.Notices(pet.PetAlreadySatisfied), lines[1])

	assert.ErrorIs(t, Award(&out, s.Engine, 0), lifecycle.ErrInvalidAward)
}

func TestWriteStatus(t *testing.T) {
	s := openMemorySession(t)

	var text bytes.Buffer
	require.NoError(t, WriteStatus(&text, s.Engine.Status(), false))
	assert.Contains(t, text.String(), "Level 0 (0/100 xp)")
	assert.Contains(t, text.String(), "Fullness  100%")
	assert.Contains(t, text.String(), "Phase     inactive")

	var raw bytes.Buffer
	require.NoError(t, WriteStatus(&raw, s.Engine.Status(), true))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Equal(t, "inactive", decoded["phase"])
	assert.Equal(t, true, decoded["mounted"])
	assert.EqualValues(t, 100, decoded["fullness_percent"])
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cli := &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")}
	cfg, err := cli.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigReportsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\nbackend = \"floppy\"\n"), 0o600))

	_, err := (&CLI{Config: path}).LoadConfig()
	require.Error(t, err)
}

func TestRunCompanion(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("award 2\nstatus\nbackground\nquit\n")

	err := RunCompanion(t.Context(), memoryConfig(), RunOptions{Input: in, Output: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), consoleHelp)
	assert.Contains(t, out.String(), "You have 2 cans")
	assert.Contains(t, out.String(), "Cans      2")
	assert.Contains(t, out.String(), "Phase     active")
}
