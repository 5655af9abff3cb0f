package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/kvstore"
	"git.home.luguber.info/inful/companion/internal/pet"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, DefaultSQLitePath, cfg.Store.Path)
	assert.Equal(t, KeysConfig{Cans: "can", State: "petData", Timestamp: "petLastTimestamp"}, cfg.Keys)
	assert.Equal(t, pet.DefaultTuning(), cfg.Pet)
	assert.Equal(t, time.Second, cfg.Schedule.TickInterval.Std())
	assert.Equal(t, 5*time.Second, cfg.Schedule.SaveInterval.Std())
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, DefaultListen, cfg.Monitoring.Listen)
	require.NoError(t, ValidateConfig(cfg))
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
store:
  backend: filesystem
keys:
  cans: coins
pet:
  experience_per_level: 50
  base_max_fullness: 100
  base_max_happiness: 100
  fullness_decay_per_second: 0.5
schedule:
  tick_interval: 250ms
  catch_up_on_resume: true
logging:
  level: WARNING
  format: json
`)
	cfg, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendFS, cfg.Store.Backend)
	assert.Equal(t, DefaultFSPath, cfg.Store.Path)
	assert.Equal(t, "coins", cfg.Keys.Cans)
	assert.Equal(t, "petData", cfg.Keys.State)
	assert.InDelta(t, 50.0, cfg.Pet.ExperiencePerLevel, 1e-9)
	assert.InDelta(t, 0.5, cfg.Pet.FullnessDecayPerSecond, 1e-9)
	assert.InDelta(t, pet.DefaultTuning().FeedFullness, cfg.Pet.FeedFullness, 1e-9, "unset tuning keeps defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Schedule.TickInterval.Std())
	assert.Equal(t, 5*time.Second, cfg.Schedule.SaveInterval.Std())
	assert.True(t, cfg.Schedule.CatchUpOnResume)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
[store]
backend = "jetstream"
nats_url = "nats://broker:4222"

[schedule]
save_interval = "30s"

[monitoring]
enabled = true
listen = ":9100"
`)
	cfg, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendNATS, cfg.Store.Backend)
	assert.Equal(t, "nats://broker:4222", cfg.Store.NATSURL)
	assert.Equal(t, DefaultNATSBucket, cfg.Store.Bucket)
	assert.Equal(t, 30*time.Second, cfg.Schedule.SaveInterval.Std())
	assert.True(t, cfg.Monitoring.Enabled)
	assert.Equal(t, ":9100", cfg.Monitoring.Listen)

	opts := cfg.Store.Options()
	assert.Equal(t, kvstore.BackendNATS, opts.Backend)
	assert.Equal(t, "companion", opts.Bucket)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("COMPANION_DB", "/var/lib/companion/state.db")
	cfg, err := Parse([]byte("store:\n  backend: sqlite\n  path: ${COMPANION_DB}\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/companion/state.db", cfg.Store.Path)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"unknown yaml field", FormatYAML, "store:\n  colour: blue\n"},
		{"unknown toml field", FormatTOML, "[pet]\nwings = 2\n"},
		{"unknown backend", FormatYAML, "store:\n  backend: redis\n"},
		{"duplicate keys", FormatYAML, "keys:\n  cans: data\n  state: data\n"},
		{"invalid key", FormatYAML, "keys:\n  timestamp: \"last seen\"\n"},
		{"hidden key", FormatYAML, "keys:\n  cans: .can\n"},
		{"zero experience per level", FormatYAML, "pet:\n  experience_per_level: 0\n"},
		{"negative decay", FormatTOML, "[pet]\nhappiness_decay_per_second = -1.0\n"},
		{"negative tick", FormatYAML, "schedule:\n  tick_interval: -1s\n"},
		{"bad duration", FormatYAML, "schedule:\n  save_interval: soon\n"},
		{"malformed yaml", FormatYAML, "store: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}

func TestInitRoundTrip(t *testing.T) {
	for _, name := range []string{"companion.yaml", "companion.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "conf", name)
			require.NoError(t, Init(path, false))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)

			err = Init(path, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "already exists")
			require.NoError(t, Init(path, true))
		})
	}
}

func TestLoadWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: nope\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	got, _ := classified.Context().GetString("path")
	assert.Equal(t, path, got)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("x/companion.TOML"))
	assert.Equal(t, FormatYAML, FormatOf("companion.yml"))
	assert.Equal(t, FormatYAML, FormatOf("companion"))
}

func TestNormalizers(t *testing.T) {
	backend, err := NormalizeStoreBackend("")
	require.NoError(t, err)
	assert.Equal(t, StoreBackendSQLite, backend)

	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("chatty"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
}

func TestParseOpenRetry(t *testing.T) {
	cfg, err := Parse([]byte("store:\n  backend: nats\n  open_retry:\n    backoff: EXP\n    max_retries: 5\n"), FormatYAML)
	require.NoError(t, err)

	r := cfg.Store.OpenRetry
	assert.Equal(t, RetryBackoffExponential, r.Backoff)
	assert.Equal(t, 5, r.MaxRetries)
	assert.Equal(t, DefaultRetryInitial, r.Initial.Std())
	assert.Equal(t, DefaultRetryMax, r.Max.Std())

	_, err = Parse([]byte("store:\n  open_retry:\n    max_retries: -1\n"), FormatYAML)
	assert.Error(t, err)
}
