package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/kvstore"
	"git.home.luguber.info/inful/companion/internal/pet"
)

// Config is the complete companion configuration.
type Config struct {
	Version    string           `yaml:"version" toml:"version"`
	Store      StoreConfig      `yaml:"store" toml:"store"`
	Keys       KeysConfig       `yaml:"keys" toml:"keys"`
	Pet        pet.Tuning       `yaml:"pet" toml:"pet"`
	Schedule   ScheduleConfig   `yaml:"schedule" toml:"schedule"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring" toml:"monitoring"`
}

// StoreConfig selects and configures the durable key-value backend.
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend" toml:"backend"`
	// Path is the directory for the fs backend and the database file for sqlite.
	Path         string   `yaml:"path,omitempty" toml:"path,omitempty"`
	NATSURL      string   `yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	Bucket       string   `yaml:"bucket,omitempty" toml:"bucket,omitempty"`
	WriteTimeout Duration `yaml:"write_timeout,omitempty" toml:"write_timeout,omitempty"`
	// OpenRetry applies to opening the store only; reads and writes are
	// never retried here.
	OpenRetry RetryConfig `yaml:"open_retry" toml:"open_retry"`
}

// Options converts the section into kvstore options.
func (s StoreConfig) Options() kvstore.Options {
	return kvstore.Options{
		Backend: kvstore.Backend(s.Backend),
		Path:    s.Path,
		NATSURL: s.NATSURL,
		Bucket:  s.Bucket,
	}
}

// KeysConfig names the store keys of the three persisted values.
type KeysConfig struct {
	Cans      string `yaml:"cans" toml:"cans"`
	State     string `yaml:"state" toml:"state"`
	Timestamp string `yaml:"timestamp" toml:"timestamp"`
}

// ScheduleConfig controls the periodic triggers while active.
type ScheduleConfig struct {
	TickInterval    Duration `yaml:"tick_interval" toml:"tick_interval"`
	SaveInterval    Duration `yaml:"save_interval" toml:"save_interval"`
	CatchUpOnResume bool     `yaml:"catch_up_on_resume" toml:"catch_up_on_resume"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" toml:"level"`
	Format LogFormat `yaml:"format" toml:"format"`
}

// MonitoringConfig enables the HTTP endpoints of `companion run`.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
}

// Format is the on-disk configuration syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the syntax from the file extension. Anything but .toml is YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath) // #nosec G304 - path chosen by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data, FormatOf(configPath))
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("path", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration bytes. Environment references (${VAR}) are
// expanded before decoding; omitted fields receive defaults.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	cfg.Store.Path = "" // filled per backend by applyDefaults
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewDecoder(bytes.NewReader(expanded)).DisallowUnknownFields().Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		if stderrors.Is(err, io.EOF) {
			err = nil // empty document
		}
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode config").
			Fatal().
			WithContext("format", string(format)).
			Build()
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg in the given syntax.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	if format == FormatTOML {
		return toml.Marshal(cfg)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Init writes a default configuration file. An existing file is only
// replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	data, err := Marshal(Default(), FormatOf(configPath))
	if err != nil {
		return fmt.Errorf("render default config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
