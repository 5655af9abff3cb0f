package config

import (
	"time"

	"git.home.luguber.info/inful/companion/internal/pet"
)

const (
	DefaultCansKey      = "can"
	DefaultStateKey     = "petData"
	DefaultTimestampKey = "petLastTimestamp"

	DefaultSQLitePath   = "companion.db"
	DefaultFSPath       = "companion-data"
	DefaultNATSURL      = "nats://127.0.0.1:4222"
	DefaultNATSBucket   = "companion"
	DefaultListen       = "127.0.0.1:9464"
	DefaultTickInterval = time.Second
	DefaultSaveInterval = 5 * time.Second
	DefaultShutdown     = 5 * time.Second
	DefaultRetryInitial = time.Second
	DefaultRetryMax     = 30 * time.Second
	DefaultOpenRetries  = 2
	ConfigVersion       = "1"
)

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{
		Version: ConfigVersion,
		Store: StoreConfig{
			Backend: StoreBackendSQLite,
			Path:    DefaultSQLitePath,
			OpenRetry: RetryConfig{
				Backoff:    RetryBackoffLinear,
				Initial:    Duration(DefaultRetryInitial),
				Max:        Duration(DefaultRetryMax),
				MaxRetries: DefaultOpenRetries,
			},
		},
		Pet: pet.DefaultTuning(),
		Schedule: ScheduleConfig{
			TickInterval:    Duration(DefaultTickInterval),
			SaveInterval:    Duration(DefaultSaveInterval),
			ShutdownTimeout: Duration(DefaultShutdown),
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	_ = applyDefaults(cfg)
	return cfg
}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

var defaultAppliers = []DefaultApplier{
	storeDefaults{},
	keysDefaults{},
	scheduleDefaults{},
	loggingDefaults{},
	monitoringDefaults{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

type storeDefaults struct{}

func (storeDefaults) Domain() string { return "store" }

func (storeDefaults) ApplyDefaults(cfg *Config) error {
	backend, err := NormalizeStoreBackend(string(cfg.Store.Backend))
	if err != nil {
		return err
	}
	cfg.Store.Backend = backend

	switch backend {
	case StoreBackendSQLite:
		if cfg.Store.Path == "" {
			cfg.Store.Path = DefaultSQLitePath
		}
	case StoreBackendFS:
		if cfg.Store.Path == "" {
			cfg.Store.Path = DefaultFSPath
		}
	case StoreBackendNATS:
		if cfg.Store.NATSURL == "" {
			cfg.Store.NATSURL = DefaultNATSURL
		}
		if cfg.Store.Bucket == "" {
			cfg.Store.Bucket = DefaultNATSBucket
		}
	}

	r := &cfg.Store.OpenRetry
	r.Backoff = NormalizeRetryBackoffMode(string(r.Backoff))
	if r.Initial == 0 {
		r.Initial = Duration(DefaultRetryInitial)
	}
	if r.Max == 0 {
		r.Max = Duration(DefaultRetryMax)
	}
	return nil
}

type keysDefaults struct{}

func (keysDefaults) Domain() string { return "keys" }

func (keysDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Keys.Cans == "" {
		cfg.Keys.Cans = DefaultCansKey
	}
	if cfg.Keys.State == "" {
		cfg.Keys.State = DefaultStateKey
	}
	if cfg.Keys.Timestamp == "" {
		cfg.Keys.Timestamp = DefaultTimestampKey
	}
	return nil
}

type scheduleDefaults struct{}

func (scheduleDefaults) Domain() string { return "schedule" }

func (scheduleDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Schedule.TickInterval == 0 {
		cfg.Schedule.TickInterval = Duration(DefaultTickInterval)
	}
	if cfg.Schedule.SaveInterval == 0 {
		cfg.Schedule.SaveInterval = Duration(DefaultSaveInterval)
	}
	if cfg.Schedule.ShutdownTimeout == 0 {
		cfg.Schedule.ShutdownTimeout = Duration(DefaultShutdown)
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

type monitoringDefaults struct{}

func (monitoringDefaults) Domain() string { return "monitoring" }

func (monitoringDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Listen == "" {
		cfg.Monitoring.Listen = DefaultListen
	}
	return nil
}
