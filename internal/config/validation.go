package config

import (
	"fmt"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/kvstore"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	checks := []func(*Config) error{
		validateStore,
		validateKeys,
		validatePet,
		validateSchedule,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateStore(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendFS, StoreBackendSQLite:
		if cfg.Store.Path == "" {
			return invalid("store.path is required", "backend", string(cfg.Store.Backend))
		}
	case StoreBackendNATS:
		if cfg.Store.NATSURL == "" {
			return invalid("store.nats_url is required for the nats backend")
		}
		if err := kvstore.ValidateKey(cfg.Store.Bucket); err != nil {
			return wrapInvalid(err, "store.bucket is not a valid bucket name", "bucket", cfg.Store.Bucket)
		}
	default:
		return invalid("unknown store backend", "backend", string(cfg.Store.Backend))
	}
	if cfg.Store.WriteTimeout < 0 {
		return invalid("store.write_timeout must not be negative")
	}
	if r := cfg.Store.OpenRetry; r.Initial < 0 || r.Max < 0 || r.MaxRetries < 0 {
		return invalid("store.open_retry values must not be negative")
	}
	return nil
}

func validateKeys(cfg *Config) error {
	keys := map[string]string{
		"keys.cans":      cfg.Keys.Cans,
		"keys.state":     cfg.Keys.State,
		"keys.timestamp": cfg.Keys.Timestamp,
	}
	seen := make(map[string]string, len(keys))
	for _, field := range []string{"keys.cans", "keys.state", "keys.timestamp"} {
		key := keys[field]
		if err := kvstore.ValidateKey(key); err != nil {
			return wrapInvalid(err, field+" is not a valid store key", "key", key)
		}
		if other, dup := seen[key]; dup {
			return invalid(fmt.Sprintf("%s and %s use the same key", other, field), "key", key)
		}
		seen[key] = field
	}
	return nil
}

func validatePet(cfg *Config) error {
	if err := cfg.Pet.Validate(); err != nil {
		return wrapInvalid(err, "invalid pet tuning")
	}
	return nil
}

func validateSchedule(cfg *Config) error {
	if cfg.Schedule.TickInterval.Std() <= 0 {
		return invalid("schedule.tick_interval must be positive")
	}
	if cfg.Schedule.SaveInterval.Std() <= 0 {
		return invalid("schedule.save_interval must be positive")
	}
	if cfg.Schedule.ShutdownTimeout.Std() < 0 {
		return invalid("schedule.shutdown_timeout must not be negative")
	}
	return nil
}

func invalid(msg string, kv ...string) error {
	b := errors.ConfigError(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		b = b.WithContext(kv[i], kv[i+1])
	}
	return b.Build()
}

func wrapInvalid(cause error, msg string, kv ...string) error {
	b := errors.ConfigError(msg).WithCause(cause)
	for i := 0; i+1 < len(kv); i += 2 {
		b = b.WithContext(kv[i], kv[i+1])
	}
	return b.Build()
}
