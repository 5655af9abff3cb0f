package config

import (
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/foundation/normalization"
)

// StoreBackend selects the durable key-value implementation.
type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendFS     StoreBackend = "fs"
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendNATS   StoreBackend = "nats"
)

var storeBackendNormalizer = normalization.NewNormalizer(map[string]StoreBackend{
	"memory":     StoreBackendMemory,
	"fs":         StoreBackendFS,
	"filesystem": StoreBackendFS,
	"sqlite":     StoreBackendSQLite,
	"nats":       StoreBackendNATS,
	"jetstream":  StoreBackendNATS,
}, StoreBackendSQLite)

// NormalizeStoreBackend resolves a backend name. Empty input selects sqlite;
// unknown names are a configuration error.
func NormalizeStoreBackend(raw string) (StoreBackend, error) {
	backend, err := storeBackendNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", errors.ConfigError("unknown store backend").
			WithCause(err).
			WithContext("backend", raw).
			Build()
	}
	return backend, nil
}
