package kvstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFS     Backend = "fs"
	BackendSQLite Backend = "sqlite"
	BackendNATS   Backend = "nats"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend  Backend
	Path     string
	NATSURL  string
	Bucket   string
	Recorder metrics.Recorder
}

// Open constructs the configured backend. A non-nil Recorder wraps the store
// so every operation is timed.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendFS:
		store, err = NewFSStore(opts.Path)
	case BackendSQLite:
		store, err = NewSQLiteStore(opts.Path)
	case BackendNATS:
		store, err = NewNATSStore(ctx, opts.NATSURL, opts.Bucket)
	default:
		return nil, errors.ConfigError("unknown store backend").WithContext("backend", string(opts.Backend)).Build()
	}
	if err != nil {
		return nil, wrapStoreErr("open", string(opts.Backend), "", err)
	}

	slog.Debug("Store opened", logfields.Backend(string(opts.Backend)), logfields.Path(opts.Path))
	if opts.Recorder != nil {
		store = Instrument(store, string(opts.Backend), opts.Recorder)
	}
	return store, nil
}
