package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/companion/internal/foundation"
)

const (
	fsDirMode      = 0o750
	fsFileMode     = 0o600
	fsValueExt     = ".kv"
	fsTempPattern  = ".kv-*.tmp"
	fsBackendLabel = "fs"
)

// FSStore keeps one file per key under a base directory:
//
//	<base>/
//	  can.kv
//	  petData.kv
//	  petLastTimestamp.kv
//
// Writes go to a temp file in the same directory and are renamed into
// place, so a reader never sees a partially written value.
type FSStore struct {
	basePath string
	mu       sync.RWMutex
	closed   bool
}

// NewFSStore creates the base directory if needed and returns the store.
func NewFSStore(basePath string) (*FSStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("fs store: base path is required")
	}
	if err := os.MkdirAll(basePath, fsDirMode); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

// Get reads the value file for key.
func (s *FSStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := ValidateKey(key); err != nil {
		return foundation.None[string](), err
	}
	if err := ctx.Err(); err != nil {
		return foundation.None[string](), err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return foundation.None[string](), ErrClosed
	}

	// #nosec G304 - path is built from a validated key
	data, err := os.ReadFile(s.valuePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return foundation.None[string](), nil
		}
		return foundation.None[string](), wrapStoreErr("get", fsBackendLabel, key, err)
	}
	return foundation.Some(string(data)), nil
}

// Set atomically replaces the value file for key.
func (s *FSStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.writeAtomic(s.valuePath(key), []byte(value)); err != nil {
		return wrapStoreErr("set", fsBackendLabel, key, err)
	}
	return nil
}

// Close releases resources.
func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Path returns the base directory.
func (s *FSStore) Path() string { return s.basePath }

func (s *FSStore) valuePath(key string) string {
	return filepath.Join(s.basePath, key+fsValueExt)
}

func (s *FSStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.basePath, fsTempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fsFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	cleanup = false
	return nil
}
