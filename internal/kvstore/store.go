// Package kvstore provides the durable string key-value stores that back
// persistent cells. Values are opaque strings; a missing key is reported as
// foundation.None rather than an error.
package kvstore

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/companion/internal/foundation"
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
)

// Store is a durable string-to-string map. Writes overwrite; there is no
// delete and no versioning. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the stored value, or None when the key was never written.
	Get(ctx context.Context, key string) (foundation.Option[string], error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrInvalidKey is returned for keys that cannot be stored portably.
var ErrInvalidKey = errors.ValidationError("invalid store key").Build()

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.StoreError("store is closed").WithRetry(errors.RetryNever).Build()

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_."

// ValidateKey checks that a key is usable by every backend: non-empty,
// limited to letters, digits, '-', '_' and '.', and not starting with '.'.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey.WithContext("reason", "empty")
	}
	if strings.HasPrefix(key, ".") {
		return ErrInvalidKey.WithContext("key", key).WithContext("reason", "leading dot")
	}
	for _, r := range key {
		if !strings.ContainsRune(keyAlphabet, r) {
			return ErrInvalidKey.WithContext("key", key).WithContext("reason", "illegal character")
		}
	}
	return nil
}

// wrapStoreErr classifies a backend failure for key.
func wrapStoreErr(op, backend, key string, err error) error {
	return errors.WrapError(err, errors.CategoryStore, op+" failed").
		Warning().
		WithRetry(errors.RetryNextTick).
		WithContext("backend", backend).
		WithContext("key", key).
		Build()
}
