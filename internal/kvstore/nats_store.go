package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/companion/internal/foundation"
	"git.home.luguber.info/inful/companion/internal/logfields"
)

const natsBackendLabel = "nats"

// NATSStore keeps values in a JetStream key-value bucket.
type NATSStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	kv     jetstream.KeyValue
	bucket string
}

// NewNATSStore connects to url and opens (or creates) bucket.
func NewNATSStore(ctx context.Context, url, bucket string) (*NATSStore, error) {
	if url == "" {
		return nil, fmt.Errorf("nats store: url is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("nats store: bucket is required")
	}

	conn, err := nats.Connect(url, nats.Name("companion"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	s := &NATSStore{conn: conn, js: js, bucket: bucket}
	if err := s.initBucket(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS store ready", logfields.Addr(url), slog.String("bucket", bucket))
	return s, nil
}

func (s *NATSStore) initBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := s.js.KeyValue(ctx, s.bucket)
	if err == nil {
		s.kv = kv
		return nil
	}

	kv, err = s.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      s.bucket,
		Description: "Companion state",
		History:     1, // Overwrite semantics; no versions kept
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	s.kv = kv
	slog.Info("Created KV bucket", slog.String("bucket", s.bucket))
	return nil
}

// Get returns the value for key.
func (s *NATSStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := ValidateKey(key); err != nil {
		return foundation.None[string](), err
	}

	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return foundation.None[string](), nil
		}
		return foundation.None[string](), wrapStoreErr("get", natsBackendLabel, key, err)
	}
	return foundation.Some(string(entry.Value())), nil
}

// Set puts the value for key.
func (s *NATSStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, key, []byte(value)); err != nil {
		return wrapStoreErr("set", natsBackendLabel, key, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (s *NATSStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}
