package kvstore

import (
	"testing"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runJetStream starts an embedded NATS server with JetStream on a random port
// and returns its client URL.
func runJetStream(t *testing.T) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func TestNATSStoreSharesBucket(t *testing.T) {
	url := runJetStream(t)

	first, err := NewNATSStore(t.Context(), url, "companion")
	require.NoError(t, err)
	got, err := first.Get(t.Context(), "can")
	require.NoError(t, err)
	assert.True(t, got.IsNone(), "missing key maps to None")
	require.NoError(t, first.Set(t.Context(), "can", "7"))
	require.NoError(t, first.Close())

	second, err := NewNATSStore(t.Context(), url, "companion")
	require.NoError(t, err)
	defer second.Close()
	got, err = second.Get(t.Context(), "can")
	require.NoError(t, err)
	assert.Equal(t, "7", got.Unwrap())
}

func TestOpenNATS(t *testing.T) {
	url := runJetStream(t)

	store, err := Open(t.Context(), Options{Backend: BackendNATS, NATSURL: url, Bucket: "companion"})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &NATSStore{}, store)

	_, err = NewNATSStore(t.Context(), url, "")
	assert.Error(t, err, "bucket is required")
}
