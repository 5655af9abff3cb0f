package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/metrics"
	"git.home.luguber.info/inful/companion/internal/pet"
)

type fixedStatus lifecycle.Status

func (f fixedStatus) Status() lifecycle.Status { return lifecycle.Status(f) }

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMonitorServer(t *testing.T) {
	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).IncTrigger("decay")
	source := fixedStatus{View: pet.View{Level: 3, Cans: 7}, Phase: lifecycle.PhaseActive, Mounted: true}

	m := NewMonitorServer("127.0.0.1:0", reg, source)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	base := "http://" + m.Addr()

	code, body := get(t, base+"/status")
	require.Equal(t, http.StatusOK, code)
	var st lifecycle.Status
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, 7, st.Cans)
	assert.Equal(t, lifecycle.PhaseActive, st.Phase)

	code, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `companion_trigger_fires_total{trigger="decay"} 1`)

	code, _ = get(t, base+"/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestMonitorServerStopBeforeStart(t *testing.T) {
	m := NewMonitorServer("127.0.0.1:0", prom.NewRegistry(), fixedStatus{})
	assert.NoError(t, m.Stop(t.Context()))
}
