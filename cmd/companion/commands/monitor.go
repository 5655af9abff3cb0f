package commands

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/companion/internal/lifecycle"
	"git.home.luguber.info/inful/companion/internal/logfields"
	"git.home.luguber.info/inful/companion/internal/metrics"
)

// StatusSource is the part of the engine the monitor exposes.
type StatusSource interface {
	Status() lifecycle.Status
}

// MonitorServer serves /metrics, /status and /healthz while the companion runs.
type MonitorServer struct {
	addr   string
	server *http.Server
	ln     net.Listener
}

// NewMonitorServer builds the handler tree; nothing listens until Start.
func NewMonitorServer(addr string, reg *prom.Registry, source StatusSource) *MonitorServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(source.Status()); err != nil {
			slog.Error("failed to write status", logfields.Error(err))
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &MonitorServer{
		addr:   addr,
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second},
	}
}

// Start binds the listen address before returning so a busy port fails fast.
func (m *MonitorServer) Start() error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("monitoring listener %s: %w", m.addr, err)
	}
	m.ln = ln
	go func() {
		if err := m.server.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("Monitoring server error", logfields.Error(err))
		}
	}()
	slog.Info("Monitoring server started", logfields.Addr(ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (m *MonitorServer) Addr() string {
	if m.ln != nil {
		return m.ln.Addr().String()
	}
	return m.addr
}

// Stop gracefully shuts the server down.
func (m *MonitorServer) Stop(ctx context.Context) error {
	if m.ln == nil {
		return nil
	}
	if err := m.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("monitoring server shutdown: %w", err)
	}
	slog.Info("Monitoring server stopped")
	return nil
}
