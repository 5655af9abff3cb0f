package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "companion"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	storeOps        *prom.HistogramVec
	persistFailures *prom.CounterVec
	triggers        *prom.CounterVec
	actions         *prom.CounterVec
	active          prom.Gauge
	fullness        prom.Gauge
	happiness       prom.Gauge
	experience      prom.Gauge
	level           prom.Gauge
	cans            prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	gauge := func(name, help string) prom.Gauge {
		return prom.NewGauge(prom.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	pr := &PrometheusRecorder{
		storeOps: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of durable store operations",
			Buckets:   prom.DefBuckets,
		}, []string{"backend", "op", "result"}),
		persistFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed cell persists by key",
		}, []string{"key"}),
		triggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_fires_total",
			Help:      "Periodic trigger executions",
		}, []string{"trigger"}),
		actions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "User actions by outcome",
		}, []string{"action", "outcome"}),
		active:     gauge("active", "1 while the engine is in the foreground"),
		fullness:   gauge("fullness", "Current fullness"),
		happiness:  gauge("happiness", "Current happiness"),
		experience: gauge("experience", "Accumulated experience"),
		level:      gauge("level", "Current level"),
		cans:       gauge("cans", "Available cans"),
	}
	reg.MustRegister(pr.storeOps, pr.persistFailures, pr.triggers, pr.actions,
		pr.active, pr.fullness, pr.happiness, pr.experience, pr.level, pr.cans)
	return pr
}

func (p *PrometheusRecorder) ObserveStoreOp(backend, op string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.storeOps.WithLabelValues(backend, op, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPersistFailure(key string) {
	if p == nil {
		return
	}
	p.persistFailures.WithLabelValues(key).Inc()
}

func (p *PrometheusRecorder) IncTrigger(trigger string) {
	if p == nil {
		return
	}
	p.triggers.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) IncAction(action, outcome string) {
	if p == nil {
		return
	}
	p.actions.WithLabelValues(action, outcome).Inc()
}

func (p *PrometheusRecorder) SetPhase(active bool) {
	if p == nil {
		return
	}
	if active {
		p.active.Set(1)
		return
	}
	p.active.Set(0)
}

func (p *PrometheusRecorder) SetCompanion(s CompanionStats) {
	if p == nil {
		return
	}
	p.fullness.Set(s.Fullness)
	p.happiness.Set(s.Happiness)
	p.experience.Set(s.Experience)
	p.level.Set(float64(s.Level))
	p.cans.Set(float64(s.Cans))
}
