package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
)

// ResultOf maps a success flag to a label.
func ResultOf(success bool) ResultLabel {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// Recorder defines observability hooks for the companion engine. Implementations
// may forward to Prometheus, OpenTelemetry, etc. NoopRecorder is the default so
// callers never need nil checks.
type Recorder interface {
	ObserveStoreOp(backend, op string, d time.Duration, result ResultLabel)
	IncPersistFailure(key string)
	IncTrigger(trigger string)        // trigger: decay|save
	IncAction(action, outcome string) // action: feed|pet|award
	SetPhase(active bool)
	SetCompanion(stats CompanionStats)
}

// CompanionStats is the gauge snapshot published after every state change.
type CompanionStats struct {
	Fullness   float64
	Happiness  float64
	Experience float64
	Level      int
	Cans       int
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStoreOp(string, string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncPersistFailure(string)                                  {}
func (NoopRecorder) IncTrigger(string)                                         {}
func (NoopRecorder) IncAction(string, string)                                  {}
func (NoopRecorder) SetPhase(bool)                                             {}
func (NoopRecorder) SetCompanion(CompanionStats)                               {}
