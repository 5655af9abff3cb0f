package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyKey        = "key"
	KeyBackend    = "backend"
	KeySession    = "session"
	KeyTrigger    = "trigger"
	KeyPhase      = "phase"
	KeyAppState   = "app_state"
	KeyOutcome    = "outcome"
	KeyAction     = "action"
	KeyFullness   = "fullness"
	KeyHappiness  = "happiness"
	KeyExperience = "experience"
	KeyLevel      = "level"
	KeyCans       = "cans"
	KeyElapsedMS  = "elapsed_ms"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyAddr       = "addr"
	KeySection    = "section"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Trigger(name string) slog.Attr   { return slog.String(KeyTrigger, name) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func AppState(s string) slog.Attr     { return slog.String(KeyAppState, s) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Action(a string) slog.Attr       { return slog.String(KeyAction, a) }
func Fullness(v float64) slog.Attr    { return slog.Float64(KeyFullness, v) }
func Happiness(v float64) slog.Attr   { return slog.Float64(KeyHappiness, v) }
func Experience(v float64) slog.Attr  { return slog.Float64(KeyExperience, v) }
func Level(l int) slog.Attr           { return slog.Int(KeyLevel, l) }
func Cans(n int) slog.Attr            { return slog.Int(KeyCans, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Elapsed(d time.Duration) slog.Attr {
	return slog.Int64(KeyElapsedMS, d.Milliseconds())
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
