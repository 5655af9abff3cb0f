package lifecycle

import (
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/foundation/normalization"
)

// AppState is the host's foreground signal.
type AppState string

const (
	AppActive     AppState = "active"
	AppBackground AppState = "background"
	AppInactive   AppState = "inactive"
)

// Foreground reports whether the state counts as active.
func (s AppState) Foreground() bool { return s == AppActive }

var appStateNormalizer = normalization.NewNormalizer(map[string]AppState{
	"active":     AppActive,
	"foreground": AppActive,
	"resume":     AppActive,
	"background": AppBackground,
	"suspend":    AppBackground,
	"inactive":   AppInactive,
}, AppInactive)

// ParseAppState resolves a host signal name.
func ParseAppState(raw string) (AppState, error) {
	if raw == "" {
		return "", errors.ValidationError("empty app state").Build()
	}
	s, err := appStateNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", errors.ValidationError("unknown app state").WithCause(err).WithContext("state", raw).Build()
	}
	return s, nil
}

// Phase is the scheduler's own state.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseActive   Phase = "active"
)
