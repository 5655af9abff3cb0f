package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Key", KeyKey, "petData", Key("petData")},
		{"Backend", KeyBackend, "sqlite", Backend("sqlite")},
		{"Session", KeySession, "s1", Session("s1")},
		{"Trigger", KeyTrigger, "decay", Trigger("decay")},
		{"Phase", KeyPhase, "active", Phase("active")},
		{"AppState", KeyAppState, "background", AppState("background")},
		{"Outcome", KeyOutcome, "fed", Outcome("fed")},
		{"Action", KeyAction, "pet", Action("pet")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Addr", KeyAddr, ":9090", Addr(":9090")},
		{"Section", KeySection, "pet", Section("pet")},
	}

	for _, tc := range cases {
		// Key drift would break log ingestion schemas.
		assert.Equal(t, tc.attrKey, tc.attr.Key, tc.name)
		assert.Equal(t, tc.attrVal, tc.attr.Value.String(), tc.name)
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, int64(1500), Elapsed(1500*time.Millisecond).Value.Int64())
	assert.Equal(t, int64(3), Level(3).Value.Int64())
	assert.Equal(t, int64(2), Cans(2).Value.Int64())
	assert.InDelta(t, 42.5, Fullness(42.5).Value.Float64(), 1e-9)
	assert.InDelta(t, 10.0, Happiness(10).Value.Float64(), 1e-9)
	assert.InDelta(t, 120.0, Experience(120).Value.Float64(), 1e-9)
}

func TestErrorHelper(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
