package pet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/companion/internal/foundation"
	"git.home.luguber.info/inful/companion/internal/foundation/errors"
)

// snapshotRecord is the wire shape of a Snapshot. Pointers distinguish a
// missing field from a zero value.
type snapshotRecord struct {
	Experience *float64 `json:"experience"`
	Fullness   *float64 `json:"fullness"`
	Happiness  *float64 `json:"happiness"`
	SavedAt    *int64   `json:"savedAt,omitempty"`
}

// SnapshotCodec encodes Snapshot as
// {"experience":E,"fullness":F,"happiness":H,"savedAt":MS}.
type SnapshotCodec struct{}

func (SnapshotCodec) Encode(s Snapshot) (string, error) {
	rec := snapshotRecord{
		Experience: &s.Experience,
		Fullness:   &s.Fullness,
		Happiness:  &s.Happiness,
	}
	if s.SavedAtMS > 0 {
		rec.SavedAt = &s.SavedAtMS
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data), nil
}

// Decode rejects records with missing, non-numeric, non-finite or negative
// stats. Unknown fields are ignored.
func (SnapshotCodec) Decode(raw string) foundation.Result[Snapshot, error] {
	var rec snapshotRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return foundation.Err[Snapshot, error](malformed("snapshot", raw, err))
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"experience", rec.Experience},
		{"fullness", rec.Fullness},
		{"happiness", rec.Happiness},
	}
	for _, f := range fields {
		if f.value == nil {
			return foundation.Err[Snapshot, error](malformed("snapshot", raw, fmt.Errorf("missing %s", f.name)))
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) || *f.value < 0 {
			return foundation.Err[Snapshot, error](malformed("snapshot", raw, fmt.Errorf("%s out of range: %v", f.name, *f.value)))
		}
	}

	snap := Snapshot{State: State{
		Experience: *rec.Experience,
		Fullness:   *rec.Fullness,
		Happiness:  *rec.Happiness,
	}}
	if rec.SavedAt != nil {
		if *rec.SavedAt < 0 {
			return foundation.Err[Snapshot, error](malformed("snapshot", raw, fmt.Errorf("negative savedAt")))
		}
		snap.SavedAtMS = *rec.SavedAt
	}
	return foundation.Ok[Snapshot, error](snap)
}

// TimestampCodec stores epoch milliseconds as a JSON number.
type TimestampCodec struct{}

func (TimestampCodec) Encode(ms int64) (string, error) {
	return strconv.FormatInt(ms, 10), nil
}

func (TimestampCodec) Decode(raw string) foundation.Result[int64, error] {
	n, err := decodeInteger(raw)
	if err != nil {
		return foundation.Err[int64, error](malformed("timestamp", raw, err))
	}
	return foundation.Ok[int64, error](n)
}

// CansCodec stores the can count as a JSON number.
type CansCodec struct{}

func (CansCodec) Encode(n int) (string, error) {
	if n < 0 || n > MaxCans {
		return "", fmt.Errorf("encode cans: count %d out of range", n)
	}
	return strconv.Itoa(n), nil
}

func (CansCodec) Decode(raw string) foundation.Result[int, error] {
	n, err := decodeInteger(raw)
	if err != nil {
		return foundation.Err[int, error](malformed("cans", raw, err))
	}
	if n > MaxCans {
		return foundation.Err[int, error](malformed("cans", raw, fmt.Errorf("count too large")))
	}
	return foundation.Ok[int, error](int(n))
}

// decodeInteger accepts a non-negative JSON number with no fractional part.
func decodeInteger(raw string) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	if dec.More() {
		return 0, fmt.Errorf("trailing data")
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("not a number")
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("not an integer: %s", num)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

func malformed(kind, raw string, cause error) error {
	if len(raw) > 64 {
		raw = raw[:64] + "..."
	}
	return errors.ValidationError("malformed "+kind+" record").
		WithCause(cause).
		WithContext("raw", raw).
		Build()
}
