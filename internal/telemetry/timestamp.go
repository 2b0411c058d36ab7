package telemetry

import (
	"bytes"
	"time"

	"github.com/relvacode/iso8601"
)

// WireLayout is the timestamp format written to the store. Dashboards parse
// it as UTC only when the literal Z suffix is present, so numeric offsets are
// never emitted.
const WireLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp wraps time.Time so it serializes as ISO 8601 UTC with a Z suffix.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp accepts any ISO 8601 date-time and normalizes it to UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := iso8601.ParseString(s)
	if err != nil {
		return Timestamp{}, err
	}
	return NewTimestamp(t), nil
}

// String returns the wire representation.
func (ts Timestamp) String() string {
	return ts.Time.UTC().Format(WireLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(b []byte) error {
	t, err := iso8601.Parse(bytes.TrimSpace(b))
	if err != nil {
		return err
	}
	*ts = NewTimestamp(t)
	return nil
}

// MarshalJSON writes the timestamp as a JSON string.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.String() + `"`), nil
}

// UnmarshalJSON reads a JSON string timestamp.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	return ts.UnmarshalText(bytes.Trim(b, `"`))
}
