package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"smartiot-sim/internal/telemetry"
)

// storedReading is the loose shape of a row as it comes back from the store.
// Numeric fields may arrive as numbers, numeric strings or booleans.
type storedReading struct {
	Temperature   json.RawMessage `json:"temperature"`
	Humidity      json.RawMessage `json:"humidity"`
	Motion        json.RawMessage `json:"motion"`
	Timestamp     json.RawMessage `json:"timestamp"`
	DeviceID      string          `json:"device_id"`
	DeviceName    string          `json:"device_name"`
	PredictedTemp json.RawMessage `json:"predicted_temp"`
}

// DecodeHistory parses a keyed map of stored readings. Rows missing a
// numeric temperature, humidity or motion, or a parsable timestamp, are
// dropped. The result is stably sorted by timestamp.
func DecodeHistory(data []byte) (telemetry.Series, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return telemetry.Series{}, nil
	}
	var rows map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	// Keys are push ids that sort chronologically; visiting them in order
	// makes ties on timestamp deterministic.
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(telemetry.Series, 0, len(rows))
	for _, k := range keys {
		r, ok := decodeRow(rows[k])
		if ok {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp.Time)
	})
	return out, nil
}

func decodeRow(raw json.RawMessage) (telemetry.Reading, bool) {
	var s storedReading
	if err := json.Unmarshal(raw, &s); err != nil {
		return telemetry.Reading{}, false
	}
	temp, ok1 := number(s.Temperature)
	humidity, ok2 := number(s.Humidity)
	motion, ok3 := number(s.Motion)
	if !ok1 || !ok2 || !ok3 {
		return telemetry.Reading{}, false
	}
	var tsText string
	if err := json.Unmarshal(s.Timestamp, &tsText); err != nil || tsText == "" {
		return telemetry.Reading{}, false
	}
	ts, err := telemetry.ParseTimestamp(tsText)
	if err != nil {
		return telemetry.Reading{}, false
	}

	r := telemetry.Reading{
		Temperature: temp,
		Humidity:    humidity,
		Motion:      motionFlag(motion),
		Timestamp:   ts,
		DeviceID:    s.DeviceID,
		DeviceName:  s.DeviceName,
	}
	if p, ok := number(s.PredictedTemp); ok {
		r = r.WithForecast(p)
	}
	return r, true
}

func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func motionFlag(v float64) int {
	if v != 0 {
		return 1
	}
	return 0
}
