package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartiot-sim/internal/store"
	"smartiot-sim/internal/telemetry"
)

func encodeReadings(t *testing.T, rows ...telemetry.Reading) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func replayRows() []telemetry.Reading {
	a := sampleReading()
	b := sampleReading()
	b.Temperature = 29.9
	b.Timestamp = telemetry.NewTimestamp(a.Timestamp.Add(10 * time.Second))
	return []telemetry.Reading{a, b}
}

func TestReplay(t *testing.T) {
	rows := replayRows()
	w := &MockWriter{}
	n, err := NewReplayer(0).Replay(encodeReadings(t, rows...), w)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != 2 || len(w.Readings) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", n, len(w.Readings))
	}
	if w.Readings[1].Temperature != 29.9 {
		t.Fatalf("row order mismatch: %+v", w.Readings)
	}
}

func TestReplaySpeed(t *testing.T) {
	var slept []time.Duration
	p := &Replayer{Speed: 5, sleep: func(d time.Duration) { slept = append(slept, d) }}
	if _, err := p.Replay(encodeReadings(t, replayRows()...), &MockWriter{}); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
}

func TestReplayBadLine(t *testing.T) {
	buf := encodeReadings(t, sampleReading())
	buf.WriteString("{not json}\n")
	n, err := NewReplayer(0).Replay(buf, &MockWriter{})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected decode error on line 2, got %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
}

func TestReplayFileToStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	raw := replayRows()[0]
	raw.PredictedTemp = nil
	raw.Alerts = nil
	if err := os.WriteFile(path, encodeReadings(t, raw).Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mem := store.NewMemory(0)
	n, err := NewReplayer(0).ReplayFile(path, NewStoreWriter(context.Background(), mem))
	if err != nil {
		t.Fatalf("ReplayFile: %v", err)
	}
	if n != 1 || mem.Len() != 1 {
		t.Fatalf("reading not appended to store")
	}

	if _, err := NewReplayer(0).ReplayFile(filepath.Join(t.TempDir(), "missing"), &MockWriter{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
