package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

func TestStdoutWriterJSONFallback(t *testing.T) {
	if _, ok := newStdoutWriter(config.DefaultThresholds(), false).(*JSONStdoutWriter); !ok {
		t.Fatalf("expected JSON writer without a terminal")
	}
	if _, ok := newStdoutWriter(config.DefaultThresholds(), true).(*ColorStdoutWriter); !ok {
		t.Fatalf("expected color writer on a terminal")
	}

	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	if err := w.Write(sampleReading()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var got telemetry.Reading
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if got.Predicted() != 31.6 || len(got.Alerts) != 1 {
		t.Fatalf("unexpected reading: %+v", got)
	}

	buf.Reset()
	if err := w.WriteHealth(sampleHealth()); err != nil {
		t.Fatalf("write health: %v", err)
	}
	if !strings.Contains(buf.String(), `"status":"DEGRADED"`) {
		t.Fatalf("unexpected health output: %q", buf.String())
	}
}

func TestStdoutWriterColorized(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{th: config.DefaultThresholds(), out: buf}
	if err := w.Write(sampleReading()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Alert Thresholds:") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, colorRed+"temp=31.2") {
		t.Fatalf("expected hot temperature in red: %q", output)
	}
	if !strings.Contains(output, "High temperature: 31.2°C") {
		t.Fatalf("alert not printed: %q", output)
	}

	buf.Reset()
	if err := w.WriteHealth(sampleHealth()); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Alert Thresholds:") {
		t.Fatalf("overview printed more than once")
	}
	if !strings.Contains(buf.String(), colorYellow+"HEALTH DEGRADED") {
		t.Fatalf("unexpected health line: %q", buf.String())
	}
}
