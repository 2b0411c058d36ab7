package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/sim"
	"smartiot-sim/internal/telemetry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testReading() telemetry.Reading {
	r := telemetry.Reading{
		Temperature: 22.5,
		Humidity:    50,
		Timestamp:   telemetry.NewTimestamp(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		DeviceID:    "sensor-001",
	}
	return r.WithForecast(22.7).WithAlerts(nil)
}

func TestNewWritersPrintOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks.Greptime.Host = "127.0.0.1"
	cfg.Sinks.Kafka.Brokers = []string{"127.0.0.1:9092"}

	ws, cleanup, err := newWriters(cfg, writerOptions{PrintOnly: true}, discardLogger())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if ws.Len() != 1 {
		t.Fatalf("expected only the console writer, got %d writers", ws.Len())
	}
	if ws.tui != nil {
		t.Fatalf("tui should not be started")
	}
}

func TestNewWritersKafkaSink(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks.Kafka.Brokers = []string{"127.0.0.1:9092"}

	ws, cleanup, err := newWriters(cfg, writerOptions{}, discardLogger())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if ws.Len() != 2 {
		t.Fatalf("expected console and kafka writers, got %d", ws.Len())
	}
}

func TestNewWritersLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	ws, cleanup, err := newWriters(config.Default(), writerOptions{LogFile: path}, discardLogger())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if ws.Len() != 2 {
		t.Fatalf("expected console and file writers, got %d", ws.Len())
	}
	if err := ws.Write(testReading()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := ws.WriteHealth(telemetry.HealthSummary{DeviceID: "sensor-001", Status: telemetry.StatusHealthy}); err != nil {
		t.Fatalf("write health failed: %v", err)
	}
	cleanup()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected log file to be non-empty")
	}
	healthInfo, err := os.Stat(sim.HealthPath(path))
	if err != nil {
		t.Fatalf("stat health failed: %v", err)
	}
	if healthInfo.Size() == 0 {
		t.Fatalf("expected health file to be non-empty")
	}
}

func TestNewWritersBadLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "readings.jsonl")
	if _, _, err := newWriters(config.Default(), writerOptions{LogFile: path}, discardLogger()); err == nil {
		t.Fatalf("expected error for unwritable log file")
	}
}

func TestRunSimulationCancelledPushesFinalHealth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	simPrintOnly, simLogFile, simTUI, simAdminAddr = true, path, false, ""
	t.Cleanup(func() { simPrintOnly, simLogFile = false, "" })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runSimulation(ctx, config.Default(), 1, discardLogger()); err != nil {
		t.Fatalf("runSimulation: %v", err)
	}

	data, err := os.ReadFile(sim.HealthPath(path))
	if err != nil {
		t.Fatalf("read health: %v", err)
	}
	var h telemetry.HealthSummary
	if err := json.Unmarshal(data, &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.DeviceID != "sensor-001" || h.TotalReadings != 0 || h.Status != telemetry.StatusHealthy {
		t.Fatalf("unexpected final health: %+v", h)
	}
}

func TestRunSimulationAppliesRemoteThresholds(t *testing.T) {
	for _, tc := range []struct {
		name     string
		config   string
		wantHigh float64
	}{
		{"valid override", `{"thresholds":{"temp_high":21}}`, 21},
		{"inverted override", `{"thresholds":{"temp_high":10}}`, 30},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/config.json":
					_, _ = w.Write([]byte(tc.config))
				case r.URL.Path == "/sensors.json" && r.Method == http.MethodPost:
					cancel()
					_, _ = w.Write([]byte(`{"name":"-N1"}`))
				default:
					_, _ = w.Write([]byte("null"))
				}
			}))
			defer srv.Close()

			simPrintOnly, simLogFile, simTUI, simAdminAddr = false, "", false, ""
			cfg := config.Default()
			cfg.Store.URL = srv.URL
			if err := runSimulation(ctx, cfg, 1, discardLogger()); err != nil {
				t.Fatalf("runSimulation: %v", err)
			}
			if cfg.Thresholds.TempHigh != tc.wantHigh {
				t.Fatalf("console thresholds temp_high = %v, want %v", cfg.Thresholds.TempHigh, tc.wantHigh)
			}
		})
	}
}

func TestRunReplayToStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(testReading()); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	replayInput, replaySpeed, replayToStore = path, 0, true
	t.Cleanup(func() { replayInput, replaySpeed, replayToStore = "", 1, false })

	n, err := runReplay(context.Background(), config.Default(), discardLogger())
	if err != nil {
		t.Fatalf("runReplay: %v", err)
	}
	if n != 3 {
		t.Fatalf("replayed %d readings, want 3", n)
	}
}

func TestVersionCommand(t *testing.T) {
	var sb strings.Builder
	versionCmd.SetOut(&sb)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(sb.String(), "smartiot-sim ") {
		t.Fatalf("unexpected version output: %q", sb.String())
	}
}
