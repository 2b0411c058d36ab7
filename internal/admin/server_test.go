package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/sim"
	"smartiot-sim/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	s := sim.NewSimulator(sim.Components{}, config.DefaultThresholds(), config.Default().Sampling)
	if _, err := s.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	return NewServer(s, nil), s
}

func TestHandleStatus(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	var st sim.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Iteration != 1 || st.Latest == nil {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var h telemetry.HealthSummary
	if err := json.NewDecoder(w.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.TotalReadings != 1 || h.Status != telemetry.StatusHealthy {
		t.Errorf("unexpected health: %+v", h)
	}
}

func TestHandleThresholds(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/thresholds", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var th config.Thresholds
	if err := json.NewDecoder(w.Body).Decode(&th); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if th != config.DefaultThresholds() {
		t.Errorf("unexpected thresholds: %+v", th)
	}
}

func TestHandleTogglePresentationNoise(t *testing.T) {
	server, s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/presentation-noise", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	if s.Status().PresentationNoise {
		t.Errorf("Expected presentation noise to be disabled")
	}
	var body map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["presentation_noise"] {
		t.Errorf("unexpected body: %v (%v)", body, err)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/presentation-noise", nil))
	if !s.Status().PresentationNoise {
		t.Errorf("Expected presentation noise to be enabled again")
	}
}

func TestSetPresentationNoiseExplicitly(t *testing.T) {
	server, s := newTestServer(t)

	for _, tc := range []struct {
		query string
		want  bool
	}{
		{"?enabled=false", false},
		{"?enabled=false", false},
		{"?enabled=true", true},
	} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/presentation-noise"+tc.query, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status OK, got %v", tc.query, w.Code)
		}
		if s.Status().PresentationNoise != tc.want {
			t.Errorf("%s: presentation noise = %v, want %v", tc.query, s.Status().PresentationNoise, tc.want)
		}
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/presentation-noise?enabled=maybe", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %v", w.Code)
	}
	if !s.Status().PresentationNoise {
		t.Errorf("bad request changed the setting")
	}
}

func TestToggleRequiresPost(t *testing.T) {
	server, _ := newTestServer(t)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/presentation-noise", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %v", w.Code)
	}
}

func TestHandleIndex(t *testing.T) {
	server, _ := newTestServer(t)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Main Sensor Unit") || !strings.Contains(body, "Latest reading") {
		t.Errorf("index missing content: %s", body)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	server, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := server.Start(ctx, "127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
}
