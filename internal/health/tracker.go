// Package health tracks delivery reliability for the simulated device.
package health

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartiot-sim/internal/telemetry"
)

// Status cut-offs on reliability percent.
const (
	criticalBelow = 80.0
	degradedBelow = 95.0
)

// Tracker counts delivery attempts since process start. Counters only grow.
type Tracker struct {
	deviceID   string
	deviceName string
	sessionID  string
	now        func() time.Time

	mu          sync.Mutex
	start       time.Time
	total       int
	successful  int
	failed      int
	lastSuccess *time.Time
}

// NewTracker starts tracking now. A nil clock uses time.Now.
func NewTracker(deviceID, deviceName string, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		deviceID:   deviceID,
		deviceName: deviceName,
		sessionID:  uuid.NewString(),
		now:        now,
		start:      now(),
	}
}

// SessionID identifies this process run.
func (t *Tracker) SessionID() string { return t.sessionID }

// Record counts one delivery attempt.
func (t *Tracker) Record(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	if success {
		t.successful++
		ts := t.now()
		t.lastSuccess = &ts
	} else {
		t.failed++
	}
}

// Summary derives the health record at the current time.
func (t *Tracker) Summary() telemetry.HealthSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	reliability := 100.0
	if t.total > 0 {
		reliability = float64(t.successful) / float64(t.total) * 100
	}

	s := telemetry.HealthSummary{
		DeviceID:           t.deviceID,
		DeviceName:         t.deviceName,
		SessionID:          t.sessionID,
		Status:             Status(reliability),
		UptimeHours:        telemetry.Round2(now.Sub(t.start).Hours()),
		TotalReadings:      t.total,
		SuccessfulReadings: t.successful,
		FailedReadings:     t.failed,
		ReliabilityPercent: telemetry.Round2(reliability),
		LastUpdate:         telemetry.NewTimestamp(now),
	}
	if t.lastSuccess != nil {
		ls := telemetry.NewTimestamp(*t.lastSuccess)
		s.LastSuccessfulTransmission = &ls
	}
	return s
}

// Status classifies a reliability percentage.
func Status(reliability float64) string {
	switch {
	case math.IsNaN(reliability) || reliability < criticalBelow:
		return telemetry.StatusCritical
	case reliability < degradedBelow:
		return telemetry.StatusDegraded
	default:
		return telemetry.StatusHealthy
	}
}
