package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// DefaultMemoryCapacity covers the forecast window with room to spare.
const DefaultMemoryCapacity = 1000

// Memory is an in-process store. It keeps the most recent readings up to
// its capacity and the last health record per device.
type Memory struct {
	mu         sync.RWMutex
	readings   telemetry.Series
	capacity   int
	health     map[string]telemetry.HealthSummary
	thresholds config.ThresholdOverrides
	validate   *validator.Validate
}

// NewMemory returns an empty store. Non-positive capacity uses the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		readings: make(telemetry.Series, 0, capacity),
		capacity: capacity,
		health:   make(map[string]telemetry.HealthSummary),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// FetchHistory returns a copy of the retained readings, oldest first.
func (m *Memory) FetchHistory(context.Context) (telemetry.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(telemetry.Series, len(m.readings))
	copy(out, m.readings)
	return out, nil
}

// AppendReading validates r like the HTTP store does and retains it.
func (m *Memory) AppendReading(_ context.Context, r telemetry.Reading) error {
	if err := m.validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readings) >= m.capacity {
		// Remove the oldest element
		m.readings = m.readings[1:]
	}
	m.readings = append(m.readings, r)
	return nil
}

// PutHealth overwrites the record for h.DeviceID.
func (m *Memory) PutHealth(_ context.Context, h telemetry.HealthSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health[h.DeviceID] = h
	return nil
}

// FetchThresholds returns the overrides set with SetThresholds.
func (m *Memory) FetchThresholds(context.Context) (config.ThresholdOverrides, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholds, nil
}

// SetThresholds sets the overrides served by FetchThresholds.
func (m *Memory) SetThresholds(o config.ThresholdOverrides) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = o
}

// Health returns the last record stored for deviceID.
func (m *Memory) Health(deviceID string) (telemetry.HealthSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.health[deviceID]
	return h, ok
}

// Len reports the number of retained readings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.readings)
}
