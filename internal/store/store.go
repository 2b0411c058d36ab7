// Package store delivers readings and device health to the telemetry store
// and reads history and remote thresholds back.
package store

import (
	"context"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// Store is the remote telemetry store as seen by the simulator.
type Store interface {
	FetchHistory(ctx context.Context) (telemetry.Series, error)
	AppendReading(ctx context.Context, r telemetry.Reading) error
	PutHealth(ctx context.Context, h telemetry.HealthSummary) error
	FetchThresholds(ctx context.Context) (config.ThresholdOverrides, error)
}

var (
	_ Store = (*HTTPStore)(nil)
	_ Store = (*Memory)(nil)
)

// New returns an HTTP store when cfg has a URL and an in-memory store
// otherwise.
func New(cfg config.Store, opts ...BaseClientOption) (Store, error) {
	if cfg.URL == "" {
		return NewMemory(0), nil
	}
	s, err := NewHTTPStore(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
