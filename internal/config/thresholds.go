package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Thresholds drive the alert evaluator.
type Thresholds struct {
	TempHigh            float64 `yaml:"temp_high" json:"temp_high" validate:"gtfield=TempLow"`
	TempLow             float64 `yaml:"temp_low" json:"temp_low"`
	HumidityHigh        float64 `yaml:"humidity_high" json:"humidity_high" validate:"gtfield=HumidityLow"`
	HumidityLow         float64 `yaml:"humidity_low" json:"humidity_low"`
	PredictionDeviation float64 `yaml:"prediction_deviation" json:"prediction_deviation" validate:"gte=0"`
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHigh:            30.0,
		TempLow:             18.0,
		HumidityHigh:        60.0,
		HumidityLow:         40.0,
		PredictionDeviation: 2.0,
	}
}

// ThresholdOverrides is a partial threshold set, as served by the remote
// config document. Nil fields leave the lower layer untouched.
type ThresholdOverrides struct {
	TempHigh            *float64 `json:"temp_high,omitempty"`
	TempLow             *float64 `json:"temp_low,omitempty"`
	HumidityHigh        *float64 `json:"humidity_high,omitempty"`
	HumidityLow         *float64 `json:"humidity_low,omitempty"`
	PredictionDeviation *float64 `json:"prediction_deviation,omitempty"`
}

// Empty reports whether no field is set.
func (o ThresholdOverrides) Empty() bool {
	return o.TempHigh == nil && o.TempLow == nil && o.HumidityHigh == nil &&
		o.HumidityLow == nil && o.PredictionDeviation == nil
}

// Apply returns t with every set override field replacing the original.
func (t Thresholds) Apply(o ThresholdOverrides) Thresholds {
	if o.TempHigh != nil {
		t.TempHigh = *o.TempHigh
	}
	if o.TempLow != nil {
		t.TempLow = *o.TempLow
	}
	if o.HumidityHigh != nil {
		t.HumidityHigh = *o.HumidityHigh
	}
	if o.HumidityLow != nil {
		t.HumidityLow = *o.HumidityLow
	}
	if o.PredictionDeviation != nil {
		t.PredictionDeviation = *o.PredictionDeviation
	}
	return t
}

// Validate checks that each upper bound sits above its lower bound.
func (t Thresholds) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	return nil
}
