// Package alert turns readings into threshold, event and predictive alerts.
package alert

import (
	"fmt"
	"strconv"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// ConditionState records which conditions held on the previous tick. A flag
// is true only while its condition holds.
type ConditionState struct {
	HighTemp     bool
	LowTemp      bool
	HighHumidity bool
	LowHumidity  bool
	Motion       bool
}

// Evaluator raises threshold and motion alerts once per entry into the
// violating condition. The predictive alert has no memory and repeats on
// every tick the forecast exceeds the high temperature threshold.
type Evaluator struct {
	state ConditionState
}

// NewEvaluator returns an evaluator with every condition cleared.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// State returns a copy of the current condition flags.
func (e *Evaluator) State() ConditionState { return e.state }

// Evaluate checks current and predicted against th and returns the alerts
// to attach to the reading, in a fixed order.
func (e *Evaluator) Evaluate(current telemetry.Reading, predicted float64, th config.Thresholds) []telemetry.Alert {
	var alerts []telemetry.Alert
	ts := current.Timestamp
	temp, humidity := current.Temperature, current.Humidity

	if edge(&e.state.HighTemp, temp >= th.TempHigh) {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertThreshold,
			Severity:  telemetry.SeverityHigh,
			Category:  telemetry.CategoryTemperature,
			Message:   fmt.Sprintf("High temperature: %s°C (threshold: %s°C)", num(temp), num(th.TempHigh)),
			Timestamp: ts,
		})
	}
	if edge(&e.state.LowTemp, temp <= th.TempLow) {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertThreshold,
			Severity:  telemetry.SeverityMedium,
			Category:  telemetry.CategoryTemperature,
			Message:   fmt.Sprintf("Low temperature: %s°C (threshold: %s°C)", num(temp), num(th.TempLow)),
			Timestamp: ts,
		})
	}
	if edge(&e.state.LowHumidity, humidity < th.HumidityLow) {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertThreshold,
			Severity:  telemetry.SeverityMedium,
			Category:  telemetry.CategoryHumidity,
			Message:   fmt.Sprintf("Low humidity: %s%% (threshold: %s%%)", num(humidity), num(th.HumidityLow)),
			Timestamp: ts,
		})
	}
	if edge(&e.state.HighHumidity, humidity > th.HumidityHigh) {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertThreshold,
			Severity:  telemetry.SeverityMedium,
			Category:  telemetry.CategoryHumidity,
			Message:   fmt.Sprintf("High humidity: %s%% (threshold: %s%%)", num(humidity), num(th.HumidityHigh)),
			Timestamp: ts,
		})
	}
	if edge(&e.state.Motion, current.MotionDetected()) {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertEvent,
			Severity:  telemetry.SeverityInfo,
			Category:  telemetry.CategoryMotion,
			Message:   "Motion detected",
			Timestamp: ts,
		})
	}

	if predicted > th.TempHigh {
		alerts = append(alerts, telemetry.Alert{
			Type:      telemetry.AlertPredictive,
			Severity:  telemetry.SeverityHigh,
			Category:  telemetry.CategoryTemperature,
			Message:   fmt.Sprintf("Temperature predicted to exceed threshold: %s°C", num(predicted)),
			Timestamp: ts,
		})
	}
	return alerts
}

// edge stores holds in flag and reports a false to true transition.
func edge(flag *bool, holds bool) bool {
	fire := holds && !*flag
	*flag = holds
	return fire
}

// num formats v with the shortest exact representation, so 30 prints as
// "30" and 31.25 as "31.25".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
