package sim

import (
	"time"

	"smartiot-sim/internal/telemetry"
)

func sampleReading() telemetry.Reading {
	ts := telemetry.NewTimestamp(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	r := telemetry.Reading{
		Temperature: 31.2,
		Humidity:    45.5,
		Motion:      1,
		Timestamp:   ts,
		DeviceID:    "sensor-001",
		DeviceName:  "Main Sensor Unit",
	}
	r = r.WithForecast(31.6)
	return r.WithAlerts([]telemetry.Alert{{
		Type:      telemetry.AlertThreshold,
		Severity:  telemetry.SeverityHigh,
		Category:  telemetry.CategoryTemperature,
		Message:   "High temperature: 31.2°C (threshold: 30°C)",
		Timestamp: ts,
	}})
}

func sampleHealth() telemetry.HealthSummary {
	return telemetry.HealthSummary{
		DeviceID:           "sensor-001",
		DeviceName:         "Main Sensor Unit",
		SessionID:          "session",
		Status:             telemetry.StatusDegraded,
		TotalReadings:      10,
		SuccessfulReadings: 8,
		FailedReadings:     2,
		ReliabilityPercent: 80,
		LastUpdate:         telemetry.NewTimestamp(time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC)),
	}
}
