// Reading, alert and device health records as they travel on the wire
package telemetry

// Reading is one sampled observation of the simulated sensor.
// PredictedTemp and Alerts are filled in by the pipeline before delivery.
type Reading struct {
	Temperature   float64   `json:"temperature" validate:"gte=15,lte=35"`
	Humidity      float64   `json:"humidity" validate:"gte=30,lte=70"`
	Motion        int       `json:"motion" validate:"oneof=0 1"`
	Timestamp     Timestamp `json:"timestamp" validate:"required"`
	DeviceID      string    `json:"device_id,omitempty"`
	DeviceName    string    `json:"device_name,omitempty"`
	PredictedTemp *float64  `json:"predicted_temp,omitempty" validate:"required"`
	Alerts        []Alert   `json:"alerts"`
}

// WithForecast returns a copy of r carrying the predicted temperature.
func (r Reading) WithForecast(predicted float64) Reading {
	p := predicted
	r.PredictedTemp = &p
	return r
}

// WithAlerts returns a copy of r carrying alerts. A nil slice is stored as an
// empty list so the record always has an alerts field.
func (r Reading) WithAlerts(alerts []Alert) Reading {
	out := make([]Alert, len(alerts))
	copy(out, alerts)
	r.Alerts = out
	return r
}

// Predicted returns the predicted temperature, or the measured one when the
// reading has not been enriched yet.
func (r Reading) Predicted() float64 {
	if r.PredictedTemp == nil {
		return r.Temperature
	}
	return *r.PredictedTemp
}

// MotionDetected reports whether the motion sensor is active.
func (r Reading) MotionDetected() bool { return r.Motion == 1 }

// Series is an ordered slice of readings, oldest first.
type Series []Reading

// Alert types.
const (
	AlertThreshold  = "THRESHOLD"
	AlertEvent      = "EVENT"
	AlertPredictive = "PREDICTIVE"
)

// Alert severities.
const (
	SeverityInfo   = "INFO"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Alert categories.
const (
	CategoryTemperature = "TEMPERATURE"
	CategoryHumidity    = "HUMIDITY"
	CategoryMotion      = "MOTION"
)

// Alert is raised by the alert evaluator and embedded in the reading that
// triggered it.
type Alert struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
}

// Device health status labels.
const (
	StatusHealthy  = "HEALTHY"
	StatusDegraded = "DEGRADED"
	StatusCritical = "CRITICAL"
)

// HealthSummary is the derived device health record overwritten in the store.
type HealthSummary struct {
	DeviceID                   string     `json:"device_id"`
	DeviceName                 string     `json:"device_name"`
	SessionID                  string     `json:"session_id"`
	Status                     string     `json:"status"`
	UptimeHours                float64    `json:"uptime_hours"`
	TotalReadings              int        `json:"total_readings"`
	SuccessfulReadings         int        `json:"successful_readings"`
	FailedReadings             int        `json:"failed_readings"`
	ReliabilityPercent         float64    `json:"reliability_percent"`
	LastSuccessfulTransmission *Timestamp `json:"last_successful_transmission"`
	LastUpdate                 Timestamp  `json:"last_update"`
}
