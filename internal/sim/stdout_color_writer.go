// ColorStdoutWriter prints human-friendly, colorized readings to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints readings using ANSI colors.
type ColorStdoutWriter struct {
	th   config.Thresholds
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(th config.Thresholds) *ColorStdoutWriter {
	return &ColorStdoutWriter{th: th, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	fmt.Fprintln(w.out, "Alert Thresholds:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Temperature (°C):\t%.1f - %.1f\n", w.th.TempLow, w.th.TempHigh)
	fmt.Fprintf(tw, "Humidity (%%):\t%.1f - %.1f\n", w.th.HumidityLow, w.th.HumidityHigh)
	fmt.Fprintf(tw, "Prediction Deviation:\t%.1f\n", w.th.PredictionDeviation)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// tempColor picks a color for a temperature relative to the thresholds.
func tempColor(v float64, th config.Thresholds) string {
	switch {
	case v >= th.TempHigh:
		return colorRed
	case v <= th.TempLow:
		return colorBlue
	default:
		return colorGreen
	}
}

func severityColor(sev string) string {
	switch sev {
	case telemetry.SeverityHigh:
		return colorRed
	case telemetry.SeverityMedium:
		return colorYellow
	default:
		return colorCyan
	}
}

func healthColor(status string) string {
	switch status {
	case telemetry.StatusCritical:
		return colorRed
	case telemetry.StatusDegraded:
		return colorYellow
	default:
		return colorGreen
	}
}

// formatReading renders a reading on one colored line.
func formatReading(r telemetry.Reading, th config.Thresholds) string {
	motion := "-"
	if r.MotionDetected() {
		motion = "MOTION"
	}
	return fmt.Sprintf("%s[%s]%s %sdevice=%s%s %stemp=%.1f%s %spred=%.1f%s %shum=%.1f%s %s%s%s",
		colorGray, r.Timestamp.String(), colorReset,
		colorBlue, r.DeviceID, colorReset,
		tempColor(r.Temperature, th), r.Temperature, colorReset,
		tempColor(r.Predicted(), th), r.Predicted(), colorReset,
		colorCyan, r.Humidity, colorReset,
		colorMagenta, motion, colorReset,
	)
}

func formatAlert(a telemetry.Alert) string {
	return fmt.Sprintf("%s[%s]%s %s%s %s%s %s",
		colorGray, a.Timestamp.String(), colorReset,
		severityColor(a.Severity), a.Type, a.Severity, colorReset,
		a.Message)
}

// Write outputs a reading and its alerts in colorized format.
func (w *ColorStdoutWriter) Write(r telemetry.Reading) error {
	w.once.Do(w.printOverview)
	fmt.Fprintln(w.out, formatReading(r, w.th))
	for _, a := range r.Alerts {
		fmt.Fprintln(w.out, "  "+formatAlert(a))
	}
	return nil
}

// WriteHealth prints a device health summary.
func (w *ColorStdoutWriter) WriteHealth(h telemetry.HealthSummary) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sHEALTH %s%s readings=%d ok=%d failed=%d reliability=%.2f%% uptime=%.2fh\n",
		colorGray, h.LastUpdate.String(), colorReset,
		healthColor(h.Status), h.Status, colorReset,
		h.TotalReadings, h.SuccessfulReadings, h.FailedReadings,
		h.ReliabilityPercent, h.UptimeHours)
	return nil
}
