package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"smartiot-sim/internal/telemetry"
)

// JSONStdoutWriter prints readings and health summaries as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a reading in JSON format.
func (w *JSONStdoutWriter) Write(r telemetry.Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteHealth outputs a health summary in JSON format.
func (w *JSONStdoutWriter) WriteHealth(h telemetry.HealthSummary) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}
