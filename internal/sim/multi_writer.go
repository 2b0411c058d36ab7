package sim

import (
	"errors"
	"io"

	"smartiot-sim/internal/telemetry"
)

// MultiWriter fans readings and health summaries out to multiple writers.
// Every writer is attempted; failures are joined.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w TelemetryWriter) {
	mw.writers = append(mw.writers, w)
}

// Len returns the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

// Write sends a reading to all writers.
func (mw *MultiWriter) Write(r telemetry.Reading) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Write(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteHealth sends a health summary to every writer that accepts one.
func (mw *MultiWriter) WriteHealth(h telemetry.HealthSummary) error {
	var errs []error
	for _, w := range mw.writers {
		hw, ok := w.(HealthWriter)
		if !ok {
			continue
		}
		if err := hw.WriteHealth(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer that implements io.Closer.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
