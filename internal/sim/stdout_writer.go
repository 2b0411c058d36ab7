package sim

import (
	"os"

	"golang.org/x/term"

	"smartiot-sim/internal/config"
)

// StdoutWriter is the mirror writer used for console output.
type StdoutWriter interface {
	TelemetryWriter
	HealthWriter
}

// NewStdoutWriter returns a colorized writer when stdout is a terminal and
// a JSON lines writer otherwise.
func NewStdoutWriter(th config.Thresholds) StdoutWriter {
	return newStdoutWriter(th, term.IsTerminal(int(os.Stdout.Fd())))
}

func newStdoutWriter(th config.Thresholds, tty bool) StdoutWriter {
	if tty {
		return NewColorStdoutWriter(th)
	}
	return NewJSONStdoutWriter()
}
