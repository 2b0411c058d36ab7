package sim

import (
	"encoding/json"
	"os"

	"smartiot-sim/internal/telemetry"
)

// FileWriter writes readings and health summaries to JSONL files.
type FileWriter struct {
	readingFile *os.File
	healthFile  *os.File
	readingEnc  *json.Encoder
	healthEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. healthPath may be empty to skip health
// records.
func NewFileWriter(readingPath, healthPath string) (*FileWriter, error) {
	rf, err := os.Create(readingPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{readingFile: rf, readingEnc: json.NewEncoder(rf)}
	if healthPath != "" {
		hf, err := os.Create(healthPath)
		if err != nil {
			rf.Close()
			return nil, err
		}
		fw.healthFile = hf
		fw.healthEnc = json.NewEncoder(hf)
	}
	return fw, nil
}

// HealthPath derives the health log path from a readings log path.
func HealthPath(readingPath string) string {
	return readingPath + ".health"
}

// Write logs a single reading.
func (f *FileWriter) Write(r telemetry.Reading) error {
	return f.readingEnc.Encode(r)
}

// WriteHealth logs a health summary, if enabled.
func (f *FileWriter) WriteHealth(h telemetry.HealthSummary) error {
	if f.healthEnc == nil {
		return nil
	}
	return f.healthEnc.Encode(h)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.readingFile != nil {
		if e := f.readingFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.healthFile != nil {
		if e := f.healthFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
