package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"smartiot-sim/internal/store"
	"smartiot-sim/internal/telemetry"
)

// Replayer feeds a JSONL log of readings back through a writer.
type Replayer struct {
	// Speed > 0 scales the original spacing between readings; <= 0 replays
	// without delay.
	Speed float64
	sleep func(time.Duration)
}

// NewReplayer creates a Replayer using time.Sleep.
func NewReplayer(speed float64) *Replayer {
	return &Replayer{Speed: speed, sleep: time.Sleep}
}

// Replay decodes readings from r and writes them in order. It returns the
// number of readings written.
func (p *Replayer) Replay(r io.Reader, writer TelemetryWriter) (int, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var row telemetry.Reading
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("replay line %d: %w", n+1, err)
		}
		if !prev.IsZero() && p.Speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if p.Speed != 1 {
				diff = time.Duration(float64(diff) / p.Speed)
			}
			if diff > 0 {
				sleep(diff)
			}
		}
		if err := writer.Write(row); err != nil {
			return n, err
		}
		n++
		prev = row.Timestamp.Time
	}
}

// ReplayFile opens a file and replays its readings.
func (p *Replayer) ReplayFile(path string, writer TelemetryWriter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return p.Replay(f, writer)
}

// StoreWriter appends mirrored readings to a store.
type StoreWriter struct {
	ctx   context.Context
	store store.Store
}

// NewStoreWriter adapts st to a TelemetryWriter.
func NewStoreWriter(ctx context.Context, st store.Store) *StoreWriter {
	return &StoreWriter{ctx: ctx, store: st}
}

// Write appends the reading, filling in an empty alert list for rows logged
// before enrichment.
func (w *StoreWriter) Write(r telemetry.Reading) error {
	if r.Alerts == nil {
		r = r.WithAlerts(nil)
	}
	if r.PredictedTemp == nil {
		r = r.WithForecast(r.Temperature)
	}
	return w.store.AppendReading(w.ctx, r)
}
