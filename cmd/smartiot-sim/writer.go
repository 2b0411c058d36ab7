package main

import (
	"errors"
	"log/slog"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/sim"
)

// writerOptions selects the mirror outputs for a run.
type writerOptions struct {
	// PrintOnly keeps output local: no GreptimeDB, MQTT or Kafka sinks.
	PrintOnly bool
	// TUI replaces the console writer with the terminal dashboard.
	TUI     bool
	LogFile string
}

// writerSet is the assembled writer plus handles the caller may need.
type writerSet struct {
	*sim.MultiWriter
	tui *sim.TUIWriter
}

// newWriters sets up mirror writers based on flags and the sink config.
// The returned cleanup closes every writer that holds resources.
func newWriters(cfg *config.Config, opts writerOptions, log *slog.Logger) (*writerSet, func(), error) {
	ws := &writerSet{MultiWriter: sim.NewMultiWriter()}
	fail := func(err error) (*writerSet, func(), error) {
		_ = ws.Close()
		return nil, nil, err
	}

	if opts.TUI {
		ws.tui = sim.NewTUIWriter(cfg.Device.Name, cfg.Thresholds)
		ws.Add(ws.tui)
	} else {
		ws.Add(sim.NewStdoutWriter(cfg.Thresholds))
	}

	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, sim.HealthPath(opts.LogFile))
		if err != nil {
			return fail(err)
		}
		ws.Add(fw)
	}

	if !opts.PrintOnly {
		if err := addSinks(ws.MultiWriter, cfg.Sinks, log); err != nil {
			return fail(err)
		}
	}

	cleanup := func() {
		if err := ws.Close(); err != nil {
			log.Warn("closing writers", "err", err)
		}
	}
	return ws, cleanup, nil
}

// addSinks attaches the external sinks that are configured.
func addSinks(mw *sim.MultiWriter, sinks config.Sinks, log *slog.Logger) error {
	var errs []error
	if sinks.Greptime.Host != "" {
		w, err := sim.NewGreptimeDBWriter(sinks.Greptime)
		if err != nil {
			errs = append(errs, err)
		} else {
			log.Info("mirroring to GreptimeDB", "host", sinks.Greptime.Host, "database", sinks.Greptime.Database)
			mw.Add(w)
		}
	}
	if sinks.MQTT.Broker != "" {
		w, err := sim.NewMQTTWriter(sinks.MQTT)
		if err != nil {
			errs = append(errs, err)
		} else {
			log.Info("mirroring to MQTT", "broker", sinks.MQTT.Broker, "topic", sinks.MQTT.Topic)
			mw.Add(w)
		}
	}
	if len(sinks.Kafka.Brokers) > 0 {
		log.Info("mirroring to Kafka", "brokers", sinks.Kafka.Brokers, "topic", sinks.Kafka.Topic)
		mw.Add(sim.NewKafkaWriter(sinks.Kafka))
	}
	return errors.Join(errs...)
}
