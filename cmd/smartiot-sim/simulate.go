package main

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartiot-sim/internal/admin"
	"smartiot-sim/internal/config"
	"smartiot-sim/internal/forecast"
	"smartiot-sim/internal/logging"
	"smartiot-sim/internal/sim"
	"smartiot-sim/internal/store"
	"smartiot-sim/internal/telemetry"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simTUI        bool
	simAdminAddr  string
	simSeed       int64
	simNoNoise    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time sensor simulator",
	Long:  "simulate samples the virtual sensor every tick, forecasts its temperature, raises alerts and delivers each reading to the telemetry store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.Sampling.Interval = simTick
		}
		if cmd.Flags().Changed("no-presentation-noise") {
			cfg.Forecast.PresentationNoise = !simNoNoise
		}
		if simPrintOnly {
			cfg.Store.URL = ""
		}

		var console io.Writer = os.Stderr
		if simTUI {
			console = io.Discard
		}
		log, closeLog := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Output: console})
		defer closeLog()
		slog.SetDefault(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		seed := simSeed
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}
		return runSimulation(ctx, cfg, seed, log)
	},
}

func runSimulation(ctx context.Context, cfg *config.Config, seed int64, log *slog.Logger) error {
	st, err := store.New(cfg.Store)
	if err != nil {
		return err
	}
	if _, ok := st.(*store.Memory); ok {
		log.Info("no store URL configured, keeping readings in memory")
	}
	cfg.Thresholds = sim.ResolveThresholds(ctx, st, cfg.Thresholds)

	writers, cleanup, err := newWriters(cfg, writerOptions{PrintOnly: simPrintOnly, TUI: simTUI, LogFile: simLogFile}, log)
	if err != nil {
		return err
	}
	defer cleanup()

	gen := telemetry.NewGenerator(cfg.Device.ID, cfg.Device.Name, rand.New(rand.NewSource(seed)))
	simulator := sim.NewSimulator(sim.Components{
		Generator: gen,
		Engine:    forecast.NewEngine(cfg.Forecast.MinSamples, cfg.Forecast.Window, cfg.Forecast.Horizon),
		Presenter: forecast.NewPresenter(cfg.Forecast.PresentationNoise, rand.New(rand.NewSource(seed+1))),
		Store:     st,
		Writer:    writers.MultiWriter,
	}, cfg.Thresholds, cfg.Sampling)

	if simAdminAddr != "" {
		srv := admin.NewServer(simulator, log)
		if writers.tui != nil {
			writers.tui.SetAdminStatus(true)
		}
		go func() {
			if err := srv.Start(ctx, simAdminAddr); err != nil {
				log.Error("admin server failed", "err", err)
				if writers.tui != nil {
					writers.tui.SetAdminStatus(false)
				}
			}
		}()
	}

	if err := simulator.Run(ctx); err != nil {
		return err
	}
	log.Info("sensor simulation stopped", "iterations", simulator.Status().Iteration)
	return nil
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Keep readings local: in-memory store and console output only")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/smartiot.yaml", "Path to simulator configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/smartiot.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 5*time.Second, "Sampling interval (e.g. 500ms, 5s)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export readings (JSONL); health goes to <path>.health")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render a terminal dashboard instead of console output")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", "", "Listen address for the admin status server (e.g. :8080)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Seed for the sensor generator (random when unset)")
	simulateCmd.Flags().BoolVar(&simNoNoise, "no-presentation-noise", false, "Show raw forecasts without the presentation adjustment")
}
