package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/logging"
	"smartiot-sim/internal/sim"
	"smartiot-sim/internal/store"
)

var (
	replayInput      string
	replaySpeed      float64
	replayToStore    bool
	replayConfigPath string
	replaySchemaPath string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a reading log file",
	Long:  "replay feeds readings from a JSONL log back to the console and, with --to-store, re-posts them to the telemetry store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cmd.SilenceUsage = true

		cfg, err := config.Load(replayConfigPath, replaySchemaPath)
		if err != nil {
			return err
		}
		log, closeLog := logging.New(logging.Options{Level: cfg.Log.Level, Output: os.Stderr})
		defer closeLog()

		n, err := runReplay(logging.NewContext(cmd.Context(), log), cfg, log)
		if err != nil {
			return err
		}
		log.Info("replay finished", "readings", n)
		return nil
	},
}

func runReplay(ctx context.Context, cfg *config.Config, log *slog.Logger) (int, error) {
	mw := sim.NewMultiWriter(sim.NewStdoutWriter(cfg.Thresholds))
	if replayToStore {
		st, err := store.New(cfg.Store)
		if err != nil {
			return 0, err
		}
		log.Info("replaying into store", "url", cfg.Store.URL)
		mw.Add(sim.NewStoreWriter(ctx, st))
	}
	return sim.NewReplayer(replaySpeed).ReplayFile(replayInput, mw)
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to reading log file (JSONL)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no delay)")
	replayCmd.Flags().BoolVar(&replayToStore, "to-store", false, "Re-post replayed readings to the telemetry store")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "config/smartiot.yaml", "Path to simulator configuration YAML")
	replayCmd.Flags().StringVar(&replaySchemaPath, "schema", "schemas/smartiot.cue", "Path to CUE schema file")
	replayCmd.MarkFlagRequired("input")
}
