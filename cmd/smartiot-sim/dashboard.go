package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/dashboard"
)

var (
	dashOut        string
	dashConfigPath string
	dashSchemaPath string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB mirror",
	Long:  "dashboard writes Grafana dashboard JSON for the sensor_readings and device_health tables. GREPTIMEDB_DATASOURCE_UID must be set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := config.Load(dashConfigPath, dashSchemaPath)
		if err != nil {
			return err
		}
		paths, err := dashboard.Render(dashOut, dashboard.ParamsFromConfig(cfg))
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashOut, "out", "build", "Output directory")
	dashboardCmd.Flags().StringVar(&dashConfigPath, "config", "config/smartiot.yaml", "Path to simulator configuration YAML")
	dashboardCmd.Flags().StringVar(&dashSchemaPath, "schema", "schemas/smartiot.cue", "Path to CUE schema file")
}
