// Package dashboard renders Grafana dashboards for the GreptimeDB mirror.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"smartiot-sim/internal/config"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Params are the values substituted into the dashboard templates.
type Params struct {
	DeviceID     string
	DeviceName   string
	ReadingTable string
	HealthTable  string
	Thresholds   config.Thresholds
}

// ParamsFromConfig derives dashboard parameters from the simulator config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		DeviceID:     cfg.Device.ID,
		DeviceName:   cfg.Device.Name,
		ReadingTable: "sensor_readings",
		HealthTable:  "device_health",
		Thresholds:   cfg.Thresholds,
	}
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// It returns the paths written. The Grafana datasource UID is read from
// GREPTIMEDB_DATASOURCE_UID.
func Render(outDir string, p Params) ([]string, error) {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	names, err := templates.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	var written []string
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return written, err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return written, err
		}
		if err := t.Execute(f, p); err != nil {
			f.Close()
			return written, err
		}
		if err := f.Close(); err != nil {
			return written, err
		}
		written = append(written, outPath)
	}
	return written, nil
}
