package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartiot-sim/internal/config"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if _, err := Render(t.TempDir(), ParamsFromConfig(config.Default())); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")

	dir := t.TempDir()
	paths, err := Render(dir, ParamsFromConfig(config.Default()))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, "grafana-dashboard.json") {
		t.Fatalf("unexpected outputs: %v", paths)
	}

	b, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if !strings.Contains(string(b), "uid1") {
		t.Fatalf("greptime uid not rendered")
	}
	if !strings.Contains(string(b), "FROM sensor_readings WHERE device_id = 'sensor-001'") {
		t.Fatalf("reading query not rendered")
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("rendered dashboard is not valid JSON: %v", err)
	}
	if doc["title"] != "SmartIoT Main Sensor Unit" {
		t.Fatalf("unexpected title: %v", doc["title"])
	}
}
