package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../schemas/smartiot.cue"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORE_URL", "DEVICE_ID", "DEVICE_NAME", "LOG_LEVEL", "LOG_FILE",
		"GREPTIMEDB_HOST", "GREPTIMEDB_DATABASE", "MQTT_BROKER", "MQTT_TOPIC", "MQTT_CLIENT_ID", "KAFKA_TOPIC"} {
		t.Setenv(k, "")
	}
	for _, k := range []string{"TICK_INTERVAL", "GREPTIMEDB_PORT", "KAFKA_BROKERS"} {
		if v, ok := os.LookupEnv(k); ok {
			t.Setenv(k, v)
			os.Unsetenv(k)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smartiot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "sensor-001", cfg.Device.ID)
	assert.Equal(t, "Main Sensor Unit", cfg.Device.Name)
	assert.Equal(t, 5*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 60*time.Second, cfg.Sampling.HealthPushInterval)
	assert.Equal(t, 10, cfg.Sampling.MaxConsecutiveFailures)
	assert.Equal(t, 90, cfg.Forecast.Horizon)
	assert.True(t, cfg.Forecast.PresentationNoise)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Empty(t, cfg.Store.URL)
	assert.Equal(t, 3, cfg.Store.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Store.RetryDelay)
}

func TestLoadShippedConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("../../config/smartiot.yaml", schemaPath)
	require.NoError(t, err)
	assert.Equal(t, "sensors", cfg.Store.Readings)
	assert.Equal(t, 30.0, cfg.Thresholds.TempHigh)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
sampling:
  interval: 2s
thresholds:
  temp_high: 28
forecast:
  presentation_noise: false
`)
	cfg, err := Load(path, schemaPath)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Sampling.Interval)
	assert.Equal(t, 60*time.Second, cfg.Sampling.HealthPushInterval)
	assert.Equal(t, 28.0, cfg.Thresholds.TempHigh)
	assert.Equal(t, 18.0, cfg.Thresholds.TempLow)
	assert.False(t, cfg.Forecast.PresentationNoise)
	assert.Equal(t, 100, cfg.Forecast.Window)
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad level":     "log:\n  level: verbose\n",
		"unknown field": "device:\n  serial: x\n",
		"bad duration":  "sampling:\n  interval: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), schemaPath)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "http://localhost:9000/db")
	t.Setenv("DEVICE_ID", "sensor-042")
	t.Setenv("TICK_INTERVAL", "1s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GREPTIMEDB_PORT", "4002")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/db", cfg.Store.URL)
	assert.Equal(t, "sensor-042", cfg.Device.ID)
	assert.Equal(t, "Main Sensor Unit", cfg.Device.Name)
	assert.Equal(t, time.Second, cfg.Sampling.Interval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Sinks.Kafka.Brokers)
	assert.Equal(t, 4002, cfg.Sinks.Greptime.Port)
}

func TestValidateRejectsInconsistentValues(t *testing.T) {
	cfg := Default()
	cfg.Thresholds.TempHigh = 10
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.URL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Sampling.Interval = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestThresholdsApply(t *testing.T) {
	high := 27.5
	dev := 1.0
	got := DefaultThresholds().Apply(ThresholdOverrides{TempHigh: &high, PredictionDeviation: &dev})

	assert.Equal(t, 27.5, got.TempHigh)
	assert.Equal(t, 18.0, got.TempLow)
	assert.Equal(t, 60.0, got.HumidityHigh)
	assert.Equal(t, 40.0, got.HumidityLow)
	assert.Equal(t, 1.0, got.PredictionDeviation)

	assert.True(t, ThresholdOverrides{}.Empty())
	assert.Equal(t, DefaultThresholds(), DefaultThresholds().Apply(ThresholdOverrides{}))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	low := 25.0
	inverted := DefaultThresholds().Apply(ThresholdOverrides{TempLow: &low, TempHigh: ptr(20.0)})
	assert.Error(t, inverted.Validate())

	hum := 70.0
	assert.Error(t, DefaultThresholds().Apply(ThresholdOverrides{HumidityLow: &hum}).Validate())
}

func ptr(v float64) *float64 { return &v }
