// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Device identifies the simulated sensor.
type Device struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// Sampling controls the orchestrator loop.
type Sampling struct {
	Interval               time.Duration `yaml:"interval" validate:"gt=0"`
	HealthPushInterval     time.Duration `yaml:"health_push_interval" validate:"gt=0"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" validate:"gte=1"`
}

// Forecast configures the rolling-window model.
type Forecast struct {
	MinSamples        int  `yaml:"min_samples" validate:"gte=2"`
	Window            int  `yaml:"window" validate:"gte=2"`
	Horizon           int  `yaml:"horizon" validate:"gte=1"`
	PresentationNoise bool `yaml:"presentation_noise"`
}

// Store points at the remote telemetry store. An empty URL keeps everything
// in process.
type Store struct {
	URL           string        `yaml:"url" validate:"omitempty,url"`
	Readings      string        `yaml:"readings" validate:"required"`
	Health        string        `yaml:"health" validate:"required"`
	Config        string        `yaml:"config" validate:"required"`
	Suffix        string        `yaml:"suffix"`
	HistoryLimit  int           `yaml:"history_limit" validate:"gte=0"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	ConfigTimeout time.Duration `yaml:"config_timeout" validate:"gt=0"`
	RetryAttempts int           `yaml:"retry_attempts" validate:"gte=1"`
	RetryDelay    time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// Greptime enables the GreptimeDB mirror when Host is set.
type Greptime struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Database string `yaml:"database"`
}

// MQTT enables the MQTT mirror when Broker is set.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// Kafka enables the Kafka mirror when Brokers is non-empty.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Sinks groups the optional mirror outputs.
type Sinks struct {
	Greptime Greptime `yaml:"greptime"`
	MQTT     MQTT     `yaml:"mqtt"`
	Kafka    Kafka    `yaml:"kafka"`
}

// Config is the root simulator configuration.
type Config struct {
	Device     Device     `yaml:"device"`
	Sampling   Sampling   `yaml:"sampling"`
	Forecast   Forecast   `yaml:"forecast"`
	Thresholds Thresholds `yaml:"thresholds"`
	Store      Store      `yaml:"store"`
	Log        Log        `yaml:"log"`
	Sinks      Sinks      `yaml:"sinks"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: Device{ID: "sensor-001", Name: "Main Sensor Unit"},
		Sampling: Sampling{
			Interval:               5 * time.Second,
			HealthPushInterval:     60 * time.Second,
			MaxConsecutiveFailures: 10,
		},
		Forecast: Forecast{
			MinSamples:        10,
			Window:            100,
			Horizon:           90,
			PresentationNoise: true,
		},
		Thresholds: DefaultThresholds(),
		Store: Store{
			Readings:      "sensors",
			Health:        "device_health",
			Config:        "config",
			Suffix:        ".json",
			Timeout:       10 * time.Second,
			ConfigTimeout: 5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
		},
		Log: Log{Level: "info", File: "smartiot.log"},
		Sinks: Sinks{
			Greptime: Greptime{Port: 4001, Database: "public"},
			MQTT:     MQTT{Topic: "smartiot/sensors", ClientID: "smartiot-sim"},
			Kafka:    Kafka{Topic: "smartiot.readings"},
		},
	}
}

// Load reads configPath over the defaults. When schemaPath is set the file is
// validated against the CUE schema first. Environment overrides and struct
// validation run last.
func Load(configPath, schemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		if schemaPath != "" {
			if err := ValidateWithCue(configPath, schemaPath); err != nil {
				return nil, err
			}
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot decode config: %w", err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
