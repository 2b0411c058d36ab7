package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envOverrides lists the environment variables that override file settings.
// Unset variables leave the loaded value alone.
type envOverrides struct {
	StoreURL     string        `envconfig:"STORE_URL"`
	DeviceID     string        `envconfig:"DEVICE_ID"`
	DeviceName   string        `envconfig:"DEVICE_NAME"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`
	LogFile      string        `envconfig:"LOG_FILE"`

	GreptimeHost     string `envconfig:"GREPTIMEDB_HOST"`
	GreptimePort     int    `envconfig:"GREPTIMEDB_PORT"`
	GreptimeDatabase string `envconfig:"GREPTIMEDB_DATABASE"`

	MQTTBroker   string `envconfig:"MQTT_BROKER"`
	MQTTTopic    string `envconfig:"MQTT_TOPIC"`
	MQTTClientID string `envconfig:"MQTT_CLIENT_ID"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC"`
}

// ApplyEnv loads a .env file if present and applies environment overrides
// to cfg. Existing process variables win over the .env file.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("cannot read environment: %w", err)
	}

	setString(&cfg.Store.URL, env.StoreURL)
	setString(&cfg.Device.ID, env.DeviceID)
	setString(&cfg.Device.Name, env.DeviceName)
	if env.TickInterval > 0 {
		cfg.Sampling.Interval = env.TickInterval
	}
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.File, env.LogFile)

	setString(&cfg.Sinks.Greptime.Host, env.GreptimeHost)
	if env.GreptimePort > 0 {
		cfg.Sinks.Greptime.Port = env.GreptimePort
	}
	setString(&cfg.Sinks.Greptime.Database, env.GreptimeDatabase)

	setString(&cfg.Sinks.MQTT.Broker, env.MQTTBroker)
	setString(&cfg.Sinks.MQTT.Topic, env.MQTTTopic)
	setString(&cfg.Sinks.MQTT.ClientID, env.MQTTClientID)

	if len(env.KafkaBrokers) > 0 {
		cfg.Sinks.Kafka.Brokers = env.KafkaBrokers
	}
	setString(&cfg.Sinks.Kafka.Topic, env.KafkaTopic)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
