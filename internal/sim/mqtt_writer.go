package sim

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

const mqttPublishTimeout = 5 * time.Second

// mqttPublisher is the subset of mqtt.Client used by the writer.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTWriter publishes readings to <topic> and health summaries to
// <topic>/health as JSON.
type MQTTWriter struct {
	client mqttPublisher
	topic  string
}

// NewMQTTWriter connects to the broker.
func NewMQTTWriter(cfg config.MQTT) (*MQTTWriter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttPublishTimeout)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(mqttPublishTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return &MQTTWriter{client: c, topic: cfg.Topic}, nil
}

func (w *MQTTWriter) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := w.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Write publishes a reading.
func (w *MQTTWriter) Write(r telemetry.Reading) error {
	return w.publish(w.topic, false, r)
}

// WriteHealth publishes a health summary, retained so late subscribers see
// the current status.
func (w *MQTTWriter) WriteHealth(h telemetry.HealthSummary) error {
	return w.publish(w.topic+"/health", true, h)
}

// Close disconnects from the broker.
func (w *MQTTWriter) Close() error {
	w.client.Disconnect(250)
	return nil
}
