package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// messageWriter is the subset of kafka.Writer used by KafkaWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter publishes readings keyed by device id so a device's readings
// stay on one partition.
type KafkaWriter struct {
	w       messageWriter
	timeout time.Duration
}

// NewKafkaWriter creates a writer for cfg.Topic.
func NewKafkaWriter(cfg config.Kafka) *KafkaWriter {
	return &KafkaWriter{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: 10 * time.Second,
	}
}

// Write publishes a reading.
func (k *KafkaWriter) Write(r telemetry.Reading) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	timeout := k.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	msg := kafka.Message{Key: []byte(r.DeviceID), Value: b, Time: r.Timestamp.Time}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending messages.
func (k *KafkaWriter) Close() error {
	return k.w.Close()
}
