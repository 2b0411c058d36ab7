package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeKafka struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeKafka) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeKafka) Close() error {
	f.closed = true
	return nil
}

func TestKafkaWriterKeysByDevice(t *testing.T) {
	f := &fakeKafka{}
	w := &KafkaWriter{w: f}
	r := sampleReading()

	if err := w.Write(r); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(f.msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(f.msgs))
	}
	m := f.msgs[0]
	if string(m.Key) != "sensor-001" {
		t.Fatalf("key = %q, want sensor-001", m.Key)
	}
	if !m.Time.Equal(r.Timestamp.Time) {
		t.Fatalf("time = %v, want %v", m.Time, r.Timestamp.Time)
	}
	if err := w.Close(); err != nil || !f.closed {
		t.Fatalf("close not forwarded")
	}
}

func TestKafkaWriterError(t *testing.T) {
	boom := errors.New("leader not available")
	w := &KafkaWriter{w: &fakeKafka{err: boom}}
	if err := w.Write(sampleReading()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
