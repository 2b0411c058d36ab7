package sim

import (
	"context"
	"fmt"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

const (
	readingTable = "sensor_readings"
	healthTable  = "device_health"
)

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes readings and health summaries to GreptimeDB via
// the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client       greptimeClient
	readingTable string
	healthTable  string
	timeout      time.Duration
}

// NewGreptimeDBWriter connects to GreptimeDB over gRPC.
func NewGreptimeDBWriter(cfg config.Greptime) (*GreptimeDBWriter, error) {
	gcfg := greptime.NewConfig(cfg.Host).WithDatabase(cfg.Database)
	if cfg.Port > 0 {
		gcfg = gcfg.WithPort(cfg.Port)
	}
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:       client,
		readingTable: readingTable,
		healthTable:  healthTable,
		timeout:      10 * time.Second,
	}, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}

func (w *GreptimeDBWriter) readingSchema() (*table.Table, error) {
	name := w.readingTable
	if name == "" {
		name = readingTable
	}
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("device_id", types.STRING); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		typ  types.ColumnType
	}{
		{"device_name", types.STRING},
		{"temperature", types.FLOAT64},
		{"humidity", types.FLOAT64},
		{"motion", types.INT64},
		{"predicted_temp", types.FLOAT64},
		{"alert_count", types.INT64},
	} {
		if err := tbl.AddFieldColumn(col.name, col.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}

func (w *GreptimeDBWriter) healthSchema() (*table.Table, error) {
	name := w.healthTable
	if name == "" {
		name = healthTable
	}
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("device_id", types.STRING); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		typ  types.ColumnType
	}{
		{"session_id", types.STRING},
		{"status", types.STRING},
		{"uptime_hours", types.FLOAT64},
		{"total_readings", types.INT64},
		{"successful_readings", types.INT64},
		{"failed_readings", types.INT64},
		{"reliability_percent", types.FLOAT64},
	} {
		if err := tbl.AddFieldColumn(col.name, col.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}

// Write inserts a single reading.
func (w *GreptimeDBWriter) Write(r telemetry.Reading) error {
	return w.WriteBatch([]telemetry.Reading{r})
}

// WriteBatch inserts multiple readings in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.Reading) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.readingSchema()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			r.DeviceID,
			r.DeviceName,
			r.Temperature,
			r.Humidity,
			int64(r.Motion),
			r.Predicted(),
			int64(len(r.Alerts)),
			r.Timestamp.Time,
		); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

// WriteHealth inserts a device health summary.
func (w *GreptimeDBWriter) WriteHealth(h telemetry.HealthSummary) error {
	tbl, err := w.healthSchema()
	if err != nil {
		return err
	}
	if err := tbl.AddRow(
		h.DeviceID,
		h.SessionID,
		h.Status,
		h.UptimeHours,
		int64(h.TotalReadings),
		int64(h.SuccessfulReadings),
		int64(h.FailedReadings),
		h.ReliabilityPercent,
		h.LastUpdate.Time,
	); err != nil {
		return err
	}
	return w.write(tbl)
}
