// Simulator orchestrating sensor readings, forecasts, alerts and delivery
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"smartiot-sim/internal/alert"
	"smartiot-sim/internal/config"
	"smartiot-sim/internal/forecast"
	"smartiot-sim/internal/health"
	"smartiot-sim/internal/logging"
	"smartiot-sim/internal/store"
	"smartiot-sim/internal/telemetry"
)

// TelemetryWriter mirrors enriched readings to an output.
type TelemetryWriter interface {
	Write(telemetry.Reading) error
}

// HealthWriter mirrors device health summaries to an output.
type HealthWriter interface {
	WriteHealth(telemetry.HealthSummary) error
}

var (
	// ErrTooManyFailures ends Run after the configured number of
	// consecutive failed ticks.
	ErrTooManyFailures = errors.New("sim: too many consecutive failures")
	// ErrTickPanic wraps a panic recovered inside a tick.
	ErrTickPanic = errors.New("sim: tick panicked")
)

// State is the lifecycle state of the simulator loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "IDLE"
	}
}

// Components are the pipeline stages the simulator drives. Nil stages are
// replaced with defaults by NewSimulator.
type Components struct {
	Generator *telemetry.Generator
	Engine    *forecast.Engine
	Presenter *forecast.Presenter
	Evaluator *alert.Evaluator
	Tracker   *health.Tracker
	Store     store.Store
	Writer    TelemetryWriter
}

// Status is a point-in-time view of the simulator for the admin surface.
type Status struct {
	State               string             `json:"state"`
	Iteration           int                `json:"iteration"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	PresentationNoise   bool               `json:"presentation_noise"`
	Latest              *telemetry.Reading `json:"latest,omitempty"`
	Forecast            string             `json:"forecast,omitempty"`
	LastError           string             `json:"last_error,omitempty"`
}

// Simulator runs the sampling loop for one device. Run is the only mutator;
// the accessors may be called from other goroutines.
type Simulator struct {
	gen       *telemetry.Generator
	engine    *forecast.Engine
	presenter *forecast.Presenter
	evaluator *alert.Evaluator
	tracker   *health.Tracker
	store     store.Store
	writer    TelemetryWriter

	interval           time.Duration
	healthPushInterval time.Duration
	maxFailures        int

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu             sync.Mutex
	state          State
	thresholds     config.Thresholds
	iteration      int
	failures       int
	latest         *telemetry.Reading
	lastForecast   forecast.Result
	lastErr        error
	lastHealthPush time.Time
}

// NewSimulator wires the pipeline. th are the effective thresholds before
// any remote override.
func NewSimulator(c Components, th config.Thresholds, sampling config.Sampling) *Simulator {
	if c.Generator == nil {
		c.Generator = telemetry.NewGenerator("sensor-001", "Main Sensor Unit", nil)
	}
	if c.Engine == nil {
		c.Engine = forecast.NewEngine(0, 0, 0)
	}
	if c.Presenter == nil {
		c.Presenter = forecast.NewPresenter(true, nil)
	}
	if c.Evaluator == nil {
		c.Evaluator = alert.NewEvaluator()
	}
	if c.Tracker == nil {
		c.Tracker = health.NewTracker(c.Generator.DeviceID, c.Generator.DeviceName, nil)
	}
	if c.Store == nil {
		c.Store = store.NewMemory(0)
	}
	s := &Simulator{
		gen:                c.Generator,
		engine:             c.Engine,
		presenter:          c.Presenter,
		evaluator:          c.Evaluator,
		tracker:            c.Tracker,
		store:              c.Store,
		writer:             c.Writer,
		interval:           sampling.Interval,
		healthPushInterval: sampling.HealthPushInterval,
		maxFailures:        sampling.MaxConsecutiveFailures,
		now:                time.Now,
		after:              time.After,
		thresholds:         th,
	}
	if s.interval <= 0 {
		s.interval = 5 * time.Second
	}
	if s.healthPushInterval <= 0 {
		s.healthPushInterval = time.Minute
	}
	if s.maxFailures <= 0 {
		s.maxFailures = 10
	}
	return s
}

// SetClock replaces the wall clock and the inter-tick timer.
func (s *Simulator) SetClock(now func() time.Time, after func(time.Duration) <-chan time.Time) {
	if now != nil {
		s.now = now
	}
	if after != nil {
		s.after = after
	}
}

// ResolveThresholds merges the overrides served by st over local. A failed
// fetch, or a merged set that fails validation, keeps local.
func ResolveThresholds(ctx context.Context, st store.Store, local config.Thresholds) config.Thresholds {
	log := logging.FromContext(ctx)
	o, err := st.FetchThresholds(ctx)
	if err != nil {
		log.Debug("using local thresholds", "err", err)
		return local
	}
	if o.Empty() {
		return local
	}
	merged := local.Apply(o)
	if err := merged.Validate(); err != nil {
		log.Debug("ignoring remote thresholds", "err", err)
		return local
	}
	log.Info("applied remote thresholds", "thresholds", merged)
	return merged
}

// Run loops until ctx is cancelled or too many ticks fail in a row. It
// always makes a final health push before returning. Cancellation is only
// observed between ticks.
func (s *Simulator) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	work := context.WithoutCancel(ctx)

	s.mu.Lock()
	s.state = StateRunning
	s.lastHealthPush = s.now()
	s.mu.Unlock()

	log.Info("SmartIoT sensor simulator starting",
		"device", s.gen.DeviceName,
		"device_id", s.gen.DeviceID,
		"horizon_minutes", float64(s.engine.Horizon)*s.interval.Minutes(),
		"interval", s.interval,
	)

	var exitErr error
loop:
	for {
		if ctx.Err() != nil {
			log.Info("shutdown requested")
			break
		}

		_, _ = s.Tick(work)

		if f := s.consecutiveFailures(); f >= s.maxFailures {
			log.Error("too many errors, exiting", "consecutive_failures", f)
			exitErr = fmt.Errorf("%w: %d", ErrTooManyFailures, f)
			break
		}

		select {
		case <-ctx.Done():
			log.Info("shutdown requested")
			break loop
		case <-s.after(s.interval):
		}
	}

	s.setState(StateStopping)
	s.pushHealth(work)
	s.setState(StateStopped)
	log.Info("simulator stopped")
	return exitErr
}

// Tick runs one pass of the pipeline and returns the enriched reading. The
// error is the delivery failure, or a recovered panic.
func (s *Simulator) Tick(ctx context.Context) (reading telemetry.Reading, err error) {
	log := logging.FromContext(ctx)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrTickPanic, p)
			log.Error("error in loop", "err", err)
			s.mu.Lock()
			s.failures++
			s.lastErr = err
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	s.iteration++
	iteration := s.iteration
	th := s.thresholds
	s.mu.Unlock()

	current := s.gen.Next()

	history, herr := s.store.FetchHistory(ctx)
	if herr != nil {
		log.Warn("could not fetch historical data", "err", herr)
		history = nil
	}

	res := s.engine.Predict(history, current)
	if res.Err != nil {
		log.Error("prediction error", "err", res.Err, "rows", res.Rows)
	} else if !res.Fitted {
		log.Debug("forecast fallback", "reason", res.Reason, "history", len(history))
	}
	predicted := s.presenter.Apply(res.Value, current.Temperature, s.gen.Baseline())

	reading = current.WithForecast(predicted)
	alerts := s.evaluator.Evaluate(reading, predicted, th)
	reading = reading.WithAlerts(alerts)

	err = s.store.AppendReading(ctx, reading)
	s.tracker.Record(err == nil)
	if err != nil {
		log.Warn("failed to send data", "err", err)
	}

	if s.healthDue() {
		s.pushHealth(ctx)
	}

	if s.writer != nil {
		if werr := s.writer.Write(reading); werr != nil {
			log.Warn("mirror write failed", "err", werr)
		}
	}

	log.Info("reading",
		"iteration", iteration,
		"temperature", reading.Temperature,
		"predicted", predicted,
		"humidity", reading.Humidity,
		"motion", reading.MotionDetected(),
	)
	for _, a := range alerts {
		log.Warn("alert", "type", a.Type, "severity", a.Severity, "message", a.Message)
	}

	s.mu.Lock()
	latest := reading
	s.latest = &latest
	s.lastForecast = res
	if err != nil {
		s.failures++
		s.lastErr = err
	} else {
		s.failures = 0
		s.lastErr = nil
	}
	s.mu.Unlock()
	return reading, err
}

func (s *Simulator) healthDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastHealthPush) >= s.healthPushInterval
}

// pushHealth overwrites the device health record and mirrors it. Failures
// are logged at debug level only.
func (s *Simulator) pushHealth(ctx context.Context) {
	log := logging.FromContext(ctx)
	summary := s.tracker.Summary()
	if err := s.store.PutHealth(ctx, summary); err != nil {
		log.Debug("could not update device health", "err", err)
	}
	if hw, ok := s.writer.(HealthWriter); ok {
		if err := hw.WriteHealth(summary); err != nil {
			log.Warn("health mirror failed", "err", err)
		}
	}
	s.mu.Lock()
	s.lastHealthPush = s.now()
	s.mu.Unlock()
}

func (s *Simulator) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Simulator) consecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// State returns the lifecycle state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the loop.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:               s.state.String(),
		Iteration:           s.iteration,
		ConsecutiveFailures: s.failures,
		PresentationNoise:   s.presenter.Enabled(),
	}
	if s.latest != nil {
		latest := *s.latest
		st.Latest = &latest
		st.Forecast = s.lastForecast.String()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Health returns the current device health summary.
func (s *Simulator) Health() telemetry.HealthSummary {
	return s.tracker.Summary()
}

// Thresholds returns the effective alert thresholds.
func (s *Simulator) Thresholds() config.Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thresholds
}

// TogglePresentationNoise flips the forecast presentation step and returns
// the new setting.
func (s *Simulator) TogglePresentationNoise() bool {
	return s.presenter.Toggle()
}

// SetPresentationNoise switches the forecast presentation step on or off.
func (s *Simulator) SetPresentationNoise(enabled bool) {
	s.presenter.SetEnabled(enabled)
}
