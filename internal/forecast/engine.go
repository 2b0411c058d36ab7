// Package forecast predicts the sensor temperature a fixed number of samples
// ahead from a rolling window of history.
package forecast

import (
	"fmt"

	"smartiot-sim/internal/telemetry"
)

// Defaults for the rolling-window model.
const (
	DefaultMinSamples = 10
	DefaultWindow     = 100
	DefaultHorizon    = 90 // 7.5 minutes at a 5s cadence
)

// Reason explains why a forecast fell back to the current temperature.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInsufficientHistory Reason = "insufficient_history"
	ReasonInsufficientRows    Reason = "insufficient_training_rows"
	ReasonFitFailed           Reason = "fit_failed"
)

// Result is the outcome of one prediction. Fitted is false when the engine
// returned the current temperature instead of a model output.
type Result struct {
	Value  float64
	Fitted bool
	Reason Reason
	Rows   int
	Err    error
}

// Engine fits a linear model of future temperature on current
// (temperature, humidity, motion) and predicts directly at the horizon.
type Engine struct {
	MinSamples int
	Window     int
	Horizon    int
}

// NewEngine returns an engine with the default window, horizon and minimum
// sample count. Non-positive arguments keep the default.
func NewEngine(minSamples, window, horizon int) *Engine {
	e := &Engine{MinSamples: DefaultMinSamples, Window: DefaultWindow, Horizon: DefaultHorizon}
	if minSamples > 0 {
		e.MinSamples = minSamples
	}
	if window > 0 {
		e.Window = window
	}
	if horizon > 0 {
		e.Horizon = horizon
	}
	return e
}

// Predict returns the forecast temperature for current given history.
func (e *Engine) Predict(history telemetry.Series, current telemetry.Reading) Result {
	if len(history) < e.MinSamples {
		return fallback(current, ReasonInsufficientHistory, 0, nil)
	}

	x, y := e.trainingRows(history)
	if len(x) < e.MinSamples {
		return fallback(current, ReasonInsufficientRows, len(x), nil)
	}

	model, err := FitOLS(x, y)
	if err != nil {
		return fallback(current, ReasonFitFailed, len(x), err)
	}

	predicted := model.Predict(features(current))
	if !finite(predicted) {
		return fallback(current, ReasonFitFailed, len(x), ErrNonFinite)
	}
	return Result{
		Value:  telemetry.Round2(telemetry.ClampTemperature(predicted)),
		Fitted: true,
		Rows:   len(x),
	}
}

// trainingRows pairs each point in the window with the temperature Horizon
// samples later. The tail of the window has no future value and is dropped.
func (e *Engine) trainingRows(history telemetry.Series) ([][]float64, []float64) {
	window := history
	if len(window) > e.Window {
		window = window[len(window)-e.Window:]
	}
	n := len(window) - e.Horizon
	if n <= 0 {
		return nil, nil
	}
	x := make([][]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x = append(x, features(window[i]))
		y = append(y, window[i+e.Horizon].Temperature)
	}
	return x, y
}

func features(r telemetry.Reading) []float64 {
	return []float64{r.Temperature, r.Humidity, float64(r.Motion)}
}

func fallback(current telemetry.Reading, reason Reason, rows int, err error) Result {
	return Result{
		Value:  telemetry.Round2(current.Temperature),
		Reason: reason,
		Rows:   rows,
		Err:    err,
	}
}

// String summarizes the result for logs.
func (r Result) String() string {
	if r.Fitted {
		return fmt.Sprintf("%.2f (model, %d rows)", r.Value, r.Rows)
	}
	if r.Err != nil {
		return fmt.Sprintf("%.2f (fallback: %s: %v)", r.Value, r.Reason, r.Err)
	}
	return fmt.Sprintf("%.2f (fallback: %s)", r.Value, r.Reason)
}
