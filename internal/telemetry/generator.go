package telemetry

import (
	"math"
	"math/rand"
	"time"
)

// Physical bounds of the simulated sensor.
const (
	MinTemperature = 15.0
	MaxTemperature = 35.0
	MinHumidity    = 30.0
	MaxHumidity    = 70.0
	MinBaseline    = 18.0
	MaxBaseline    = 28.0
)

const (
	baselineDrift    = 0.02
	temperatureNoise = 0.3
	humidityStep     = 0.8
	motionChance     = 0.08
	minMotionHold    = 2
	maxMotionHold    = 5
)

// GeneratorState is the state carried between ticks. The environmental
// baseline is the slow-moving signal the forecaster learns; the measured
// temperature is that baseline plus short-term noise.
type GeneratorState struct {
	EnvironmentBaseline float64
	LastTemperature     float64
	LastHumidity        float64
	MotionActive        bool
	MotionCooldown      int
}

// InitialState returns the power-on state of the sensor.
func InitialState() GeneratorState {
	return GeneratorState{
		EnvironmentBaseline: 22.0,
		LastTemperature:     22.0,
		LastHumidity:        45.0,
	}
}

// Generator simulates the sensor for one device.
type Generator struct {
	DeviceID   string
	DeviceName string

	state GeneratorState
	rng   *rand.Rand
	now   func() time.Time
}

// NewGenerator creates a generator starting from InitialState. A nil rng
// falls back to a time-seeded source.
func NewGenerator(deviceID, deviceName string, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		state:      InitialState(),
		rng:        rng,
		now:        time.Now,
	}
}

// SetClock overrides the time source used for reading timestamps.
func (g *Generator) SetClock(now func() time.Time) { g.now = now }

// SetState replaces the carried state.
func (g *Generator) SetState(s GeneratorState) { g.state = s }

// State returns a copy of the carried state.
func (g *Generator) State() GeneratorState { return g.state }

// Baseline returns the current environmental baseline temperature.
func (g *Generator) Baseline() float64 { return g.state.EnvironmentBaseline }

// Next advances the sensor state by one tick and returns the new reading.
func (g *Generator) Next() Reading {
	s := &g.state

	s.EnvironmentBaseline = clamp(s.EnvironmentBaseline+g.uniform(-baselineDrift, baselineDrift), MinBaseline, MaxBaseline)

	temp := clamp(s.EnvironmentBaseline+g.uniform(-temperatureNoise, temperatureNoise), MinTemperature, MaxTemperature)
	temp = Round2(temp)

	humidity := clamp(s.LastHumidity+g.uniform(-humidityStep, humidityStep), MinHumidity, MaxHumidity)
	humidity = Round2(humidity)

	// Motion holds for the drawn cooldown before it can re-trigger.
	switch {
	case s.MotionCooldown > 0:
		s.MotionActive = true
		s.MotionCooldown--
	case g.rng.Float64() < motionChance:
		s.MotionActive = true
		s.MotionCooldown = minMotionHold + g.rng.Intn(maxMotionHold-minMotionHold+1)
	default:
		s.MotionActive = false
	}

	s.LastTemperature = temp
	s.LastHumidity = humidity

	motion := 0
	if s.MotionActive {
		motion = 1
	}
	return Reading{
		Temperature: temp,
		Humidity:    humidity,
		Motion:      motion,
		Timestamp:   NewTimestamp(g.now()),
		DeviceID:    g.DeviceID,
		DeviceName:  g.DeviceName,
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampTemperature bounds v to the sensor's temperature range.
func ClampTemperature(v float64) float64 {
	return clamp(v, MinTemperature, MaxTemperature)
}
