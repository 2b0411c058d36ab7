package forecast

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"smartiot-sim/internal/telemetry"
)

// Presentation step applied after the model. A dashboard plotting predicted
// against measured temperature cannot tell the lines apart when they are
// within a few hundredths of a degree, so small gaps are widened in the
// direction the model leans. This never feeds back into the model.
const (
	minVisibleGap = 0.15
	nudgeMin      = 0.15
	nudgeMax      = 0.4
	trendMinimum  = 0.1
	trendGain     = 0.5
	randomNudge   = 0.3
)

// Presenter widens near-identical predictions for display. It is safe to
// toggle from another goroutine while the loop is running.
type Presenter struct {
	enabled atomic.Bool
	rng     *rand.Rand
}

// NewPresenter creates a presenter. A nil rng falls back to a time-seeded one.
func NewPresenter(enabled bool, rng *rand.Rand) *Presenter {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := &Presenter{rng: rng}
	p.enabled.Store(enabled)
	return p
}

// Enabled reports whether the presentation step is active.
func (p *Presenter) Enabled() bool { return p.enabled.Load() }

// SetEnabled switches the presentation step on or off.
func (p *Presenter) SetEnabled(v bool) { p.enabled.Store(v) }

// Toggle flips the presentation step and returns the new value.
func (p *Presenter) Toggle() bool {
	for {
		old := p.enabled.Load()
		if p.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Apply returns predicted unchanged when disabled or when it is already
// visibly apart from actual. Otherwise it nudges it away: in the model's
// direction when there is one, else toward the environmental baseline, else
// at random.
func (p *Presenter) Apply(predicted, actual, baseline float64) float64 {
	if !p.Enabled() || math.Abs(predicted-actual) >= minVisibleGap {
		return predicted
	}

	var nudge float64
	switch {
	case predicted > actual:
		nudge = p.uniform(nudgeMin, nudgeMax)
	case predicted < actual:
		nudge = p.uniform(-nudgeMax, -nudgeMin)
	default:
		trend := baseline - actual
		if math.Abs(trend) > trendMinimum {
			nudge = trend * trendGain
		} else {
			nudge = p.uniform(-randomNudge, randomNudge)
		}
	}
	return telemetry.Round2(telemetry.ClampTemperature(actual + nudge))
}

func (p *Presenter) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}
