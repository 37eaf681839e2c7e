// Package integrators provides the explicit Runge-Kutta schemes used to
// trace planar orbits.
//
// [RK78] is the Fehlberg 7(8) pair used by every trace controller; [RK45]
// is the Dormand-Prince 5(4) pair offered as a faster, less accurate
// alternative. Both implement [Adaptive]: they start from the requested step,
// halve it until the error estimate meets the tolerance and suggest the next
// step. The sign of h carries the direction of integration, the bounds of
// [phase.IntegrationConfig] apply to |h|.
package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/portrait/internal/phase"
)

// Func is a planar vector field.
type Func func(x, y float64) (float64, float64)

// Step is the outcome of one adaptive step.
type Step struct {
	X, Y   float64
	H      float64 // signed step taken, |H| in [HMin, HMax]
	HNext  float64 // signed suggestion for the next step
	ErrEst float64
}

// Stats counts work done by an integrator.
type Stats struct {
	Accepted    int
	Rejected    int
	Evaluations int
}

type Adaptive interface {
	Step(f Func, x, y, h float64, cfg phase.IntegrationConfig) (Step, error)
	Stats() Stats
}

// New returns the adaptive integrator registered under name.
func New(name string) (Adaptive, error) {
	switch name {
	case "", "rk78":
		return NewRK78(), nil
	case "rk45":
		return NewRK45(), nil
	default:
		return nil, fmt.Errorf("%w: unknown integrator %q", phase.ErrInvalidConfig, name)
	}
}

// attemptFunc performs one trial step of size h and returns the new point
// and the scaled local error estimate.
type attemptFunc func(f Func, x, y, h float64) (nx, ny, est float64)

type controller struct {
	safety    float64
	maxGrowth float64
	order     float64
	stats     Stats
}

func (c *controller) Stats() Stats { return c.stats }

// adapt runs the rejection loop: the step is halved while the estimate
// exceeds the tolerance. At HMin the step is returned anyway together with
// ErrToleranceUnreachable; non-finite results at HMin do not move the point.
func (c *controller) adapt(attempt attemptFunc, f Func, x, y, h float64, cfg phase.IntegrationConfig) (Step, error) {
	dir := 1.0
	if h < 0 {
		dir = -1
	}
	ah := clamp(math.Abs(h), cfg.HMin, cfg.HMax)

	for {
		nx, ny, est := attempt(f, x, y, dir*ah)
		ok := finite(nx) && finite(ny) && finite(est)

		if ok && est <= cfg.Tolerance {
			c.stats.Accepted++
			growth := c.maxGrowth
			if est > 0 {
				growth = math.Min(c.maxGrowth, c.safety*math.Pow(cfg.Tolerance/est, 1/c.order))
			}
			next := clamp(ah*growth, cfg.HMin, cfg.HMax)
			return Step{X: nx, Y: ny, H: dir * ah, HNext: dir * next, ErrEst: est}, nil
		}

		if ah <= cfg.HMin {
			c.stats.Rejected++
			if !ok {
				return Step{X: x, Y: y, H: dir * ah, HNext: dir * ah, ErrEst: math.Inf(1)},
					fmt.Errorf("%w: %w", phase.ErrToleranceUnreachable, phase.ErrNonFinite)
			}
			return Step{X: nx, Y: ny, H: dir * ah, HNext: dir * ah, ErrEst: est}, phase.ErrToleranceUnreachable
		}

		c.stats.Rejected++
		ah = math.Max(ah/2, cfg.HMin)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// scaledError is |e| relative to 1 + |y|.
func scaledError(ex, ey, x, y float64) float64 {
	return math.Max(math.Abs(ex)/(1+math.Abs(x)), math.Abs(ey)/(1+math.Abs(y)))
}
