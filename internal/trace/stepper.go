package trace

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/portrait/internal/charts"
	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
)

// Cursor is the position of a trace between two steps.
type Cursor struct {
	U, V  float64
	H     float64 // magnitude of the next attempted step
	State phase.TraceState
}

// StepResult is one committed step.
type StepResult struct {
	Cursor     Cursor
	Point      phase.OrbitPoint
	Transition phase.Transition

	// H is the signed step taken.
	H float64

	// Degraded is set when the tolerance was not met at HMin and the
	// step was committed anyway.
	Degraded bool
}

// Stepper performs single adaptive steps on the atlas: integrate in the
// current chart, apply the seam policy, move to the chart that covers the
// landing point and update the trace state.
type Stepper struct {
	atlas  *charts.Atlas
	integ  integrators.Adaptive
	cfg    phase.IntegrationConfig
	gcf    poly.Polynomial
	wp, wq int
}

func NewStepper(atlas *charts.Atlas, integ integrators.Adaptive, res *phase.Results) *Stepper {
	wp, wq := atlas.Weights()
	return &Stepper{atlas: atlas, integ: integ, cfg: res.Integration, gcf: res.GCF, wp: wp, wq: wq}
}

// Place returns a cursor for the chart point (u, v) of chart id, expressed in
// the chart that covers it. Start points on a singular-infinity seam are
// rejected: both antipodal representatives are equally valid there.
func (s *Stepper) Place(id phase.ChartID, u, v float64, dir int, t phase.SepType) (Cursor, phase.OrbitPoint, error) {
	c := s.atlas.Chart(id)
	if c == nil {
		return Cursor{}, phase.OrbitPoint{}, fmt.Errorf("%w: chart %s not in atlas", phase.ErrInvalidConfig, id)
	}
	if dir != 1 && dir != -1 {
		return Cursor{}, phase.OrbitPoint{}, fmt.Errorf("%w: direction must be ±1, got %d", phase.ErrInvalidConfig, dir)
	}
	if s.atlas.SingularInfinity() && id.AtInfinity() && v == 0 {
		return Cursor{}, phase.OrbitPoint{}, fmt.Errorf("%w: start (%g, 0) in %s", phase.ErrChartBoundaryAmbiguous, u, id)
	}
	sphere := c.ToSphere(u, v)
	if loc := s.atlas.Locate(sphere); loc != id && s.atlas.Chart(loc) != nil {
		id = loc
		u, v = s.atlas.Chart(loc).FromSphere(sphere)
	}
	if !finitePoint(u, v, sphere) {
		return Cursor{}, phase.OrbitPoint{}, fmt.Errorf("%w: start point (%g, %g)", phase.ErrNonFinite, u, v)
	}

	cur := Cursor{
		U: u, V: v,
		H: s.cfg.HMax,
		State: phase.TraceState{
			Dir:   dir,
			Side:  phase.SideOfValue(s.curveValue(sphere)),
			Chart: id,
			Type:  t,
		},
	}
	return cur, s.point(cur, sphere, false), nil
}

// Step advances c by one adaptive step. Non-finite landings are retried
// with half the step; the step fails when that drops below HMin.
func (s *Stepper) Step(c Cursor) (StepResult, error) {
	id := c.State.Chart
	f := integrators.Func(s.atlas.Chart(id).Field)
	h := math.Max(c.H, s.cfg.HMin)

	for {
		st, err := s.integ.Step(f, c.U, c.V, float64(c.State.Dir)*h, s.cfg)
		if errors.Is(err, phase.ErrNonFinite) {
			return StepResult{}, err
		}

		l := s.atlas.Seam(id, st.X, st.Y)
		target, u, v, sphere := l.Chart, l.U, l.V, l.Sphere
		if !l.OnSeam {
			if loc := s.atlas.Locate(sphere); loc != target {
				target = loc
				u, v = s.atlas.Chart(loc).FromSphere(sphere)
			}
		}

		if !finitePoint(u, v, sphere) {
			if h/2 < s.cfg.HMin {
				return StepResult{}, fmt.Errorf("%w: %w", phase.ErrToleranceUnreachable, phase.ErrNonFinite)
			}
			h /= 2
			continue
		}

		cv := s.curveValue(sphere)
		tr := c.State.Advance(phase.Landing{
			Chart:       target,
			SeamCrossed: l.SeamCrossed,
			CurveValue:  cv,
			HasCurve:    len(s.gcf) > 0,
		}, s.atlas.DirVecField())

		next := Cursor{U: u, V: v, H: math.Abs(st.HNext), State: tr.State}
		return StepResult{
			Cursor:     next,
			Point:      s.point(next, sphere, !l.SeamCrossed),
			Transition: tr,
			H:          st.H,
			Degraded:   err != nil,
		}, nil
	}
}

func (s *Stepper) point(c Cursor, sphere [3]float64, dashes bool) phase.OrbitPoint {
	return phase.OrbitPoint{
		Chart:  c.State.Chart,
		U:      c.U,
		V:      c.V,
		Sphere: sphere,
		Dir:    c.State.Dir,
		Color:  phase.Classify(s.gcf, s.wp, s.wq, sphere, c.State.Type),
		Dashes: dashes,
	}
}

func (s *Stepper) curveValue(sphere [3]float64) float64 {
	return phase.CurveValue(s.gcf, s.wp, s.wq, sphere)
}

func finitePoint(u, v float64, sphere [3]float64) bool {
	for _, x := range [...]float64{u, v, sphere[0], sphere[1], sphere[2]} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// isDegraded reports a step committed at HMin without meeting the tolerance.
func isDegraded(err error) bool {
	return errors.Is(err, phase.ErrToleranceUnreachable) && !errors.Is(err, phase.ErrNonFinite)
}

// degradedRun extends a run of consecutive degraded steps or resets it.
func degradedRun(run int, degraded bool) int {
	if degraded {
		return run + 1
	}
	return 0
}
