package trace

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/portrait/internal/blowup"
	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
)

const (
	// MaxHalvings bounds the step halvings spent on a failed membership
	// test before the crossing is accepted at a degraded step.
	MaxHalvings = 8

	// MaxDegraded bounds the consecutive steps committed at HMin without
	// meeting the tolerance; one more aborts the trace.
	MaxDegraded = 16

	defaultEpsilon = 0.01
	defaultRadius  = 0.1
	localPoints    = 10
)

// Separatrix describes one separatrix of a singular point, as delivered by
// the local analysis of that point.
type Separatrix struct {
	Chart  phase.ChartID
	X0, Y0 float64

	// Trans maps local coordinates (t, f(t)) to chart offsets from
	// (X0, Y0): [a, b, c, d] is the matrix ((a, b), (c, d)).
	Trans [4]float64

	// Manifold is the Taylor expansion f of the invariant manifold.
	Manifold poly.Series

	// Direction is +1 to follow t > 0, -1 for t < 0.
	Direction int

	Type phase.SepType

	// Epsilon is the length of the local piece drawn from the expansion.
	Epsilon float64

	// BlowUp is set for separatrices of degenerate points. The separatrix
	// is then integrated in blown-up coordinates with BlownField until it
	// leaves Radius around the singular point.
	BlowUp     blowup.Sequence
	BlownField poly.Field
	Radius     float64

	// BX0, BY0 is the singular point of BlownField the local manifold
	// starts from.
	BX0, BY0 float64
}

func (s Separatrix) validate() error {
	if s.Direction != 1 && s.Direction != -1 {
		return fmt.Errorf("%w: separatrix direction must be ±1, got %d", phase.ErrInvalidConfig, s.Direction)
	}
	if s.Trans[0]*s.Trans[3]-s.Trans[1]*s.Trans[2] == 0 {
		return fmt.Errorf("%w: singular separatrix transformation", phase.ErrInvalidConfig)
	}
	if len(s.BlowUp) > 0 {
		if err := s.BlowUp.Validate(); err != nil {
			return err
		}
		if s.BlownField.Degree() < 0 {
			return fmt.Errorf("%w: blown-up field is zero", phase.ErrInvalidConfig)
		}
	}
	return nil
}

// local returns the chart point at parameter t on the local manifold.
func (s Separatrix) local(t float64) (float64, float64) {
	return s.localAt(s.X0, s.Y0, t)
}

func (s Separatrix) localAt(x0, y0, t float64) (float64, float64) {
	ft := s.Manifold.Eval(t)
	return x0 + s.Trans[0]*t + s.Trans[1]*ft, y0 + s.Trans[2]*t + s.Trans[3]*ft
}

// SeparatrixTracer traces one separatrix at a time.
type SeparatrixTracer struct {
	*session

	sep    Separatrix
	cursor Cursor

	// blown-up phase
	inBlowUp bool
	bu, bv   float64
	bh       float64
	bdir     int
	blown    integrators.Func
	halvings int

	// LeftLocal is set when the blown-up integration could not reach the
	// boundary of the local chart within HMin.
	LeftLocal bool
}

func NewSeparatrixTracer(res *phase.Results, opts Options) (*SeparatrixTracer, error) {
	s, err := newSession(res, opts, "separatrix")
	if err != nil {
		return nil, err
	}
	return &SeparatrixTracer{session: s}, nil
}

// Start emits the local piece of sep and prepares the integration.
func (t *SeparatrixTracer) Start(sep Separatrix) error {
	if err := sep.validate(); err != nil {
		return err
	}
	if err := t.begin(); err != nil {
		return err
	}
	if sep.Epsilon == 0 {
		sep.Epsilon = defaultEpsilon
	}
	if sep.Radius == 0 {
		sep.Radius = defaultRadius
	}
	t.sep = sep
	t.log.Debug("separatrix start",
		slog.String("chart", sep.Chart.String()),
		slog.Float64("x0", sep.X0), slog.Float64("y0", sep.Y0),
		slog.String("type", sep.Type.String()),
		slog.Bool("blowup", len(sep.BlowUp) > 0))

	if len(sep.BlowUp) > 0 {
		return t.startBlowUp()
	}

	chart := t.atlas.Chart(sep.Chart)
	if chart == nil {
		return t.abort(fmt.Errorf("%w: chart %s not in atlas", phase.ErrInvalidConfig, sep.Chart))
	}
	pts := make([]phase.OrbitPoint, 0, localPoints+1)
	var u, v float64
	for i := 0; i <= localPoints; i++ {
		tt := float64(sep.Direction) * sep.Epsilon * float64(i) / localPoints
		u, v = sep.local(tt)
		sphere := chart.ToSphere(u, v)
		pts = append(pts, phase.OrbitPoint{
			Chart:  sep.Chart,
			U:      u,
			V:      v,
			Sphere: sphere,
			Dir:    flowDir(sep.Type),
			Color:  phase.Classify(t.res.GCF, t.stepper.wp, t.stepper.wq, sphere, sep.Type),
			Dashes: i > 0,
		})
	}
	cur, _, err := t.stepper.Place(sep.Chart, u, v, flowDir(sep.Type), sep.Type)
	if err != nil {
		return t.abort(err)
	}
	t.cursor = cur
	t.emit(pts...)
	return nil
}

// flowDir is the time direction that moves away from the singular point.
func flowDir(typ phase.SepType) int {
	if typ == phase.TypeStable || typ == phase.TypeCenterStable {
		return -1
	}
	return 1
}

func (t *SeparatrixTracer) startBlowUp() error {
	sep := t.sep
	t.inBlowUp = true
	t.blown = integrators.Func(sep.BlownField.Eval)
	t.bdir = flowDir(sep.Type)
	t.bh = t.res.Integration.HMax

	t.bu, t.bv = sep.localAt(sep.BX0, sep.BY0, float64(sep.Direction)*sep.Epsilon)

	p, ok := t.blownPoint(t.bu, t.bv, true)
	if !ok {
		return t.abort(fmt.Errorf("%w: blow-up start (%g, %g)", phase.ErrNonFinite, t.bu, t.bv))
	}
	t.emit(p)
	return nil
}

// blownPoint maps a blown-up point to the chart of the singular point.
func (t *SeparatrixTracer) blownPoint(bu, bv float64, first bool) (phase.OrbitPoint, bool) {
	x, y := t.sep.BlowUp.Apply(bu, bv)
	chart := t.atlas.Chart(t.sep.Chart)
	sphere := chart.ToSphere(x, y)
	if !finitePoint(x, y, sphere) {
		return phase.OrbitPoint{}, false
	}
	return phase.OrbitPoint{
		Chart:  t.sep.Chart,
		U:      x,
		V:      y,
		Sphere: sphere,
		Dir:    t.bdir,
		Color:  phase.Classify(t.res.GCF, t.stepper.wp, t.stepper.wq, sphere, t.sep.Type),
		Dashes: !first,
	}, true
}

// inside is the membership test of the blown-up phase: the mapped point is
// still covered by the chart of the singular point and within Radius.
func (t *SeparatrixTracer) inside(p phase.OrbitPoint) bool {
	if t.atlas.Locate(p.Sphere) != t.sep.Chart {
		return false
	}
	return math.Hypot(p.U-t.sep.X0, p.V-t.sep.Y0) <= t.sep.Radius
}

// Continue commits one point.
func (t *SeparatrixTracer) Continue(ctx context.Context) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	if t.full() {
		t.finish()
		return nil
	}
	if t.inBlowUp {
		return t.stepBlowUp()
	}
	return t.stepChart()
}

// Run continues until n more points are committed or the session ends.
func (t *SeparatrixTracer) Run(ctx context.Context, n int) error {
	return run(ctx, t.session, n, t.Continue)
}

func (t *SeparatrixTracer) stepChart() error {
	if t.state == phase.Started || t.state == phase.ChartSwitch {
		t.state = phase.Stepping
	}
	r, err := t.stepper.Step(t.cursor)
	if err != nil {
		return t.abort(&phase.TraceError{Step: t.steps, Chart: t.cursor.State.Chart, Wrapped: err})
	}
	if err := t.tolerate(r.Degraded, t.cursor.State.Chart); err != nil {
		return err
	}
	t.steps++
	t.crossed(r)
	if r.Transition.ChartChanged {
		t.state = phase.ChartSwitch
		t.log.Debug("chart switch",
			slog.String("from", t.cursor.State.Chart.String()),
			slog.String("to", r.Cursor.State.Chart.String()),
			slog.Bool("flipped", r.Transition.Flipped))
	}
	t.cursor = r.Cursor
	t.emit(r.Point)
	return nil
}

// stepBlowUp integrates the blown-up field. A step whose image leaves the
// local chart is halved; once MaxHalvings halvings have been spent near the
// boundary the crossing is accepted at the degraded step. When halving
// would go below HMin the trace is marked LeftLocal and exits from the last
// committed point.
func (t *SeparatrixTracer) stepBlowUp() error {
	if t.state == phase.Started {
		t.state = phase.Stepping
	}
	cfg := t.res.Integration
	h := t.bh

	for {
		st, err := t.stepper.integ.Step(t.blown, t.bu, t.bv, float64(t.bdir)*h, cfg)
		if err != nil && !isDegraded(err) {
			return t.abort(&phase.TraceError{Step: t.steps, Chart: t.sep.Chart, Wrapped: err})
		}
		p, ok := t.blownPoint(st.X, st.Y, false)
		switch {
		case ok && t.inside(p):
			if terr := t.tolerate(isDegraded(err), t.sep.Chart); terr != nil {
				return terr
			}
			t.steps++
			t.bu, t.bv, t.bh = st.X, st.Y, math.Abs(st.HNext)
			if t.halvings > 0 {
				t.bh = math.Min(t.bh, h)
			}
			t.emit(p)
			return nil
		case h/2 < cfg.HMin:
			t.LeftLocal = true
			t.log.Debug("left local chart", slog.Int("step", t.steps))
			return t.exitBlowUp(t.bu, t.bv, false)
		case !ok:
			h /= 2
		case t.halvings >= MaxHalvings:
			t.steps++
			t.bu, t.bv = st.X, st.Y
			t.emit(p)
			return t.exitBlowUp(st.X, st.Y, true)
		default:
			t.halvings++
			h /= 2
		}
	}
}

// exitBlowUp continues the trace in the regular charts. The direction is
// chosen so that the chart field points along the velocity induced by the
// blown-up field.
func (t *SeparatrixTracer) exitBlowUp(bu, bv float64, crossed bool) error {
	t.inBlowUp = false
	du, dv := t.blown(bu, bv)
	du, dv = float64(t.bdir)*du, float64(t.bdir)*dv
	x, y, ix, iy := t.sep.BlowUp.Push(bu, bv, du, dv)
	fx, fy := t.atlas.Chart(t.sep.Chart).Field(x, y)

	dot := ix*fx + iy*fy
	var dir int
	switch {
	case dot > 0:
		dir = 1
	case dot < 0:
		dir = -1
	default:
		// TODO: tangent exit velocity needs a rule from the local
		// analysis; until then the trace stops here.
		return t.abort(&phase.TraceError{Step: t.steps, Chart: t.sep.Chart, Wrapped: phase.ErrExitOrientation})
	}

	cur, _, err := t.stepper.Place(t.sep.Chart, x, y, dir, t.sep.Type)
	if err != nil {
		return t.abort(&phase.TraceError{Step: t.steps, Chart: t.sep.Chart, Wrapped: err})
	}
	t.cursor = cur
	t.state = phase.ChartSwitch
	t.log.Debug("blow-up exit", slog.Int("dir", dir), slog.Bool("degraded", crossed))
	return nil
}

// Finish closes the session and returns the committed points.
func (t *SeparatrixTracer) Finish() []phase.OrbitPoint {
	t.finish()
	return t.Points()
}

// Cursor exposes the current trace state.
func (t *SeparatrixTracer) Cursor() Cursor { return t.cursor }
