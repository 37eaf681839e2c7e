package trace

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
)

// Section bounds accepted by NewLimitCycleSearch.
const (
	MinGrid   = 1e-8
	MaxGrid   = 10.0
	MinOrbits = 1
	MaxOrbits = 10000

	defaultPointsPerOrbit = 2000
	refineIterations      = 50
)

// Section is a segment of the finite plane transverse to the flow.
type Section struct {
	X0, Y0 float64
	X1, Y1 float64
}

func (s Section) Length() float64 { return math.Hypot(s.X1-s.X0, s.Y1-s.Y0) }

// At is the point at parameter a in [0, 1].
func (s Section) At(a float64) (float64, float64) {
	return s.X0 + a*(s.X1-s.X0), s.Y0 + a*(s.Y1-s.Y0)
}

// side is positive on the left of the directed section.
func (s Section) side(x, y float64) float64 {
	return (s.X1-s.X0)*(y-s.Y0) - (s.Y1-s.Y0)*(x-s.X0)
}

// param projects (x, y) onto the section line.
func (s Section) param(x, y float64) float64 {
	dx, dy := s.X1-s.X0, s.Y1-s.Y0
	return ((x-s.X0)*dx + (y-s.Y0)*dy) / (dx*dx + dy*dy)
}

// Detector decides from the return-map iterates of one seed whether they
// converge to a cycle and where it crosses the section.
type Detector interface {
	Detect(returns []float64) (at float64, ok bool)
}

// ConvergenceDetector reports a cycle when two successive returns differ
// by less than Tol.
type ConvergenceDetector struct {
	Tol float64
}

func (d ConvergenceDetector) Detect(returns []float64) (float64, bool) {
	n := len(returns)
	if n < 2 {
		return 0, false
	}
	if math.Abs(returns[n-1]-returns[n-2]) < d.Tol {
		return returns[n-1], true
	}
	return 0, false
}

// LimitCycleConfig tunes a search.
type LimitCycleConfig struct {
	Grid float64

	// PointsPerOrbit bounds the integration of a single seed.
	PointsPerOrbit int

	// Direction is +1 for forward time, -1 to find repelling cycles.
	Direction int

	// Detector defaults to ConvergenceDetector with the integration
	// tolerance scaled by 1e3.
	Detector Detector
}

// Cycle is a detected limit cycle.
type Cycle struct {
	Seed    int
	Param   float64 // section parameter of the crossing
	X, Y    float64
	Returns []float64
	Points  []phase.OrbitPoint
}

// LimitCycleSearch integrates an orbit from each seed of a section and
// records where it returns.
type LimitCycleSearch struct {
	*session

	section Section
	cfg     LimitCycleConfig
	n       int
	next    int
	returns [][]float64
	cycles  []Cycle
	rk4     *integrators.RK4
}

// NewLimitCycleSearch validates the section before anything else: the grid
// must lie in [MinGrid, MaxGrid] and not exceed the section length, and
// round(length/grid) must lie in [MinOrbits, MaxOrbits].
func NewLimitCycleSearch(res *phase.Results, sec Section, cfg LimitCycleConfig, opts Options) (*LimitCycleSearch, error) {
	n, err := seedCount(sec, cfg.Grid)
	if err != nil {
		return nil, err
	}
	if cfg.PointsPerOrbit <= 0 {
		cfg.PointsPerOrbit = defaultPointsPerOrbit
	}
	if cfg.Direction == 0 {
		cfg.Direction = 1
	}
	if cfg.Direction != 1 && cfg.Direction != -1 {
		return nil, fmt.Errorf("%w: direction must be ±1, got %d", phase.ErrInvalidConfig, cfg.Direction)
	}
	if cfg.Detector == nil {
		cfg.Detector = ConvergenceDetector{Tol: 1e3 * res.Integration.Tolerance}
	}

	s, err := newSession(res, opts, "limit-cycle")
	if err != nil {
		return nil, err
	}
	return &LimitCycleSearch{
		session: s,
		section: sec,
		cfg:     cfg,
		n:       n,
		returns: make([][]float64, n),
		rk4:     integrators.NewRK4(),
	}, nil
}

func seedCount(sec Section, grid float64) (int, error) {
	if grid < MinGrid || grid > MaxGrid {
		return 0, fmt.Errorf("%w: grid %g outside [%g, %g]", phase.ErrInvalidSection, grid, MinGrid, MaxGrid)
	}
	length := sec.Length()
	if grid > length {
		return 0, fmt.Errorf("%w: grid %g exceeds section length %g", phase.ErrInvalidSection, grid, length)
	}
	n := int(math.Round(length / grid))
	if n < MinOrbits || n > MaxOrbits {
		return 0, fmt.Errorf("%w: %d orbits outside [%d, %d]", phase.ErrInvalidSection, n, MinOrbits, MaxOrbits)
	}
	return n, nil
}

// Seeds returns the section parameters of the seeds, i/n for i < n.
func (l *LimitCycleSearch) Seeds() []float64 {
	out := make([]float64, l.n)
	for i := range out {
		out[i] = float64(i) / float64(l.n)
	}
	return out
}

func (l *LimitCycleSearch) Start() error {
	if err := l.begin(); err != nil {
		return err
	}
	l.log.Debug("limit cycle search", slog.Int("seeds", l.n), slog.Float64("length", l.section.Length()))
	return nil
}

// Done reports whether every seed has been integrated.
func (l *LimitCycleSearch) Done() bool { return l.next >= l.n }

// Continue integrates the next seed.
func (l *LimitCycleSearch) Continue(ctx context.Context) error {
	if err := l.ready(ctx); err != nil {
		return err
	}
	if l.Done() {
		l.finish()
		return nil
	}
	l.state = phase.Stepping

	i := l.next
	x, y := l.section.At(float64(i) / float64(l.n))
	returns, err := l.scan(ctx, x, y, l.cfg.PointsPerOrbit, nil)
	if err != nil {
		return err
	}
	l.returns[i] = returns
	l.next++
	l.log.Debug("seed done", slog.Int("seed", i), slog.Int("returns", len(returns)))

	if at, ok := l.cfg.Detector.Detect(returns); ok {
		if err := l.record(ctx, i, at, returns); err != nil {
			return err
		}
	}
	if l.Done() {
		l.finish()
	}
	return nil
}

// Run continues until every seed is integrated.
func (l *LimitCycleSearch) Run(ctx context.Context) error {
	for !l.state.Terminal() {
		if err := l.Continue(ctx); err != nil {
			return err
		}
	}
	return nil
}

// scan integrates from (x, y) and returns the section parameters of the
// successive returns. When collect is set, the orbit points up to the first
// return are appended to it and the scan ends there.
func (l *LimitCycleSearch) scan(ctx context.Context, x, y float64, budget int, collect *[]phase.OrbitPoint) ([]float64, error) {
	cur, p, err := l.stepper.Place(phase.FiniteR2, x, y, l.cfg.Direction, phase.TypeOrbit)
	if err != nil {
		return nil, l.abort(err)
	}
	if collect != nil {
		p.Color = phase.ColorLimitCycle
		*collect = append(*collect, p)
	}

	crossing := l.crossingSign(x, y)
	prevSphere := p.Sphere
	var returns []float64
	degraded := 0

	for k := 0; k < budget; k++ {
		if k%64 == 0 {
			if err := l.ready(ctx); err != nil {
				return nil, err
			}
		}
		prev := cur
		r, err := l.stepper.Step(cur)
		if err != nil {
			l.log.Debug("seed stopped", slog.String("error", err.Error()))
			break
		}
		if degraded = degradedRun(degraded, r.Degraded); degraded > MaxDegraded {
			l.log.Debug("seed stopped", slog.String("error", phase.ErrToleranceUnreachable.Error()))
			break
		}
		l.steps++
		cur = r.Cursor
		if collect != nil {
			pt := r.Point
			pt.Color = phase.ColorLimitCycle
			*collect = append(*collect, pt)
		}

		sphere := r.Point.Sphere
		from, to := prevSphere, sphere
		prevSphere = sphere
		if from[2] <= 0 || to[2] <= 0 || r.Transition.Flipped {
			continue
		}
		x0, y0 := l.plane(from)
		x1, y1 := l.plane(to)
		s0 := l.section.side(x0, y0)
		s1 := l.section.side(x1, y1)
		if !(s0*crossing < 0 && s1*crossing >= 0) {
			continue
		}
		cx, cy := l.refine(prev, math.Abs(r.H), s0)
		a := l.section.param(cx, cy)
		if a < 0 || a > 1 {
			continue
		}
		returns = append(returns, a)
		if collect != nil {
			break
		}
	}
	return returns, nil
}

// plane maps a sphere point with Z > 0 to the finite plane.
func (l *LimitCycleSearch) plane(sphere [3]float64) (float64, float64) {
	return l.atlas.Chart(phase.FiniteR2).FromSphere(sphere)
}

// crossingSign is the side the flow moves to across the section at (x, y).
func (l *LimitCycleSearch) crossingSign(x, y float64) float64 {
	fx, fy := l.atlas.Chart(phase.FiniteR2).Field(x, y)
	fx, fy = float64(l.cfg.Direction)*fx, float64(l.cfg.Direction)*fy
	s := (l.section.X1-l.section.X0)*fy - (l.section.Y1-l.section.Y0)*fx
	if s < 0 {
		return -1
	}
	return 1
}

// refine locates the section crossing inside an accepted step of length h
// by bisection, re-integrating from prev in its chart with RK4.
func (l *LimitCycleSearch) refine(prev Cursor, h, s0 float64) (float64, float64) {
	chart := l.atlas.Chart(prev.State.Chart)
	f := integrators.Func(chart.Field)
	dir := float64(prev.State.Dir)

	lo, hi := 0.0, h
	var x, y float64
	for i := 0; i < refineIterations && hi-lo > 1e-15; i++ {
		mid := (lo + hi) / 2
		u, v := l.rk4.Step(f, prev.U, prev.V, dir*mid)
		x, y = l.plane(chart.ToSphere(u, v))
		if l.section.side(x, y)*s0 > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return x, y
}

func (l *LimitCycleSearch) record(ctx context.Context, seed int, at float64, returns []float64) error {
	x, y := l.section.At(at)
	var pts []phase.OrbitPoint
	if _, err := l.scan(ctx, x, y, l.cfg.PointsPerOrbit, &pts); err != nil {
		return err
	}
	if len(pts) > 0 {
		pts[0].Dashes = false
	}
	l.cycles = append(l.cycles, Cycle{Seed: seed, Param: at, X: x, Y: y, Returns: returns, Points: pts})
	l.emit(pts...)
	l.log.Info("limit cycle found", slog.Int("seed", seed), slog.Float64("x", x), slog.Float64("y", y))
	return nil
}

// Returns is the return sequence recorded for seed i.
func (l *LimitCycleSearch) Returns(i int) []float64 {
	if i < 0 || i >= len(l.returns) {
		return nil
	}
	return l.returns[i]
}

func (l *LimitCycleSearch) Cycles() []Cycle { return l.cycles }

func (l *LimitCycleSearch) Finish() []Cycle {
	l.finish()
	return l.cycles
}
