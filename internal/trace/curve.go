package trace

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/portrait/internal/charts"
	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
)

// TaskID selects one stage of the curve tracer.
type TaskID int

const (
	TaskR2 TaskID = iota
	TaskU1
	TaskU2
	TaskV1
	TaskV2
	TaskFinishPoincare
	TaskLyapunovR2
	TaskCyl1
	TaskCyl2
	TaskCyl3
	TaskCyl4
	TaskFinishLyapunov
)

var taskNames = [...]string{
	"R2", "U1", "U2", "V1", "V2", "finish-poincare",
	"lyapunov-R2", "Cyl1", "Cyl2", "Cyl3", "Cyl4", "finish-lyapunov",
}

func (t TaskID) String() string {
	if t < 0 || int(t) >= len(taskNames) {
		return fmt.Sprintf("TaskID(%d)", int(t))
	}
	return taskNames[t]
}

// ParseTask is the inverse of String.
func ParseTask(s string) (TaskID, error) {
	for i, n := range taskNames {
		if n == s {
			return TaskID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown curve task %q", phase.ErrInvalidConfig, s)
}

// chart is the chart a task traces in; finish tasks have none.
func (t TaskID) chart() (phase.ChartID, phase.Compactification, bool) {
	switch t {
	case TaskR2:
		return phase.FiniteR2, phase.Poincare, true
	case TaskU1:
		return phase.U1, phase.Poincare, true
	case TaskU2:
		return phase.U2, phase.Poincare, true
	case TaskV1:
		return phase.V1, phase.Poincare, true
	case TaskV2:
		return phase.V2, phase.Poincare, true
	case TaskLyapunovR2:
		return phase.FiniteR2, phase.PoincareLyapunov, true
	case TaskCyl1, TaskCyl2, TaskCyl3, TaskCyl4:
		return phase.Cyl1 + phase.ChartID(t-TaskCyl1), phase.PoincareLyapunov, true
	case TaskFinishLyapunov:
		return 0, phase.PoincareLyapunov, false
	default:
		return 0, phase.Poincare, false
	}
}

// Tasks returns the task queue of a compactification.
func Tasks(c phase.Compactification) []TaskID {
	if c == phase.PoincareLyapunov {
		return []TaskID{TaskLyapunovR2, TaskCyl1, TaskCyl2, TaskCyl3, TaskCyl4, TaskFinishLyapunov}
	}
	return []TaskID{TaskR2, TaskU1, TaskU2, TaskV1, TaskV2, TaskFinishPoincare}
}

// domain is the box of chart coordinates a task searches.
type domain struct {
	u0, u1, v0, v1 float64
}

func taskDomain(id phase.ChartID) domain {
	switch {
	case id == phase.FiniteR2:
		return domain{-1, 1, -1, 1}
	case id.Cylindrical():
		c := float64(id-phase.Cyl1) * math.Pi / 2
		return domain{c - math.Pi/4, c + math.Pi/4, 0, 1}
	default:
		return domain{-1, 1, 0, 1.5}
	}
}

const (
	DefaultPrecision   = 40
	DefaultCurvePoints = 500
)

// CurveTracer traces the zero set of the common factor of the field.
type CurveTracer struct {
	*session

	queue      []TaskID
	curves     [][]phase.OrbitPoint
	Precision  int
	PointCount int
}

func NewCurveTracer(res *phase.Results, opts Options) (*CurveTracer, error) {
	if len(res.GCF) == 0 || res.GCF.Degree() < 1 {
		return nil, fmt.Errorf("%w: no common factor to trace", phase.ErrInvalidConfig)
	}
	s, err := newSession(res, opts, "curve")
	if err != nil {
		return nil, err
	}
	return &CurveTracer{session: s, Precision: DefaultPrecision, PointCount: DefaultCurvePoints}, nil
}

// Start queues the tasks of the compactification.
func (c *CurveTracer) Start(comp phase.Compactification) error {
	if comp != c.atlas.Compactification() {
		return fmt.Errorf("%w: atlas uses %s, not %s", phase.ErrInvalidConfig, c.atlas.Compactification(), comp)
	}
	if err := c.begin(); err != nil {
		return err
	}
	c.queue = Tasks(comp)
	return nil
}

// Continue runs the next queued task.
func (c *CurveTracer) Continue(ctx context.Context) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	if len(c.queue) == 0 {
		c.finish()
		return nil
	}
	task := c.queue[0]
	c.queue = c.queue[1:]
	return c.RunTask(ctx, task, c.Precision, c.PointCount)
}

func (c *CurveTracer) Run(ctx context.Context) error {
	for !c.state.Terminal() {
		if err := c.Continue(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunTask runs one task. Chart tasks search a precision×precision grid for
// sign changes of the curve, refine each by bisection and trace the curve
// from there in both directions for at most pointCount points per branch.
// Finish tasks end the session.
func (c *CurveTracer) RunTask(ctx context.Context, task TaskID, precision, pointCount int) error {
	if c.state == phase.Idle {
		if err := c.begin(); err != nil {
			return err
		}
	}
	if err := c.ready(ctx); err != nil {
		return err
	}
	id, comp, ok := task.chart()
	if comp != c.atlas.Compactification() {
		return fmt.Errorf("%w: task %s needs the %s compactification", phase.ErrInvalidConfig, task, comp)
	}
	if !ok {
		c.finish()
		return nil
	}
	if precision < 2 || pointCount < 1 {
		return fmt.Errorf("%w: precision %d, point count %d", phase.ErrInvalidConfig, precision, pointCount)
	}
	c.state = phase.Stepping

	curve, err := c.atlas.Curve(id, c.res.GCF)
	if err != nil {
		return err
	}
	g := newGrid(taskDomain(id), precision)
	seeds := g.seeds(curve.Value)
	c.log.Debug("curve task", slog.String("task", task.String()), slog.Int("seeds", len(seeds)))

	for _, s := range seeds {
		if g.visited(s[0], s[1]) {
			continue
		}
		if err := c.ready(ctx); err != nil {
			return err
		}
		pts, closed := c.branch(curve, g, s[0], s[1], -1, pointCount)
		if !closed {
			// backward branch reversed, then the forward branch without the seed
			fwd, _ := c.branch(curve, g, s[0], s[1], 1, pointCount)
			for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
				pts[i], pts[j] = pts[j], pts[i]
			}
			if len(fwd) > 1 {
				pts = append(pts, fwd[1:]...)
			}
		}
		if len(pts) < 2 {
			continue
		}
		for i := range pts {
			pts[i].Dashes = i > 0
		}
		c.curves = append(c.curves, pts)
		c.emit(pts...)
	}
	c.state = phase.ChartSwitch
	return nil
}

// branch traces the curve from (u, v) along its Hamiltonian field, with
// unit speed, until it leaves the chart or closes.
func (c *CurveTracer) branch(curve charts.Curve, g *grid, u, v float64, dir, limit int) ([]phase.OrbitPoint, bool) {
	chart := c.atlas.Chart(curve.Chart)
	f := func(u, v float64) (float64, float64) {
		du, dv := curve.Field(u, v)
		n := math.Hypot(du, dv)
		return du / n, dv / n
	}
	integ := c.stepper.integ
	cfg := c.res.Integration
	// a step never skips a cell, so visited cells cover the whole branch
	cfg.HMax = math.Max(cfg.HMin, math.Min(cfg.HMax, math.Min(g.du, g.dv)/2))
	h := cfg.HMax

	pts := make([]phase.OrbitPoint, 0, limit)
	degraded := 0
	for len(pts) < limit {
		sphere := chart.ToSphere(u, v)
		if !finitePoint(u, v, sphere) || c.atlas.Locate(sphere) != curve.Chart || !g.contains(u, v) {
			break
		}
		g.mark(u, v)
		pts = append(pts, phase.OrbitPoint{
			Chart:  curve.Chart,
			U:      u,
			V:      v,
			Sphere: sphere,
			Dir:    dir,
			Color:  phase.ColorCurve,
		})
		st, err := integ.Step(integrators.Func(f), u, v, float64(dir)*h, cfg)
		if err != nil && !isDegraded(err) {
			break
		}
		if degraded = degradedRun(degraded, err != nil); degraded > MaxDegraded {
			break
		}
		c.steps++
		u, v, h = st.X, st.Y, math.Abs(st.HNext)
		if len(pts) > 2 && math.Hypot(u-pts[0].U, v-pts[0].V) < math.Abs(st.H) {
			pts = append(pts, pts[0])
			return pts, true
		}
	}
	return pts, false
}

// Finish ends the session and returns the traced curve pieces.
func (c *CurveTracer) Finish() [][]phase.OrbitPoint {
	c.finish()
	return c.curves
}

// grid partitions a domain into cells for seeding and deduplication.
type grid struct {
	d    domain
	n    int
	du   float64
	dv   float64
	seen map[[2]int]bool
}

func newGrid(d domain, n int) *grid {
	return &grid{d: d, n: n, du: (d.u1 - d.u0) / float64(n), dv: (d.v1 - d.v0) / float64(n), seen: map[[2]int]bool{}}
}

func (g *grid) cell(u, v float64) [2]int {
	return [2]int{int(math.Floor((u - g.d.u0) / g.du)), int(math.Floor((v - g.d.v0) / g.dv))}
}

func (g *grid) contains(u, v float64) bool {
	return u >= g.d.u0 && u <= g.d.u1 && v >= g.d.v0 && v <= g.d.v1
}

func (g *grid) mark(u, v float64)         { g.seen[g.cell(u, v)] = true }
func (g *grid) visited(u, v float64) bool { return g.seen[g.cell(u, v)] }

// seeds returns one root of value on every grid edge where it changes sign.
func (g *grid) seeds(value func(u, v float64) float64) [][2]float64 {
	var out [][2]float64
	for i := 0; i <= g.n; i++ {
		for j := 0; j <= g.n; j++ {
			u := g.d.u0 + float64(i)*g.du
			v := g.d.v0 + float64(j)*g.dv
			a := value(u, v)
			if i < g.n {
				if r, ok := bisect(value, u, v, u+g.du, v, a); ok {
					out = append(out, r)
				}
			}
			if j < g.n {
				if r, ok := bisect(value, u, v, u, v+g.dv, a); ok {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func bisect(value func(u, v float64) float64, u0, v0, u1, v1, f0 float64) ([2]float64, bool) {
	f1 := value(u1, v1)
	if f0 == 0 {
		return [2]float64{u0, v0}, true
	}
	if f0*f1 > 0 || f1 == 0 {
		return [2]float64{}, false
	}
	for i := 0; i < 60; i++ {
		um, vm := (u0+u1)/2, (v0+v1)/2
		fm := value(um, vm)
		if fm == 0 {
			return [2]float64{um, vm}, true
		}
		if f0*fm < 0 {
			u1, v1 = um, vm
		} else {
			u0, v0, f0 = um, vm, fm
		}
	}
	return [2]float64{(u0 + u1) / 2, (v0 + v1) / 2}, true
}
