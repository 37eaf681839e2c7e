package trace

import (
	"context"
	"log/slog"

	"github.com/san-kum/portrait/internal/phase"
)

// OrbitTracer follows the orbit through an arbitrary point.
type OrbitTracer struct {
	*session
	cursor Cursor
}

func NewOrbitTracer(res *phase.Results, opts Options) (*OrbitTracer, error) {
	s, err := newSession(res, opts, "orbit")
	if err != nil {
		return nil, err
	}
	return &OrbitTracer{session: s}, nil
}

// Start places the orbit at (u, v) of chart id; dir is +1 for forward
// time and -1 for backward time.
func (t *OrbitTracer) Start(id phase.ChartID, u, v float64, dir int) error {
	if err := t.begin(); err != nil {
		return err
	}
	cur, p, err := t.stepper.Place(id, u, v, dir, phase.TypeOrbit)
	if err != nil {
		return t.abort(err)
	}
	t.cursor = cur
	t.log.Debug("orbit start", slog.String("chart", cur.State.Chart.String()),
		slog.Float64("u", cur.U), slog.Float64("v", cur.V), slog.Int("dir", dir))
	t.emit(p)
	return nil
}

// Continue commits one point.
func (t *OrbitTracer) Continue(ctx context.Context) error {
	if err := t.ready(ctx); err != nil {
		return err
	}
	if t.full() {
		t.finish()
		return nil
	}
	t.state = phase.Stepping

	r, err := t.stepper.Step(t.cursor)
	if err != nil {
		return t.abort(&phase.TraceError{Step: t.steps, Chart: t.cursor.State.Chart, Wrapped: err})
	}
	if err := t.tolerate(r.Degraded, t.cursor.State.Chart); err != nil {
		return err
	}
	t.steps++
	if r.Transition.ChartChanged {
		t.state = phase.ChartSwitch
	}
	if r.Transition.Flipped {
		t.log.Debug("direction flipped at seam", slog.Int("step", t.steps), slog.String("chart", r.Point.Chart.String()))
	}
	t.crossed(r)
	t.cursor = r.Cursor
	t.emit(r.Point)
	return nil
}

func (t *OrbitTracer) Run(ctx context.Context, n int) error {
	return run(ctx, t.session, n, t.Continue)
}

// Cursor exposes the current trace state.
func (t *OrbitTracer) Cursor() Cursor { return t.cursor }

func (t *OrbitTracer) Finish() []phase.OrbitPoint {
	t.finish()
	return t.Points()
}
