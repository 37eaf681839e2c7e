package trace

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/san-kum/portrait/internal/charts"
	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
)

// Options configure a controller beyond what Results carries.
type Options struct {
	// Integrator names the adaptive scheme; empty selects rk78.
	Integrator string

	// Sink receives every committed batch of points.
	Sink phase.Sink
}

// session holds the state every controller shares.
type session struct {
	res     *phase.Results
	atlas   *charts.Atlas
	stepper *Stepper
	sink    phase.Sink
	log     *slog.Logger

	state     phase.SessionState
	points    []phase.OrbitPoint
	steps     int
	degraded  int
	crossings int
	err       error
	canceled  atomic.Bool
}

func newSession(res *phase.Results, opts Options, component string) (*session, error) {
	atlas, err := charts.New(res)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(opts.Integrator)
	if err != nil {
		return nil, err
	}
	log := res.Log().With(slog.String("component", component))
	return &session{
		res:     res,
		atlas:   atlas,
		stepper: NewStepper(atlas, integ, res),
		sink:    opts.Sink,
		log:     log,
	}, nil
}

// State reports the lifecycle state.
func (s *session) State() phase.SessionState { return s.state }

// Err is the error that aborted the session, if any.
func (s *session) Err() error { return s.err }

// Points returns a snapshot of the committed points.
func (s *session) Points() []phase.OrbitPoint {
	out := make([]phase.OrbitPoint, len(s.points))
	copy(out, s.points)
	return out
}

func (s *session) Atlas() *charts.Atlas { return s.atlas }

// Stats reports the work done by the integrator so far.
func (s *session) Stats() integrators.Stats { return s.stepper.integ.Stats() }

// Cancel stops the session at the next Continue call.
func (s *session) Cancel() { s.canceled.Store(true) }

func (s *session) begin() error {
	if s.state != phase.Idle {
		return fmt.Errorf("%w: start in state %s", phase.ErrSessionState, s.state)
	}
	s.state = phase.Started
	return nil
}

// ready is called at the top of every Continue.
func (s *session) ready(ctx context.Context) error {
	if s.state == phase.Idle || s.state.Terminal() {
		return fmt.Errorf("%w: continue in state %s", phase.ErrSessionState, s.state)
	}
	select {
	case <-ctx.Done():
		return s.abort(fmt.Errorf("%w: %w", phase.ErrCanceled, ctx.Err()))
	default:
	}
	if s.canceled.Load() {
		return s.abort(phase.ErrCanceled)
	}
	return nil
}

func (s *session) abort(err error) error {
	s.state = phase.Aborted
	s.err = err
	s.log.Warn("trace aborted", slog.Int("step", s.steps), slog.String("error", err.Error()))
	return err
}

// tolerate counts consecutive degraded steps and aborts the session once
// more than MaxDegraded have been committed in a row.
func (s *session) tolerate(degraded bool, chart phase.ChartID) error {
	if s.degraded = degradedRun(s.degraded, degraded); s.degraded == 0 {
		return nil
	}
	s.log.Debug("degraded step", slog.Int("step", s.steps), slog.Int("run", s.degraded), slog.String("chart", chart.String()))
	if s.degraded > MaxDegraded {
		return s.abort(&phase.TraceError{Step: s.steps, Chart: chart, Wrapped: phase.ErrToleranceUnreachable})
	}
	return nil
}

// crossed records a step that moved the trace to the other side of the
// common factor curve.
func (s *session) crossed(r StepResult) {
	if !r.Transition.CurveCrossed {
		return
	}
	s.crossings++
	s.log.Debug("curve crossed", slog.Int("step", s.steps),
		slog.String("chart", r.Point.Chart.String()),
		slog.String("side", r.Cursor.State.Side.String()))
}

// CurveCrossings is the number of steps that crossed the common factor
// curve.
func (s *session) CurveCrossings() int { return s.crossings }

func (s *session) finish() {
	if s.state.Terminal() {
		return
	}
	s.state = phase.Finished
	s.log.Debug("trace finished", slog.Int("steps", s.steps), slog.Int("points", len(s.points)))
}

func (s *session) emit(pts ...phase.OrbitPoint) {
	if len(pts) == 0 {
		return
	}
	s.points = append(s.points, pts...)
	if s.sink != nil {
		s.sink.Draw(pts)
	}
}

// full reports whether the point budget of the session is spent.
func (s *session) full() bool {
	return len(s.points) >= s.res.Integration.MaxPoints
}

// Run calls next until the session ends, the context is done or n more
// points have been committed. It returns the error that ended the session.
func run(ctx context.Context, s *session, n int, next func(context.Context) error) error {
	target := len(s.points) + n
	for len(s.points) < target && !s.state.Terminal() {
		if err := next(ctx); err != nil {
			return err
		}
	}
	return nil
}
