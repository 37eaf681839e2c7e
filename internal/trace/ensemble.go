package trace

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/portrait/internal/integrators"
	"github.com/san-kum/portrait/internal/phase"
)

// SeparatrixRun is the outcome of one separatrix traced by an Ensemble.
type SeparatrixRun struct {
	Index     int
	Sep       Separatrix
	Points    []phase.OrbitPoint
	State     phase.SessionState
	Stats     integrators.Stats
	LeftLocal bool
	Err       error
}

// Ensemble traces independent separatrices of one field concurrently. Each
// trace owns its session; Results is only read.
type Ensemble struct {
	res     *phase.Results
	opts    Options
	workers int
}

// NewEnsemble returns an ensemble running at most workers traces at once;
// workers <= 0 uses one per CPU. Sinks are not shared between goroutines, so
// opts.Sink is ignored.
func NewEnsemble(res *phase.Results, opts Options, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts.Sink = nil
	return &Ensemble{res: res, opts: opts, workers: workers}
}

// Run traces every separatrix for up to n points. Results keep the input
// order. A failing trace records its error and leaves the others running;
// the returned error is only set when ctx was canceled.
func (e *Ensemble) Run(ctx context.Context, seps []Separatrix, n int) ([]SeparatrixRun, error) {
	runs := make([]SeparatrixRun, len(seps))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, sep := range seps {
		g.Go(func() error {
			runs[i] = e.trace(ctx, i, sep, n)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return runs, fmt.Errorf("%w: %w", phase.ErrCanceled, err)
	}
	return runs, nil
}

func (e *Ensemble) trace(ctx context.Context, i int, sep Separatrix, n int) SeparatrixRun {
	run := SeparatrixRun{Index: i, Sep: sep, State: phase.Aborted}
	tr, err := NewSeparatrixTracer(e.res, e.opts)
	if err != nil {
		run.Err = err
		return run
	}
	if err := tr.Start(sep); err != nil {
		run.Err = err
		run.State = tr.State()
		return run
	}
	run.Err = tr.Run(ctx, n)
	run.Points = tr.Finish()
	run.State = tr.State()
	run.Stats = tr.Stats()
	run.LeftLocal = tr.LeftLocal
	return run
}
