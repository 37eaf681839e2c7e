package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/portrait/internal/config"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/trace"
)

// signalContext is canceled on interrupt so long traces stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// indices parses separatrix indices; no arguments select every entry.
func indices(args []string, n int) ([]int, error) {
	if len(args) == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	out := make([]int, 0, len(args))
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid separatrix index %q", a)
		}
		out = append(out, i)
	}
	return out, nil
}

func traceSeparatrices(cmd *cobra.Command, args []string) error {
	cfg, res, err := loadField()
	if err != nil {
		return err
	}
	if len(cfg.Separatrices) == 0 {
		return fmt.Errorf("%s has no separatrices", cfg.Name)
	}
	idx, err := indices(args, len(cfg.Separatrices))
	if err != nil {
		return err
	}

	seps := make([]trace.Separatrix, 0, len(idx))
	for _, i := range idx {
		sep, err := cfg.Separatrix(i)
		if err != nil {
			return err
		}
		seps = append(seps, sep)
	}

	ctx, stop := signalContext()
	defer stop()

	ens := trace.NewEnsemble(res, trace.Options{Integrator: cfg.Integrator}, workers)
	runs, ensErr := ens.Run(ctx, seps, res.Integration.MaxPoints)

	var all []phase.OrbitPoint
	var lastErr error
	state := phase.Finished
	for _, r := range runs {
		all = append(all, r.Points...)
		fmt.Printf("separatrix %d (%s, dir %+d): %d points, %s, %d steps accepted, %d rejected\n",
			idx[r.Index], r.Sep.Type, r.Sep.Direction, len(r.Points), r.State, r.Stats.Accepted, r.Stats.Rejected)
		if r.LeftLocal {
			fmt.Printf("  left the blow-up chart below h_min\n")
		}
		if r.Err != nil {
			fmt.Printf("  error: %v\n", r.Err)
			lastErr, state = r.Err, r.State
		}
	}
	if ensErr != nil {
		lastErr, state = ensErr, phase.Aborted
	}
	return save(cfg, "sep", state, lastErr, all)
}

func traceOrbits(cmd *cobra.Command, args []string) error {
	cfg, res, err := loadField()
	if err != nil {
		return err
	}
	orbits := cfg.Orbits
	if len(orbits) == 0 || cmd.Flags().Changed("u") || cmd.Flags().Changed("v") || cmd.Flags().Changed("chart") {
		orbits = []config.OrbitConfig{{Chart: chartName, U: startU, V: startV, Dir: direction}}
		cfg.Orbits = orbits
	}

	ctx, stop := signalContext()
	defer stop()

	var all []phase.OrbitPoint
	var lastErr error
	state := phase.Finished
	for i := range orbits {
		id, o, err := cfg.Orbit(i)
		if err != nil {
			return err
		}
		tr, err := trace.NewOrbitTracer(res, trace.Options{Integrator: cfg.Integrator})
		if err != nil {
			return err
		}
		if err := tr.Start(id, o.U, o.V, o.Dir); err != nil {
			return err
		}
		runErr := tr.Run(ctx, res.Integration.MaxPoints)
		pts := tr.Finish()
		all = append(all, pts...)

		last := tr.Cursor()
		fmt.Printf("orbit %d from %s (%g, %g): %d points, ends in %s at (%.4g, %.4g), %s\n",
			i, id, o.U, o.V, len(pts), last.State.Chart, last.U, last.V, tr.State())
		if runErr != nil {
			fmt.Printf("  error: %v\n", runErr)
			lastErr, state = runErr, tr.State()
			if errors.Is(runErr, phase.ErrCanceled) {
				break
			}
		}
	}
	return save(cfg, "orbit", state, lastErr, all)
}

func searchLimitCycles(cmd *cobra.Command, args []string) error {
	cfg, res, err := loadField()
	if err != nil {
		return err
	}
	sec, lc, err := cfg.Section()
	if err != nil {
		return err
	}
	search, err := trace.NewLimitCycleSearch(res, sec, lc, trace.Options{Integrator: cfg.Integrator})
	if err != nil {
		return err
	}
	if err := search.Start(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("scanning %d seeds on (%g,%g)-(%g,%g)\n", len(search.Seeds()), sec.X0, sec.Y0, sec.X1, sec.Y1)
	runErr := search.Run(ctx)
	cycles := search.Finish()
	for _, c := range cycles {
		fmt.Printf("  limit cycle through (%.6g, %.6g) from seed %d after %d returns\n", c.X, c.Y, c.Seed, len(c.Returns))
	}
	if len(cycles) == 0 {
		fmt.Println("  no limit cycle found")
	}
	if runErr != nil {
		fmt.Printf("error: %v\n", runErr)
	}
	return save(cfg, "lc", search.State(), runErr, search.Points())
}

func traceCurve(cmd *cobra.Command, args []string) error {
	cfg, res, err := loadField()
	if err != nil {
		return err
	}
	tr, err := trace.NewCurveTracer(res, trace.Options{Integrator: cfg.Integrator})
	if err != nil {
		return err
	}
	tr.Precision, tr.PointCount = cfg.Curve.Precision, cfg.Curve.Points
	if precision > 0 {
		tr.Precision = precision
	}
	if curvePts > 0 {
		tr.PointCount = curvePts
	}

	ctx, stop := signalContext()
	defer stop()

	var runErr error
	if singleTask != "" {
		task, err := trace.ParseTask(singleTask)
		if err != nil {
			return err
		}
		runErr = tr.RunTask(ctx, task, tr.Precision, tr.PointCount)
	} else {
		if err := tr.Start(res.Compactification()); err != nil {
			return err
		}
		runErr = tr.Run(ctx)
	}
	curves := tr.Finish()
	fmt.Printf("curve %s = 0: %d pieces, %d points\n", cfg.GCF, len(curves), len(tr.Points()))
	if runErr != nil {
		fmt.Printf("error: %v\n", runErr)
	}
	return save(cfg, "gcf", tr.State(), runErr, tr.Points())
}
