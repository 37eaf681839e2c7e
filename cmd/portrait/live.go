package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/san-kum/portrait/internal/config"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/trace"
	"github.com/san-kum/portrait/internal/viz"
)

// stage is a started trace session.
type stage interface {
	viz.Session
	Points() []phase.OrbitPoint
}

// chain runs stages one after the other, starting each lazily. Errors of a
// stage are logged and the next stage starts; cancellation ends the chain.
type chain struct {
	stages   []func() (stage, error)
	cur      stage
	next     int
	done     bool
	canceled bool
	errs     []error
	onNext   func()
	log      *slog.Logger
}

func (c *chain) advance() error {
	for c.next < len(c.stages) {
		s, err := c.stages[c.next]()
		c.next++
		if err != nil {
			c.errs = append(c.errs, err)
			c.log.Warn("stage failed to start", slog.Int("stage", c.next-1), slog.String("error", err.Error()))
			continue
		}
		c.cur = s
		if c.onNext != nil {
			c.onNext()
		}
		return nil
	}
	c.cur, c.done = nil, true
	return nil
}

func (c *chain) Continue(ctx context.Context) error {
	if c.done {
		return nil
	}
	if c.cur == nil || c.cur.State().Terminal() {
		if err := c.advance(); err != nil || c.done {
			return err
		}
	}
	err := c.cur.Continue(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, phase.ErrCanceled) {
		c.canceled, c.done = true, true
		return err
	}
	c.errs = append(c.errs, err)
	c.log.Warn("stage aborted", slog.Int("stage", c.next-1), slog.String("error", err.Error()))
	return nil
}

func (c *chain) State() phase.SessionState {
	switch {
	case c.canceled:
		return phase.Aborted
	case c.done:
		return phase.Finished
	case c.cur == nil:
		return phase.Started
	default:
		return c.cur.State()
	}
}

func (c *chain) Cancel() {
	if c.cur != nil {
		c.cur.Cancel()
	}
	c.canceled, c.done = true, true
}

func runLive(cmd *cobra.Command, args []string) error {
	if configFile == "" && preset == "" {
		entries := make([]viz.Entry, 0)
		for _, name := range config.ListPresets() {
			c := config.GetPreset(name)
			entries = append(entries, viz.Entry{Name: name, Info: fmt.Sprintf("x' = %s, y' = %s", c.P, c.Q)})
		}
		chosen, err := viz.Pick(entries)
		if err != nil {
			return err
		}
		if chosen == "" {
			return nil
		}
		preset = chosen
	}

	cfg, res, err := loadField()
	if err != nil {
		return err
	}
	// the alternate screen owns the terminal; stage errors are printed
	// after the program exits
	res.Logger = slog.New(slog.DiscardHandler)
	kind := "sep"
	if len(args) > 0 {
		kind = args[0]
	}

	pt := viz.NewCanvasPortrait()
	opts := trace.Options{Integrator: cfg.Integrator, Sink: pt}
	c := &chain{onNext: pt.Break, log: res.Log().With(slog.String("component", "live"))}
	var vopts []viz.Option

	switch kind {
	case "sep":
		for i := range cfg.Separatrices {
			c.stages = append(c.stages, func() (stage, error) {
				sep, err := cfg.Separatrix(i)
				if err != nil {
					return nil, err
				}
				tr, err := trace.NewSeparatrixTracer(res, opts)
				if err != nil {
					return nil, err
				}
				return tr, tr.Start(sep)
			})
		}
	case "orbit":
		for i := range cfg.Orbits {
			c.stages = append(c.stages, func() (stage, error) {
				id, o, err := cfg.Orbit(i)
				if err != nil {
					return nil, err
				}
				tr, err := trace.NewOrbitTracer(res, opts)
				if err != nil {
					return nil, err
				}
				return tr, tr.Start(id, o.U, o.V, o.Dir)
			})
		}
	case "lc":
		sec, lc, err := cfg.Section()
		if err != nil {
			return err
		}
		search, err := trace.NewLimitCycleSearch(res, sec, lc, opts)
		if err != nil {
			return err
		}
		c.stages = append(c.stages, func() (stage, error) { return search, search.Start() })
		vopts = append(vopts, viz.WithStepsPerTick(1), viz.WithSeries("return displacement", func() []float64 {
			return displacements(search)
		}))
	case "gcf":
		tr, err := trace.NewCurveTracer(res, opts)
		if err != nil {
			return err
		}
		tr.Precision, tr.PointCount = cfg.Curve.Precision, cfg.Curve.Points
		c.stages = append(c.stages, func() (stage, error) { return tr, tr.Start(res.Compactification()) })
		vopts = append(vopts, viz.WithStepsPerTick(1))
	default:
		return fmt.Errorf("unknown trace kind %q (want sep, orbit, lc or gcf)", kind)
	}
	if len(c.stages) == 0 {
		return fmt.Errorf("%s has nothing to trace for %s", cfg.Name, kind)
	}

	vopts = append(vopts, viz.WithTheme(viz.GetTheme(theme)))
	m := viz.NewModel(context.Background(), cfg.Name+" "+kind, c, pt, vopts...)
	final, err := viz.Run(m)
	if err != nil {
		return err
	}
	for _, e := range c.errs {
		fmt.Printf("error: %v\n", e)
	}
	if final.Err() != nil && !errors.Is(final.Err(), phase.ErrCanceled) {
		return final.Err()
	}
	return nil
}

// displacements is |r[k+1] - r[k]| for the latest seed with returns.
func displacements(s *trace.LimitCycleSearch) []float64 {
	for i := len(s.Seeds()) - 1; i >= 0; i-- {
		r := s.Returns(i)
		if len(r) < 2 {
			continue
		}
		out := make([]float64, len(r)-1)
		for k := range out {
			out[k] = math.Abs(r[k+1] - r[k])
		}
		return out
	}
	return nil
}
