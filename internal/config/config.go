// Package config reads field description files: the vector field, its
// compactification, numerical parameters and the curves to trace.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/portrait/internal/blowup"
	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
	"github.com/san-kum/portrait/internal/trace"
)

const (
	DefaultHMin      = 1e-10
	DefaultHMax      = 0.1
	DefaultTolerance = 1e-8
	DefaultMaxPoints = 2000
	DefaultGrid      = 0.1
)

type Config struct {
	Name             string             `yaml:"name"`
	P                string             `yaml:"p"`
	Q                string             `yaml:"q"`
	GCF              string             `yaml:"gcf,omitempty"`
	WeightP          int                `yaml:"weight_p"`
	WeightQ          int                `yaml:"weight_q"`
	SingularInfinity bool               `yaml:"singular_infinity"`
	DirVecField      int                `yaml:"dir_vec_field,omitempty"`
	Integrator       string             `yaml:"integrator"`
	Integration      IntegrationConfig  `yaml:"integration"`
	Separatrices     []SeparatrixConfig `yaml:"separatrices,omitempty"`
	Orbits           []OrbitConfig      `yaml:"orbits,omitempty"`
	LimitCycle       *LimitCycleConfig  `yaml:"limit_cycle,omitempty"`
	Curve            CurveConfig        `yaml:"curve"`
}

type IntegrationConfig struct {
	HMin      float64 `yaml:"h_min"`
	HMax      float64 `yaml:"h_max"`
	Tolerance float64 `yaml:"tolerance"`
	MaxPoints int     `yaml:"max_points"`
}

type SeparatrixConfig struct {
	Chart     string     `yaml:"chart"`
	X0        float64    `yaml:"x0"`
	Y0        float64    `yaml:"y0"`
	Trans     [4]float64 `yaml:"trans"`
	Manifold  []float64  `yaml:"manifold"`
	Direction int        `yaml:"direction"`
	Type      string     `yaml:"type"`
	Epsilon   float64    `yaml:"epsilon,omitempty"`

	BlowUp []BlowUpStep `yaml:"blow_up,omitempty"`
	BlownP string       `yaml:"blown_p,omitempty"`
	BlownQ string       `yaml:"blown_q,omitempty"`
	BX0    float64      `yaml:"bx0,omitempty"`
	BY0    float64      `yaml:"by0,omitempty"`
	Radius float64      `yaml:"radius,omitempty"`
}

// BlowUpStep is (x0, y0, c1, d1, d2, c2, d3, d4) in that order.
type BlowUpStep [8]float64

type OrbitConfig struct {
	Chart string  `yaml:"chart"`
	U     float64 `yaml:"u"`
	V     float64 `yaml:"v"`
	Dir   int     `yaml:"dir"`
}

type LimitCycleConfig struct {
	X0     float64 `yaml:"x0"`
	Y0     float64 `yaml:"y0"`
	X1     float64 `yaml:"x1"`
	Y1     float64 `yaml:"y1"`
	Grid   float64 `yaml:"grid"`
	Points int     `yaml:"points_per_orbit,omitempty"`
}

type CurveConfig struct {
	Precision int `yaml:"precision"`
	Points    int `yaml:"points"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "saddle",
		P:          "x",
		Q:          "-y",
		WeightP:    1,
		WeightQ:    1,
		Integrator: "rk78",
		Integration: IntegrationConfig{
			HMin:      DefaultHMin,
			HMax:      DefaultHMax,
			Tolerance: DefaultTolerance,
			MaxPoints: DefaultMaxPoints,
		},
		Curve: CurveConfig{
			Precision: trace.DefaultPrecision,
			Points:    trace.DefaultCurvePoints,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", phase.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Results parses the field and builds the context of a trace session.
func (c *Config) Results() (*phase.Results, error) {
	p, err := poly.Parse(c.P)
	if err != nil {
		return nil, fmt.Errorf("%w: p: %w", phase.ErrInvalidConfig, err)
	}
	q, err := poly.Parse(c.Q)
	if err != nil {
		return nil, fmt.Errorf("%w: q: %w", phase.ErrInvalidConfig, err)
	}
	res := phase.NewResults(poly.Field{P: p, Q: q})
	res.WeightP, res.WeightQ = c.WeightP, c.WeightQ
	res.SingularInfinity = c.SingularInfinity
	res.DirVecField = c.DirVecField
	res.Integration = phase.IntegrationConfig{
		HMin:      c.Integration.HMin,
		HMax:      c.Integration.HMax,
		Tolerance: c.Integration.Tolerance,
		MaxPoints: c.Integration.MaxPoints,
	}
	if c.GCF != "" {
		if res.GCF, err = poly.Parse(c.GCF); err != nil {
			return nil, fmt.Errorf("%w: gcf: %w", phase.ErrInvalidConfig, err)
		}
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Separatrix converts the i-th separatrix entry.
func (c *Config) Separatrix(i int) (trace.Separatrix, error) {
	if i < 0 || i >= len(c.Separatrices) {
		return trace.Separatrix{}, fmt.Errorf("%w: no separatrix %d (have %d)", phase.ErrInvalidConfig, i, len(c.Separatrices))
	}
	sc := c.Separatrices[i]
	chart, err := phase.ParseChartID(sc.Chart)
	if err != nil {
		return trace.Separatrix{}, err
	}
	typ, err := phase.ParseSepType(sc.Type)
	if err != nil {
		return trace.Separatrix{}, err
	}
	sep := trace.Separatrix{
		Chart:     chart,
		X0:        sc.X0,
		Y0:        sc.Y0,
		Trans:     sc.Trans,
		Manifold:  poly.Series(sc.Manifold),
		Direction: sc.Direction,
		Type:      typ,
		Epsilon:   sc.Epsilon,
		BX0:       sc.BX0,
		BY0:       sc.BY0,
		Radius:    sc.Radius,
	}
	if len(sc.BlowUp) == 0 {
		return sep, nil
	}
	for k, st := range sc.BlowUp {
		var d [4]int
		for j, at := range [4]int{3, 4, 6, 7} {
			if d[j], err = exponent(st[at]); err != nil {
				return trace.Separatrix{}, fmt.Errorf("separatrix %d blow-up step %d: %w", i, k, err)
			}
		}
		sep.BlowUp = append(sep.BlowUp, blowup.Transform{
			X0: st[0], Y0: st[1],
			C1: st[2], D1: d[0], D2: d[1],
			C2: st[5], D3: d[2], D4: d[3],
		})
	}
	bp, err := poly.Parse(sc.BlownP)
	if err != nil {
		return trace.Separatrix{}, fmt.Errorf("%w: blown_p: %w", phase.ErrInvalidConfig, err)
	}
	bq, err := poly.Parse(sc.BlownQ)
	if err != nil {
		return trace.Separatrix{}, fmt.Errorf("%w: blown_q: %w", phase.ErrInvalidConfig, err)
	}
	sep.BlownField = poly.Field{P: bp, Q: bq}
	return sep, nil
}

// exponent accepts a YAML number only when it is an integer.
func exponent(v float64) (int, error) {
	r := math.Round(v)
	if r != v || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: exponent %g is not an integer", phase.ErrInvalidConfig, v)
	}
	return int(r), nil
}

// Orbit converts the i-th orbit entry.
func (c *Config) Orbit(i int) (phase.ChartID, OrbitConfig, error) {
	if i < 0 || i >= len(c.Orbits) {
		return 0, OrbitConfig{}, fmt.Errorf("%w: no orbit %d (have %d)", phase.ErrInvalidConfig, i, len(c.Orbits))
	}
	o := c.Orbits[i]
	if o.Chart == "" {
		o.Chart = phase.FiniteR2.String()
	}
	chart, err := phase.ParseChartID(o.Chart)
	if err != nil {
		return 0, OrbitConfig{}, err
	}
	if o.Dir == 0 {
		o.Dir = 1
	}
	return chart, o, nil
}

// Section returns the limit-cycle section and search parameters.
func (c *Config) Section() (trace.Section, trace.LimitCycleConfig, error) {
	lc := c.LimitCycle
	if lc == nil {
		return trace.Section{}, trace.LimitCycleConfig{}, fmt.Errorf("%w: no limit_cycle section", phase.ErrInvalidConfig)
	}
	grid := lc.Grid
	if grid == 0 {
		grid = DefaultGrid
	}
	return trace.Section{X0: lc.X0, Y0: lc.Y0, X1: lc.X1, Y1: lc.Y1},
		trace.LimitCycleConfig{Grid: grid, PointsPerOrbit: lc.Points},
		nil
}
