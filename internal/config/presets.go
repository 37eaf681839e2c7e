package config

import "sort"

func preset(name, p, q string, edit func(*Config)) *Config {
	c := DefaultConfig()
	c.Name, c.P, c.Q = name, p, q
	if edit != nil {
		edit(c)
	}
	return c
}

var Presets = map[string]*Config{
	"saddle": preset("saddle", "x", "-y", func(c *Config) {
		c.Separatrices = []SeparatrixConfig{
			{Chart: "R2", Trans: [4]float64{1, 0, 0, 1}, Manifold: []float64{0}, Direction: 1, Type: "unstable"},
			{Chart: "R2", Trans: [4]float64{1, 0, 0, 1}, Manifold: []float64{0}, Direction: -1, Type: "unstable"},
			{Chart: "R2", Trans: [4]float64{0, 1, 1, 0}, Manifold: []float64{0}, Direction: 1, Type: "stable"},
			{Chart: "R2", Trans: [4]float64{0, 1, 1, 0}, Manifold: []float64{0}, Direction: -1, Type: "stable"},
		}
	}),
	"center": preset("center", "-y", "x", func(c *Config) {
		c.Orbits = []OrbitConfig{{Chart: "R2", U: 0.5, Dir: 1}, {Chart: "R2", U: 2, Dir: 1}}
	}),
	"star-node": preset("star-node", "x", "y", func(c *Config) {
		c.SingularInfinity = true
		c.Orbits = []OrbitConfig{{Chart: "U1", U: 0.2, V: 0.5, Dir: 1}}
		c.Separatrices = []SeparatrixConfig{{
			Chart: "R2", Trans: [4]float64{1, 0, 0, 1}, Manifold: []float64{0},
			Direction: 1, Type: "unstable",
			BlowUp: []BlowUpStep{{0, 0, 1, 1, 0, 1, 1, 1}},
			BlownP: "x", BlownQ: "0", BY0: 0.5,
		}}
	}),
	"van-der-pol": preset("van-der-pol", "y", "y - x^2*y - x", func(c *Config) {
		c.LimitCycle = &LimitCycleConfig{X0: 0.5, X1: 3, Grid: 0.5, Points: 1500}
		c.Orbits = []OrbitConfig{{Chart: "R2", U: 0.1, Dir: 1}}
	}),
	"cubic-lyapunov": preset("cubic-lyapunov", "y", "-x^3", func(c *Config) {
		c.WeightP, c.WeightQ = 1, 2
		c.Orbits = []OrbitConfig{{Chart: "R2", U: 0.5, Dir: 1}}
	}),
	"gcf-circle": preset("gcf-circle", "y*x^2 + y^3 - 0.25*y", "-x^3 - x*y^2 + 0.25*x", func(c *Config) {
		c.GCF = "x^2 + y^2 - 0.25"
		c.Orbits = []OrbitConfig{{Chart: "R2", U: 0.3, Dir: 1}, {Chart: "R2", U: 0.8, Dir: 1}}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	c.Separatrices = nil
	for _, sc := range p.Separatrices {
		sc.Manifold = append([]float64(nil), sc.Manifold...)
		sc.BlowUp = append([]BlowUpStep(nil), sc.BlowUp...)
		c.Separatrices = append(c.Separatrices, sc)
	}
	c.Orbits = append([]OrbitConfig(nil), p.Orbits...)
	if p.LimitCycle != nil {
		lc := *p.LimitCycle
		c.LimitCycle = &lc
	}
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
