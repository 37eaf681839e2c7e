package charts

import (
	"fmt"
	"math"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
)

// finiteZ is the Z coordinate of the sphere at quasi-radius 1. Points with
// a larger Z are integrated in R2.
var finiteZ = 1 / math.Sqrt2

// Atlas is the set of charts for one vector field and compactification.
type Atlas struct {
	comp        phase.Compactification
	wp, wq      int
	degree      int
	singinf     bool
	dirVecField int
	charts      [phase.Cyl4 + 1]Chart
}

// New derives the chart fields of res. It fails when SingularInfinity is
// set but the chart fields at infinity are not divisible by the infinity
// coordinate.
func New(res *phase.Results) (*Atlas, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	a := &Atlas{
		comp:    res.Compactification(),
		wp:      res.WeightP,
		wq:      res.WeightQ,
		singinf: res.SingularInfinity,
	}
	a.charts[phase.FiniteR2] = &finite{field: res.Field, wp: a.wp, wq: a.wq}

	var err error
	if a.comp == phase.Poincare {
		err = a.buildPoincare(res.Field)
	} else {
		err = a.buildLyapunov(res.Field)
	}
	if err != nil {
		return nil, err
	}

	a.dirVecField = res.DirVecField
	if a.dirVecField == 0 {
		a.dirVecField = DirVecFieldFor(a.degree, a.singinf)
	}
	return a, nil
}

// DirVecFieldFor returns 1 when the orientation of the chart fields reverses
// across the line at infinity. The chart fields are multiplied by v^(d-1),
// and additionally divided by v when infinity is singular.
func DirVecFieldFor(degree int, singinf bool) int {
	odd := (degree-1)%2 != 0
	if singinf {
		odd = !odd
	}
	if odd {
		return 1
	}
	return -1
}

func (a *Atlas) buildPoincare(f poly.Field) error {
	d := f.Degree()
	if d < 1 {
		d = 1
	}
	a.degree = d
	for _, id := range []phase.ChartID{phase.U1, phase.V1, phase.U2, phase.V2} {
		alongY := id == phase.U2 || id == phase.V2
		sign := 1.0
		if id == phase.V1 || id == phase.V2 {
			sign = -1
		}
		mainP, otherP := f.P, f.Q
		if alongY {
			mainP, otherP = f.Q, f.P
		}
		m := restrict(mainP, d, alongY, sign)
		o := restrict(otherP, d, alongY, sign)

		// U: u' = O - u·M, v' = -v·M; V is the negation.
		fu := o.Add(m.MulMonomial(-1, 1, 0))
		fv := m.MulMonomial(-1, 0, 1)
		if sign < 0 {
			fu, fv = fu.Scale(-1), fv.Scale(-1)
		}
		if a.singinf {
			var ok1, ok2 bool
			fu, ok1 = fu.DivideByY()
			fv, ok2 = fv.DivideByY()
			if !ok1 || !ok2 {
				return fmt.Errorf("%w: field in %s is not singular at infinity", phase.ErrInvalidConfig, id)
			}
		}
		a.charts[id] = &infinite{id: id, alongY: alongY, sign: sign, fu: fu, fv: fv}
	}
	return nil
}

// restrict rewrites p on the plane X = sign (or Y = sign) of its
// homogenization of degree d, in chart coordinates (u, v).
func restrict(p poly.Polynomial, d int, alongY bool, sign float64) poly.Polynomial {
	out := make(poly.Polynomial, 0, len(p))
	for _, t := range p {
		c := t.Coeff
		if sign < 0 && (t.ExpX+t.ExpY)%2 == 1 {
			c = -c
		}
		k := d - t.ExpX - t.ExpY
		if alongY {
			out = append(out, poly.Term{Coeff: c, ExpX: t.ExpX, ExpY: k})
		} else {
			out = append(out, poly.Term{Coeff: c, ExpX: t.ExpY, ExpY: k})
		}
	}
	return out.Simplify()
}

// lyapunovDegree is the smallest d with P of quasi-degree <= d+p-1 and Q of
// quasi-degree <= d+q-1.
func lyapunovDegree(f poly.Field, wp, wq int) int {
	d := 1
	if qd := f.P.QuasiDegree(wp, wq); qd-wp+1 > d {
		d = qd - wp + 1
	}
	if qd := f.Q.QuasiDegree(wp, wq); qd-wq+1 > d {
		d = qd - wq + 1
	}
	return d
}

func (a *Atlas) buildLyapunov(f poly.Field) error {
	d := lyapunovDegree(f, a.wp, a.wq)
	a.degree = d
	pt, ok1 := f.P.Cylinder(a.wp, a.wq, d+a.wp-1)
	qt, ok2 := f.Q.Cylinder(a.wp, a.wq, d+a.wq-1)
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: cylinder degree %d too small", phase.ErrInvalidConfig, d)
	}

	// r' = -r (cos·P~ + sin·Q~), θ' = p·cos·Q~ - q·sin·P~
	fr := append(pt.MulMonomial(-1, 1, 1, 0), qt.MulMonomial(-1, 1, 0, 1)...)
	fth := append(qt.MulMonomial(float64(a.wp), 0, 1, 0), pt.MulMonomial(-float64(a.wq), 0, 0, 1)...)
	if a.singinf {
		var okR, okT bool
		fr, okR = fr.DivideByR()
		fth, okT = fth.DivideByR()
		if !okR || !okT {
			return fmt.Errorf("%w: cylinder field is not singular at infinity", phase.ErrInvalidConfig)
		}
	}
	for id := phase.Cyl1; id <= phase.Cyl4; id++ {
		a.charts[id] = &cylinder{id: id, center: cylinderCenter(id), fth: fth, fr: fr}
	}
	return nil
}

func (a *Atlas) Chart(id phase.ChartID) Chart {
	if id < 0 || id > phase.Cyl4 {
		return nil
	}
	return a.charts[id]
}

func (a *Atlas) Compactification() phase.Compactification { return a.comp }

func (a *Atlas) Weights() (int, int) { return a.wp, a.wq }

// Degree is the degree used to scale the chart fields at infinity.
func (a *Atlas) Degree() int { return a.degree }

func (a *Atlas) SingularInfinity() bool { return a.singinf }

func (a *Atlas) DirVecField() int { return a.dirVecField }

// Locate returns the chart a sphere point is integrated in: R2 inside the
// unit quasi-disc, otherwise the chart of the dominant axis (Poincaré) or
// the cylinder quadrant (Poincaré-Lyapunov).
func (a *Atlas) Locate(p [3]float64) phase.ChartID {
	if p[2] > finiteZ {
		return phase.FiniteR2
	}
	if a.comp == phase.PoincareLyapunov {
		theta := math.Atan2(p[1], p[0])
		if theta < -math.Pi/4 {
			theta += 2 * math.Pi
		}
		q := int(math.Floor((theta + math.Pi/4) / (math.Pi / 2)))
		if q > 3 {
			q = 3
		}
		return phase.Cyl1 + phase.ChartID(q)
	}
	if math.Abs(p[0]) >= math.Abs(p[1]) {
		if p[0] > 0 {
			return phase.U1
		}
		return phase.V1
	}
	if p[1] > 0 {
		return phase.U2
	}
	return phase.V2
}

// Partner is the chart reached through the singular-infinity seam.
func Partner(id phase.ChartID) phase.ChartID {
	switch id {
	case phase.U1:
		return phase.V1
	case phase.V1:
		return phase.U1
	case phase.U2:
		return phase.V2
	case phase.V2:
		return phase.U2
	case phase.Cyl1, phase.Cyl2:
		return id + 2
	case phase.Cyl3, phase.Cyl4:
		return id - 2
	default:
		return id
	}
}

// Landing is a point placed on the sphere after a step in chart Chart.
type Landing struct {
	Chart       phase.ChartID
	U, V        float64
	Sphere      [3]float64
	SeamCrossed bool

	// OnSeam is set when V is exactly zero on a singular-infinity chart; the
	// point stays in its chart.
	OnSeam bool
}

// Seam places the chart point (u, v) of chart id on the sphere. When the
// line at infinity is singular and the step ended at v < 0, the point is the
// antipode of the naive one and is expressed in the partner chart with
// coordinates (u, -v), or (θ+π, -r) on the cylinder. The caller decides the
// direction flip from DirVecField. Without singular infinity, and for v >= 0,
// the point stays in its chart.
func (a *Atlas) Seam(id phase.ChartID, u, v float64) Landing {
	c := a.charts[id]
	if id == phase.FiniteR2 || !a.singinf || v >= 0 {
		return Landing{Chart: id, U: u, V: v, Sphere: c.ToSphere(u, v), OnSeam: a.singinf && id != phase.FiniteR2 && v == 0}
	}
	pid := Partner(id)
	pu, pv := u, -v
	if cyl, ok := a.charts[pid].(*cylinder); ok {
		pu = cyl.branch(u + math.Pi)
	}
	return Landing{Chart: pid, U: pu, V: pv, Sphere: a.charts[pid].ToSphere(pu, pv), SeamCrossed: true}
}

// Curve is an auxiliary polynomial curve G = 0 expressed in one chart,
// together with a Hamiltonian field whose orbits lie on its level sets.
type Curve struct {
	Chart phase.ChartID
	Value func(u, v float64) float64
	Field func(u, v float64) (float64, float64)
}

// Curve expresses g in chart id.
func (a *Atlas) Curve(id phase.ChartID, g poly.Polynomial) (Curve, error) {
	switch {
	case id == phase.FiniteR2:
		return planarCurve(id, g), nil
	case id.Cylindrical():
		if a.comp != phase.PoincareLyapunov {
			return Curve{}, fmt.Errorf("%w: chart %s needs the Poincaré-Lyapunov compactification", phase.ErrInvalidConfig, id)
		}
		d := g.QuasiDegree(a.wp, a.wq)
		if d < 0 {
			d = 0
		}
		gt, _ := g.Cylinder(a.wp, a.wq, d)
		dr, dth := gt.DerivR(), gt.DerivTheta()
		return Curve{
			Chart: id,
			Value: func(theta, r float64) float64 { return gt.Eval(r, theta) },
			Field: func(theta, r float64) (float64, float64) {
				s, c := math.Sincos(theta)
				return dr.EvalRCS(r, c, s), -dth.EvalRCS(r, c, s)
			},
		}, nil
	default:
		if a.comp != phase.Poincare {
			return Curve{}, fmt.Errorf("%w: chart %s needs the Poincaré compactification", phase.ErrInvalidConfig, id)
		}
		d := g.Degree()
		if d < 0 {
			d = 0
		}
		alongY := id == phase.U2 || id == phase.V2
		sign := 1.0
		if id == phase.V1 || id == phase.V2 {
			sign = -1
		}
		return planarCurve(id, restrict(g, d, alongY, sign)), nil
	}
}

func planarCurve(id phase.ChartID, g poly.Polynomial) Curve {
	gu, gv := g.DerivX(), g.DerivY()
	return Curve{
		Chart: id,
		Value: g.Eval,
		Field: func(u, v float64) (float64, float64) { return gv.Eval(u, v), -gu.Eval(u, v) },
	}
}
