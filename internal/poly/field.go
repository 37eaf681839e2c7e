package poly

import "math"

// Field is the planar system dx/dt = P(x,y), dy/dt = Q(x,y).
type Field struct {
	P Polynomial
	Q Polynomial
}

func (f Field) Eval(x, y float64) (float64, float64) {
	return f.P.Eval(x, y), f.Q.Eval(x, y)
}

// Degree is max(deg P, deg Q).
func (f Field) Degree() int {
	d := f.P.Degree()
	if dq := f.Q.Degree(); dq > d {
		d = dq
	}
	return d
}

// Series is a polynomial in one variable, Series[i] being the coefficient
// of t^i. It holds the Taylor approximation of an invariant manifold.
type Series []float64

// Eval uses Horner's scheme.
func (s Series) Eval(t float64) float64 {
	sum := 0.0
	for i := len(s) - 1; i >= 0; i-- {
		sum = sum*t + s[i]
	}
	return sum
}

// Term3 is Coeff·r^ExpR·cos(θ)^ExpCos·sin(θ)^ExpSin.
type Term3 struct {
	Coeff  float64
	ExpR   int
	ExpCos int
	ExpSin int
}

// Polynomial3 is a polynomial in (r, cos θ, sin θ), used on the cylinder
// of the Poincaré-Lyapunov compactification.
type Polynomial3 []Term3

func (p Polynomial3) Eval(r, theta float64) float64 {
	s, c := math.Sincos(theta)
	return p.EvalRCS(r, c, s)
}

func (p Polynomial3) EvalRCS(r, c, s float64) float64 {
	sum := 0.0
	for _, t := range p {
		sum += t.Coeff * Pow(r, t.ExpR) * Pow(c, t.ExpCos) * Pow(s, t.ExpSin)
	}
	return sum
}

func (p Polynomial3) DerivR() Polynomial3 {
	out := make(Polynomial3, 0, len(p))
	for _, t := range p {
		if t.ExpR == 0 {
			continue
		}
		out = append(out, Term3{Coeff: t.Coeff * float64(t.ExpR), ExpR: t.ExpR - 1, ExpCos: t.ExpCos, ExpSin: t.ExpSin})
	}
	return out
}

// DerivTheta differentiates with respect to θ.
func (p Polynomial3) DerivTheta() Polynomial3 {
	out := make(Polynomial3, 0, 2*len(p))
	for _, t := range p {
		if t.ExpCos > 0 {
			out = append(out, Term3{Coeff: -t.Coeff * float64(t.ExpCos), ExpR: t.ExpR, ExpCos: t.ExpCos - 1, ExpSin: t.ExpSin + 1})
		}
		if t.ExpSin > 0 {
			out = append(out, Term3{Coeff: t.Coeff * float64(t.ExpSin), ExpR: t.ExpR, ExpCos: t.ExpCos + 1, ExpSin: t.ExpSin - 1})
		}
	}
	return out
}

func (p Polynomial3) MulMonomial(c float64, er, ec, es int) Polynomial3 {
	out := make(Polynomial3, len(p))
	for i, t := range p {
		out[i] = Term3{Coeff: t.Coeff * c, ExpR: t.ExpR + er, ExpCos: t.ExpCos + ec, ExpSin: t.ExpSin + es}
	}
	return out
}

// DivideByR divides exactly by r, reporting false when it is not a factor.
func (p Polynomial3) DivideByR() (Polynomial3, bool) {
	out := make(Polynomial3, 0, len(p))
	for _, t := range p {
		if t.Coeff == 0 {
			continue
		}
		if t.ExpR == 0 {
			return nil, false
		}
		out = append(out, Term3{Coeff: t.Coeff, ExpR: t.ExpR - 1, ExpCos: t.ExpCos, ExpSin: t.ExpSin})
	}
	return out, true
}

// Cylinder rewrites p with x = cos θ / r^wx, y = sin θ / r^wy and multiplies
// by r^d, so that every term c·x^i·y^j becomes c·r^(d-wx·i-wy·j)·cos^i·sin^j.
// Terms whose r exponent would be negative are reported through ok.
func (p Polynomial) Cylinder(wx, wy, d int) (Polynomial3, bool) {
	out := make(Polynomial3, 0, len(p))
	for _, t := range p {
		if t.Coeff == 0 {
			continue
		}
		e := d - wx*t.ExpX - wy*t.ExpY
		if e < 0 {
			return nil, false
		}
		out = append(out, Term3{Coeff: t.Coeff, ExpR: e, ExpCos: t.ExpX, ExpSin: t.ExpY})
	}
	return out, true
}
