// Package charts covers the compactified plane with planar charts.
//
// The Poincaré compactification uses the finite chart R2 and the four
// charts U1, V1 (X > 0, X < 0) and U2, V2 (Y > 0, Y < 0) at infinity. The
// Poincaré-Lyapunov compactification with weights (p,q) uses R2 and a
// cylinder (θ, r) around infinity, exposed as four variants Cyl1..Cyl4 that
// differ only in the branch of θ.
//
// In every chart at infinity the second coordinate V vanishes on the line at
// infinity and is positive on the finite side.
package charts

import (
	"math"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
)

// Chart is one coordinate patch: maps to and from the sphere and the vector
// field expressed in local coordinates.
type Chart interface {
	ID() phase.ChartID
	ToSphere(u, v float64) [3]float64
	FromSphere(p [3]float64) (u, v float64)
	Field(u, v float64) (du, dv float64)
}

// finite is R2 with the original field.
type finite struct {
	field  poly.Field
	wp, wq int
}

func (c *finite) ID() phase.ChartID { return phase.FiniteR2 }

func (c *finite) Field(x, y float64) (float64, float64) { return c.field.Eval(x, y) }

func (c *finite) ToSphere(x, y float64) [3]float64 {
	if c.wp == 1 && c.wq == 1 {
		n := math.Sqrt(1 + x*x + y*y)
		return [3]float64{x / n, y / n, 1 / n}
	}
	rho := QuasiRadius(x, y, c.wp, c.wq)
	if rho == 0 {
		return [3]float64{0, 0, 1}
	}
	cs := x / poly.Pow(rho, c.wp)
	sn := y / poly.Pow(rho, c.wq)
	n := math.Sqrt(1 + rho*rho)
	sinPhi, cosPhi := rho/n, 1/n
	return [3]float64{cs * sinPhi, sn * sinPhi, cosPhi}
}

func (c *finite) FromSphere(p [3]float64) (float64, float64) {
	if c.wp == 1 && c.wq == 1 {
		return p[0] / p[2], p[1] / p[2]
	}
	h := math.Hypot(p[0], p[1])
	if h == 0 {
		return 0, 0
	}
	rho := h / p[2]
	return poly.Pow(rho, c.wp) * p[0] / h, poly.Pow(rho, c.wq) * p[1] / h
}

// QuasiRadius solves x²/ρ^(2p) + y²/ρ^(2q) = 1 for ρ > 0. For p = q = 1 it
// is the Euclidean norm.
func QuasiRadius(x, y float64, p, q int) float64 {
	if x == 0 && y == 0 {
		return 0
	}
	if p == 1 && q == 1 {
		return math.Hypot(x, y)
	}
	f := func(rho float64) float64 {
		a := x / poly.Pow(rho, p)
		b := y / poly.Pow(rho, q)
		return a*a + b*b - 1
	}
	lo, hi := 1.0, 1.0
	for f(lo) < 0 {
		lo /= 2
	}
	for f(hi) > 0 {
		hi *= 2
	}
	// f decreases in rho; bisect on a log scale.
	for i := 0; i < 200 && hi-lo > 1e-16*hi; i++ {
		mid := math.Sqrt(lo * hi)
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi)
}

// infinite is one of U1, V1, U2, V2. For U1 the coordinates are
// (u, v) = (Y/X, Z/X); V1 flips the sign of v so that it stays positive on
// the finite side, and U2, V2 exchange the roles of X and Y.
type infinite struct {
	id     phase.ChartID
	alongY bool
	sign   float64
	fu, fv poly.Polynomial
}

func (c *infinite) ID() phase.ChartID { return c.id }

func (c *infinite) Field(u, v float64) (float64, float64) {
	return c.fu.Eval(u, v), c.fv.Eval(u, v)
}

func (c *infinite) ToSphere(u, v float64) [3]float64 {
	n := math.Sqrt(1 + u*u + v*v)
	a, b := c.sign/n, c.sign*u/n
	if c.alongY {
		return [3]float64{b, a, v / n}
	}
	return [3]float64{a, b, v / n}
}

func (c *infinite) FromSphere(p [3]float64) (float64, float64) {
	main, other := p[0], p[1]
	if c.alongY {
		main, other = p[1], p[0]
	}
	return other / main, c.sign * p[2] / main
}

// cylinder is (θ, r) with x = cos θ / r^p, y = sin θ / r^q. The variants
// only differ in the branch (center-π, center+π] of θ.
type cylinder struct {
	id      phase.ChartID
	center  float64
	fth, fr poly.Polynomial3
}

func (c *cylinder) ID() phase.ChartID { return c.id }

func (c *cylinder) Field(theta, r float64) (float64, float64) {
	s, cs := math.Sincos(theta)
	return c.fth.EvalRCS(r, cs, s), c.fr.EvalRCS(r, cs, s)
}

func (c *cylinder) ToSphere(theta, r float64) [3]float64 {
	s, cs := math.Sincos(theta)
	n := math.Sqrt(1 + r*r)
	return [3]float64{cs / n, s / n, r / n}
}

func (c *cylinder) FromSphere(p [3]float64) (float64, float64) {
	h := math.Hypot(p[0], p[1])
	return c.branch(math.Atan2(p[1], p[0])), p[2] / h
}

func (c *cylinder) branch(theta float64) float64 {
	for theta <= c.center-math.Pi {
		theta += 2 * math.Pi
	}
	for theta > c.center+math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

func cylinderCenter(id phase.ChartID) float64 {
	return float64(id-phase.Cyl1) * math.Pi / 2
}
