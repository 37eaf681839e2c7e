// Package blowup maps points between the blown-up coordinates of a degenerate
// singular point and the chart the singular point lives in.
//
// A [Transform] is one quasi-homogeneous power substitution; a [Sequence]
// applies its steps left to right. Sequences are produced by the local
// analysis of a singular point and never change afterwards.
package blowup

import (
	"fmt"
	"math"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/san-kum/portrait/internal/poly"
)

// Transform is the step
//
//	x' = X0 + C1·x^D1·y^D2
//	y' = Y0 + C2·x^D3·y^D4
type Transform struct {
	X0, Y0 float64
	C1     float64
	D1, D2 int
	C2     float64
	D3, D4 int
}

func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.X0 + t.C1*poly.Pow(x, t.D1)*poly.Pow(y, t.D2),
		t.Y0 + t.C2*poly.Pow(x, t.D3)*poly.Pow(y, t.D4)
}

// Det is the determinant of the exponent matrix.
func (t Transform) Det() int { return t.D1*t.D4 - t.D2*t.D3 }

// Unimodular reports whether the step has an integer-power inverse.
func (t Transform) Unimodular() bool {
	d := t.Det()
	return d == 1 || d == -1
}

// Inverse undoes Apply for unimodular steps. With a = (x'-X0)/C1 and
// b = (y'-Y0)/C2 the exponent matrix is inverted over the integers.
func (t Transform) Inverse(x, y float64) (float64, float64, bool) {
	if !t.Unimodular() {
		return 0, 0, false
	}
	det := t.Det()
	a := (x - t.X0) / t.C1
	b := (y - t.Y0) / t.C2
	rx := poly.Pow(a, t.D4*det) * poly.Pow(b, -t.D2*det)
	ry := poly.Pow(a, -t.D3*det) * poly.Pow(b, t.D1*det)
	if !finite(rx) || !finite(ry) {
		return 0, 0, false
	}
	return rx, ry, true
}

// Push maps the tangent vector (dx, dy) at (x, y) through the step.
func (t Transform) Push(x, y, dx, dy float64) (float64, float64) {
	return t.C1 * monoGrad(x, y, t.D1, t.D2, dx, dy),
		t.C2 * monoGrad(x, y, t.D3, t.D4, dx, dy)
}

// monoGrad is the derivative of x^i·y^j along (dx, dy).
func monoGrad(x, y float64, i, j int, dx, dy float64) float64 {
	g := 0.0
	if i != 0 {
		g += float64(i) * poly.Pow(x, i-1) * poly.Pow(y, j) * dx
	}
	if j != 0 {
		g += float64(j) * poly.Pow(x, i) * poly.Pow(y, j-1) * dy
	}
	return g
}

func (t Transform) String() string {
	return fmt.Sprintf("(%g + %g·x^%d·y^%d, %g + %g·x^%d·y^%d)",
		t.X0, t.C1, t.D1, t.D2, t.Y0, t.C2, t.D3, t.D4)
}

// Sequence is an ordered blow-up, applied left to right.
type Sequence []Transform

// Validate rejects zero coefficients, which collapse a coordinate.
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty blow-up sequence", phase.ErrInvalidConfig)
	}
	for i, t := range s {
		if t.C1 == 0 || t.C2 == 0 {
			return fmt.Errorf("%w: blow-up step %d has a zero coefficient", phase.ErrInvalidConfig, i)
		}
		if t.D1 < 0 || t.D2 < 0 || t.D3 < 0 || t.D4 < 0 {
			return fmt.Errorf("%w: blow-up step %d has a negative exponent", phase.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Apply maps a blown-up point to the original chart.
func (s Sequence) Apply(x, y float64) (float64, float64) {
	for _, t := range s {
		x, y = t.Apply(x, y)
	}
	return x, y
}

// Inverse maps a chart point back to blown-up coordinates. ok is false when
// a step is not unimodular or the point lies on an exceptional divisor.
func (s Sequence) Inverse(x, y float64) (float64, float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		var ok bool
		if x, y, ok = s[i].Inverse(x, y); !ok {
			return 0, 0, false
		}
	}
	return x, y, true
}

// Push maps the point and tangent vector through every step.
func (s Sequence) Push(x, y, dx, dy float64) (px, py, pdx, pdy float64) {
	for _, t := range s {
		dx, dy = t.Push(x, y, dx, dy)
		x, y = t.Apply(x, y)
	}
	return x, y, dx, dy
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
