package phase

import (
	"math"

	"github.com/san-kum/portrait/internal/poly"
)

// ChangeType swaps stable and unstable roles. Orbits keep their type.
func ChangeType(t SepType) SepType {
	switch t {
	case TypeStable:
		return TypeUnstable
	case TypeUnstable:
		return TypeStable
	case TypeCenterStable:
		return TypeCenterUnstable
	case TypeCenterUnstable:
		return TypeCenterStable
	default:
		return t
	}
}

func ColorOf(t SepType) Color {
	switch t {
	case TypeStable:
		return ColorStable
	case TypeUnstable:
		return ColorUnstable
	case TypeCenterStable:
		return ColorCenterStable
	case TypeCenterUnstable:
		return ColorCenterUnstable
	default:
		return ColorOrbit
	}
}

func SideOfValue(g float64) Side {
	if g < 0 {
		return Inside
	}
	return Outside
}

// CurveValue evaluates the sign-carrying value of gcf at a sphere point.
// For Z > 0 it has the sign of gcf(x, y); on the equator it is the value of
// the weighted-homogeneous top part.
func CurveValue(gcf poly.Polynomial, wp, wq int, s [3]float64) float64 {
	if len(gcf) == 0 {
		return 1
	}
	if wp == 1 && wq == 1 {
		d := gcf.Degree()
		if d < 0 {
			return 0
		}
		return gcf.EvalHomogeneous(s[0], s[1], s[2], d)
	}
	rho := math.Hypot(s[0], s[1])
	if rho == 0 {
		return gcf.Eval(0, 0)
	}
	d := gcf.QuasiDegree(wp, wq)
	cyl, _ := gcf.Cylinder(wp, wq, d)
	return cyl.EvalRCS(s[2]/rho, s[0]/rho, s[1]/rho)
}

// Classify returns the color of a traced point of type t. On the negative
// side of the GCF the orientation of the reduced field is reversed, so the
// stable and unstable roles swap there.
func Classify(gcf poly.Polynomial, wp, wq int, s [3]float64, t SepType) Color {
	if len(gcf) > 0 && CurveValue(gcf, wp, wq, s) < 0 {
		t = ChangeType(t)
	}
	return ColorOf(t)
}
