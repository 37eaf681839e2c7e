// Package poly evaluates bivariate polynomials and polynomial vector fields.
//
// A [Polynomial] is an ordered list of [Term] values. Order never changes the
// value of an evaluation, but it is preserved by every operation so that
// derived polynomials (chart fields, derivatives) are deterministic.
//
// The zero-order convention is a^0 = 1 for every a, including a = 0.
package poly

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Term is the monomial Coeff·x^ExpX·y^ExpY.
type Term struct {
	Coeff float64
	ExpX  int
	ExpY  int
}

// Polynomial is a sum of terms in insertion order.
type Polynomial []Term

// Pow raises a to a non-negative integer power with Pow(0, 0) == 1.
// Negative exponents return the reciprocal.
func Pow(a float64, n int) float64 {
	if n < 0 {
		return 1 / Pow(a, -n)
	}
	result := 1.0
	for n > 0 {
		if n&1 == 1 {
			result *= a
		}
		a *= a
		n >>= 1
	}
	return result
}

func (p Polynomial) Eval(x, y float64) float64 {
	sum := 0.0
	for _, t := range p {
		sum += t.Coeff * Pow(x, t.ExpX) * Pow(y, t.ExpY)
	}
	return sum
}

// Degree returns the total degree, or -1 for the zero polynomial.
func (p Polynomial) Degree() int {
	d := -1
	for _, t := range p {
		if t.Coeff == 0 {
			continue
		}
		if t.ExpX+t.ExpY > d {
			d = t.ExpX + t.ExpY
		}
	}
	return d
}

// QuasiDegree returns max(p·i + q·j) over the non-zero terms, or -1.
func (p Polynomial) QuasiDegree(wx, wy int) int {
	d := -1
	for _, t := range p {
		if t.Coeff == 0 {
			continue
		}
		if w := wx*t.ExpX + wy*t.ExpY; w > d {
			d = w
		}
	}
	return d
}

// EvalHomogeneous evaluates Σ c·x^i·y^j·z^(d-i-j).
func (p Polynomial) EvalHomogeneous(x, y, z float64, d int) float64 {
	sum := 0.0
	for _, t := range p {
		sum += t.Coeff * Pow(x, t.ExpX) * Pow(y, t.ExpY) * Pow(z, d-t.ExpX-t.ExpY)
	}
	return sum
}

func (p Polynomial) DerivX() Polynomial {
	out := make(Polynomial, 0, len(p))
	for _, t := range p {
		if t.ExpX == 0 {
			continue
		}
		out = append(out, Term{Coeff: t.Coeff * float64(t.ExpX), ExpX: t.ExpX - 1, ExpY: t.ExpY})
	}
	return out
}

func (p Polynomial) DerivY() Polynomial {
	out := make(Polynomial, 0, len(p))
	for _, t := range p {
		if t.ExpY == 0 {
			continue
		}
		out = append(out, Term{Coeff: t.Coeff * float64(t.ExpY), ExpX: t.ExpX, ExpY: t.ExpY - 1})
	}
	return out
}

func (p Polynomial) Scale(c float64) Polynomial {
	out := make(Polynomial, len(p))
	for i, t := range p {
		out[i] = Term{Coeff: t.Coeff * c, ExpX: t.ExpX, ExpY: t.ExpY}
	}
	return out
}

// MulMonomial multiplies every term by c·x^i·y^j.
func (p Polynomial) MulMonomial(c float64, i, j int) Polynomial {
	out := make(Polynomial, len(p))
	for k, t := range p {
		out[k] = Term{Coeff: t.Coeff * c, ExpX: t.ExpX + i, ExpY: t.ExpY + j}
	}
	return out
}

// Add concatenates and merges like terms.
func (p Polynomial) Add(q Polynomial) Polynomial {
	out := make(Polynomial, 0, len(p)+len(q))
	out = append(out, p...)
	out = append(out, q...)
	return out.Simplify()
}

// Simplify merges like terms, keeping the position of the first occurrence,
// and drops zero coefficients.
func (p Polynomial) Simplify() Polynomial {
	type key struct{ i, j int }
	index := make(map[key]int, len(p))
	merged := make(Polynomial, 0, len(p))
	for _, t := range p {
		k := key{t.ExpX, t.ExpY}
		if at, ok := index[k]; ok {
			merged[at].Coeff += t.Coeff
			continue
		}
		index[k] = len(merged)
		merged = append(merged, t)
	}
	out := merged[:0]
	for _, t := range merged {
		if t.Coeff != 0 {
			out = append(out, t)
		}
	}
	return out
}

// DivideByY divides exactly by y. It reports false when some term has no
// factor y.
func (p Polynomial) DivideByY() (Polynomial, bool) {
	out := make(Polynomial, 0, len(p))
	for _, t := range p {
		if t.Coeff == 0 {
			continue
		}
		if t.ExpY == 0 {
			return nil, false
		}
		out = append(out, Term{Coeff: t.Coeff, ExpX: t.ExpX, ExpY: t.ExpY - 1})
	}
	return out, true
}

// Equal compares after simplification, ignoring term order.
func (p Polynomial) Equal(q Polynomial, tol float64) bool {
	a, b := p.Simplify().sorted(), q.Simplify().sorted()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ExpX != b[i].ExpX || a[i].ExpY != b[i].ExpY || math.Abs(a[i].Coeff-b[i].Coeff) > tol {
			return false
		}
	}
	return true
}

func (p Polynomial) sorted() Polynomial {
	out := make(Polynomial, len(p))
	copy(out, p)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpX != out[j].ExpX {
			return out[i].ExpX < out[j].ExpX
		}
		return out[i].ExpY < out[j].ExpY
	})
	return out
}

func (p Polynomial) String() string {
	return format(p, "x", "y")
}

// Format renders the polynomial with custom variable names.
func (p Polynomial) Format(vx, vy string) string {
	return format(p, vx, vy)
}

func format(p Polynomial, vx, vy string) string {
	if len(p) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range p {
		c := t.Coeff
		switch {
		case i == 0 && c < 0:
			sb.WriteString("-")
			c = -c
		case i > 0 && c < 0:
			sb.WriteString(" - ")
			c = -c
		case i > 0:
			sb.WriteString(" + ")
		}
		factors := make([]string, 0, 3)
		if c != 1 || (t.ExpX == 0 && t.ExpY == 0) {
			factors = append(factors, strconv.FormatFloat(c, 'g', -1, 64))
		}
		factors = appendPower(factors, vx, t.ExpX)
		factors = appendPower(factors, vy, t.ExpY)
		sb.WriteString(strings.Join(factors, "*"))
	}
	return sb.String()
}

func appendPower(factors []string, v string, n int) []string {
	switch n {
	case 0:
		return factors
	case 1:
		return append(factors, v)
	default:
		return append(factors, v+"^"+strconv.Itoa(n))
	}
}
