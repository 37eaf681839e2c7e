package phase

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/portrait/internal/poly"
)

// ChartID names one chart of the compactified plane.
type ChartID int

const (
	FiniteR2 ChartID = iota
	U1
	U2
	V1
	V2
	Cyl1
	Cyl2
	Cyl3
	Cyl4
)

var chartNames = [...]string{"R2", "U1", "U2", "V1", "V2", "Cyl1", "Cyl2", "Cyl3", "Cyl4"}

func (c ChartID) String() string {
	if c < 0 || int(c) >= len(chartNames) {
		return fmt.Sprintf("ChartID(%d)", int(c))
	}
	return chartNames[c]
}

// AtInfinity reports whether the chart covers a neighborhood of infinity.
func (c ChartID) AtInfinity() bool { return c != FiniteR2 }

func (c ChartID) Cylindrical() bool { return c >= Cyl1 && c <= Cyl4 }

// ParseChartID is the inverse of String.
func ParseChartID(s string) (ChartID, error) {
	for i, n := range chartNames {
		if n == s {
			return ChartID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown chart %q", ErrInvalidConfig, s)
}

// Compactification selects the family of charts at infinity.
type Compactification int

const (
	Poincare Compactification = iota
	PoincareLyapunov
)

func (c Compactification) String() string {
	if c == PoincareLyapunov {
		return "poincare-lyapunov"
	}
	return "poincare"
}

// SepType is the dynamical type of a traced curve. It decides its color.
type SepType int

const (
	TypeOrbit SepType = iota
	TypeStable
	TypeUnstable
	TypeCenterStable
	TypeCenterUnstable
)

var sepTypeNames = [...]string{"orbit", "stable", "unstable", "center-stable", "center-unstable"}

func (t SepType) String() string {
	if t < 0 || int(t) >= len(sepTypeNames) {
		return fmt.Sprintf("SepType(%d)", int(t))
	}
	return sepTypeNames[t]
}

func ParseSepType(s string) (SepType, error) {
	for i, n := range sepTypeNames {
		if n == s {
			return SepType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown separatrix type %q", ErrInvalidConfig, s)
}

// Color is a palette index understood by drawing collaborators.
type Color int

const (
	ColorOrbit Color = iota
	ColorStable
	ColorUnstable
	ColorCenterStable
	ColorCenterUnstable
	ColorLimitCycle
	ColorCurve
)

// OrbitPoint is one committed point of a traced curve. U and V are the
// coordinates in Chart; Sphere is the same point on the compactifying sphere.
// Dashes marks a point joined to its predecessor with a line; false begins a
// new segment (first point, antipodal jump).
type OrbitPoint struct {
	Chart  ChartID
	U, V   float64
	Sphere [3]float64
	Dir    int
	Color  Color
	Dashes bool
}

func (p OrbitPoint) IsValid() bool {
	for _, v := range [...]float64{p.U, p.V, p.Sphere[0], p.Sphere[1], p.Sphere[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sink receives committed points as they are produced.
type Sink interface {
	Draw(points []OrbitPoint)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(points []OrbitPoint)

func (f SinkFunc) Draw(points []OrbitPoint) { f(points) }

// IntegrationConfig bounds the adaptive integrator of one session.
type IntegrationConfig struct {
	HMin      float64
	HMax      float64
	Tolerance float64
	MaxPoints int
}

func DefaultIntegrationConfig() IntegrationConfig {
	return IntegrationConfig{
		HMin:      1e-10,
		HMax:      0.1,
		Tolerance: 1e-8,
		MaxPoints: 2000,
	}
}

func (c IntegrationConfig) Validate() error {
	if !(c.HMin > 0) {
		return fmt.Errorf("%w: h_min must be positive, got %g", ErrInvalidConfig, c.HMin)
	}
	if c.HMax < c.HMin {
		return fmt.Errorf("%w: h_max %g below h_min %g", ErrInvalidConfig, c.HMax, c.HMin)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if c.MaxPoints <= 0 {
		return fmt.Errorf("%w: max points must be positive, got %d", ErrInvalidConfig, c.MaxPoints)
	}
	return nil
}

// Results is the explicit context a trace session is built from: the vector
// field, its compactification and the global numerical parameters.
type Results struct {
	Field poly.Field

	// WeightP and WeightQ are the Poincaré-Lyapunov weights; (1,1) selects
	// the Poincaré compactification.
	WeightP int
	WeightQ int

	// SingularInfinity is set when the line at infinity consists of
	// singular points and the chart fields are divided by the infinity
	// coordinate.
	SingularInfinity bool

	// DirVecField is 1 when orientation reverses across the singular
	// infinity seam, -1 otherwise. Zero means "derive from the degree".
	DirVecField int

	// GCF is the common factor removed from the field; empty when none.
	GCF poly.Polynomial

	Integration IntegrationConfig

	Logger *slog.Logger
}

func NewResults(field poly.Field) *Results {
	return &Results{
		Field:       field,
		WeightP:     1,
		WeightQ:     1,
		Integration: DefaultIntegrationConfig(),
	}
}

func (r *Results) Compactification() Compactification {
	if r.WeightP == 1 && r.WeightQ == 1 {
		return Poincare
	}
	return PoincareLyapunov
}

// Log returns the configured logger, or one that discards everything.
func (r *Results) Log() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Results) Validate() error {
	if r.WeightP < 1 || r.WeightQ < 1 {
		return fmt.Errorf("%w: weights must be positive, got (%d,%d)", ErrInvalidConfig, r.WeightP, r.WeightQ)
	}
	if r.Field.Degree() < 0 {
		return fmt.Errorf("%w: vector field is identically zero", ErrInvalidConfig)
	}
	if r.DirVecField != 0 && r.DirVecField != 1 && r.DirVecField != -1 {
		return fmt.Errorf("%w: dir_vec_field must be -1, 0 or 1, got %d", ErrInvalidConfig, r.DirVecField)
	}
	return r.Integration.Validate()
}

// SessionState is the lifecycle state shared by all trace controllers.
type SessionState int

const (
	Idle SessionState = iota
	Started
	Stepping
	ChartSwitch
	Finished
	Aborted
)

var sessionStateNames = [...]string{"idle", "started", "stepping", "chart-switch", "finished", "aborted"}

func (s SessionState) String() string {
	if s < 0 || int(s) >= len(sessionStateNames) {
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
	return sessionStateNames[s]
}

// Terminal reports whether no further Continue calls are allowed.
func (s SessionState) Terminal() bool { return s == Finished || s == Aborted }
