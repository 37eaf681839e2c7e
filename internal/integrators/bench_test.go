package integrators

import (
	"testing"

	"github.com/san-kum/portrait/internal/phase"
)

func vanDerPol(x, y float64) (float64, float64) {
	return y, (1-x*x)*y - x
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	x, y := 1.0, 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, y = integ.Step(harmonic, x, y, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	benchAdaptive(b, NewRK45())
}

func BenchmarkRK78(b *testing.B) {
	benchAdaptive(b, NewRK78())
}

func benchAdaptive(b *testing.B, integ Adaptive) {
	cfg := phase.DefaultIntegrationConfig()
	x, y, h := 2.0, 0.0, 0.01

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := integ.Step(vanDerPol, x, y, h, cfg)
		if err != nil {
			b.Fatal(err)
		}
		x, y, h = s.X, s.Y, s.HNext
	}
}
