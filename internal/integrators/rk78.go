package integrators

import "github.com/san-kum/portrait/internal/phase"

// Fehlberg 7(8) coefficients
var (
	f78a = [13][12]float64{
		{},
		{2.0 / 27},
		{1.0 / 36, 1.0 / 12},
		{1.0 / 24, 0, 1.0 / 8},
		{5.0 / 12, 0, -25.0 / 16, 25.0 / 16},
		{1.0 / 20, 0, 0, 1.0 / 4, 1.0 / 5},
		{-25.0 / 108, 0, 0, 125.0 / 108, -65.0 / 27, 125.0 / 54},
		{31.0 / 300, 0, 0, 0, 61.0 / 225, -2.0 / 9, 13.0 / 900},
		{2, 0, 0, -53.0 / 6, 704.0 / 45, -107.0 / 9, 67.0 / 90, 3},
		{-91.0 / 108, 0, 0, 23.0 / 108, -976.0 / 135, 311.0 / 54, -19.0 / 60, 17.0 / 6, -1.0 / 12},
		{2383.0 / 4100, 0, 0, -341.0 / 164, 4496.0 / 1025, -301.0 / 82, 2133.0 / 4100, 45.0 / 82, 45.0 / 164, 18.0 / 41},
		{3.0 / 205, 0, 0, 0, 0, -6.0 / 41, -3.0 / 205, -3.0 / 41, 3.0 / 41, 6.0 / 41, 0},
		{-1777.0 / 4100, 0, 0, -341.0 / 164, 4496.0 / 1025, -289.0 / 82, 2193.0 / 4100, 51.0 / 82, 33.0 / 164, 12.0 / 41, 0, 1},
	}

	// eighth-order weights; the seventh-order solution differs by
	// 41/840 (k1 + k11 - k12 - k13).
	f78b = [13]float64{0, 0, 0, 0, 0, 34.0 / 105, 9.0 / 35, 9.0 / 35, 9.0 / 280, 9.0 / 280, 0, 41.0 / 840, 41.0 / 840}

	f78e = 41.0 / 840
)

// RK78 is the embedded Runge-Kutta-Fehlberg 7(8) scheme. The eighth-order
// solution is propagated.
type RK78 struct {
	controller
}

func NewRK78() *RK78 {
	return &RK78{controller: controller{safety: 0.9, maxGrowth: 4, order: 8}}
}

func (r *RK78) Step(f Func, x, y, h float64, cfg phase.IntegrationConfig) (Step, error) {
	return r.adapt(r.attempt, f, x, y, h, cfg)
}

func (r *RK78) attempt(f Func, x, y, h float64) (float64, float64, float64) {
	var kx, ky [13]float64
	for s := 0; s < 13; s++ {
		sx, sy := x, y
		for j := 0; j < s; j++ {
			sx += h * f78a[s][j] * kx[j]
			sy += h * f78a[s][j] * ky[j]
		}
		kx[s], ky[s] = f(sx, sy)
	}
	r.stats.Evaluations += 13

	nx, ny := x, y
	for s := 0; s < 13; s++ {
		nx += h * f78b[s] * kx[s]
		ny += h * f78b[s] * ky[s]
	}
	ex := h * f78e * (kx[0] + kx[10] - kx[11] - kx[12])
	ey := h * f78e * (ky[0] + ky[10] - ky[11] - ky[12])
	return nx, ny, scaledError(ex, ey, nx, ny)
}
