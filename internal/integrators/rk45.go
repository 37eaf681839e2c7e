package integrators

import "github.com/san-kum/portrait/internal/phase"

// Dormand-Prince coefficients (RK45)
var (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	controller
}

func NewRK45() *RK45 {
	return &RK45{controller: controller{safety: 0.9, maxGrowth: 4, order: 5}}
}

func (r *RK45) Step(f Func, x, y, h float64, cfg phase.IntegrationConfig) (Step, error) {
	return r.adapt(r.attempt, f, x, y, h, cfg)
}

func (r *RK45) attempt(f Func, x, y, h float64) (float64, float64, float64) {
	k1x, k1y := f(x, y)
	k2x, k2y := f(x+h*b21*k1x, y+h*b21*k1y)
	k3x, k3y := f(x+h*(b31*k1x+b32*k2x), y+h*(b31*k1y+b32*k2y))
	k4x, k4y := f(x+h*(b41*k1x+b42*k2x+b43*k3x), y+h*(b41*k1y+b42*k2y+b43*k3y))
	k5x, k5y := f(x+h*(b51*k1x+b52*k2x+b53*k3x+b54*k4x), y+h*(b51*k1y+b52*k2y+b53*k3y+b54*k4y))
	k6x, k6y := f(x+h*(b61*k1x+b62*k2x+b63*k3x+b64*k4x+b65*k5x), y+h*(b61*k1y+b62*k2y+b63*k3y+b64*k4y+b65*k5y))

	nx := x + h*(c1*k1x+c3*k3x+c4*k4x+c5*k5x+c6*k6x)
	ny := y + h*(c1*k1y+c3*k3y+c4*k4y+c5*k5y+c6*k6y)

	k7x, k7y := f(nx, ny)
	r.stats.Evaluations += 7

	ex := h * (dc1*k1x + dc3*k3x + dc4*k4x + dc5*k5x + dc6*k6x + dc7*k7x)
	ey := h * (dc1*k1y + dc3*k3y + dc4*k4y + dc5*k5y + dc6*k6y + dc7*k7y)
	return nx, ny, scaledError(ex, ey, nx, ny)
}
