package integrators

// RK4 is the classical fixed-step scheme. It has no error control and is
// used to refine crossings inside an already accepted step.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (RK4) Step(f Func, x, y, h float64) (float64, float64) {
	k1x, k1y := f(x, y)
	k2x, k2y := f(x+h*0.5*k1x, y+h*0.5*k1y)
	k3x, k3y := f(x+h*0.5*k2x, y+h*0.5*k2y)
	k4x, k4y := f(x+h*k3x, y+h*k3y)

	h6 := h / 6.0
	return x + h6*(k1x+2*k2x+2*k3x+k4x), y + h6*(k1y+2*k2y+2*k3y+k4y)
}
