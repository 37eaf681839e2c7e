package phase

import (
	"errors"
	"fmt"
)

// Domain errors of the trace engine.
var (
	// ErrToleranceUnreachable indicates no step size in [HMin, HMax] met the tolerance.
	ErrToleranceUnreachable = errors.New("phase: tolerance unreachable within step bounds")

	// ErrChartBoundaryAmbiguous indicates a point exactly on a singular-infinity seam.
	ErrChartBoundaryAmbiguous = errors.New("phase: point lies on a singular-infinity seam")

	// ErrInvalidSection indicates a limit-cycle section rejected before integration.
	ErrInvalidSection = errors.New("phase: invalid limit-cycle section")

	// ErrInvalidConfig indicates integration parameters or field data out of bounds.
	ErrInvalidConfig = errors.New("phase: invalid configuration")

	// ErrCanceled indicates the trace was interrupted by its owner.
	ErrCanceled = errors.New("phase: trace canceled")

	// ErrSessionState indicates an operation not allowed in the current session state.
	ErrSessionState = errors.New("phase: operation not allowed in session state")

	// ErrExitOrientation indicates the orientation at a blow-up chart exit
	// could not be determined.
	ErrExitOrientation = errors.New("phase: orientation undetermined at blow-up exit")

	// ErrNonFinite indicates a chart transformation produced NaN or Inf.
	ErrNonFinite = errors.New("phase: non-finite point")
)

// TraceError wraps an error with the trace context it happened in.
type TraceError struct {
	Step    int
	Chart   ChartID
	Wrapped error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Chart, e.Wrapped)
}

func (e *TraceError) Unwrap() error {
	return e.Wrapped
}
