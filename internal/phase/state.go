package phase

// Side tells on which side of the GCF curve a point lies.
type Side int

const (
	Outside Side = iota // G >= 0
	Inside              // G < 0
)

func (s Side) String() string {
	if s == Inside {
		return "inside"
	}
	return "outside"
}

// TraceState is the orientation record of a running trace.
type TraceState struct {
	Dir   int
	Side  Side
	Chart ChartID
	Type  SepType
}

// Landing describes where a committed step arrived.
type Landing struct {
	Chart ChartID

	// SeamCrossed is set when the step crossed the singular-infinity seam
	// and the point was mapped antipodally into the paired chart.
	SeamCrossed bool

	// CurveValue is the GCF evaluated at the new point; ignored when
	// HasCurve is false.
	CurveValue float64
	HasCurve   bool
}

// Transition is the outcome of Advance.
type Transition struct {
	State        TraceState
	Flipped      bool
	CurveCrossed bool
	ChartChanged bool
}

// Advance computes the state after a step. A seam crossing flips the
// direction and type only when dirVecField == 1; the flip belongs to the
// crossing step, so the next step starting from the remapped point does not
// see a crossing again.
func (s TraceState) Advance(l Landing, dirVecField int) Transition {
	next := s
	tr := Transition{}

	if l.SeamCrossed && dirVecField == 1 {
		next.Dir = -s.Dir
		next.Type = ChangeType(s.Type)
		tr.Flipped = true
	}

	if l.HasCurve {
		side := SideOfValue(l.CurveValue)
		tr.CurveCrossed = side != s.Side
		next.Side = side
	}

	tr.ChartChanged = l.Chart != s.Chart
	next.Chart = l.Chart
	tr.State = next
	return tr
}
