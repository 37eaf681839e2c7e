package blowup

import (
	"math"
	"testing"

	"github.com/san-kum/portrait/internal/phase"
	"github.com/stretchr/testify/require"
)

// directional is the blow-up x = u, y = u·v centered at (0.5, -1), followed
// by a second directional blow-up in the other variable.
var directional = Sequence{
	{X0: 0.5, Y0: -1, C1: 1, D1: 1, D2: 0, C2: 1, D3: 1, D4: 1},
	{X0: 0, Y0: 0, C1: 2, D1: 1, D2: 1, C2: -1, D3: 0, D4: 1},
}

func TestApplyComposesLeftToRight(t *testing.T) {
	x, y := directional.Apply(0.3, 0.4)

	x1, y1 := 0.5+0.3, -1+0.3*0.4
	require.InDelta(t, 2*x1*y1, x, 1e-15)
	require.InDelta(t, -y1, y, 1e-15)
}

func TestRoundTrip(t *testing.T) {
	seqs := map[string]Sequence{
		"directional": directional,
		"quasi-homogeneous": {
			{C1: 1, D1: 2, D2: 1, C2: 3, D3: 1, D4: 1},
		},
		"single": {
			{X0: 1, Y0: 2, C1: -0.5, D1: 1, D2: 0, C2: 4, D3: 0, D4: 1},
		},
	}

	for name, seq := range seqs {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, seq.Validate())
			for _, pt := range [][2]float64{{0.3, 0.4}, {-0.7, 1.2}, {2, -0.1}} {
				x, y := seq.Apply(pt[0], pt[1])
				u, v, ok := seq.Inverse(x, y)
				require.True(t, ok, "inverse failed at %v", pt)
				require.InDelta(t, pt[0], u, 1e-9)
				require.InDelta(t, pt[1], v, 1e-9)
			}
		})
	}
}

func TestInverseRejects(t *testing.T) {
	notUnimodular := Sequence{{C1: 1, D1: 2, D2: 0, C2: 1, D3: 0, D4: 1}}
	_, _, ok := notUnimodular.Inverse(4, 1)
	require.False(t, ok)

	// the exceptional divisor u = 0 has no preimage
	_, _, ok = directional.Inverse(0.5, 0)
	require.False(t, ok)
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Sequence{}.Validate(), phase.ErrInvalidConfig)
	require.ErrorIs(t, Sequence{{C1: 0, C2: 1, D1: 1, D4: 1}}.Validate(), phase.ErrInvalidConfig)
	require.ErrorIs(t, Sequence{{C1: 1, C2: 1, D1: -1, D4: 1}}.Validate(), phase.ErrInvalidConfig)
	require.NoError(t, directional.Validate())
}

func TestPushMatchesFiniteDifference(t *testing.T) {
	x, y, dx, dy := 0.3, 0.4, 0.6, -0.8
	_, _, px, py := directional.Push(x, y, dx, dy)

	const eps = 1e-7
	ax, ay := directional.Apply(x, y)
	bx, by := directional.Apply(x+eps*dx, y+eps*dy)
	require.InDelta(t, (bx-ax)/eps, px, 1e-5)
	require.InDelta(t, (by-ay)/eps, py, 1e-5)

	require.False(t, math.IsNaN(px) || math.IsNaN(py))
}
