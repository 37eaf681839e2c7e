package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/portrait/internal/phase"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "saddle", cfg.Name)
	require.Equal(t, 1, cfg.WeightP)
	require.Positive(t, cfg.Integration.HMin)
	require.GreaterOrEqual(t, cfg.Integration.HMax, cfg.Integration.HMin)

	res, err := cfg.Results()
	require.NoError(t, err)
	require.Equal(t, phase.Poincare, res.Compactification())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	want := GetPreset("star-node")
	require.NotNil(t, want)

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	require.NoError(t, os.WriteFile(path, []byte("p: y\nq: -x + x^2\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "-x + x^2", cfg.Q)
	require.Equal(t, DefaultTolerance, cfg.Integration.Tolerance)
	require.Equal(t, "rk78", cfg.Integrator)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("p: [unclosed\n"), 0644))
	_, err = Load(path)
	require.ErrorIs(t, err, phase.ErrInvalidConfig)
}

func TestResultsRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"bad polynomial", func(c *Config) { c.P = "x^" }},
		{"bad gcf", func(c *Config) { c.GCF = "2**x" }},
		{"zero weight", func(c *Config) { c.WeightQ = 0 }},
		{"h_max below h_min", func(c *Config) { c.Integration.HMax = 1e-12 }},
		{"zero field", func(c *Config) { c.P, c.Q = "0", "0" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.edit(c)
			_, err := c.Results()
			require.ErrorIs(t, err, phase.ErrInvalidConfig)
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			c := GetPreset(name)
			_, err := c.Results()
			require.NoError(t, err)
			for i := range c.Separatrices {
				_, err := c.Separatrix(i)
				require.NoError(t, err)
			}
			for i := range c.Orbits {
				_, _, err := c.Orbit(i)
				require.NoError(t, err)
			}
		})
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	require.Nil(t, GetPreset("nonexistent"))
}

func TestSeparatrixConversion(t *testing.T) {
	c := GetPreset("star-node")
	sep, err := c.Separatrix(0)
	require.NoError(t, err)
	require.Equal(t, phase.TypeUnstable, sep.Type)
	require.Len(t, sep.BlowUp, 1)
	require.Equal(t, 1, sep.BlowUp[0].D3)
	require.Equal(t, 0.5, sep.BY0)

	_, err = c.Separatrix(3)
	require.ErrorIs(t, err, phase.ErrInvalidConfig)

	c.Separatrices[0].Type = "sideways"
	_, err = c.Separatrix(0)
	require.ErrorIs(t, err, phase.ErrInvalidConfig)
}

func TestSeparatrixRejectsFractionalExponents(t *testing.T) {
	tests := map[string]float64{
		"almost three": 2.9999,
		"half":         0.5,
		"nan":          math.NaN(),
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			c := GetPreset("star-node")
			c.Separatrices[0].BlowUp[0][6] = d
			_, err := c.Separatrix(0)
			require.ErrorIs(t, err, phase.ErrInvalidConfig)
		})
	}

	c := GetPreset("star-node")
	c.Separatrices[0].BlowUp[0][3] = 2.0
	sep, err := c.Separatrix(0)
	require.NoError(t, err)
	require.Equal(t, 2, sep.BlowUp[0].D1)
}

func TestGetPresetIsIndependent(t *testing.T) {
	c := GetPreset("star-node")
	c.Separatrices[0].Type = "stable"
	c.Separatrices[0].BlowUp[0][0] = 7
	c.Orbits[0].U = 9

	fresh := GetPreset("star-node")
	require.Equal(t, "unstable", fresh.Separatrices[0].Type)
	require.Equal(t, 0.0, fresh.Separatrices[0].BlowUp[0][0])
	require.Equal(t, 0.2, fresh.Orbits[0].U)
}

func TestSection(t *testing.T) {
	sec, lc, err := GetPreset("van-der-pol").Section()
	require.NoError(t, err)
	require.Equal(t, 3.0, sec.X1)
	require.Equal(t, 0.5, lc.Grid)

	_, _, err = GetPreset("saddle").Section()
	require.ErrorIs(t, err, phase.ErrInvalidConfig)
}
