package profile_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/ionbal"
	"github.com/katalvlaran/cgmflow/units"
)

var testRvir = units.Kpc(200)

// solutionFrom builds a trace at radii given in Rvir units with nH(r) and
// T(r) supplied by the caller.
func solutionFrom(t *testing.T, rs []float64, nH func(x float64) float64, T func(x float64) float64) *coolingflow.Solution {
	t.Helper()
	pot, err := coolingflow.NewPowerLaw(0, units.KmPerS(150), testRvir)
	require.NoError(t, err)
	samples := make([]coolingflow.Sample, len(rs))
	for i, x := range rs {
		samples[i] = coolingflow.Sample{
			R:  units.Cm(x * testRvir.Cm()),
			T:  units.Kelvin(T(x)),
			NH: units.PerCm3(nH(x)),
			V:  units.KmPerS(30),
		}
	}
	sol, err := coolingflow.NewSolution(samples, units.MsunPerYr(1), samples[0].R, pot, nil)
	require.NoError(t, err)
	return sol
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func logspace(lo, hi float64, n int) []float64 {
	out := linspace(math.Log10(lo), math.Log10(hi), n)
	for i := range out {
		out[i] = math.Pow(10, out[i])
	}
	return out
}

func constant(v float64) func(float64) float64 { return func(float64) float64 { return v } }

// unitTable puts every atom of the element in the requested ion.
type unitTable struct{}

func (unitTable) Fraction(ionbal.Ion, float64, units.Temperature, units.NumberDensity) (float64, error) {
	return 1, nil
}

// brokenTable refuses every lookup.
type brokenTable struct{}

func (brokenTable) Fraction(ion ionbal.Ion, _ float64, _ units.Temperature, _ units.NumberDensity) (float64, error) {
	return 0, ionbal.ErrUnsupportedIon
}
