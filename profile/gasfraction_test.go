package profile_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/profile"
	"github.com/katalvlaran/cgmflow/units"
)

func TestGasFractionUniformDensity(t *testing.T) {
	// Nodes at 0.0005 + 0.001 i Rvir: both window edges fall between samples.
	rs := make([]float64, 1500)
	for i := range rs {
		rs[i] = 0.0005 + 0.001*float64(i)
	}
	nH := 1e-3
	sol := solutionFrom(t, rs, constant(nH), constant(1e6))

	rho := nH * units.ProtonMass / coolingflow.XH
	r0, r1 := 0.1*testRvir.Cm(), testRvir.Cm()
	want := 4 * math.Pi / 3 * rho * (r1*r1*r1 - r0*r0*r0)

	mvir := units.Msun(1e12)
	got := profile.CGMGasFraction(sol, mvir, profile.DefaultWindow())
	assert.InEpsilon(t, want/mvir.Grams(), got, 1e-5)
	assert.InEpsilon(t, want, profile.ShellGasMass(sol, units.Cm(r0), units.Cm(r1)).Grams(), 1e-5)
}

func TestGasFractionEdgesOnSamples(t *testing.T) {
	rs := linspace(0.05, 1.5, 1451) // step 0.001, 0.1 and 1.0 are nodes
	sol := solutionFrom(t, rs, constant(1e-3), constant(1e6))

	rho := 1e-3 * units.ProtonMass / coolingflow.XH
	r0, r1 := 0.1*testRvir.Cm(), testRvir.Cm()
	want := 4 * math.Pi / 3 * rho * (r1*r1*r1 - r0*r0*r0)
	assert.InEpsilon(t, want, profile.ShellGasMass(sol, units.Cm(r0), units.Cm(r1)).Grams(), 1e-5)
}

// With ρ ∝ r⁻² the integrand is constant, so the clipped cell widths must
// add up to the window width exactly, whatever the spacing.
func TestGasFractionCellWeightsSumToWindow(t *testing.T) {
	rs := logspace(0.003, 5, 97)
	sol := solutionFrom(t, rs, func(x float64) float64 { return 1e-3 / (x * x) }, constant(1e6))

	c := 4 * math.Pi * 1e-3 * units.ProtonMass / coolingflow.XH * testRvir.Cm() * testRvir.Cm()
	for _, w := range []profile.Window{{Inner: 0.1, Outer: 1}, {Inner: 0.0123, Outer: 0.777}, {Inner: 0.5, Outer: 3.3}} {
		lo, hi := w.Inner*testRvir.Cm(), w.Outer*testRvir.Cm()
		got := profile.ShellGasMass(sol, units.Cm(lo), units.Cm(hi)).Grams()
		assert.InEpsilon(t, c*(hi-lo), got, 1e-9, "window %+v", w)
	}
}

func TestGasFractionPreconditionsPanic(t *testing.T) {
	rs := linspace(0.099, 1.5, 200)
	sol := solutionFrom(t, rs, constant(1e-3), constant(1e6))
	mvir := units.Msun(1e12)

	assert.Panics(t, func() { profile.CGMGasFraction(sol, mvir, profile.DefaultWindow()) }, "one sample below inner edge")
	assert.Panics(t, func() { profile.CGMGasFraction(sol, mvir, profile.Window{Inner: 0.5, Outer: 1.499}) }, "one sample above outer edge")
	assert.Panics(t, func() { profile.CGMGasFraction(sol, mvir, profile.Window{Inner: 0.5, Outer: 0.2}) })
	assert.Panics(t, func() { profile.CGMGasFraction(sol, 0, profile.Window{Inner: 0.2, Outer: 0.5}) })
	assert.NotPanics(t, func() { profile.CGMGasFraction(sol, mvir, profile.Window{Inner: 0.2, Outer: 0.5}) })
}
