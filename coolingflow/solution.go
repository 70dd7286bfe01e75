// SPDX-License-Identifier: MIT

package coolingflow

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/katalvlaran/cgmflow/units"
)

// Gas composition and thermodynamics.
const (
	// Gamma is the adiabatic index of a monatomic ideal gas.
	Gamma = 5.0 / 3.0
	// Mu is the mean particle mass in proton masses (fully ionised).
	Mu = 0.62
	// XH is the hydrogen mass fraction; ρ = nH mp / XH.
	XH = 0.75
)

// Sample is one point of a flow trace.
type Sample struct {
	R  units.Length
	T  units.Temperature
	NH units.NumberDensity
	V  units.Velocity // inflow speed, positive inward
}

// Solution is an immutable transonic flow trace ordered by radius.
type Solution struct {
	samples   []Sample
	mdot      units.MassRate
	rSonic    units.Length
	potential Potential
	cooling   Cooling
}

// NewSolution validates samples and returns a Solution owning a copy of them.
// Radii must be strictly increasing; T and nH must be positive; pot must be
// non-nil. cool may be nil for synthetic traces.
func NewSolution(samples []Sample, mdot units.MassRate, rSonic units.Length, pot Potential, cool Cooling) (*Solution, error) {
	if pot == nil {
		return nil, fmt.Errorf("%w: nil potential", ErrInvalidSolution)
	}
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidSolution, len(samples))
	}
	for i, s := range samples {
		if !(s.T > 0) || !(s.NH > 0) || math.IsInf(float64(s.NH), 0) {
			return nil, fmt.Errorf("%w: sample %d has T=%g nH=%g", ErrInvalidSolution, i, s.T.K(), s.NH.PerCm3())
		}
		if i > 0 && !(s.R > samples[i-1].R) {
			return nil, fmt.Errorf("%w: radius not increasing at sample %d", ErrInvalidSolution, i)
		}
	}
	if samples[0].R <= 0 {
		return nil, fmt.Errorf("%w: non-positive radius", ErrInvalidSolution)
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)

	return &Solution{samples: cp, mdot: mdot, rSonic: rSonic, potential: pot, cooling: cool}, nil
}

// Len is the number of samples.
func (s *Solution) Len() int { return len(s.samples) }

// At returns sample i.
func (s *Solution) At(i int) Sample { return s.samples[i] }

// Mdot is the realised mass inflow rate.
func (s *Solution) Mdot() units.MassRate { return s.mdot }

// RSonic is the sonic radius the trace was shot from.
func (s *Solution) RSonic() units.Length { return s.rSonic }

// Potential used to build the trace.
func (s *Solution) Potential() Potential { return s.potential }

// Cooling function used to build the trace (nil for synthetic traces).
func (s *Solution) Cooling() Cooling { return s.cooling }

// Rvir is the virial radius of the potential.
func (s *Solution) Rvir() units.Length { return s.potential.Rvir() }

// Inner is the innermost sampled radius.
func (s *Solution) Inner() units.Length { return s.samples[0].R }

// Outer is the outermost sampled radius.
func (s *Solution) Outer() units.Length { return s.samples[len(s.samples)-1].R }

// Radii returns a copy of the sample radii in cm.
func (s *Solution) Radii() []float64 {
	return s.column(func(x Sample) float64 { return x.R.Cm() })
}

// Temperatures returns a copy of the sample temperatures in K.
func (s *Solution) Temperatures() []float64 {
	return s.column(func(x Sample) float64 { return x.T.K() })
}

// HydrogenDensities returns a copy of nH in cm⁻³.
func (s *Solution) HydrogenDensities() []float64 {
	return s.column(func(x Sample) float64 { return x.NH.PerCm3() })
}

// Densities returns the gas mass density ρ = nH mp / XH in g cm⁻³.
func (s *Solution) Densities() []float64 {
	return s.column(func(x Sample) float64 { return x.NH.PerCm3() * units.ProtonMass / XH })
}

// Velocities returns the inflow speeds in cm/s.
func (s *Solution) Velocities() []float64 {
	return s.column(func(x Sample) float64 { return x.V.CmPerS() })
}

// GasMass is the trapezoidal integral of 4π r² ρ over the whole trace.
func (s *Solution) GasMass() units.Mass {
	rs := s.Radii()
	rho := s.Densities()
	for i, r := range rs {
		rho[i] *= 4 * math.Pi * r * r
	}
	return units.Grams(integrate.Trapezoidal(rs, rho))
}

func (s *Solution) column(f func(Sample) float64) []float64 {
	out := make([]float64, len(s.samples))
	for i, x := range s.samples {
		out[i] = f(x)
	}
	return out
}
