// SPDX-License-Identifier: MIT

package cosmo

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/cgmflow/units"
)

var (
	// ErrBadCosmology indicates a non-physical parameter set.
	ErrBadCosmology = errors.New("cosmo: invalid cosmological parameters")

	// ErrBadRedshift indicates z < 0 or a non-finite redshift.
	ErrBadRedshift = errors.New("cosmo: redshift must be finite and >= 0")

	// ErrBadMass indicates a non-positive or non-finite halo mass.
	ErrBadMass = errors.New("cosmo: mass must be finite and > 0")
)

// Params is a flat-or-curved ΛCDM parameter set. Radiation is neglected.
type Params struct {
	H           float64 `yaml:"h"`            // H0 / (100 km/s/Mpc)
	OmegaM      float64 `yaml:"omega_m"`      // matter density at z=0
	OmegaB      float64 `yaml:"omega_b"`      // baryon density at z=0
	OmegaLambda float64 `yaml:"omega_lambda"` // dark energy density at z=0
}

// Planck15 returns the Planck 2015 parameters used by astropy, with
// ΩΛ = 1 − Ωm.
func Planck15() Params {
	return Params{H: 0.6774, OmegaM: 0.3075, OmegaB: 0.0486, OmegaLambda: 1 - 0.3075}
}

// NewParams validates and returns a parameter set.
func NewParams(h, omegaM, omegaB, omegaLambda float64) (Params, error) {
	p := Params{H: h, OmegaM: omegaM, OmegaB: omegaB, OmegaLambda: omegaLambda}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks that the parameters describe a physical universe.
func (p Params) Validate() error {
	switch {
	case !(p.H > 0) || math.IsInf(p.H, 0):
		return fmt.Errorf("%w: h=%g", ErrBadCosmology, p.H)
	case !(p.OmegaM > 0) || math.IsInf(p.OmegaM, 0):
		return fmt.Errorf("%w: omega_m=%g", ErrBadCosmology, p.OmegaM)
	case p.OmegaB < 0 || p.OmegaB > p.OmegaM:
		return fmt.Errorf("%w: omega_b=%g", ErrBadCosmology, p.OmegaB)
	case p.OmegaLambda < 0 || math.IsNaN(p.OmegaLambda):
		return fmt.Errorf("%w: omega_lambda=%g", ErrBadCosmology, p.OmegaLambda)
	}
	return nil
}

// OmegaK is the curvature density 1 − Ωm − ΩΛ.
func (p Params) OmegaK() float64 { return 1 - p.OmegaM - p.OmegaLambda }

// BaryonFraction is Ωb / Ωm.
func (p Params) BaryonFraction() float64 { return p.OmegaB / p.OmegaM }

// HubbleFrac returns E(z) = H(z)/H0.
func (p Params) HubbleFrac(z float64) float64 {
	zp1 := 1 + z
	return math.Sqrt(p.OmegaM*zp1*zp1*zp1 + p.OmegaK()*zp1*zp1 + p.OmegaLambda)
}

// H0 returns the Hubble constant in s⁻¹.
func (p Params) H0() float64 {
	return 100 * p.H * units.CmPerKm / units.CmPerMpc
}

// RhoCritical returns the critical density at redshift z.
func (p Params) RhoCritical(z float64) units.Density {
	hz := p.H0() * p.HubbleFrac(z)
	return units.Density(3 * hz * hz / (8 * math.Pi * units.G))
}

// OmegaMz returns the matter density parameter at redshift z.
func (p Params) OmegaMz(z float64) float64 {
	e := p.HubbleFrac(z)
	zp1 := 1 + z
	return p.OmegaM * zp1 * zp1 * zp1 / (e * e)
}

// DeltaBN98 returns the Bryan & Norman (1998) virial overdensity relative to
// the critical density. The fit assumes a flat universe.
func (p Params) DeltaBN98(z float64) float64 {
	x := p.OmegaMz(z) - 1
	return 18*math.Pi*math.Pi + 82*x - 39*x*x
}

// RvirFromMvir returns the BN98 virial radius of a halo of mass m at z.
func (p Params) RvirFromMvir(m units.Mass, z float64) (units.Length, error) {
	if err := checkZ(z); err != nil {
		return 0, err
	}
	if !(m > 0) || math.IsInf(float64(m), 0) {
		return 0, fmt.Errorf("%w: %g g", ErrBadMass, float64(m))
	}
	rho := p.DeltaBN98(z) * p.RhoCritical(z).GramsPerCm3()
	r := math.Cbrt(3 * m.Grams() / (4 * math.Pi * rho))
	return units.Cm(r), nil
}

// MvirFromRvir is the inverse of RvirFromMvir.
func (p Params) MvirFromRvir(r units.Length, z float64) (units.Mass, error) {
	if err := checkZ(z); err != nil {
		return 0, err
	}
	rho := p.DeltaBN98(z) * p.RhoCritical(z).GramsPerCm3()
	rc := r.Cm()
	return units.Grams(4 * math.Pi / 3 * rc * rc * rc * rho), nil
}

func checkZ(z float64) error {
	if !(z >= 0) || math.IsInf(z, 0) {
		return fmt.Errorf("%w: z=%g", ErrBadRedshift, z)
	}
	return nil
}
