// SPDX-License-Identifier: MIT

package coolingflow

import (
	"fmt"
	"math"

	"github.com/katalvlaran/cgmflow/units"
)

// Potential is a spherical gravitational potential.
type Potential interface {
	// Vc is the circular velocity at r.
	Vc(r units.Length) units.Velocity
	// Phi is the potential at r [cm² s⁻²], up to an additive constant.
	Phi(r units.Length) float64
	// Rvir is the virial radius of the halo.
	Rvir() units.Length
}

// Converging is implemented by potentials that may tend to a finite value at
// infinity. Shooter measures boundedness against that value when it exists.
type Converging interface {
	PhiInf() (phi float64, finite bool)
}

// PowerLaw is the potential with vc(r) = Vvir (r/Rvir)^m.
type PowerLaw struct {
	m    float64
	vvir units.Velocity
	rvir units.Length
}

// NewPowerLaw builds a power-law potential.
func NewPowerLaw(m float64, vvir units.Velocity, rvir units.Length) (PowerLaw, error) {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return PowerLaw{}, fmt.Errorf("%w: slope %g", ErrBadPotential, m)
	}
	if !(vvir > 0) || !(rvir > 0) {
		return PowerLaw{}, fmt.Errorf("%w: vvir=%s rvir=%s", ErrBadPotential, vvir, rvir)
	}
	return PowerLaw{m: m, vvir: vvir, rvir: rvir}, nil
}

// Slope is the power-law index m.
func (p PowerLaw) Slope() float64 { return p.m }

// Vvir is the circular velocity at Rvir.
func (p PowerLaw) Vvir() units.Velocity { return p.vvir }

// Rvir implements Potential.
func (p PowerLaw) Rvir() units.Length { return p.rvir }

// Vc implements Potential.
func (p PowerLaw) Vc(r units.Length) units.Velocity {
	return units.Velocity(float64(p.vvir) * math.Pow(float64(r)/float64(p.rvir), p.m))
}

// Phi implements Potential. dPhi/dr = vc²/r. For m < 0 Phi tends to 0 at
// infinity; for m = 0 it is zero at Rvir.
func (p PowerLaw) Phi(r units.Length) float64 {
	v2 := float64(p.vvir) * float64(p.vvir)
	x := float64(r) / float64(p.rvir)
	if p.m == 0 {
		return v2 * math.Log(x)
	}
	return v2 * math.Pow(x, 2*p.m) / (2 * p.m)
}

// PhiInf implements Converging: 0 for m < 0, unbounded otherwise.
func (p PowerLaw) PhiInf() (float64, bool) {
	if p.m < 0 {
		return 0, true
	}
	return math.Inf(1), false
}
