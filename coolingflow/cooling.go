// SPDX-License-Identifier: MIT

package coolingflow

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/katalvlaran/cgmflow/units"
)

// Cooling is a volumetric cooling function normalised to nH²:
// the energy loss rate is nH² Λ(T, nH) [erg cm⁻³ s⁻¹].
type Cooling interface {
	Lambda(T units.Temperature, nH units.NumberDensity) float64
}

// Approximate CIE cooling curves, log10 Λ/nH² [erg cm³ s⁻¹] on log10 T.
var (
	cieLogT = []float64{4.0, 4.2, 4.5, 5.0, 5.25, 5.5, 5.75, 6.0, 6.5, 7.0, 7.5, 8.0, 8.5}

	ciePrimordial = []float64{-23.5, -21.9, -22.2, -22.0, -22.1, -22.4, -22.6, -22.7, -23.0, -23.1, -23.0, -22.85, -22.7}
	cieSolar      = []float64{-23.0, -21.8, -21.5, -21.2, -21.0, -21.3, -21.5, -21.6, -22.2, -22.6, -22.7, -22.6, -22.45}
)

// belowFloor is the per-dex drop of Λ applied below the lowest tabulated T.
const belowFloor = 4.0

// CIECooling mixes primordial and solar collisional-ionisation cooling
// curves linearly in metallicity. The curve is density independent.
type CIECooling struct {
	metallicity float64
	prim, sol   interp.PiecewiseLinear
	logTMin     float64
	logTMax     float64
}

// NewCIECooling builds the cooling function for metallicity z (solar units).
func NewCIECooling(z float64) (*CIECooling, error) {
	if !(z >= 0) || math.IsInf(z, 0) {
		return nil, fmt.Errorf("%w: metallicity %g", ErrBadCooling, z)
	}
	c := &CIECooling{
		metallicity: z,
		logTMin:     cieLogT[0],
		logTMax:     cieLogT[len(cieLogT)-1],
	}
	if err := c.prim.Fit(cieLogT, ciePrimordial); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCooling, err)
	}
	if err := c.sol.Fit(cieLogT, cieSolar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCooling, err)
	}
	return c, nil
}

// Metallicity in solar units.
func (c *CIECooling) Metallicity() float64 { return c.metallicity }

// Lambda implements Cooling. Below 10^4 K the curve drops steeply; above the
// table it follows free-free emission, Λ ∝ T^½.
func (c *CIECooling) Lambda(T units.Temperature, _ units.NumberDensity) float64 {
	logT := math.Log10(T.K())
	shift := 0.0
	switch {
	case logT < c.logTMin:
		shift = -belowFloor * (c.logTMin - logT)
		logT = c.logTMin
	case logT > c.logTMax:
		shift = 0.5 * (logT - c.logTMax)
		logT = c.logTMax
	}
	lp := math.Pow(10, c.prim.Predict(logT))
	ls := math.Pow(10, c.sol.Predict(logT))
	return (lp + c.metallicity*(ls-lp)) * math.Pow(10, shift)
}
