// SPDX-License-Identifier: MIT

package profile

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/ionbal"
	"github.com/katalvlaran/cgmflow/units"
)

var (
	// ErrNoSamplesBeyondTruncation indicates that no solution radius exceeds
	// the inner truncation radius.
	ErrNoSamplesBeyondTruncation = errors.New("profile: no samples beyond truncation radius")

	// ErrNegativeColumn indicates a negative or non-finite column density.
	ErrNegativeColumn = errors.New("profile: negative column density")

	// ErrBadGrid indicates an unusable impact-parameter or line-of-sight grid.
	ErrBadGrid = errors.New("profile: invalid sampling grid")
)

// logFloor replaces log10(0) so the interpolant stays finite.
const logFloor = -100.0

// IonDensityProfile is n_ion(r) interpolated linearly in log r and log n.
type IonDensityProfile struct {
	ion        ionbal.Ion
	logRFirst  float64
	logRLast   float64
	logTrunc   float64
	anchor     float64 // log n_ion at the truncation radius
	inner      interp.PiecewiseLinear
	truncation units.Length
}

// NewIonDensityProfile evaluates the ion density at every solution sample and
// builds the truncated interpolant.
//
// The anchor is the full-sample interpolant evaluated at truncation. The
// returned profile interpolates over {truncation} and all samples beyond it,
// so samples inside the truncation radius only enter through the anchor.
func NewIonDensityProfile(sol *coolingflow.Solution, ion ionbal.Ion, table ionbal.Table, redshift, metallicity float64, truncation units.Length) (*IonDensityProfile, error) {
	if table == nil {
		return nil, fmt.Errorf("profile: nil ionisation table")
	}
	if !(truncation > 0) {
		return nil, fmt.Errorf("%w: truncation %s", ErrBadGrid, truncation)
	}
	n := sol.Len()
	logR := make([]float64, n)
	logN := make([]float64, n)
	for i := 0; i < n; i++ {
		s := sol.At(i)
		dens, err := ionbal.IonDensity(table, ion, redshift, metallicity, s.T, s.NH)
		if err != nil {
			return nil, fmt.Errorf("profile: %s at sample %d: %w", ion, i, err)
		}
		logR[i] = math.Log10(s.R.Cm())
		logN[i] = math.Max(logFloor, math.Log10(dens.PerCm3()))
		if math.IsNaN(logN[i]) {
			logN[i] = logFloor
		}
	}

	logTrunc := math.Log10(truncation.Cm())
	first := n
	for i, lr := range logR {
		if lr > logTrunc {
			first = i
			break
		}
	}
	if first == n {
		return nil, fmt.Errorf("%w: truncation %s, outermost sample %s", ErrNoSamplesBeyondTruncation, truncation, sol.Outer())
	}

	var outer interp.PiecewiseLinear
	if err := outer.Fit(logR, logN); err != nil {
		return nil, err
	}
	anchor := outer.Predict(logTrunc)

	xs := append([]float64{logTrunc}, logR[first:]...)
	ys := append([]float64{anchor}, logN[first:]...)
	p := &IonDensityProfile{
		ion:        ion,
		logRFirst:  logR[0],
		logRLast:   logR[n-1],
		logTrunc:   logTrunc,
		anchor:     anchor,
		truncation: truncation,
	}
	if err := p.inner.Fit(xs, ys); err != nil {
		return nil, err
	}
	return p, nil
}

// Ion is the profiled ion.
func (p *IonDensityProfile) Ion() ionbal.Ion { return p.ion }

// Truncation is the inner truncation radius.
func (p *IonDensityProfile) Truncation() units.Length { return p.truncation }

// Density returns n_ion at r in cm⁻³. It is zero beyond the outermost sample
// and below both the innermost sample and the truncation radius, and constant
// between the innermost sample and the truncation radius.
func (p *IonDensityProfile) Density(r units.Length) float64 {
	if !(r > 0) {
		return 0
	}
	lr := math.Log10(r.Cm())
	if lr < math.Min(p.logRFirst, p.logTrunc) || lr > p.logRLast {
		return 0
	}
	v := p.anchor
	if lr >= p.logTrunc {
		v = p.inner.Predict(lr)
	}
	if v <= logFloor {
		return 0
	}
	return math.Pow(10, v)
}

// ColumnDensity integrates the profile along lines of sight. los holds the
// cell edges along each sight line; each cell contributes
// n_ion(hypot(b, l_centre)) · Δl. The result is in cm⁻², one value per
// impact parameter.
func (p *IonDensityProfile) ColumnDensity(impact, los []units.Length) ([]float64, error) {
	if len(impact) == 0 {
		return nil, fmt.Errorf("%w: no impact parameters", ErrBadGrid)
	}
	if len(los) < 2 {
		return nil, fmt.Errorf("%w: need at least two line-of-sight edges", ErrBadGrid)
	}
	edges := make([]float64, len(los))
	for i, l := range los {
		edges[i] = l.Cm()
		if i > 0 && !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("%w: line-of-sight edges must increase strictly (index %d)", ErrBadGrid, i)
		}
	}

	centres := make([]float64, len(edges)-1)
	widths := make([]float64, len(edges)-1)
	for i := range centres {
		centres[i] = 0.5 * (edges[i] + edges[i+1])
		widths[i] = edges[i+1] - edges[i]
	}

	out := make([]float64, len(impact))
	dens := make([]float64, len(centres))
	for j, b := range impact {
		for i, l := range centres {
			dens[i] = p.Density(units.Cm(math.Hypot(b.Cm(), l)))
		}
		out[j] = floats.Dot(dens, widths)
	}
	return out, nil
}

// ColumnDensity builds the ion profile of sol and integrates it at each
// impact parameter.
func ColumnDensity(sol *coolingflow.Solution, ion ionbal.Ion, table ionbal.Table, redshift, metallicity float64, impact, los []units.Length, truncation units.Length) ([]float64, error) {
	p, err := NewIonDensityProfile(sol, ion, table, redshift, metallicity, truncation)
	if err != nil {
		return nil, err
	}
	return p.ColumnDensity(impact, los)
}

// CheckNonNegative reports the first negative or non-finite column.
func CheckNonNegative(cd []float64) error {
	for i, v := range cd {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: index %d value %g", ErrNegativeColumn, i, v)
		}
	}
	return nil
}
