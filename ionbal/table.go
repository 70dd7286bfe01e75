// SPDX-License-Identifier: MIT

package ionbal

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/cgmflow/units"
)

var (
	// ErrUnsupportedIon indicates a table without data for the requested ion.
	ErrUnsupportedIon = errors.New("ionbal: ion not in table")

	// ErrRedshift indicates a lookup at a redshift the table was not built for.
	ErrRedshift = errors.New("ionbal: redshift not covered by table")

	// ErrBadTable indicates a malformed table definition.
	ErrBadTable = errors.New("ionbal: malformed table")
)

// Table returns ion fractions f_ion(T, nH) at a redshift.
type Table interface {
	Fraction(ion Ion, redshift float64, T units.Temperature, nH units.NumberDensity) (float64, error)
}

// IonDensity is nH · abundance · metallicity · f_ion.
func IonDensity(t Table, ion Ion, redshift, metallicity float64, T units.Temperature, nH units.NumberDensity) (units.NumberDensity, error) {
	if !ion.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownIon, int(ion))
	}
	f, err := t.Fraction(ion, redshift, T, nH)
	if err != nil {
		return 0, err
	}
	n := nH.PerCm3() * ion.Element().SolarAbundance() * metallicity * f
	return units.PerCm3(n), nil
}

// CIETable approximates collisional-ionisation-equilibrium fractions by a
// Gaussian in log T around each ion's peak.
type CIETable struct{}

type ciePeak struct {
	logT, sigma, peak float64
}

var ciePeaks = map[Ion]ciePeak{
	C4:   {5.00, 0.10, 0.30},
	N5:   {5.25, 0.10, 0.28},
	O6:   {5.45, 0.13, 0.24},
	O7:   {6.00, 0.30, 0.90},
	O8:   {6.40, 0.20, 0.50},
	Ne8:  {5.80, 0.17, 0.22},
	Ne9:  {6.10, 0.30, 0.90},
	Mg10: {6.05, 0.12, 0.25},
}

// Name identifies the table in output attributes.
func (CIETable) Name() string { return "cie" }

// Fraction implements Table.
func (CIETable) Fraction(ion Ion, _ float64, T units.Temperature, _ units.NumberDensity) (float64, error) {
	p, ok := ciePeaks[ion]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedIon, ion)
	}
	if !(T > 0) {
		return 0, nil
	}
	d := (math.Log10(T.K()) - p.logT) / p.sigma
	return p.peak * math.Exp(-0.5*d*d), nil
}
