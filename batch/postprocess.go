// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/halo"
	"github.com/katalvlaran/cgmflow/ionbal"
	"github.com/katalvlaran/cgmflow/profile"
	"github.com/katalvlaran/cgmflow/store"
	"github.com/katalvlaran/cgmflow/units"
)

// ErrBadPostProcess indicates an invalid post-processing request.
var ErrBadPostProcess = errors.New("batch: invalid post-processing")

// PostProcess is one derived product written next to a converged solution.
// The set of kinds is closed: GasFraction and ColumnDensity.
type PostProcess interface {
	// Name identifies the product in logs.
	Name() string
	validate() error
	apply(sol *coolingflow.Solution, hc halo.Context, table ionbal.Table, n *store.Node) error
}

// GasFraction stores fCGM: gas mass between Inner·Rvir and Outer·Rvir over
// Mvir.
type GasFraction struct {
	Inner float64
	Outer float64
}

// DefaultGasFraction integrates over 0.1–1 Rvir.
func DefaultGasFraction() GasFraction {
	w := profile.DefaultWindow()
	return GasFraction{Inner: w.Inner, Outer: w.Outer}
}

func (GasFraction) Name() string { return "fCGM" }

func (g GasFraction) validate() error {
	if !(profile.Window{Inner: g.Inner, Outer: g.Outer}).Valid() {
		return fmt.Errorf("%w: gas fraction window [%g, %g]", ErrBadPostProcess, g.Inner, g.Outer)
	}
	return nil
}

func (g GasFraction) apply(sol *coolingflow.Solution, hc halo.Context, _ ionbal.Table, n *store.Node) error {
	f := profile.CGMGasFraction(sol, hc.Mvir(), profile.Window{Inner: g.Inner, Outer: g.Outer})
	n.SetAttr("fCGM", f)
	return nil
}

// ColumnDensity stores an ion column-density profile under coldens_<ion>.
// Impact and LOS are in units of Rvir; LOS holds line-of-sight cell edges.
// Truncation (Rvir units) is the radius inside which the ion density is
// held at its value at the truncation radius.
type ColumnDensity struct {
	Ion        ionbal.Ion
	Impact     []float64
	LOS        []float64
	Truncation float64
}

// DefaultColumnDensity uses the default impact, line-of-sight and truncation
// grids.
func DefaultColumnDensity(ion ionbal.Ion) ColumnDensity {
	unit := units.Cm(1)
	return ColumnDensity{
		Ion:        ion,
		Impact:     lengthsToFloats(profile.DefaultImpactParameters(unit)),
		LOS:        lengthsToFloats(profile.DefaultLineOfSight(unit)),
		Truncation: profile.DefaultTruncation(unit).Cm(),
	}
}

func (c ColumnDensity) Name() string { return "coldens_" + c.Ion.Name() }

func (c ColumnDensity) validate() error {
	switch {
	case !c.Ion.Valid():
		return fmt.Errorf("%w: unknown ion", ErrBadPostProcess)
	case len(c.Impact) == 0:
		return fmt.Errorf("%w: %s has no impact parameters", ErrBadPostProcess, c.Name())
	case len(c.LOS) < 2:
		return fmt.Errorf("%w: %s needs at least two line-of-sight edges", ErrBadPostProcess, c.Name())
	case !(c.Truncation > 0):
		return fmt.Errorf("%w: %s truncation %g", ErrBadPostProcess, c.Name(), c.Truncation)
	}
	return nil
}

func (c ColumnDensity) apply(sol *coolingflow.Solution, hc halo.Context, table ionbal.Table, n *store.Node) error {
	rvir := hc.Rvir()
	impact := scaled(c.Impact, rvir)
	cd, err := profile.ColumnDensity(sol, c.Ion, table, hc.Redshift(), hc.Metallicity(),
		impact, scaled(c.LOS, rvir), units.Cm(c.Truncation*rvir.Cm()))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	if err := profile.CheckNonNegative(cd); err != nil {
		return fmt.Errorf("%s: %w", c.Name(), err)
	}
	n.Child(c.Name()).
		SetDataset("impactpar_cm", lengthsToFloats(impact)).
		SetDataset("coldens_cm2", cd)
	return nil
}

func scaled(xs []float64, unit units.Length) []units.Length {
	out := make([]units.Length, len(xs))
	for i, x := range xs {
		out[i] = units.Cm(x * unit.Cm())
	}
	return out
}

func lengthsToFloats(ls []units.Length) []float64 {
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = l.Cm()
	}
	return out
}
