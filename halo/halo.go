// SPDX-License-Identifier: MIT

package halo

import (
	"fmt"
	"math"

	"github.com/katalvlaran/cgmflow/cosmo"
	"github.com/katalvlaran/cgmflow/units"
)

// Context is the immutable description of one halo.
type Context struct {
	mvir     units.Mass
	redshift float64
	cfg      config
	rvir     units.Length
	vvir     units.Velocity
}

// New builds a Context for a halo of BN98 mass mvir at the given redshift.
//
// Errors: cosmo.ErrBadMass, cosmo.ErrBadRedshift.
func New(mvir units.Mass, redshift float64, opts ...Option) (Context, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	rvir, err := cfg.cosmology.RvirFromMvir(mvir, redshift)
	if err != nil {
		return Context{}, fmt.Errorf("halo: %w", err)
	}
	vvir := units.CmPerS(math.Sqrt(units.G * mvir.Grams() / rvir.Cm()))

	return Context{
		mvir:     mvir,
		redshift: redshift,
		cfg:      cfg,
		rvir:     rvir,
		vvir:     vvir,
	}, nil
}

// FromLogMvir is New with log10(Mvir / Msun).
func FromLogMvir(logMvir, redshift float64, opts ...Option) (Context, error) {
	return New(units.Msun(math.Pow(10, logMvir)), redshift, opts...)
}

// Mvir is the BN98 virial mass.
func (c Context) Mvir() units.Mass { return c.mvir }

// LogMvir is log10(Mvir / Msun).
func (c Context) LogMvir() float64 { return math.Log10(c.mvir.Msun()) }

// Redshift of the halo.
func (c Context) Redshift() float64 { return c.redshift }

// ScaleFactor is 1 / (1 + z).
func (c Context) ScaleFactor() float64 { return 1 / (1 + c.redshift) }

// Cosmology used to derive Rvir.
func (c Context) Cosmology() cosmo.Params { return c.cfg.cosmology }

// Metallicity in solar units.
func (c Context) Metallicity() float64 { return c.cfg.metallicity }

// VcSlope is the power-law index of the circular velocity profile.
func (c Context) VcSlope() float64 { return c.cfg.vcSlope }

// EntropySlope returns the entropy power-law index and whether it was set.
func (c Context) EntropySlope() (float64, bool) {
	return c.cfg.entropySlope, c.cfg.hasEntropySlope
}

// Rvir is the BN98 virial radius (physical).
func (c Context) Rvir() units.Length { return c.rvir }

// Vvir is the circular velocity at Rvir, sqrt(G Mvir / Rvir).
func (c Context) Vvir() units.Velocity { return c.vvir }

// String implements fmt.Stringer.
func (c Context) String() string {
	return fmt.Sprintf("halo{logMvir=%.2f z=%.2f Z=%.2g m=%.2f Rvir=%s Vvir=%s}",
		c.LogMvir(), c.redshift, c.cfg.metallicity, c.cfg.vcSlope, c.rvir, c.vvir)
}
