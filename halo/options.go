// SPDX-License-Identifier: MIT

package halo

import (
	"math"

	"github.com/katalvlaran/cgmflow/cosmo"
)

// Defaults.
const (
	// DefaultMetallicity is the gas metallicity in solar units.
	DefaultMetallicity = 0.3

	// DefaultVcSlope is the logarithmic slope of vc(r).
	DefaultVcSlope = -0.1
)

// Option customizes a Context before its derived quantities are computed.
// Constructors panic on nonsensical values (programmer error).
type Option func(*config)

type config struct {
	cosmology       cosmo.Params
	metallicity     float64
	vcSlope         float64
	entropySlope    float64
	hasEntropySlope bool
}

func defaultConfig() config {
	return config{
		cosmology:   cosmo.Planck15(),
		metallicity: DefaultMetallicity,
		vcSlope:     DefaultVcSlope,
	}
}

// WithCosmology sets the background cosmology. Panics on invalid parameters.
func WithCosmology(p cosmo.Params) Option {
	if err := p.Validate(); err != nil {
		panic("halo: WithCosmology: " + err.Error())
	}
	return func(c *config) { c.cosmology = p }
}

// WithMetallicity sets the gas metallicity in solar units. Panics if z <= 0.
func WithMetallicity(z float64) Option {
	if !(z > 0) || math.IsInf(z, 0) {
		panic("halo: WithMetallicity(z<=0)")
	}
	return func(c *config) { c.metallicity = z }
}

// WithVcSlope sets the power-law index m of vc(r) ∝ r^m. Panics if not finite.
func WithVcSlope(m float64) Option {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		panic("halo: WithVcSlope(non-finite)")
	}
	return func(c *config) { c.vcSlope = m }
}

// WithEntropySlope sets the optional power-law index of K(r) ∝ r^k.
func WithEntropySlope(k float64) Option {
	if math.IsNaN(k) || math.IsInf(k, 0) {
		panic("halo: WithEntropySlope(non-finite)")
	}
	return func(c *config) {
		c.entropySlope = k
		c.hasEntropySlope = true
	}
}
