package batch

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrBadGrid indicates an empty or invalid parameter grid.
var ErrBadGrid = errors.New("batch: invalid grid")

// Grid is the Cartesian product of halo parameters at one redshift.
type Grid struct {
	Redshift      float64   `yaml:"redshift"`
	LogMvirs      []float64 `yaml:"log_mvir_msun"`
	Metallicities []float64 `yaml:"metallicities"`
	VcSlopes      []float64 `yaml:"vc_slopes"`
	Percentiles   []float64 `yaml:"mdot_percentiles"`
}

// Validate checks that every axis is non-empty and finite and that
// metallicities and percentiles are in range.
func (g Grid) Validate() error {
	if !(g.Redshift >= 0) || math.IsInf(g.Redshift, 0) {
		return fmt.Errorf("%w: redshift %g", ErrBadGrid, g.Redshift)
	}
	axes := []struct {
		name string
		vals []float64
		ok   func(float64) bool
	}{
		{"log_mvir_msun", g.LogMvirs, func(float64) bool { return true }},
		{"metallicities", g.Metallicities, func(z float64) bool { return z > 0 }},
		{"vc_slopes", g.VcSlopes, func(float64) bool { return true }},
		{"mdot_percentiles", g.Percentiles, func(p float64) bool { return p > 0 && p < 1 }},
	}
	for _, ax := range axes {
		if len(ax.vals) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrBadGrid, ax.name)
		}
		for _, v := range ax.vals {
			if math.IsNaN(v) || math.IsInf(v, 0) || !ax.ok(v) {
				return fmt.Errorf("%w: %s contains %g", ErrBadGrid, ax.name, v)
			}
		}
	}
	return nil
}

// Size is the number of cells.
func (g Grid) Size() int {
	return len(g.LogMvirs) * len(g.Metallicities) * len(g.VcSlopes) * len(g.Percentiles)
}

// Cell is one halo model of the grid.
type Cell struct {
	Redshift    float64
	LogMvir     float64
	Metallicity float64
	VcSlope     float64
	Percentile  float64
}

// Key is the output group name, e.g.
// z0.75_Zsolar3.00e-01_vcplind-0.10_mdotperc0.500_logmvirMsun12.00.
func (c Cell) Key() string {
	return fmt.Sprintf("z%.2f_Zsolar%.2e_vcplind%.2f_mdotperc%.3f_logmvirMsun%.2f",
		c.Redshift, c.Metallicity, c.VcSlope, c.Percentile, c.LogMvir)
}

// tuple is one seeded walk over halo masses.
type tuple struct {
	redshift    float64
	metallicity float64
	vcSlope     float64
	percentile  float64
	logMvirs    []float64 // ascending
}

func (t tuple) cell(logMvir float64) Cell {
	return Cell{
		Redshift:    t.redshift,
		LogMvir:     logMvir,
		Metallicity: t.metallicity,
		VcSlope:     t.vcSlope,
		Percentile:  t.percentile,
	}
}

// tuples enumerates metallicity, then slope, then percentile.
func (g Grid) tuples() []tuple {
	masses := append([]float64(nil), g.LogMvirs...)
	sort.Float64s(masses)

	out := make([]tuple, 0, len(g.Metallicities)*len(g.VcSlopes)*len(g.Percentiles))
	for _, z := range g.Metallicities {
		for _, m := range g.VcSlopes {
			for _, p := range g.Percentiles {
				out = append(out, tuple{
					redshift:    g.Redshift,
					metallicity: z,
					vcSlope:     m,
					percentile:  p,
					logMvirs:    masses,
				})
			}
		}
	}
	return out
}
