package profile

import (
	"fmt"

	"github.com/katalvlaran/cgmflow/units"
)

// Default sampling in units of Rvir.
const (
	DefaultImpactMin  = 0.1
	DefaultImpactMax  = 2.0
	DefaultImpactStep = 0.05
	DefaultLOSExtent  = 2.0
	DefaultLOSStep    = 0.005
	DefaultTruncRvir  = 0.09
)

// Grid returns lo, lo+step, … up to hi inclusive, scaled by unit. The count
// is rounded so that floating-point drift never drops the last node.
func Grid(lo, hi, step float64, unit units.Length) []units.Length {
	if !(step > 0) || !(hi >= lo) {
		panic(fmt.Sprintf("profile: bad grid %g..%g step %g", lo, hi, step))
	}
	n := int((hi-lo)/step+0.5) + 1
	out := make([]units.Length, n)
	for i := range out {
		out[i] = units.Cm((lo + float64(i)*step) * unit.Cm())
	}
	return out
}

// DefaultImpactParameters is 0.1, 0.15, …, 2.0 Rvir.
func DefaultImpactParameters(rvir units.Length) []units.Length {
	return Grid(DefaultImpactMin, DefaultImpactMax, DefaultImpactStep, rvir)
}

// DefaultLineOfSight is the cell-edge grid −2, −1.995, …, 2 Rvir.
func DefaultLineOfSight(rvir units.Length) []units.Length {
	return Grid(-DefaultLOSExtent, DefaultLOSExtent, DefaultLOSStep, rvir)
}

// DefaultTruncation is 0.09 Rvir.
func DefaultTruncation(rvir units.Length) units.Length {
	return units.Cm(DefaultTruncRvir * rvir.Cm())
}
