// SPDX-License-Identifier: MIT

package profile

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/units"
)

// Window is a radial range in units of Rvir.
type Window struct {
	Inner float64
	Outer float64
}

// DefaultWindow is the CGM shell 0.1–1 Rvir.
func DefaultWindow() Window { return Window{Inner: 0.1, Outer: 1.0} }

// Valid reports 0 < Inner < Outer.
func (w Window) Valid() bool {
	return w.Inner > 0 && w.Outer > w.Inner && !math.IsInf(w.Outer, 0)
}

// ShellGasMass integrates 4π r² ρ over [rLo, rHi].
//
// Every interior sample i owns the cell [(r[i−1]+r[i])/2, (r[i]+r[i+1])/2];
// its weight is the length of that cell inside the window, so cells cut by an
// edge contribute their overlapping fraction only.
//
// It panics if rLo >= rHi or if fewer than two samples lie strictly on each
// side of either edge.
func ShellGasMass(sol *coolingflow.Solution, rLo, rHi units.Length) units.Mass {
	if !(rLo < rHi) {
		panic(fmt.Sprintf("profile: empty shell [%s, %s]", rLo, rHi))
	}
	r := sol.Radii()
	rho := sol.Densities()
	lo, hi := rLo.Cm(), rHi.Cm()
	requireSurrounded(r, lo)
	requireSurrounded(r, hi)

	var m float64
	for i := 1; i < len(r)-1; i++ {
		left := 0.5 * (r[i-1] + r[i])
		right := 0.5 * (r[i] + r[i+1])
		w := math.Min(right, hi) - math.Max(left, lo)
		if w <= 0 {
			continue
		}
		m += 4 * math.Pi * r[i] * r[i] * rho[i] * w
	}
	return units.Grams(m)
}

// CGMGasFraction is the gas mass inside w (in Rvir units) divided by mvir.
func CGMGasFraction(sol *coolingflow.Solution, mvir units.Mass, w Window) float64 {
	if !w.Valid() {
		panic(fmt.Sprintf("profile: invalid window %+v", w))
	}
	if !(mvir > 0) {
		panic(fmt.Sprintf("profile: non-positive halo mass %s", mvir))
	}
	rvir := sol.Rvir().Cm()
	m := ShellGasMass(sol, units.Cm(w.Inner*rvir), units.Cm(w.Outer*rvir))
	return m.Grams() / mvir.Grams()
}

// requireSurrounded panics unless two samples lie below and two above edge.
func requireSurrounded(r []float64, edge float64) {
	below := sort.SearchFloat64s(r, edge) // samples strictly below edge
	above := len(r) - sort.Search(len(r), func(i int) bool { return r[i] > edge })
	if below < 2 || above < 2 {
		panic(fmt.Sprintf("profile: window edge %s has %d samples below and %d above, need 2 each",
			units.Cm(edge), below, above))
	}
}
