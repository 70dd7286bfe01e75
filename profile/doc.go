// Package profile derives observables from a converged cooling-flow solution.
//
// ✨ Quantities:
//   - ShellGasMass, CGMGasFraction: gas mass in a radial window, integrated
//     with midpoint cells of width ½(r[i+1] − r[i−1]) clipped to the window.
//   - IonDensityProfile: log-log interpolant of an ion density, held flat
//     inside an inner truncation radius and zero outside the sampled range.
//   - ColumnDensity: Riemann sum of the ion density along straight lines of
//     sight at a set of impact parameters.
//
// ⚙️ Default grids (in units of Rvir):
//
//	impact parameters  0.1 … 2.0, step 0.05
//	line-of-sight edges −2 … 2,  step 0.005
//	inner truncation   0.09
//
// The gas-mass functions panic when the window is not surrounded by at least
// two samples on each side of both edges; a converged solution always is.
package profile
