// Package ionbal provides ionisation-balance lookups for the metal ions used
// in CGM absorption studies.
//
// An ion density is nH · (element abundance per H) · Z · f_ion(T, nH), with
// Z the metallicity in solar units and f_ion the fraction of the element in
// the given ionisation state. Solar abundances follow Asplund et al. (2009).
//
// Two Table implementations are provided:
//   - CIETable: an analytic collisional-ionisation curve per ion, a Gaussian
//     in log T. Density and redshift independent.
//   - GridTable: a tabulated log f_ion(log T, log nH) grid read from YAML,
//     interpolated linearly in both axes and clamped at the grid edges.
package ionbal
