// Package cosmo holds the background cosmology used to turn a halo mass into
// a virial radius.
//
// Params is an immutable value: construct it once (Planck15 or NewParams)
// and pass it explicitly. Nothing in this package keeps global state.
//
// The virial definition is the Bryan & Norman (1998) overdensity relative
// to the critical density:
//
//	Δc(z) = 18π² + 82x − 39x²,   x = Ωm(z) − 1
//	Mvir  = (4/3) π Rvir³ Δc(z) ρcrit(z)
//
// Radii are physical (not comoving).
package cosmo
