// Package cgmflow models the circumgalactic medium of dark-matter halos as
// steady, spherically symmetric, transonic cooling flows.
//
// 🚀 What does cgmflow do?
//
//	For a halo of mass Mvir and a target mass inflow rate Mdot it finds the
//	sonic radius whose subsonic cooling flow carries exactly that Mdot, then
//	derives observables from the converged profile:
//		• CGM gas fraction within a shell of Rvir
//		• Ion density profiles and column densities (C IV … Mg X)
//
// ✨ Layout
//
//	units/  CGS constants and tagged quantity types
//	cosmo/  ΛCDM parameters, BN98 virial overdensity, Rvir(Mvir)
//	halo/  immutable per-halo context built with functional options
//	coolingflow/  potential, cooling function, flow solution, shooting solver
//	sonic/  bracketing/bisection search for the sonic radius
//	ionbal/  ion enum, solar abundances, ionization-fraction tables
//	profile/  gas fraction, ion density interpolant, column densities
//	store/  hierarchical SQLite output (groups, attributes, datasets)
//	batch/  grid driver: seeding, failure isolation, persistence
//	config/  YAML configuration with environment overrides
//	cmd/cgmflow  command-line interface
//
// Quick start:
//
//	cgmflow config init
//	cgmflow run -j 4
//	cgmflow list
//	cgmflow show z0.00_Zsolar3.00e-01_vcplind-0.10_mdotperc0.500_logmvirMsun12.00
package cgmflow
