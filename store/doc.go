// Package store persists solved halo models as a hierarchy of named groups
// in a single SQLite file.
//
// Each group carries scalar attributes, float64 datasets and child groups,
// mirroring the layout of hierarchical scientific formats:
//
//	z0.75_Zsolar3.00e-01_vcplind-0.10_mdotperc0.500_logmvirMsun12.00
//	├── attrs:    mdot_MsunperYr, Rvir_cm, fCGM, failed, ...
//	├── datasets: R_kpc, T_K, nH_cm3, v_kmps
//	├── shoot_options/
//	├── search/
//	└── coldens_ne8/  impactpar_cm, coldens_cm2
//
// Top-level groups are write-once: Put on an existing key fails with a
// *DuplicateError and leaves the stored group untouched. Writes are
// serialised; reads may run concurrently.
package store
