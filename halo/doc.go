// Package halo defines Context, the immutable per-run description of one
// dark-matter halo: its BN98 virial mass and redshift, the background
// cosmology, the gas metallicity and the power-law slopes of the circular
// velocity (and optionally entropy) profiles.
//
// A Context is created once per search with New and functional options and
// never mutated afterwards; the derived virial radius and circular velocity
// are computed at construction.
//
//	hc, err := halo.New(units.Msun(1e12), 0.75,
//	    halo.WithMetallicity(0.3),
//	    halo.WithVcSlope(-0.1),
//	)
//	fmt.Println(hc.Rvir(), hc.Vvir())
package halo
