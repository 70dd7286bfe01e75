// Package sonic finds the sonic radius of a transonic cooling flow whose mass
// inflow rate matches a target.
//
// 🚀 What does it solve?
//
//	A shooting solver maps a trial sonic radius R_sonic to a full flow
//	solution with inflow rate Mdot(R_sonic). For a physical halo this map is
//	monotonic, so the R_sonic reproducing an observed Mdot can be bracketed
//	and bisected in log radius.
//
// ✨ Algorithm:
//  1. Shoot from the initial guess and from the probe radii 0.7·R_max and
//     1.3·R_min.
//  2. Classify Mdot(R_sonic) as increasing or decreasing; anything else is
//     ErrNonMonotonic.
//  3. The target must lie inside the probe Mdots (inclusive), otherwise
//     ErrTargetOutOfRange. No further shots are spent.
//  4. Starting from the initial guess, test the midpoint. Converged when
//     target(1−tol) < Mdot < target(1+tol). Otherwise the endpoint on the
//     same side of the target as the midpoint is replaced and the next
//     midpoint is sqrt(R_min·R_max).
//  5. After MaxIterations midpoints the search stops with ErrNoConvergence.
//
// ⚙️ Usage:
//
//	res, err := sonic.FindSonicRadius(ctx, shooter, units.MsunPerYr(1),
//	    units.Kpc(1.1), sonic.DefaultBounds(rvir), sonic.WithRelTol(0.01))
//	if err != nil {
//	    var se *sonic.SearchError
//	    if errors.As(err, &se) { ... se.Kind ... }
//	}
//	sol := res.Solution
//
// Every failure is a *SearchError whose Kind is one of the FailureKind values;
// errors.Is matches it against the package sentinels. Context errors are
// returned unchanged.
package sonic
