// Package batch runs sonic-radius searches over a grid of halo models and
// persists every result.
//
// 🚀 Flow per grid tuple (metallicity, vc slope, Mdot percentile):
//
//	seed := Options.Seed
//	for logMvir in ascending order:
//	    target := TargetTable.Target(cell)
//	    res    := sonic.FindSonicRadius(..., seed, ...)
//	    converged → post-process, store, seed = res.RSonic
//	    failed    → store {failed: true}, log, keep seed
//
// Tuples are independent and may run concurrently (Options.Workers); the
// halo-mass walk inside a tuple is sequential because each step is seeded by
// the previous one. Search failures never stop the batch. A duplicate output
// key or a cancelled context does.
//
// ⚙️ Post-processing is a closed set of kinds, GasFraction and
// ColumnDensity, each carrying its own parameters.
package batch
