package batch

import (
	"context"

	"github.com/katalvlaran/cgmflow/halo"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/store"
	"github.com/katalvlaran/cgmflow/units"
)

// Discard is a Store that drops everything.
var Discard Store = discard{}

type discard struct{}

func (discard) Put(context.Context, string, *store.Node) error { return nil }

func failedNode() *store.Node {
	return store.NewNode().SetAttr("failed", true)
}

// node lays out a converged cell.
func (d *Driver) node(c Cell, hc halo.Context, target units.MassRate, b sonic.Bounds, res sonic.Result) *store.Node {
	sol := res.Solution
	cp := hc.Cosmology()
	n := store.NewNode().
		SetAttr("failed", false).
		SetAttr("run_id", d.opts.RunID).
		SetAttr("mdot_MsunperYr", res.Mdot.MsunPerYr()).
		SetAttr("target_mdot_msunperyr", target.MsunPerYr()).
		SetAttr("mdot_percentile_at_Mvir", c.Percentile).
		SetAttr("mdot_reltol", d.opts.RelTol).
		SetAttr("r_sonic_kpc", res.RSonic.Kpc()).
		SetAttr("iterations", res.Iterations).
		SetAttr("evaluations", res.Evaluations).
		SetAttr("direction", res.Direction.String()).
		SetAttr("logMvir_Msun_BN98", c.LogMvir).
		SetAttr("Rvir_cm", hc.Rvir().Cm()).
		SetAttr("Z_solar", hc.Metallicity()).
		SetAttr("plind_vc", hc.VcSlope()).
		SetAttr("redshift", hc.Redshift()).
		SetAttr("R_min_kpc", b.Min.Kpc()).
		SetAttr("R_max_kpc", b.Max.Kpc()).
		SetAttr("max_step", d.opts.Shoot.MaxStep).
		SetAttr("cosmo_h", cp.H).
		SetAttr("cosmo_omega_m", cp.OmegaM).
		SetAttr("cosmo_omega_b", cp.OmegaB).
		SetAttr("cosmo_omega_lambda", cp.OmegaLambda)
	if k, ok := hc.EntropySlope(); ok {
		n.SetAttr("plind_entropy", k)
	}
	if t, ok := d.opts.IonTable.(interface{ Name() string }); ok {
		n.SetAttr("ion_table", t.Name())
	}

	r := sol.Radii()
	for i := range r {
		r[i] = units.Cm(r[i]).Kpc()
	}
	v := sol.Velocities()
	for i := range v {
		v[i] = units.CmPerS(v[i]).KmPerS()
	}
	n.SetDataset("R_kpc", r).
		SetDataset("T_K", sol.Temperatures()).
		SetDataset("nH_cm3", sol.HydrogenDensities()).
		SetDataset("v_kmps", v)

	so := d.opts.Shoot
	n.Child("shoot_options").
		SetAttr("max_step", so.MaxStep).
		SetAttr("tol", so.Tol).
		SetAttr("epsilon", so.Epsilon).
		SetAttr("dlnMdlnRInit", so.DlnMdlnRInit).
		SetAttr("terminate_unbound", so.TerminateUnbound).
		SetAttr("calc_inward", so.CalcInward).
		SetAttr("min_T_K", so.MinT.K()).
		SetAttr("x_low", so.XLow).
		SetAttr("x_high", so.XHigh)

	probeR := make([]float64, len(res.Probes))
	probeM := make([]float64, len(res.Probes))
	for i, p := range res.Probes {
		probeR[i], probeM[i] = p.R.Kpc(), p.Mdot.MsunPerYr()
	}
	midR := make([]float64, len(res.History))
	midM := make([]float64, len(res.History))
	for i, st := range res.History {
		midR[i], midM[i] = st.Bracket.Mid.R.Kpc(), st.Bracket.Mid.Mdot.MsunPerYr()
	}
	n.Child("search").
		SetDataset("probe_R_kpc", probeR).
		SetDataset("probe_mdot_MsunperYr", probeM).
		SetDataset("mid_R_kpc", midR).
		SetDataset("mid_mdot_MsunperYr", midM)
	return n
}
