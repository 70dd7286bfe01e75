package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/units"
)

type solveFlags struct {
	logMvir     float64
	metallicity float64
	vcSlope     float64
	percentile  float64
	seedKpc     float64
	save        bool
}

func newSolveCmd(a *app) *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a single halo",
		Long: `solve runs the sonic-radius search for one halo at the configured
redshift and prints the result. With --save the solution is written to the
output store like a grid cell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.Float64Var(&f.logMvir, "log-mvir", 12, "log10 halo mass [Msun]")
	fl.Float64Var(&f.metallicity, "metallicity", 0.3, "Gas metallicity [solar]")
	fl.Float64Var(&f.vcSlope, "vc-slope", -0.1, "Power-law index of vc(r)")
	fl.Float64Var(&f.percentile, "percentile", 0.5, "Mdot percentile of the target table")
	fl.Float64Var(&f.seedKpc, "seed", batch.DefaultSeedKpc, "Initial sonic-radius guess [kpc]")
	fl.BoolVar(&f.save, "save", false, "Write the solution to the output store")
	return cmd
}

func (a *app) solve(cmd *cobra.Command, f solveFlags) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	cell := batch.Cell{
		Redshift:    a.cfg.Redshift,
		LogMvir:     f.logMvir,
		Metallicity: f.metallicity,
		VcSlope:     f.vcSlope,
		Percentile:  f.percentile,
	}

	var d *batch.Driver
	if f.save {
		dd, st, err := a.driver(a.cfg.Output)
		if err != nil {
			return err
		}
		defer st.Close()
		d = dd
	} else {
		targets, err := a.cfg.TargetTable()
		if err != nil {
			return err
		}
		opts, err := a.cfg.DriverOptions(a.logger)
		if err != nil {
			return err
		}
		opts.NewShooter = a.newShooter
		if d, err = batch.New(targets, batch.Discard, opts); err != nil {
			return err
		}
	}

	out, err := d.Solve(cmd.Context(), cell, units.Kpc(f.seedKpc))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", out.Key)
	if out.Failed {
		fmt.Fprintf(w, "failed: %v\n", out.Err)
		return out.Err
	}
	r := out.Result
	fmt.Fprintf(w, "R_sonic = %s\nMdot    = %s (target %s)\n", r.RSonic, r.Mdot, out.Target)
	fmt.Fprintf(w, "direction %s, %d iterations, %d solver calls\n", r.Direction, r.Iterations, r.Evaluations)
	return nil
}
