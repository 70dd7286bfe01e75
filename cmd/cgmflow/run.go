package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/store"
)

func newRunCmd(a *app) *cobra.Command {
	var output string
	var workers int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve every cell of the configured grid",
		Long: `run walks the configured grid, seeding each halo-mass sequence with the
previous sonic radius, and writes one group per cell to the output store.
Cells that fail are recorded with failed=true. The run stops on the first
key that already exists in the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				a.cfg.Output = output
			}
			if workers > 0 {
				a.cfg.Workers = workers
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd)
		},
	}
	addOutputFlag(cmd.Flags(), &output)
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Concurrent grid tuples (overrides config)")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	d, st, err := a.driver(a.cfg.Output)
	if err != nil {
		return err
	}
	defer st.Close()

	grid := a.cfg.BatchGrid()
	a.logger.Info("batch starting",
		zap.String("run_id", d.RunID()),
		zap.String("output", st.Path()),
		zap.Int("cells", grid.Size()),
		zap.Int("workers", a.cfg.Workers))

	sum, err := d.Run(ctx, grid)
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d cells, %d converged, %d failed\n",
		sum.RunID, sum.Cells, sum.Converged, sum.Failed)
	return err
}

// driver opens the store at path and builds a Driver writing to it.
func (a *app) driver(path string) (*batch.Driver, *store.Store, error) {
	targets, err := a.cfg.TargetTable()
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.cfg.DriverOptions(a.logger)
	if err != nil {
		return nil, nil, err
	}
	opts.NewShooter = a.newShooter
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	d, err := batch.New(targets, st, opts)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return d, st, nil
}
