// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/cosmo"
	"github.com/katalvlaran/cgmflow/halo"
	"github.com/katalvlaran/cgmflow/ionbal"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/store"
	"github.com/katalvlaran/cgmflow/units"
)

// DefaultSeedKpc is the first sonic-radius guess of every tuple.
const DefaultSeedKpc = 1.1

// ErrBadOptions indicates invalid driver options.
var ErrBadOptions = errors.New("batch: invalid options")

// Store receives one output tree per cell.
type Store interface {
	Put(ctx context.Context, key string, n *store.Node) error
}

// ShooterFactory builds the shooting solver of one halo within bounds.
type ShooterFactory func(hc halo.Context, b sonic.Bounds) (sonic.Shooter, error)

// CoolingFlowShooter returns a factory wiring a power-law potential and CIE
// cooling into coolingflow.NewShooter.
func CoolingFlowShooter(opts coolingflow.ShootOptions) ShooterFactory {
	return func(hc halo.Context, b sonic.Bounds) (sonic.Shooter, error) {
		pot, err := coolingflow.NewPowerLaw(hc.VcSlope(), hc.Vvir(), hc.Rvir())
		if err != nil {
			return nil, err
		}
		cool, err := coolingflow.NewCIECooling(hc.Metallicity())
		if err != nil {
			return nil, err
		}
		s, err := coolingflow.NewShooter(pot, cool, b.Min, b.Max, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Options configures a Driver.
type Options struct {
	Cosmology     cosmo.Params
	Seed          units.Length
	RelTol        float64
	MaxIterations int
	Shoot         coolingflow.ShootOptions
	PostProcess   []PostProcess
	IonTable      ionbal.Table
	Workers       int
	Logger        *zap.Logger

	// EntropySlope, when set, is attached to every halo and persisted.
	EntropySlope *float64

	// NewShooter defaults to CoolingFlowShooter(Shoot).
	NewShooter ShooterFactory

	// RunID tags every written group; a random UUID when empty.
	RunID string
}

// DefaultOptions returns Planck15, a 1.1 kpc seed, the default search and
// shooting settings, fCGM post-processing and a single worker.
func DefaultOptions() Options {
	return Options{
		Cosmology:     cosmo.Planck15(),
		Seed:          units.Kpc(DefaultSeedKpc),
		RelTol:        sonic.DefaultRelTol,
		MaxIterations: sonic.DefaultMaxIterations,
		Shoot:         coolingflow.DefaultShootOptions(),
		PostProcess:   []PostProcess{DefaultGasFraction()},
		IonTable:      ionbal.CIETable{},
		Workers:       1,
	}
}

// Driver runs grids of sonic-radius searches.
type Driver struct {
	targets TargetTable
	out     Store
	opts    Options
	log     *zap.Logger
}

// New validates opts and returns a Driver writing to out.
func New(targets TargetTable, out Store, opts Options) (*Driver, error) {
	if targets == nil || out == nil {
		return nil, fmt.Errorf("%w: nil target table or store", ErrBadOptions)
	}
	if err := opts.Cosmology.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOptions, err)
	}
	switch {
	case !(opts.Seed > 0):
		return nil, fmt.Errorf("%w: seed %s", ErrBadOptions, opts.Seed)
	case !(opts.RelTol > 0 && opts.RelTol < 1):
		return nil, fmt.Errorf("%w: relative tolerance %g", ErrBadOptions, opts.RelTol)
	case opts.MaxIterations < 1:
		return nil, fmt.Errorf("%w: max iterations %d", ErrBadOptions, opts.MaxIterations)
	case opts.Workers < 1:
		return nil, fmt.Errorf("%w: workers %d", ErrBadOptions, opts.Workers)
	case opts.EntropySlope != nil && (math.IsNaN(*opts.EntropySlope) || math.IsInf(*opts.EntropySlope, 0)):
		return nil, fmt.Errorf("%w: entropy slope %g", ErrBadOptions, *opts.EntropySlope)
	}
	for _, pp := range opts.PostProcess {
		if pp == nil {
			return nil, fmt.Errorf("%w: nil post-process", ErrBadOptions)
		}
		if err := pp.validate(); err != nil {
			return nil, err
		}
		if _, ok := pp.(ColumnDensity); ok && opts.IonTable == nil {
			return nil, fmt.Errorf("%w: %s needs an ion table", ErrBadOptions, pp.Name())
		}
	}
	if opts.NewShooter == nil {
		if err := opts.Shoot.Validate(); err != nil {
			return nil, err
		}
		opts.NewShooter = CoolingFlowShooter(opts.Shoot)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Driver{
		targets: targets,
		out:     out,
		opts:    opts,
		log:     opts.Logger.With(zap.String("run_id", opts.RunID)),
	}, nil
}

// RunID identifies this driver's output.
func (d *Driver) RunID() string { return d.opts.RunID }

// Outcome is the result of one cell.
type Outcome struct {
	Cell   Cell
	Key    string
	Target units.MassRate
	Result sonic.Result

	// Failed is set when the cell produced no solution; Err says why.
	Failed bool
	Err    error
}

// Summary counts the cells of a run.
type Summary struct {
	RunID     string
	Cells     int
	Converged int
	Failed    int
}

// Solve runs one cell: target lookup, search seeded at seed, post-processing.
// Cell-level failures are reported in Outcome and never returned as error;
// only context errors are.
func (d *Driver) Solve(ctx context.Context, c Cell, seed units.Length) (Outcome, error) {
	out := Outcome{Cell: c, Key: c.Key()}
	fail := func(err error) (Outcome, error) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, err
		}
		out.Failed, out.Err = true, err
		return out, nil
	}

	hc, err := d.halo(c)
	if err != nil {
		return fail(err)
	}
	out.Target, err = d.targets.Target(c)
	if err != nil {
		return fail(err)
	}
	bounds := sonic.DefaultBounds(hc.Rvir())
	shooter, err := d.opts.NewShooter(hc, bounds)
	if err != nil {
		return fail(err)
	}

	out.Result, err = sonic.FindSonicRadius(ctx, shooter, out.Target, seedWithin(seed, bounds), bounds,
		sonic.WithRelTol(d.opts.RelTol),
		sonic.WithMaxIterations(d.opts.MaxIterations),
		sonic.WithLogger(d.log.With(zap.String("key", out.Key))))
	if err != nil {
		return fail(err)
	}

	node := d.node(c, hc, out.Target, bounds, out.Result)
	for _, pp := range d.opts.PostProcess {
		if err := pp.apply(out.Result.Solution, hc, d.opts.IonTable, node); err != nil {
			return fail(err)
		}
	}
	if err := d.out.Put(ctx, out.Key, node); err != nil {
		return out, err
	}
	return out, nil
}

// Run walks the grid. Tuples run on up to Options.Workers goroutines; within a
// tuple halo masses are solved in ascending order, each seeded with the
// previous converged sonic radius. A duplicate key, a store error or a
// cancelled context stops the run.
func (d *Driver) Run(ctx context.Context, g Grid) (Summary, error) {
	sum := Summary{RunID: d.opts.RunID}
	if err := g.Validate(); err != nil {
		return sum, err
	}

	var mu sync.Mutex
	count := func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		sum.Cells++
		if o.Failed {
			sum.Failed++
		} else {
			sum.Converged++
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.opts.Workers)
	for _, t := range g.tuples() {
		t := t
		eg.Go(func() error { return d.runTuple(ctx, t, count) })
	}
	err := eg.Wait()

	d.log.Info("batch finished",
		zap.Int("cells", sum.Cells),
		zap.Int("converged", sum.Converged),
		zap.Int("failed", sum.Failed),
		zap.Error(err))
	return sum, err
}

func (d *Driver) runTuple(ctx context.Context, t tuple, count func(Outcome)) error {
	seed := d.opts.Seed
	for _, logM := range t.logMvirs {
		o, err := d.Solve(ctx, t.cell(logM), seed)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Key, err)
		}
		if o.Failed {
			d.log.Warn("cell failed",
				zap.String("key", o.Key),
				zap.Stringer("target", o.Target),
				zap.Stringer("seed", seed),
				zap.Error(o.Err))
			if err := d.out.Put(ctx, o.Key, failedNode()); err != nil {
				return fmt.Errorf("%s: %w", o.Key, err)
			}
		} else {
			seed = o.Result.RSonic
		}
		count(o)
	}
	return nil
}

func (d *Driver) halo(c Cell) (hc halo.Context, err error) {
	if !(c.Metallicity > 0) || math.IsInf(c.Metallicity, 0) || math.IsNaN(c.VcSlope) || math.IsInf(c.VcSlope, 0) {
		return hc, fmt.Errorf("%w: metallicity %g, vc slope %g", ErrBadGrid, c.Metallicity, c.VcSlope)
	}
	opts := []halo.Option{
		halo.WithCosmology(d.opts.Cosmology),
		halo.WithMetallicity(c.Metallicity),
		halo.WithVcSlope(c.VcSlope),
	}
	if k := d.opts.EntropySlope; k != nil {
		opts = append(opts, halo.WithEntropySlope(*k))
	}
	return halo.FromLogMvir(c.LogMvir, c.Redshift, opts...)
}

// seedWithin returns seed, or the geometric mean of the default probe radii
// when seed is outside the open probe interval.
func seedWithin(seed units.Length, b sonic.Bounds) units.Length {
	lo := sonic.DefaultLowProbe * b.Min.Cm()
	hi := sonic.DefaultHighProbe * b.Max.Cm()
	if s := seed.Cm(); s > lo && s < hi {
		return seed
	}
	return units.Cm(math.Sqrt(lo * hi))
}
