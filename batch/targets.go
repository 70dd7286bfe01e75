// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/katalvlaran/cgmflow/units"
)

// ErrNoTarget indicates a cell outside the target table.
var ErrNoTarget = errors.New("batch: no target Mdot for cell")

// TargetTable supplies the Mdot each cell is solved for.
type TargetTable interface {
	Target(c Cell) (units.MassRate, error)
}

// PercentileTable interpolates log10 Mdot [Msun/yr] linearly in log Mvir,
// separately for each tabulated percentile. Masses outside the tabulated
// range and untabulated percentiles are errors.
type PercentileTable struct {
	redshift float64
	minLogM  float64
	maxLogM  float64
	curves   map[float64]interp.PiecewiseLinear
}

// percentileKey rounds p so 0.16 from YAML and 0.16 from code agree.
func percentileKey(p float64) float64 { return math.Round(p*1e6) / 1e6 }

// NewPercentileTable builds a table from log Mvir nodes and one log Mdot
// curve per percentile.
func NewPercentileTable(redshift float64, logMvir []float64, logMdot map[float64][]float64) (*PercentileTable, error) {
	if len(logMvir) < 2 {
		return nil, fmt.Errorf("%w: need at least two mass nodes", ErrNoTarget)
	}
	for i := 1; i < len(logMvir); i++ {
		if !(logMvir[i] > logMvir[i-1]) {
			return nil, fmt.Errorf("%w: mass nodes must increase", ErrNoTarget)
		}
	}
	if len(logMdot) == 0 {
		return nil, fmt.Errorf("%w: no percentiles", ErrNoTarget)
	}
	t := &PercentileTable{
		redshift: redshift,
		minLogM:  logMvir[0],
		maxLogM:  logMvir[len(logMvir)-1],
		curves:   make(map[float64]interp.PiecewiseLinear, len(logMdot)),
	}
	for p, ys := range logMdot {
		if len(ys) != len(logMvir) {
			return nil, fmt.Errorf("%w: percentile %g has %d values for %d masses", ErrNoTarget, p, len(ys), len(logMvir))
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(logMvir, ys); err != nil {
			return nil, err
		}
		t.curves[percentileKey(p)] = pl
	}
	return t, nil
}

// Percentiles lists the tabulated percentiles in ascending order.
func (t *PercentileTable) Percentiles() []float64 {
	out := make([]float64, 0, len(t.curves))
	for p := range t.curves {
		out = append(out, p)
	}
	sort.Float64s(out)
	return out
}

// Target implements TargetTable.
func (t *PercentileTable) Target(c Cell) (units.MassRate, error) {
	pl, ok := t.curves[percentileKey(c.Percentile)]
	if !ok {
		return 0, fmt.Errorf("%w: percentile %g not tabulated", ErrNoTarget, c.Percentile)
	}
	if c.LogMvir < t.minLogM || c.LogMvir > t.maxLogM {
		return 0, fmt.Errorf("%w: log Mvir %.2f outside [%.2f, %.2f]", ErrNoTarget, c.LogMvir, t.minLogM, t.maxLogM)
	}
	if math.Abs(c.Redshift-t.redshift) > 0.5 {
		return 0, fmt.Errorf("%w: redshift %g far from table redshift %g", ErrNoTarget, c.Redshift, t.redshift)
	}
	return units.MsunPerYr(math.Pow(10, pl.Predict(c.LogMvir))), nil
}
