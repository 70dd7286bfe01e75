// SPDX-License-Identifier: MIT

package coolingflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/cgmflow/units"
)

// Defaults for ShootOptions.
const (
	DefaultMaxStep       = 0.1
	DefaultTol           = 1e-6
	DefaultEpsilon       = 1e-3
	DefaultDlnMdlnRInit  = -1.0
	DefaultMinT          = 2e4
	DefaultXLow          = 1e-5
	DefaultXHigh         = 1.0
	DefaultMinOuterRvir  = 2.0
	DefaultMaxBisections = 100
)

// ShootOptions configures Shooter.
//
// Fields:
//   - MaxStep: largest Δln r of one integration step, which is also the
//     coarsest sample spacing of the returned trace.
//   - Tol: relative width of the x-bracket at which bisection stops.
//   - Epsilon: Δln r offset from R_sonic where integration starts.
//   - DlnMdlnRInit: d ln M / d ln r assumed at the sonic point.
//   - TerminateUnbound: stop a trial once its Bernoulli parameter is positive.
//   - CalcInward: also integrate the supersonic branch to R_min.
//   - MinT: either branch stops below this temperature.
//   - XLow, XHigh: bracket for x = vc²/(2cs²) at R_sonic, 0 < XLow < XHigh ≤ 1.
//   - MinOuterRvir: a bisection that never reaches R_max still succeeds
//     when its best trial extends past min(R_max, MinOuterRvir·Rvir).
//   - MaxBisections: cap on trial shots per sonic radius.
//   - Logger: debug output; nil means no logging.
type ShootOptions struct {
	MaxStep          float64
	Tol              float64
	Epsilon          float64
	DlnMdlnRInit     float64
	TerminateUnbound bool
	CalcInward       bool
	MinT             units.Temperature
	XLow             float64
	XHigh            float64
	MinOuterRvir     float64
	MaxBisections    int
	Logger           *zap.Logger
}

// DefaultShootOptions returns the settings used for halo-model searches.
func DefaultShootOptions() ShootOptions {
	return ShootOptions{
		MaxStep:          DefaultMaxStep,
		Tol:              DefaultTol,
		Epsilon:          DefaultEpsilon,
		DlnMdlnRInit:     DefaultDlnMdlnRInit,
		TerminateUnbound: true,
		CalcInward:       true,
		MinT:             units.Kelvin(DefaultMinT),
		XLow:             DefaultXLow,
		XHigh:            DefaultXHigh,
		MinOuterRvir:     DefaultMinOuterRvir,
		MaxBisections:    DefaultMaxBisections,
	}
}

// Validate checks option ranges.
func (o ShootOptions) Validate() error {
	switch {
	case !(o.MaxStep > 0):
		return fmt.Errorf("%w: MaxStep=%g", ErrBadOptions, o.MaxStep)
	case !(o.Tol > 0):
		return fmt.Errorf("%w: Tol=%g", ErrBadOptions, o.Tol)
	case !(o.Epsilon > 0) || o.Epsilon >= o.MaxStep:
		return fmt.Errorf("%w: Epsilon=%g", ErrBadOptions, o.Epsilon)
	case !(o.DlnMdlnRInit < 0):
		return fmt.Errorf("%w: DlnMdlnRInit=%g must be negative", ErrBadOptions, o.DlnMdlnRInit)
	case !(o.XLow > 0) || !(o.XHigh > o.XLow) || o.XHigh > 1:
		return fmt.Errorf("%w: x bracket [%g, %g]", ErrBadOptions, o.XLow, o.XHigh)
	case o.MinT < 0:
		return fmt.Errorf("%w: MinT=%g", ErrBadOptions, o.MinT.K())
	case !(o.MinOuterRvir > 0):
		return fmt.Errorf("%w: MinOuterRvir=%g", ErrBadOptions, o.MinOuterRvir)
	case o.MaxBisections < 1:
		return fmt.Errorf("%w: MaxBisections=%d", ErrBadOptions, o.MaxBisections)
	}
	return nil
}
