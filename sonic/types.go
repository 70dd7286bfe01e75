// SPDX-License-Identifier: MIT

package sonic

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/units"
)

// Sentinel errors matched by *SearchError.
var (
	// ErrInvalidInput indicates a non-positive target, an initial guess outside
	// (R_min, R_max) or inconsistent bounds.
	ErrInvalidInput = errors.New("sonic: invalid search input")

	// ErrNonMonotonic indicates the three probes do not order Mdot strictly.
	ErrNonMonotonic = errors.New("sonic: Mdot is not monotonic in sonic radius")

	// ErrTargetOutOfRange indicates the target lies outside the probed Mdots.
	ErrTargetOutOfRange = errors.New("sonic: target Mdot outside bracket")

	// ErrNoConvergence indicates the iteration cap was exhausted.
	ErrNoConvergence = errors.New("sonic: search did not converge")

	// ErrSolverFailure indicates the shooting solver failed at a probed radius.
	ErrSolverFailure = errors.New("sonic: shooting solver failed")
)

// Shooter produces the flow solution for one trial sonic radius.
// *coolingflow.Shooter implements it.
type Shooter interface {
	Shoot(ctx context.Context, rSonic units.Length) (*coolingflow.Solution, error)
}

// Bounds are the absolute radius limits of the search.
type Bounds struct {
	Min units.Length
	Max units.Length
}

// DefaultBounds returns R_min = min(0.1 kpc, 1e-5·Rvir) and R_max = 10·Rvir.
func DefaultBounds(rvir units.Length) Bounds {
	return Bounds{
		Min: units.Cm(math.Min(units.Kpc(0.1).Cm(), 1e-5*rvir.Cm())),
		Max: units.Cm(10 * rvir.Cm()),
	}
}

// Direction is the ordering of Mdot with increasing sonic radius.
type Direction int

const (
	// Unknown is reported before classification or for non-monotonic probes.
	Unknown Direction = iota
	Increasing
	Decreasing
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	default:
		return "unknown"
	}
}

// FailureKind enumerates why a search stopped without a solution.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidInput
	FailureNonMonotonic
	FailureTargetOutOfRange
	FailureNoConvergence
	FailureSolver
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidInput:
		return "invalid-input"
	case FailureNonMonotonic:
		return "non-monotonic"
	case FailureTargetOutOfRange:
		return "target-out-of-range"
	case FailureNoConvergence:
		return "no-convergence"
	case FailureSolver:
		return "solver-failure"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureInvalidInput:
		return ErrInvalidInput
	case FailureNonMonotonic:
		return ErrNonMonotonic
	case FailureTargetOutOfRange:
		return ErrTargetOutOfRange
	case FailureNoConvergence:
		return ErrNoConvergence
	case FailureSolver:
		return ErrSolverFailure
	}
	return nil
}

// Probe is one solver evaluation.
type Probe struct {
	R    units.Length
	Mdot units.MassRate
}

// Side names a bracket endpoint.
type Side int

const (
	NoSide Side = iota
	MinSide
	MaxSide
)

func (s Side) String() string {
	switch s {
	case MinSide:
		return "min"
	case MaxSide:
		return "max"
	default:
		return "-"
	}
}

// Bracket is the current search interval and its midpoint.
type Bracket struct {
	Min, Mid, Max Probe
}

// Step records the bracket after one iteration. Replaced is NoSide for the
// initial bracket.
type Step struct {
	Iteration int
	Bracket   Bracket
	Replaced  Side
}

// Result is the outcome of FindSonicRadius.
//
// On success Converged is true and Solution, RSonic and Mdot describe the
// accepted midpoint. On failure Failure names the reason and Probes and
// History hold whatever was evaluated before stopping.
type Result struct {
	Solution    *coolingflow.Solution
	Converged   bool
	Iterations  int // midpoints tested
	Evaluations int // solver calls
	RSonic      units.Length
	Mdot        units.MassRate
	Direction   Direction
	Probes      []Probe // initial guess, high probe, low probe
	History     []Step
	Failure     FailureKind
}

// SearchError describes a failed search.
type SearchError struct {
	Kind       FailureKind
	Target     units.MassRate
	Probes     []Probe // probes evaluated so far
	Last       Probe   // last midpoint, for ErrNoConvergence
	Iterations int
	Err        error // solver error for FailureSolver, detail otherwise
}

func (e *SearchError) Error() string {
	msg := e.Kind.sentinel().Error()
	switch e.Kind {
	case FailureNonMonotonic, FailureTargetOutOfRange:
		msg += fmt.Sprintf(" (target %s, probes %s)", e.Target, formatProbes(e.Probes))
	case FailureNoConvergence:
		msg += fmt.Sprintf(" after %d iterations (target %s, last %s at %s)", e.Iterations, e.Target, e.Last.Mdot, e.Last.R)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the sentinel of e.Kind.
func (e *SearchError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *SearchError) Unwrap() error { return e.Err }

func formatProbes(ps []Probe) string {
	s := "["
	for i, p := range ps {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s@%s", p.Mdot, p.R)
	}
	return s + "]"
}

// Defaults for the search options.
const (
	DefaultRelTol        = 1e-2
	DefaultHighProbe     = 0.7
	DefaultLowProbe      = 1.3
	DefaultMaxIterations = 200
)

type config struct {
	relTol    float64
	highProbe float64
	lowProbe  float64
	maxIter   int
	log       *zap.Logger
}

func defaultConfig() config {
	return config{
		relTol:    DefaultRelTol,
		highProbe: DefaultHighProbe,
		lowProbe:  DefaultLowProbe,
		maxIter:   DefaultMaxIterations,
		log:       zap.NewNop(),
	}
}

// Option configures FindSonicRadius.
type Option func(*config)

// WithRelTol sets the relative Mdot tolerance; it must lie in (0, 1).
func WithRelTol(tol float64) Option {
	if !(tol > 0 && tol < 1) {
		panic(fmt.Sprintf("sonic: WithRelTol(%g): tolerance must be in (0, 1)", tol))
	}
	return func(c *config) { c.relTol = tol }
}

// WithProbeFactors sets the probe radii to high·R_max and low·R_min.
// high must lie in (0, 1] and low must be at least 1.
func WithProbeFactors(high, low float64) Option {
	if !(high > 0 && high <= 1) || !(low >= 1) || math.IsInf(low, 0) {
		panic(fmt.Sprintf("sonic: WithProbeFactors(%g, %g): invalid factors", high, low))
	}
	return func(c *config) { c.highProbe, c.lowProbe = high, low }
}

// WithMaxIterations caps the number of midpoints tested.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("sonic: WithMaxIterations(%d): need at least one", n))
	}
	return func(c *config) { c.maxIter = n }
}

// WithLogger routes search diagnostics to l. nil restores the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.log = l
	}
}
