package coolingflow

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/cgmflow/units"
)

var (
	// ErrBadPotential indicates invalid potential parameters.
	ErrBadPotential = errors.New("coolingflow: invalid potential")

	// ErrBadCooling indicates invalid cooling-function parameters.
	ErrBadCooling = errors.New("coolingflow: invalid cooling function")

	// ErrBadOptions indicates inconsistent ShootOptions or radii.
	ErrBadOptions = errors.New("coolingflow: invalid shooting options")

	// ErrInvalidSolution indicates a trace that violates Solution invariants
	// (too few samples, non-increasing radii, non-positive T or nH).
	ErrInvalidSolution = errors.New("coolingflow: invalid solution trace")

	// ErrSonicOutOfRange indicates a sonic radius outside (R_min, R_max).
	ErrSonicOutOfRange = errors.New("coolingflow: sonic radius outside integration range")

	// ErrUnbound indicates every trial solution became gravitationally unbound
	// before reaching the outer radius.
	ErrUnbound = errors.New("coolingflow: flow becomes unbound")

	// ErrNotIntegrable indicates the subsonic branch could not be integrated
	// to the outer radius (second sonic crossing, runaway cooling, overflow).
	ErrNotIntegrable = errors.New("coolingflow: flow not integrable to outer radius")
)

// SolverFailure reports a failed shot from one sonic radius.
type SolverFailure struct {
	RSonic  units.Length // trial sonic radius
	Reached units.Length // outermost radius of the best trial
	Err     error        // one of the sentinels above
}

func (e *SolverFailure) Error() string {
	return fmt.Sprintf("%v (R_sonic=%s, reached %s)", e.Err, e.RSonic, e.Reached)
}

func (e *SolverFailure) Unwrap() error { return e.Err }
