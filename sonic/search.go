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

// search carries the state of one FindSonicRadius call.
type search struct {
	cfg     config
	shooter Shooter
	target  units.MassRate
	res     Result
}

// FindSonicRadius searches for the sonic radius whose solution carries the
// target Mdot. initial is tested as the first midpoint; the bracket itself is
// always anchored on the probe radii derived from bounds.
func FindSonicRadius(ctx context.Context, shooter Shooter, target units.MassRate, initial units.Length, bounds Bounds, opts ...Option) (Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &search{cfg: cfg, shooter: shooter, target: target}

	if err := s.validate(initial, bounds); err != nil {
		return s.fail(FailureInvalidInput, err)
	}

	// 1. Probes.
	first, firstSol, err := s.shoot(ctx, initial)
	if err != nil {
		return s.solverError(err)
	}
	high, _, err := s.shoot(ctx, units.Cm(cfg.highProbe*bounds.Max.Cm()))
	if err != nil {
		return s.solverError(err)
	}
	low, _, err := s.shoot(ctx, units.Cm(cfg.lowProbe*bounds.Min.Cm()))
	if err != nil {
		return s.solverError(err)
	}

	// 2. Monotonicity across all three points ordered by radius.
	s.res.Direction = classify(low, first, high)
	if s.res.Direction == Unknown {
		return s.fail(FailureNonMonotonic, nil)
	}

	// 3. Containment, inclusive.
	lo, hi := low.Mdot, high.Mdot
	if s.res.Direction == Decreasing {
		lo, hi = hi, lo
	}
	if target < lo || target > hi {
		return s.fail(FailureTargetOutOfRange, nil)
	}

	// 4. Bisection in log radius.
	br := Bracket{Min: low, Mid: first, Max: high}
	midSol := firstSol
	if !(first.R > low.R && first.R < high.R) {
		br.Mid, midSol, err = s.shoot(ctx, geomean(low.R, high.R))
		if err != nil {
			return s.solverError(err)
		}
	}
	s.res.History = append(s.res.History, Step{Bracket: br})

	for it := 1; ; it++ {
		s.res.Iterations = it
		if s.within(br.Mid.Mdot) {
			s.res.Converged = true
			s.res.Solution = midSol
			s.res.RSonic = br.Mid.R
			s.res.Mdot = br.Mid.Mdot
			cfg.log.Info("sonic radius found",
				zap.Stringer("r_sonic", br.Mid.R),
				zap.Stringer("mdot", br.Mid.Mdot),
				zap.Stringer("target", target),
				zap.Int("iterations", it),
				zap.Int("evaluations", s.res.Evaluations))
			return s.res, nil
		}
		if it >= cfg.maxIter {
			break
		}

		side := MinSide
		if (br.Mid.Mdot > target) == (s.res.Direction == Increasing) {
			side = MaxSide
		}
		if side == MaxSide {
			br.Max = br.Mid
		} else {
			br.Min = br.Mid
		}
		br.Mid, midSol, err = s.shoot(ctx, geomean(br.Min.R, br.Max.R))
		if err != nil {
			return s.solverError(err)
		}
		s.res.History = append(s.res.History, Step{Iteration: it, Bracket: br, Replaced: side})
		cfg.log.Debug("sonic iteration",
			zap.Int("iteration", it),
			zap.Stringer("replaced", side),
			zap.Stringer("r_min", br.Min.R),
			zap.Stringer("r_mid", br.Mid.R),
			zap.Stringer("r_max", br.Max.R),
			zap.Stringer("mdot_mid", br.Mid.Mdot))
	}

	// 5. Cap exhausted.
	s.res.Mdot = br.Mid.Mdot
	s.res.RSonic = br.Mid.R
	res, err := s.fail(FailureNoConvergence, nil)
	var se *SearchError
	if errors.As(err, &se) {
		se.Last = br.Mid
	}
	return res, err
}

func (s *search) validate(initial units.Length, b Bounds) error {
	switch {
	case s.shooter == nil:
		return errors.New("nil shooter")
	case !(s.target > 0) || math.IsInf(float64(s.target), 0):
		return fmt.Errorf("target Mdot %s must be positive", s.target)
	case !(b.Min > 0) || !(b.Max > b.Min):
		return fmt.Errorf("bounds [%s, %s]", b.Min, b.Max)
	case !(initial > b.Min && initial < b.Max):
		return fmt.Errorf("initial guess %s outside (%s, %s)", initial, b.Min, b.Max)
	case !(s.cfg.relTol > 0 && s.cfg.relTol < 1):
		return fmt.Errorf("relative tolerance %g", s.cfg.relTol)
	case s.cfg.maxIter < 1:
		return fmt.Errorf("max iterations %d", s.cfg.maxIter)
	case !(s.cfg.lowProbe*b.Min.Cm() < s.cfg.highProbe*b.Max.Cm()):
		return fmt.Errorf("probe radii cross for bounds [%s, %s]", b.Min, b.Max)
	}
	return nil
}

// shoot evaluates the solver at r, checking ctx first.
func (s *search) shoot(ctx context.Context, r units.Length) (Probe, *coolingflow.Solution, error) {
	if err := ctx.Err(); err != nil {
		return Probe{}, nil, err
	}
	s.res.Evaluations++
	sol, err := s.shooter.Shoot(ctx, r)
	if err != nil {
		s.cfg.log.Debug("shot failed", zap.Stringer("r_sonic", r), zap.Error(err))
		return Probe{R: r}, nil, err
	}
	p := Probe{R: r, Mdot: sol.Mdot()}
	if len(s.res.Probes) < 3 {
		s.res.Probes = append(s.res.Probes, p)
	}
	s.cfg.log.Debug("shot", zap.Stringer("r_sonic", r), zap.Stringer("mdot", p.Mdot))
	return p, sol, nil
}

func (s *search) within(mdot units.MassRate) bool {
	t := float64(s.target)
	return float64(mdot) > t*(1-s.cfg.relTol) && float64(mdot) < t*(1+s.cfg.relTol)
}

func (s *search) fail(kind FailureKind, err error) (Result, error) {
	s.res.Failure = kind
	se := &SearchError{
		Kind:       kind,
		Target:     s.target,
		Probes:     append([]Probe(nil), s.res.Probes...),
		Iterations: s.res.Iterations,
		Err:        err,
	}
	s.cfg.log.Debug("sonic search failed", zap.Stringer("kind", kind), zap.Error(se))
	return s.res, se
}

// solverError passes context errors through and wraps everything else.
func (s *search) solverError(err error) (Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return s.res, err
	}
	return s.fail(FailureSolver, err)
}

// classify orders three probes by radius and reports a strict trend.
func classify(a, b, c Probe) Direction {
	ps := [3]Probe{a, b, c}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && ps[j].R < ps[j-1].R; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
	switch {
	case ps[0].R == ps[1].R || ps[1].R == ps[2].R:
		return Unknown
	case ps[0].Mdot < ps[1].Mdot && ps[1].Mdot < ps[2].Mdot:
		return Increasing
	case ps[0].Mdot > ps[1].Mdot && ps[1].Mdot > ps[2].Mdot:
		return Decreasing
	}
	return Unknown
}

func geomean(a, b units.Length) units.Length {
	return units.Cm(math.Sqrt(a.Cm() * b.Cm()))
}
