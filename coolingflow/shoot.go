// SPDX-License-Identifier: MIT

package coolingflow

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/katalvlaran/cgmflow/units"
)

// Shooter integrates transonic cooling flows in a fixed potential and
// cooling function between R_min and R_max.
type Shooter struct {
	pot  Potential
	cool Cooling
	rMin units.Length
	rMax units.Length
	opts ShootOptions
	log  *zap.Logger

	// phiEsc is the potential a parcel must climb to in order to escape:
	// Phi(∞) when the potential converges, Phi(R_max) otherwise.
	phiEsc float64
}

// NewShooter validates its inputs and returns a Shooter.
func NewShooter(pot Potential, cool Cooling, rMin, rMax units.Length, opts ShootOptions) (*Shooter, error) {
	if pot == nil || cool == nil {
		return nil, fmt.Errorf("%w: nil potential or cooling", ErrBadOptions)
	}
	if !(rMin > 0) || !(rMax > rMin) {
		return nil, fmt.Errorf("%w: radii R_min=%s R_max=%s", ErrBadOptions, rMin, rMax)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	phiEsc := pot.Phi(rMax)
	if c, ok := pot.(Converging); ok {
		if v, finite := c.PhiInf(); finite {
			phiEsc = v
		}
	}
	return &Shooter{pot: pot, cool: cool, rMin: rMin, rMax: rMax, opts: opts, log: log, phiEsc: phiEsc}, nil
}

// Bounds returns R_min and R_max.
func (s *Shooter) Bounds() (rMin, rMax units.Length) { return s.rMin, s.rMax }

// Options returns the options the Shooter was built with.
func (s *Shooter) Options() ShootOptions { return s.opts }

// outcome classifies how one outward trial ended.
type outcome int

const (
	reachedOuter outcome = iota // integrated to the end radius
	wentUnbound                 // Bernoulli parameter turned positive
	cooled                      // temperature fell below MinT
	stalled                     // sonic crossing, step underflow or overflow
)

func (o outcome) String() string {
	switch o {
	case reachedOuter:
		return "reached"
	case wentUnbound:
		return "unbound"
	case cooled:
		return "cooled"
	default:
		return "stalled"
	}
}

// hot reports whether the trial ended on the hot side of the bracket.
// Everything that is not unbound counts as too cold.
func (o outcome) hot() bool { return o == wentUnbound }

// trial is one outward integration for a fixed sonic-point parameter x.
type trial struct {
	x       float64
	sonic   sonicPoint
	out     []Sample
	end     outcome
	reached units.Length
}

// sonicPoint holds the gas state at R_sonic for a given x = vc²/(2cs²).
type sonicPoint struct {
	r    float64 // cm
	u    float64 // cm/s, equals cs
	T    float64 // K
	nH   float64 // cm⁻³
	q    float64 // r / (u t_cool)
	mdot float64 // g/s
}

// Shoot returns the transonic solution with sonic point rSonic.
//
// The sonic-point parameter x = vc²/(2cs²) is bisected in [XLow, XHigh].
// Small x is hot gas that escapes the halo, x near 1 is gas that cools or
// turns supersonic again before R_max. The two ends must fall on different
// sides and the bracket is narrowed until a trial reaches R_max or the
// bracket is thinner than Tol·x. Failures are returned as *SolverFailure.
func (s *Shooter) Shoot(ctx context.Context, rSonic units.Length) (*Solution, error) {
	if !(rSonic > s.rMin) || !(rSonic < s.rMax) {
		return nil, &SolverFailure{RSonic: rSonic, Err: ErrSonicOutOfRange}
	}

	lo, err := s.trial(ctx, rSonic, s.opts.XLow)
	if err != nil {
		return nil, err
	}
	if lo.end == reachedOuter {
		return s.finish(lo)
	}
	hi, err := s.trial(ctx, rSonic, s.opts.XHigh)
	if err != nil {
		return nil, err
	}
	if hi.end == reachedOuter {
		return s.finish(hi)
	}
	if lo.end.hot() == hi.end.hot() {
		return nil, s.failure(rSonic, farthest(lo, hi))
	}

	for i := 0; i < s.opts.MaxBisections && hi.x-lo.x > s.opts.Tol*hi.x; i++ {
		mid, err := s.trial(ctx, rSonic, 0.5*(lo.x+hi.x))
		if err != nil {
			return nil, err
		}
		if mid.end == reachedOuter {
			return s.finish(mid)
		}
		if mid.end.hot() == lo.end.hot() {
			lo = mid
		} else {
			hi = mid
		}
	}

	best := farthest(lo, hi)
	need := math.Min(s.rMax.Cm(), s.opts.MinOuterRvir*s.pot.Rvir().Cm())
	if len(best.out) == 0 || best.reached.Cm() < need {
		return nil, s.failure(rSonic, best)
	}
	return s.finish(best)
}

func farthest(a, b trial) trial {
	if b.reached > a.reached {
		return b
	}
	return a
}

func (s *Shooter) failure(rSonic units.Length, t trial) error {
	reason := ErrNotIntegrable
	if t.end == wentUnbound {
		reason = ErrUnbound
	}
	return &SolverFailure{RSonic: rSonic, Reached: t.reached, Err: reason}
}

// finish attaches the optional supersonic inner branch and builds the Solution.
func (s *Shooter) finish(t trial) (*Solution, error) {
	var inner []Sample
	if s.opts.CalcInward {
		inner = s.innerBranch(t.sonic)
	}
	samples := make([]Sample, 0, len(inner)+1+len(t.out))
	for i := len(inner) - 1; i >= 0; i-- {
		samples = append(samples, inner[i])
	}
	samples = append(samples, Sample{
		R:  units.Cm(t.sonic.r),
		T:  units.Kelvin(t.sonic.T),
		NH: units.PerCm3(t.sonic.nH),
		V:  units.CmPerS(t.sonic.u),
	})
	samples = append(samples, t.out...)

	s.log.Debug("shot converged",
		zap.Stringer("r_sonic", units.Cm(t.sonic.r)),
		zap.Float64("x", t.x),
		zap.Stringer("mdot", units.MassRate(t.sonic.mdot)),
		zap.Int("samples", len(samples)))

	return NewSolution(samples, units.MassRate(t.sonic.mdot), units.Cm(t.sonic.r), s.pot, s.cool)
}

// innerBranch integrates the supersonic branch inward. A branch that reaches
// R_min or cools below MinT is kept; one that stalls or turns subsonic again
// is dropped and the solution starts at R_sonic.
func (s *Shooter) innerBranch(sp sonicPoint) []Sample {
	inner, end := s.integrate(sp, -1)
	if end == stalled {
		s.log.Debug("inner branch dropped",
			zap.Stringer("r_sonic", units.Cm(sp.r)),
			zap.Int("samples", len(inner)))
		return nil
	}
	return inner
}

// trial shoots outward from rSonic for one value of x.
func (s *Shooter) trial(ctx context.Context, rSonic units.Length, x float64) (trial, error) {
	if err := ctx.Err(); err != nil {
		return trial{}, err
	}
	t := trial{x: x, reached: rSonic, end: stalled}
	sp, ok := s.sonicPoint(rSonic.Cm(), x)
	if ok {
		t.sonic = sp
		t.out, t.end = s.integrate(sp, +1)
		if n := len(t.out); n > 0 {
			t.reached = t.out[n-1].R
		}
	}
	s.log.Debug("shot trial",
		zap.Float64("x", x),
		zap.Stringer("end", t.end),
		zap.Stringer("reached", t.reached))
	return t, nil
}

// sonicPoint fixes the gas state at r for x = vc²/(2cs²). The numerator of
// d ln u / ds vanishes there for q = 2γ(1 − x); the density follows from that
// cooling rate, iterated because Λ may depend on nH.
func (s *Shooter) sonicPoint(r, x float64) (sonicPoint, bool) {
	vc := s.pot.Vc(units.Cm(r)).CmPerS()
	cs2 := vc * vc / (2 * x)
	u := math.Sqrt(cs2)
	T := cs2 * Mu * units.ProtonMass / (Gamma * units.Kb)
	q := 2 * Gamma * (1 - x)
	tcool := r / (u * q)

	nH := 1e-3
	for i := 0; i < 50; i++ {
		lambda := s.cool.Lambda(units.Kelvin(T), units.PerCm3(nH))
		if !(lambda > 0) {
			return sonicPoint{}, false
		}
		next := units.Kb * T / (XH * Mu * (Gamma - 1) * tcool * lambda)
		if math.Abs(next-nH) <= 1e-10*next {
			nH = next
			break
		}
		nH = next
	}
	mdot := 4 * math.Pi * r * r * u * nH * units.ProtonMass / XH
	if !finite(T, nH, mdot) || !(mdot > 0) {
		return sonicPoint{}, false
	}
	return sonicPoint{r: r, u: u, T: T, nH: nH, q: q, mdot: mdot}, true
}

// state is the integration variable: y = (ln u, ln T) at s = ln r.
type state [2]float64

// flowState evaluates the local quantities of the flow at (s, y).
type flowState struct {
	r, u, T, nH, cs2, mach2 float64
}

func (s *Shooter) local(mdot, lnr float64, y state) flowState {
	r := math.Exp(lnr)
	u := math.Exp(y[0])
	T := math.Exp(y[1])
	cs2 := Gamma * units.Kb * T / (Mu * units.ProtonMass)
	return flowState{
		r:     r,
		u:     u,
		T:     T,
		nH:    mdot * XH / (4 * math.Pi * r * r * u * units.ProtonMass),
		cs2:   cs2,
		mach2: u * u / cs2,
	}
}

// derivs returns dy/ds, or false when the right-hand side is not finite.
func (s *Shooter) derivs(mdot, lnr float64, y state) (state, bool) {
	f := s.local(mdot, lnr, y)
	vc := s.pot.Vc(units.Cm(f.r)).CmPerS()
	lambda := s.cool.Lambda(units.Kelvin(f.T), units.PerCm3(f.nH))
	tcool := units.Kb * f.T / (XH * Mu * (Gamma - 1) * f.nH * lambda)
	q := f.r / (f.u * tcool)

	dlnu := (2 - vc*vc/f.cs2 - q/Gamma) / (f.mach2 - 1)
	dlnT := q - (Gamma-1)*(2+dlnu)
	if !finite(dlnu, dlnT) {
		return state{}, false
	}
	return state{dlnu, dlnT}, true
}

// rk4 advances y by one classical Runge-Kutta step of size h.
func (s *Shooter) rk4(mdot, lnr, h float64, y state) (state, bool) {
	k1, ok1 := s.derivs(mdot, lnr, y)
	k2, ok2 := s.derivs(mdot, lnr+h/2, axpy(y, h/2, k1))
	k3, ok3 := s.derivs(mdot, lnr+h/2, axpy(y, h/2, k2))
	k4, ok4 := s.derivs(mdot, lnr+h, axpy(y, h, k3))
	if !(ok1 && ok2 && ok3 && ok4) {
		return state{}, false
	}
	var dy state
	for i := range dy {
		dy[i] = h * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i]) / 6
	}
	return dy, finite(dy[0], dy[1])
}

func axpy(y state, a float64, k state) state {
	return state{y[0] + a*k[0], y[1] + a*k[1]}
}

// Step control.
const (
	maxDelta    = 0.1  // largest accepted |Δ ln u| or |Δ ln T| per step
	minStepFrac = 1e-7 // smallest step as a fraction of MaxStep
	maxSteps    = 200000
)

// integrate runs the branch starting Epsilon away from the sonic point in
// direction dir (+1 outward, -1 inward) and returns its samples in the order
// they were produced.
func (s *Shooter) integrate(sp sonicPoint, dir float64) ([]Sample, outcome) {
	// L'Hôpital slopes at the sonic point for the assumed d ln M / d ln r.
	dlnM := s.opts.DlnMdlnRInit
	b := (sp.q - (Gamma-1)*(2+dlnM)) / (1 + (Gamma-1)/2)
	a := dlnM + 0.5*b

	eps := dir * s.opts.Epsilon
	lnr := math.Log(sp.r) + eps
	y := state{math.Log(sp.u) + a*eps, math.Log(sp.T) + b*eps}

	end := math.Log(s.rMax.Cm())
	if dir < 0 {
		end = math.Log(s.rMin.Cm())
	}
	if dir*(end-lnr) <= 0 {
		return nil, stalled
	}

	samples := make([]Sample, 0, 64)
	if res := s.check(sp.mdot, lnr, y, dir); res != nil {
		return samples, *res
	}
	samples = append(samples, s.sample(sp.mdot, lnr, y))

	h := s.opts.MaxStep
	minStep := minStepFrac * s.opts.MaxStep
	for n := 0; n < maxSteps; n++ {
		if dir*(end-lnr) <= 0 {
			return samples, reachedOuter
		}
		step := math.Min(h, dir*(end-lnr))
		dy, ok := s.rk4(sp.mdot, lnr, dir*step, y)
		if !ok || math.Abs(dy[0]) > maxDelta || math.Abs(dy[1]) > maxDelta {
			h = step / 2
			if h < minStep {
				return samples, stalled
			}
			continue
		}

		if step >= dir*(end-lnr) {
			lnr = end
		} else {
			lnr += dir * step
		}
		y = state{y[0] + dy[0], y[1] + dy[1]}
		if res := s.check(sp.mdot, lnr, y, dir); res != nil {
			return samples, *res
		}
		smp := s.sample(sp.mdot, lnr, y)
		if lnr == end {
			if dir > 0 {
				smp.R = s.rMax
			} else {
				smp.R = s.rMin
			}
		}
		samples = append(samples, smp)
		h = math.Min(2*step, s.opts.MaxStep)
	}
	return samples, stalled
}

// check returns a terminal outcome for the state, or nil to keep going.
func (s *Shooter) check(mdot, lnr float64, y state, dir float64) *outcome {
	stop := stalled
	f := s.local(mdot, lnr, y)
	switch {
	case !finite(f.u, f.T, f.nH):
		return &stop
	case f.T < s.opts.MinT.K():
		stop = cooled
		return &stop
	case dir > 0 && f.mach2 >= 1:
		return &stop
	case dir < 0 && f.mach2 <= 1:
		return &stop
	}
	if dir > 0 && s.opts.TerminateUnbound {
		bern := 0.5*f.u*f.u + f.cs2/(Gamma-1) + s.pot.Phi(units.Cm(f.r)) - s.phiEsc
		if bern > 0 {
			unbound := wentUnbound
			return &unbound
		}
	}
	return nil
}

func (s *Shooter) sample(mdot, lnr float64, y state) Sample {
	f := s.local(mdot, lnr, y)
	return Sample{
		R:  units.Cm(f.r),
		T:  units.Kelvin(f.T),
		NH: units.PerCm3(f.nH),
		V:  units.CmPerS(f.u),
	}
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
