package sonic_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/halo"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/units"
)

var testBounds = sonic.Bounds{Min: units.Kpc(0.01), Max: units.Kpc(1000)}

func TestDefaultBounds(t *testing.T) {
	b := sonic.DefaultBounds(units.Kpc(250))
	assert.InEpsilon(t, 250*1e-5, b.Min.Kpc(), 1e-12)
	assert.InEpsilon(t, 2500.0, b.Max.Kpc(), 1e-12)

	b = sonic.DefaultBounds(units.Kpc(2e5))
	assert.InEpsilon(t, 0.1, b.Min.Kpc(), 1e-12, "R_min capped at 0.1 kpc")
}

func TestConvergesOnMonotonicStub(t *testing.T) {
	for _, tc := range []struct {
		name string
		f    func(float64) float64
	}{{"increasing", squared}, {"decreasing", inverse}} {
		for _, target := range []float64{0.02, 1, 37, 900} {
			stub := newStub(tc.f)
			// inverse spans [1/700, 1/0.013]; skip targets it cannot reach.
			if tc.f(0.013) < target && tc.f(700) < target || tc.f(0.013) > target && tc.f(700) > target {
				continue
			}
			res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(target), units.Kpc(1.1), testBounds,
				sonic.WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err, "%s target %g", tc.name, target)
			assert.True(t, res.Converged)
			assert.Equal(t, sonic.FailureNone, res.Failure)
			assert.Less(t, res.Iterations, 200)
			assert.Greater(t, res.Mdot.MsunPerYr(), target*0.99)
			assert.Less(t, res.Mdot.MsunPerYr(), target*1.01)
			assert.InEpsilon(t, tc.f(res.RSonic.Kpc()), res.Mdot.MsunPerYr(), 1e-9)
			require.NotNil(t, res.Solution)
			assert.Equal(t, res.RSonic, res.Solution.RSonic())
			assert.Equal(t, stub.Calls(), res.Evaluations)
			// The initial guess doubles as the first midpoint.
			assert.Equal(t, 3+res.Iterations-1, res.Evaluations)
			if tc.name == "increasing" {
				assert.Equal(t, sonic.Increasing, res.Direction)
			} else {
				assert.Equal(t, sonic.Decreasing, res.Direction)
			}
		}
	}
}

func TestInitialGuessWithinToleranceNeedsNoIteration(t *testing.T) {
	stub := newStub(squared)
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(1.21), units.Kpc(1.1), testBounds)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 3, res.Evaluations)
	assert.Len(t, res.History, 1)
}

func TestBracketNarrowing(t *testing.T) {
	stub := newStub(squared)
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(123), units.Kpc(1.1), testBounds,
		sonic.WithRelTol(1e-4))
	require.NoError(t, err)
	require.Greater(t, len(res.History), 2)

	first := res.History[0]
	assert.Equal(t, sonic.NoSide, first.Replaced)
	assert.InEpsilon(t, 0.013, first.Bracket.Min.R.Kpc(), 1e-12)
	assert.InEpsilon(t, 700.0, first.Bracket.Max.R.Kpc(), 1e-12)
	assert.Equal(t, units.Kpc(1.1), first.Bracket.Mid.R)

	for i := 1; i < len(res.History); i++ {
		prev, cur := res.History[i-1].Bracket, res.History[i].Bracket
		minChanged := cur.Min != prev.Min
		maxChanged := cur.Max != prev.Max
		assert.True(t, minChanged != maxChanged, "exactly one endpoint moves at step %d", i)
		if minChanged {
			assert.Equal(t, sonic.MinSide, res.History[i].Replaced)
			assert.Equal(t, prev.Mid, cur.Min)
		} else {
			assert.Equal(t, sonic.MaxSide, res.History[i].Replaced)
			assert.Equal(t, prev.Mid, cur.Max)
		}
		assert.InEpsilon(t, math.Sqrt(cur.Min.R.Cm()*cur.Max.R.Cm()), cur.Mid.R.Cm(), 1e-12)
		// The target stays bracketed.
		assert.LessOrEqual(t, cur.Min.Mdot.MsunPerYr(), 123.0)
		assert.GreaterOrEqual(t, cur.Max.Mdot.MsunPerYr(), 123.0)
	}
}

func TestNonMonotonic(t *testing.T) {
	stub := newStub(valley)
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(2), units.Kpc(1.1), testBounds)
	require.Error(t, err)
	assert.ErrorIs(t, err, sonic.ErrNonMonotonic)
	assert.Equal(t, sonic.FailureNonMonotonic, res.Failure)
	assert.False(t, res.Converged)
	assert.Equal(t, 3, stub.Calls())

	var se *sonic.SearchError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Probes, 3)
	assert.Equal(t, sonic.FailureNonMonotonic, se.Kind)
}

func TestTargetOutOfRangeUsesOnlyProbes(t *testing.T) {
	for _, target := range []float64{1e7, 1e-6} {
		stub := newStub(squared)
		res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(target), units.Kpc(1.1), testBounds)
		assert.ErrorIs(t, err, sonic.ErrTargetOutOfRange)
		assert.NotErrorIs(t, err, sonic.ErrNoConvergence)
		assert.Equal(t, 3, stub.Calls(), "no shots beyond the probes")
		assert.Equal(t, sonic.FailureTargetOutOfRange, res.Failure)
		assert.Contains(t, err.Error(), "probes")
	}
}

func TestTargetOnProbeIsContained(t *testing.T) {
	stub := newStub(squared)
	high := squared(units.Cm(0.7 * testBounds.Max.Cm()).Kpc())
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(high), units.Kpc(1.1), testBounds)
	require.NoError(t, err)
	assert.True(t, res.Converged)
}

func TestNoConvergence(t *testing.T) {
	stub := newStub(squared)
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(1000), units.Kpc(1.1), testBounds,
		sonic.WithMaxIterations(2))
	assert.ErrorIs(t, err, sonic.ErrNoConvergence)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, sonic.FailureNoConvergence, res.Failure)
	assert.Nil(t, res.Solution)

	var se *sonic.SearchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, res.Mdot, se.Last.Mdot)
	// Iteration 1 tests 1.1 kpc and moves R_min there.
	assert.InEpsilon(t, math.Sqrt(1.1*700), se.Last.R.Kpc(), 1e-9)
	assert.Equal(t, 2, se.Iterations)
}

func TestSolverFailureIsHard(t *testing.T) {
	stub := newStub(squared)
	stub.fail = func(kpc float64) error {
		if kpc > 500 {
			return &coolingflow.SolverFailure{RSonic: units.Kpc(kpc), Err: coolingflow.ErrUnbound}
		}
		return nil
	}
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(5), units.Kpc(1.1), testBounds)
	assert.ErrorIs(t, err, sonic.ErrSolverFailure)
	assert.ErrorIs(t, err, coolingflow.ErrUnbound)
	assert.Equal(t, sonic.FailureSolver, res.Failure)
	assert.Equal(t, 2, stub.Calls())
}

func TestInvalidInput(t *testing.T) {
	stub := newStub(squared)
	ctx := context.Background()

	_, err := sonic.FindSonicRadius(ctx, stub, 0, units.Kpc(1.1), testBounds)
	assert.ErrorIs(t, err, sonic.ErrInvalidInput)
	_, err = sonic.FindSonicRadius(ctx, stub, units.MsunPerYr(1), units.Kpc(2000), testBounds)
	assert.ErrorIs(t, err, sonic.ErrInvalidInput)
	_, err = sonic.FindSonicRadius(ctx, stub, units.MsunPerYr(1), units.Kpc(0.01), testBounds)
	assert.ErrorIs(t, err, sonic.ErrInvalidInput, "initial guess equal to R_min")
	_, err = sonic.FindSonicRadius(ctx, nil, units.MsunPerYr(1), units.Kpc(1.1), testBounds)
	assert.ErrorIs(t, err, sonic.ErrInvalidInput)
	_, err = sonic.FindSonicRadius(ctx, stub, units.MsunPerYr(1), units.Kpc(1.1), sonic.Bounds{Min: units.Kpc(1), Max: units.Kpc(1.2)})
	assert.ErrorIs(t, err, sonic.ErrInvalidInput, "probe radii cross")
	assert.Equal(t, 0, stub.Calls())
}

func TestSeedOutsideProbeInterval(t *testing.T) {
	stub := newStub(squared)
	res, err := sonic.FindSonicRadius(context.Background(), stub, units.MsunPerYr(4), units.Kpc(0.011), testBounds)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InEpsilon(t, math.Sqrt(0.013*700), res.History[0].Bracket.Mid.R.Kpc(), 1e-9)
	assert.Equal(t, 3+res.Iterations, res.Evaluations)
}

func TestCanceledContext(t *testing.T) {
	stub := newStub(squared)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sonic.FindSonicRadius(ctx, stub, units.MsunPerYr(4), units.Kpc(1.1), testBounds)
	assert.ErrorIs(t, err, context.Canceled)
	var se *sonic.SearchError
	assert.False(t, errors.As(err, &se))
	assert.Equal(t, 0, res.Evaluations)
	assert.Equal(t, 0, stub.Calls())
}

func TestOptionPanics(t *testing.T) {
	assert.Panics(t, func() { sonic.WithRelTol(0) })
	assert.Panics(t, func() { sonic.WithRelTol(1) })
	assert.Panics(t, func() { sonic.WithProbeFactors(1.2, 1.3) })
	assert.Panics(t, func() { sonic.WithProbeFactors(0.7, 0.9) })
	assert.Panics(t, func() { sonic.WithMaxIterations(0) })
	assert.NotPanics(t, func() { sonic.WithLogger(nil) })
}

func TestFailureKindStrings(t *testing.T) {
	assert.Equal(t, "non-monotonic", sonic.FailureNonMonotonic.String())
	assert.Equal(t, "solver-failure", sonic.FailureSolver.String())
	assert.Equal(t, "decreasing", sonic.Decreasing.String())
	assert.Equal(t, "max", sonic.MaxSide.String())
}

func TestFindSonicRadiusCoolingFlow(t *testing.T) {
	hc, err := halo.FromLogMvir(12, 0.75, halo.WithMetallicity(0.3), halo.WithVcSlope(-0.1))
	require.NoError(t, err)
	pot, err := coolingflow.NewPowerLaw(hc.VcSlope(), hc.Vvir(), hc.Rvir())
	require.NoError(t, err)
	cool, err := coolingflow.NewCIECooling(hc.Metallicity())
	require.NoError(t, err)
	bounds := sonic.DefaultBounds(hc.Rvir())
	sh, err := coolingflow.NewShooter(pot, cool, bounds.Min, bounds.Max, coolingflow.DefaultShootOptions())
	require.NoError(t, err)

	for _, target := range []float64{2.8, 10} {
		res, err := sonic.FindSonicRadius(context.Background(), sh, units.MsunPerYr(target), units.Kpc(1.1), bounds,
			sonic.WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err, "target %g Msun/yr", target)
		assert.True(t, res.Converged)
		assert.Equal(t, sonic.Increasing, res.Direction)
		assert.InEpsilon(t, target, res.Mdot.MsunPerYr(), 1e-2)
		assert.Greater(t, res.RSonic.Cm(), bounds.Min.Cm())
		assert.Less(t, res.RSonic.Kpc(), 1.1, "seed carries more than the target")

		require.NotNil(t, res.Solution)
		assert.Equal(t, bounds.Max, res.Solution.Outer())
		assert.Equal(t, res.RSonic, res.Solution.RSonic())
	}
}
