package sonic_test

import (
	"context"
	"math"
	"sync"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/units"
)

// stubShooter maps a sonic radius to Mdot through an analytic function of
// R in kpc (Mdot in Msun/yr) and counts its calls.
type stubShooter struct {
	mu    sync.Mutex
	mdot  func(kpc float64) float64
	fail  func(kpc float64) error
	calls []units.Length
}

func newStub(f func(kpc float64) float64) *stubShooter { return &stubShooter{mdot: f} }

func (s *stubShooter) Shoot(_ context.Context, r units.Length) (*coolingflow.Solution, error) {
	s.mu.Lock()
	s.calls = append(s.calls, r)
	s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(r.Kpc()); err != nil {
			return nil, err
		}
	}
	pot, err := coolingflow.NewPowerLaw(0, units.KmPerS(150), units.Kpc(250))
	if err != nil {
		return nil, err
	}
	samples := []coolingflow.Sample{
		{R: r, T: 1e6, NH: 1e-3, V: units.KmPerS(50)},
		{R: units.Cm(2 * r.Cm()), T: 1e6, NH: 1e-4, V: units.KmPerS(20)},
	}
	return coolingflow.NewSolution(samples, units.MsunPerYr(s.mdot(r.Kpc())), r, pot, nil)
}

func (s *stubShooter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func squared(kpc float64) float64 { return kpc * kpc }

func inverse(kpc float64) float64 { return 1 / kpc }

// valley has a minimum at 1 kpc, so it is not monotonic over any bracket
// straddling 1 kpc.
func valley(kpc float64) float64 {
	l := math.Log(kpc)
	return 1 + l*l
}
