package batch_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/halo"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/store"
	"github.com/katalvlaran/cgmflow/units"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// synthetic builds shooters whose Mdot [Msun/yr] is (R_sonic/kpc)² and whose
// profile is an isothermal ρ ∝ r⁻² trace out to 5 Rvir. It records the first
// radius shot for every halo, which is the seed the search was given.
type synthetic struct {
	mu    sync.Mutex
	seeds map[float64]units.Length // by log Mvir
	fail  func(hc halo.Context) error
}

func newSynthetic() *synthetic {
	return &synthetic{seeds: make(map[float64]units.Length)}
}

func (s *synthetic) Seed(logM float64) (units.Length, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.seeds[math.Round(logM*100)/100]
	return r, ok
}

func (s *synthetic) Factory(hc halo.Context, _ sonic.Bounds) (sonic.Shooter, error) {
	if s.fail != nil {
		if err := s.fail(hc); err != nil {
			return nil, err
		}
	}
	return &syntheticShooter{parent: s, hc: hc}, nil
}

type syntheticShooter struct {
	parent *synthetic
	hc     halo.Context
	shots  int
}

func (sh *syntheticShooter) Shoot(_ context.Context, r units.Length) (*coolingflow.Solution, error) {
	if sh.shots == 0 {
		sh.parent.mu.Lock()
		sh.parent.seeds[math.Round(sh.hc.LogMvir()*100)/100] = r
		sh.parent.mu.Unlock()
	}
	sh.shots++

	rvir := sh.hc.Rvir().Cm()
	pot, err := coolingflow.NewPowerLaw(sh.hc.VcSlope(), sh.hc.Vvir(), sh.hc.Rvir())
	if err != nil {
		return nil, err
	}
	const n = 80
	samples := make([]coolingflow.Sample, n)
	for i := range samples {
		x := math.Pow(10, -3+float64(i)*math.Log10(5e3)/(n-1)) // 1e-3 .. 5 Rvir
		samples[i] = coolingflow.Sample{
			R:  units.Cm(x * rvir),
			T:  1e6,
			NH: units.PerCm3(1e-4 / (x * x)),
			V:  units.KmPerS(30),
		}
	}
	return coolingflow.NewSolution(samples, units.MsunPerYr(r.Kpc()*r.Kpc()), r, pot, nil)
}

// targets tabulates log Mdot = 0, 0.5, 1 at log Mvir = 11, 12, 13 for the
// median and ±0.3 dex around it for the 16th and 84th percentiles.
func targets(t *testing.T) *batch.PercentileTable {
	t.Helper()
	tab, err := batch.NewPercentileTable(0.5, []float64{11, 12, 13}, map[float64][]float64{
		0.16: {-0.3, 0.2, 0.7},
		0.5:  {0, 0.5, 1},
		0.84: {0.3, 0.8, 1.3},
	})
	require.NoError(t, err)
	return tab
}

func grid() batch.Grid {
	return batch.Grid{
		Redshift:      0.5,
		LogMvirs:      []float64{13, 11, 12},
		Metallicities: []float64{0.3},
		VcSlopes:      []float64{-0.1},
		Percentiles:   []float64{0.5},
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir() + "/out.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
