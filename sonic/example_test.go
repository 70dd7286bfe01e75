package sonic_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/units"
)

// quadratic is a toy solver with Mdot = (R_sonic / kpc)² Msun/yr.
type quadratic struct{}

func (quadratic) Shoot(_ context.Context, r units.Length) (*coolingflow.Solution, error) {
	pot, _ := coolingflow.NewPowerLaw(0, units.KmPerS(150), units.Kpc(250))
	samples := []coolingflow.Sample{
		{R: r, T: 1e6, NH: 1e-3, V: units.KmPerS(50)},
		{R: units.Cm(2 * r.Cm()), T: 1e6, NH: 1e-4, V: units.KmPerS(20)},
	}
	return coolingflow.NewSolution(samples, units.MsunPerYr(r.Kpc()*r.Kpc()), r, pot, nil)
}

func ExampleFindSonicRadius() {
	bounds := sonic.Bounds{Min: units.Kpc(0.01), Max: units.Kpc(1000)}
	res, err := sonic.FindSonicRadius(context.Background(), quadratic{}, units.MsunPerYr(4), units.Kpc(1.1), bounds)
	if err != nil {
		fmt.Println("search failed:", err)
		return
	}
	fmt.Printf("R_sonic=%.3f kpc Mdot=%.3f Msun/yr\n", res.RSonic.Kpc(), res.Mdot.MsunPerYr())
	fmt.Println("direction:", res.Direction, "iterations:", res.Iterations, "solver calls:", res.Evaluations)
	// Output:
	// R_sonic=2.002 kpc Mdot=4.009 Msun/yr
	// direction: increasing iterations: 11 solver calls: 13
}

func ExampleSearchError() {
	bounds := sonic.Bounds{Min: units.Kpc(0.01), Max: units.Kpc(1000)}
	_, err := sonic.FindSonicRadius(context.Background(), quadratic{}, units.MsunPerYr(1e9), units.Kpc(1.1), bounds)

	var se *sonic.SearchError
	if errors.As(err, &se) {
		fmt.Println(se.Kind, errors.Is(err, sonic.ErrTargetOutOfRange), len(se.Probes))
	}
	// Output:
	// target-out-of-range true 3
}
