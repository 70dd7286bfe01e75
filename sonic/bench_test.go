package sonic_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/units"
)

func BenchmarkFindSonicRadius(b *testing.B) {
	bounds := sonic.Bounds{Min: units.Kpc(0.01), Max: units.Kpc(1000)}
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := sonic.FindSonicRadius(ctx, quadratic{}, units.MsunPerYr(4), units.Kpc(1.1), bounds, sonic.WithRelTol(1e-6)); err != nil {
			b.Fatal(err)
		}
	}
}
