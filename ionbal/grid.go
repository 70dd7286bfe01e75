package ionbal

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/cgmflow/units"
)

// DefaultRedshiftTolerance is the largest |z − z_table| a GridTable accepts
// when the file does not set one.
const DefaultRedshiftTolerance = 0.05

// gridFile is the YAML layout of a GridTable.
//
//	redshift: 0.0
//	redshift_tolerance: 0.05
//	logT:  [4.0, 4.5, ...]
//	lognH: [-6, -5, ...]
//	log_fraction:
//	  o6:               # one row per lognH, one column per logT
//	    - [-5.1, -3.2, ...]
type gridFile struct {
	Redshift          float64                `yaml:"redshift"`
	RedshiftTolerance float64                `yaml:"redshift_tolerance,omitempty"`
	LogT              []float64              `yaml:"logT"`
	LognH             []float64              `yaml:"lognH"`
	LogFraction       map[string][][]float64 `yaml:"log_fraction"`
}

// GridTable interpolates tabulated log ion fractions on a (log nH, log T)
// grid at one redshift. Values outside the grid are clamped to its edges.
type GridTable struct {
	redshift float64
	tol      float64
	logT     []float64
	lognH    []float64
	rows     map[Ion][]interp.PiecewiseLinear // rows[ion][j] is f(log T) at lognH[j]
}

// Name identifies the table in output attributes.
func (g *GridTable) Name() string { return fmt.Sprintf("grid z=%.2f", g.redshift) }

// LoadGridTable reads a GridTable from a YAML file.
func LoadGridTable(path string) (*GridTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ionbal: read %s: %w", path, err)
	}
	return ParseGridTable(data)
}

// ParseGridTable decodes a GridTable from YAML.
func ParseGridTable(data []byte) (*GridTable, error) {
	var f gridFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	return newGridTable(f)
}

func newGridTable(f gridFile) (*GridTable, error) {
	if err := increasing("logT", f.LogT); err != nil {
		return nil, err
	}
	if err := increasing("lognH", f.LognH); err != nil {
		return nil, err
	}
	if len(f.LogFraction) == 0 {
		return nil, fmt.Errorf("%w: no ions", ErrBadTable)
	}
	tol := f.RedshiftTolerance
	if tol == 0 {
		tol = DefaultRedshiftTolerance
	}
	if tol < 0 {
		return nil, fmt.Errorf("%w: negative redshift tolerance", ErrBadTable)
	}

	g := &GridTable{
		redshift: f.Redshift,
		tol:      tol,
		logT:     append([]float64(nil), f.LogT...),
		lognH:    append([]float64(nil), f.LognH...),
		rows:     make(map[Ion][]interp.PiecewiseLinear, len(f.LogFraction)),
	}
	for name, grid := range f.LogFraction {
		ion, err := ParseIon(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
		}
		if len(grid) != len(f.LognH) {
			return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrBadTable, name, len(grid), len(f.LognH))
		}
		rows := make([]interp.PiecewiseLinear, len(grid))
		for j, row := range grid {
			if len(row) != len(f.LogT) {
				return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrBadTable, name, j, len(row), len(f.LogT))
			}
			for _, v := range row {
				if math.IsNaN(v) || v > 0 {
					return nil, fmt.Errorf("%w: %s row %d: log fraction %g", ErrBadTable, name, j, v)
				}
			}
			if err := rows[j].Fit(g.logT, row); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
			}
		}
		g.rows[ion] = rows
	}
	return g, nil
}

func increasing(name string, xs []float64) error {
	if len(xs) < 2 {
		return fmt.Errorf("%w: %s needs at least two nodes", ErrBadTable, name)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return fmt.Errorf("%w: %s not strictly increasing at %d", ErrBadTable, name, i)
		}
	}
	return nil
}

// Redshift is the redshift the table was computed for.
func (g *GridTable) Redshift() float64 { return g.redshift }

// Ions lists the ions present in the table.
func (g *GridTable) Ions() []Ion {
	out := make([]Ion, 0, len(g.rows))
	for ion := range g.rows {
		out = append(out, ion)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fraction implements Table.
func (g *GridTable) Fraction(ion Ion, redshift float64, T units.Temperature, nH units.NumberDensity) (float64, error) {
	rows, ok := g.rows[ion]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedIon, ion)
	}
	if math.Abs(redshift-g.redshift) > g.tol {
		return 0, fmt.Errorf("%w: z=%g, table z=%g", ErrRedshift, redshift, g.redshift)
	}
	if !(T > 0) || !(nH > 0) {
		return 0, nil
	}
	logT := math.Log10(T.K())
	x := clamp(math.Log10(nH.PerCm3()), g.lognH[0], g.lognH[len(g.lognH)-1])

	j := sort.SearchFloat64s(g.lognH, x)
	switch {
	case j == 0:
		return math.Pow(10, rows[0].Predict(logT)), nil
	case j >= len(g.lognH):
		j = len(g.lognH) - 1
	}
	lo, hi := g.lognH[j-1], g.lognH[j]
	w := (x - lo) / (hi - lo)
	v := (1-w)*rows[j-1].Predict(logT) + w*rows[j].Predict(logT)
	return math.Pow(10, v), nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
