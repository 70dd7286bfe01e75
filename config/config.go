// Package config holds the YAML configuration of a cgmflow run.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/coolingflow"
	"github.com/katalvlaran/cgmflow/cosmo"
	"github.com/katalvlaran/cgmflow/ionbal"
	"github.com/katalvlaran/cgmflow/profile"
	"github.com/katalvlaran/cgmflow/sonic"
	"github.com/katalvlaran/cgmflow/units"
)

// Environment variables that override the file.
const (
	EnvOutput   = "CGMFLOW_OUTPUT"
	EnvWorkers  = "CGMFLOW_WORKERS"
	EnvLogLevel = "CGMFLOW_LOG_LEVEL"
	EnvIonTable = "CGMFLOW_ION_TABLE"
)

// ErrInvalid indicates a configuration that cannot drive a run.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete run configuration.
type Config struct {
	Output      string            `yaml:"output"`
	Redshift    float64           `yaml:"redshift"`
	Cosmology   cosmo.Params      `yaml:"cosmology"`
	Grid        GridConfig        `yaml:"grid"`
	Targets     TargetsConfig     `yaml:"targets"`
	Search      SearchConfig      `yaml:"search"`
	Shoot       ShootConfig       `yaml:"shoot"`
	PostProcess PostProcessConfig `yaml:"post_process"`
	IonTable    string            `yaml:"ion_table"` // gridded table path; empty means CIE
	Workers     int               `yaml:"workers"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// GridConfig lists the halo parameters to solve for.
type GridConfig struct {
	LogMvir       []float64 `yaml:"log_mvir_msun"`
	Metallicities []float64 `yaml:"metallicities"`
	VcSlopes      []float64 `yaml:"vc_slopes"`
	Percentiles   []float64 `yaml:"mdot_percentiles"`

	// EntropySlope is the optional K(r) ∝ r^k index recorded with each halo.
	EntropySlope *float64 `yaml:"entropy_slope,omitempty"`
}

// TargetsConfig tabulates log10 Mdot [Msun/yr] against log10 Mvir [Msun].
type TargetsConfig struct {
	LogMvir []float64         `yaml:"log_mvir_msun"`
	Curves  []PercentileCurve `yaml:"curves"`
}

// PercentileCurve is one percentile of the Mdot distribution.
type PercentileCurve struct {
	Percentile float64   `yaml:"percentile"`
	LogMdot    []float64 `yaml:"log_mdot_msun_per_yr"`
}

// SearchConfig tunes the sonic-radius search.
type SearchConfig struct {
	SeedKpc       float64 `yaml:"seed_kpc"`
	RelTol        float64 `yaml:"rel_tol"`
	MaxIterations int     `yaml:"max_iterations"`
}

// ShootConfig mirrors coolingflow.ShootOptions.
type ShootConfig struct {
	MaxStep          float64 `yaml:"max_step"`
	Tol              float64 `yaml:"tol"`
	Epsilon          float64 `yaml:"epsilon"`
	DlnMdlnRInit     float64 `yaml:"dlnM_dlnR_init"`
	TerminateUnbound bool    `yaml:"terminate_unbound"`
	CalcInward       bool    `yaml:"calc_inward"`
	MinTK            float64 `yaml:"min_T_K"`
	XLow             float64 `yaml:"x_low"`
	XHigh            float64 `yaml:"x_high"`
	MinOuterRvir     float64 `yaml:"min_outer_rvir"`
	MaxBisections    int     `yaml:"max_bisections"`
}

// PostProcessConfig selects the products written per converged cell.
// Radii are in units of Rvir.
type PostProcessConfig struct {
	GasFraction    bool         `yaml:"gas_fraction"`
	GasInner       float64      `yaml:"gas_inner_rvir"`
	GasOuter       float64      `yaml:"gas_outer_rvir"`
	Ions           []ionbal.Ion `yaml:"ions"`
	ImpactMin      float64      `yaml:"impact_min_rvir"`
	ImpactMax      float64      `yaml:"impact_max_rvir"`
	ImpactStep     float64      `yaml:"impact_step_rvir"`
	LOSExtent      float64      `yaml:"los_extent_rvir"`
	LOSStep        float64      `yaml:"los_step_rvir"`
	TruncationRvir float64      `yaml:"truncation_rvir"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// defaultMedianLogMdot is the median log10 SFR-based Mdot at log Mvir
// 10.5, 11, …, 14.
var defaultMedianLogMdot = []float64{-0.6, -0.2, 0.15, 0.45, 0.7, 0.9, 1.05, 1.2}

// DefaultConfig returns a complete configuration for a z=0 Milky-Way-like
// grid.
func DefaultConfig() *Config {
	logM := make([]float64, len(defaultMedianLogMdot))
	p16 := make([]float64, len(defaultMedianLogMdot))
	p84 := make([]float64, len(defaultMedianLogMdot))
	for i, m := range defaultMedianLogMdot {
		logM[i] = 10.5 + 0.5*float64(i)
		p16[i] = m - 0.4
		p84[i] = m + 0.3
	}
	so := coolingflow.DefaultShootOptions()
	return &Config{
		Output:    "cgmflow.db",
		Redshift:  0,
		Cosmology: cosmo.Planck15(),
		Grid: GridConfig{
			LogMvir:       []float64{11, 11.5, 12, 12.5, 13},
			Metallicities: []float64{0.3},
			VcSlopes:      []float64{-0.1},
			Percentiles:   []float64{0.16, 0.5, 0.84},
		},
		Targets: TargetsConfig{
			LogMvir: logM,
			Curves: []PercentileCurve{
				{Percentile: 0.16, LogMdot: p16},
				{Percentile: 0.5, LogMdot: append([]float64(nil), defaultMedianLogMdot...)},
				{Percentile: 0.84, LogMdot: p84},
			},
		},
		Search: SearchConfig{
			SeedKpc:       batch.DefaultSeedKpc,
			RelTol:        sonic.DefaultRelTol,
			MaxIterations: sonic.DefaultMaxIterations,
		},
		Shoot: ShootConfig{
			MaxStep:          so.MaxStep,
			Tol:              so.Tol,
			Epsilon:          so.Epsilon,
			DlnMdlnRInit:     so.DlnMdlnRInit,
			TerminateUnbound: so.TerminateUnbound,
			CalcInward:       so.CalcInward,
			MinTK:            so.MinT.K(),
			XLow:             so.XLow,
			XHigh:            so.XHigh,
			MinOuterRvir:     so.MinOuterRvir,
			MaxBisections:    so.MaxBisections,
		},
		PostProcess: PostProcessConfig{
			GasFraction:    true,
			GasInner:       profile.DefaultWindow().Inner,
			GasOuter:       profile.DefaultWindow().Outer,
			Ions:           []ionbal.Ion{ionbal.O6, ionbal.Ne8},
			ImpactMin:      profile.DefaultImpactMin,
			ImpactMax:      profile.DefaultImpactMax,
			ImpactStep:     profile.DefaultImpactStep,
			LOSExtent:      profile.DefaultLOSExtent,
			LOSStep:        profile.DefaultLOSStep,
			TruncationRvir: profile.DefaultTruncRvir,
		},
		Workers: 1,
		Logging: LoggingConfig{Level: "info", Encoding: "json"},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvIonTable); v != "" {
		c.IonTable = v
	}
	return nil
}

// Validate checks everything that can be checked without running.
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalid)
	}
	if err := c.Cosmology.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.BatchGrid().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.TargetTable(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if k := c.Grid.EntropySlope; k != nil && (math.IsNaN(*k) || math.IsInf(*k, 0)) {
		return fmt.Errorf("%w: entropy slope %g", ErrInvalid, *k)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if !(c.Search.SeedKpc > 0) || !(c.Search.RelTol > 0 && c.Search.RelTol < 1) || c.Search.MaxIterations < 1 {
		return fmt.Errorf("%w: search %+v", ErrInvalid, c.Search)
	}
	if err := c.ShootOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log encoding %q", ErrInvalid, c.Logging.Encoding)
	}
	pp := c.PostProcess
	if pp.GasFraction && !(profile.Window{Inner: pp.GasInner, Outer: pp.GasOuter}).Valid() {
		return fmt.Errorf("%w: gas fraction window [%g, %g]", ErrInvalid, pp.GasInner, pp.GasOuter)
	}
	if len(pp.Ions) > 0 {
		switch {
		case !(pp.ImpactStep > 0) || !(pp.ImpactMax >= pp.ImpactMin) || !(pp.ImpactMin > 0):
			return fmt.Errorf("%w: impact grid %g..%g step %g", ErrInvalid, pp.ImpactMin, pp.ImpactMax, pp.ImpactStep)
		case !(pp.LOSStep > 0) || !(pp.LOSExtent > 0):
			return fmt.Errorf("%w: line-of-sight grid extent %g step %g", ErrInvalid, pp.LOSExtent, pp.LOSStep)
		case !(pp.TruncationRvir > 0):
			return fmt.Errorf("%w: truncation %g", ErrInvalid, pp.TruncationRvir)
		}
	}
	return nil
}

// BatchGrid is the grid at the configured redshift.
func (c *Config) BatchGrid() batch.Grid {
	return batch.Grid{
		Redshift:      c.Redshift,
		LogMvirs:      c.Grid.LogMvir,
		Metallicities: c.Grid.Metallicities,
		VcSlopes:      c.Grid.VcSlopes,
		Percentiles:   c.Grid.Percentiles,
	}
}

// TargetTable builds the Mdot target table.
func (c *Config) TargetTable() (*batch.PercentileTable, error) {
	curves := make(map[float64][]float64, len(c.Targets.Curves))
	for _, cv := range c.Targets.Curves {
		if _, dup := curves[cv.Percentile]; dup {
			return nil, fmt.Errorf("%w: percentile %g listed twice", batch.ErrNoTarget, cv.Percentile)
		}
		curves[cv.Percentile] = cv.LogMdot
	}
	return batch.NewPercentileTable(c.Redshift, c.Targets.LogMvir, curves)
}

// ShootOptions converts the shoot section.
func (c *Config) ShootOptions() coolingflow.ShootOptions {
	s := c.Shoot
	return coolingflow.ShootOptions{
		MaxStep:          s.MaxStep,
		Tol:              s.Tol,
		Epsilon:          s.Epsilon,
		DlnMdlnRInit:     s.DlnMdlnRInit,
		TerminateUnbound: s.TerminateUnbound,
		CalcInward:       s.CalcInward,
		MinT:             units.Kelvin(s.MinTK),
		XLow:             s.XLow,
		XHigh:            s.XHigh,
		MinOuterRvir:     s.MinOuterRvir,
		MaxBisections:    s.MaxBisections,
	}
}

// LogLevel parses Logging.Level; empty means info.
func (c *Config) LogLevel() (zapcore.Level, error) {
	if c.Logging.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.Logging.Level)
}

// IonizationTable opens the configured table: the gridded file at IonTable,
// or analytic CIE when it is empty.
func (c *Config) IonizationTable() (ionbal.Table, error) {
	if c.IonTable == "" {
		return ionbal.CIETable{}, nil
	}
	t, err := ionbal.LoadGridTable(c.IonTable)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// PostProcesses lists the configured post-processing products.
func (c *Config) PostProcesses() []batch.PostProcess {
	pp := c.PostProcess
	var out []batch.PostProcess
	if pp.GasFraction {
		out = append(out, batch.GasFraction{Inner: pp.GasInner, Outer: pp.GasOuter})
	}
	if len(pp.Ions) == 0 {
		return out
	}
	unit := units.Cm(1)
	impact := profile.Grid(pp.ImpactMin, pp.ImpactMax, pp.ImpactStep, unit)
	los := profile.Grid(-pp.LOSExtent, pp.LOSExtent, pp.LOSStep, unit)
	for _, ion := range pp.Ions {
		out = append(out, batch.ColumnDensity{
			Ion:        ion,
			Impact:     floats(impact),
			LOS:        floats(los),
			Truncation: pp.TruncationRvir,
		})
	}
	return out
}

// DriverOptions assembles batch.Options. The configuration should have been
// validated.
func (c *Config) DriverOptions(log *zap.Logger) (batch.Options, error) {
	table, err := c.IonizationTable()
	if err != nil {
		return batch.Options{}, err
	}
	opts := batch.DefaultOptions()
	opts.Cosmology = c.Cosmology
	opts.Seed = units.Kpc(c.Search.SeedKpc)
	opts.RelTol = c.Search.RelTol
	opts.MaxIterations = c.Search.MaxIterations
	opts.Shoot = c.ShootOptions()
	opts.Shoot.Logger = log
	opts.PostProcess = c.PostProcesses()
	opts.IonTable = table
	opts.Workers = c.Workers
	opts.Logger = log
	opts.EntropySlope = c.Grid.EntropySlope
	return opts, nil
}

func floats(ls []units.Length) []float64 {
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = l.Cm()
	}
	return out
}
