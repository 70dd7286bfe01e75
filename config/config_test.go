package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/config"
	"github.com/katalvlaran/cgmflow/ionbal"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())

	tab, err := cfg.TargetTable()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.16, 0.5, 0.84}, tab.Percentiles())

	med, err := tab.Target(batch.Cell{LogMvir: 12, Percentile: 0.5})
	require.NoError(t, err)
	lo, err := tab.Target(batch.Cell{LogMvir: 12, Percentile: 0.16})
	require.NoError(t, err)
	hi, err := tab.Target(batch.Cell{LogMvir: 12, Percentile: 0.84})
	require.NoError(t, err)
	assert.Less(t, float64(lo), float64(med))
	assert.Less(t, float64(med), float64(hi))
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(config.DefaultConfig(), cfg))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cgmflow.yaml")
	cfg := config.DefaultConfig()
	cfg.Workers = 3
	cfg.PostProcess.Ions = []ionbal.Ion{ionbal.C4, ionbal.Mg10}
	require.NoError(t, cfg.Save(path))

	back, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(cfg, back))
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgmflow.yaml")
	data := []byte(`
output: runs/z1.db
redshift: 1
grid:
  log_mvir_msun: [11.5, 12]
  entropy_slope: 0.67
post_process:
  ions: [o6, NE8, " c4 "]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "runs/z1.db", cfg.Output)
	assert.Equal(t, 1.0, cfg.Redshift)
	assert.Equal(t, []float64{11.5, 12}, cfg.Grid.LogMvir)
	assert.Equal(t, []float64{0.3}, cfg.Grid.Metallicities)
	require.NotNil(t, cfg.Grid.EntropySlope)
	assert.Equal(t, 0.67, *cfg.Grid.EntropySlope)
	assert.Equal(t, []ionbal.Ion{ionbal.O6, ionbal.Ne8, ionbal.C4}, cfg.PostProcess.Ions)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoadRejectsUnknownIon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgmflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("post_process:\n  ions: [fe2]\n"), 0o644))
	_, err := config.Load(path)
	assert.ErrorIs(t, err, ionbal.ErrUnknownIon)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvOutput, "env.db")
	t.Setenv(config.EnvWorkers, "8")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvIonTable, "tables/hm12.yaml")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Output)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "tables/hm12.yaml", cfg.IonTable)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	t.Setenv(config.EnvWorkers, "many")
	_, err = config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*config.Config){
		"output":      func(c *config.Config) { c.Output = "" },
		"cosmology":   func(c *config.Config) { c.Cosmology.H = 0 },
		"grid":        func(c *config.Config) { c.Grid.Metallicities = nil },
		"targets":     func(c *config.Config) { c.Targets.LogMvir = []float64{12} },
		"dup curve":   func(c *config.Config) { c.Targets.Curves = append(c.Targets.Curves, c.Targets.Curves[0]) },
		"workers":     func(c *config.Config) { c.Workers = 0 },
		"seed":        func(c *config.Config) { c.Search.SeedKpc = -1 },
		"reltol":      func(c *config.Config) { c.Search.RelTol = 2 },
		"shoot":       func(c *config.Config) { c.Shoot.XHigh = 3 },
		"log level":   func(c *config.Config) { c.Logging.Level = "loud" },
		"encoding":    func(c *config.Config) { c.Logging.Encoding = "xml" },
		"window":      func(c *config.Config) { c.PostProcess.GasOuter = 0.05 },
		"impact grid": func(c *config.Config) { c.PostProcess.ImpactStep = 0 },
		"los grid":    func(c *config.Config) { c.PostProcess.LOSExtent = 0 },
		"truncation":  func(c *config.Config) { c.PostProcess.TruncationRvir = 0 },
		"entropy":     func(c *config.Config) { k := math.NaN(); c.Grid.EntropySlope = &k },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}

func TestDriverOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opts, err := cfg.DriverOptions(zap.NewNop())
	require.NoError(t, err)

	assert.InDelta(t, 1.1, opts.Seed.Kpc(), 1e-12)
	assert.Equal(t, cfg.Workers, opts.Workers)
	assert.Equal(t, ionbal.CIETable{}, opts.IonTable)
	require.Len(t, opts.PostProcess, 3)
	assert.Equal(t, "fCGM", opts.PostProcess[0].Name())
	assert.Equal(t, "coldens_o6", opts.PostProcess[1].Name())

	cd, ok := opts.PostProcess[2].(batch.ColumnDensity)
	require.True(t, ok)
	assert.Len(t, cd.Impact, 39)
	assert.Len(t, cd.LOS, 801)

	_, err = batch.New(mustTargets(t, cfg), batch.Discard, opts)
	assert.NoError(t, err)
	assert.Nil(t, opts.EntropySlope)

	k := 0.67
	cfg.Grid.EntropySlope = &k
	opts, err = cfg.DriverOptions(zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, opts.EntropySlope)
	assert.Equal(t, 0.67, *opts.EntropySlope)

	cfg.IonTable = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.DriverOptions(zap.NewNop())
	assert.Error(t, err)
}

func mustTargets(t *testing.T, cfg *config.Config) batch.TargetTable {
	t.Helper()
	tab, err := cfg.TargetTable()
	require.NoError(t, err)
	return tab
}
