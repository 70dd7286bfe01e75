package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/cgmflow/batch"
	"github.com/katalvlaran/cgmflow/config"
)

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	// newShooter replaces the cooling-flow solver; nil in production.
	newShooter batch.ShooterFactory
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cgmflow",
		Short: "Transonic cooling-flow halo models",
		Long: `cgmflow finds, for each halo of a grid, the sonic radius of the steady
cooling flow whose mass inflow rate matches a target, post-processes the
converged profile (CGM gas fraction, ion column densities) and stores it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.logger != nil {
				return nil
			}
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "cgmflow.yaml", "Configuration file (defaults apply when missing)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newSolveCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

func (a *app) initLogger() error {
	zc := zap.NewProductionConfig()
	lvl, err := a.cfg.LogLevel()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if a.verbose {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	if a.cfg.Logging.Encoding != "" {
		zc.Encoding = a.cfg.Logging.Encoding
	}
	if zc.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	a.logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func addOutputFlag(fs *pflag.FlagSet, p *string) {
	fs.StringVarP(p, "output", "o", "", "Output store (overrides config)")
}
