package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fentz26/jobreg/internal/config"
	"github.com/fentz26/jobreg/internal/scan"
	"github.com/fentz26/jobreg/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "jobreg",
	Short: "jobreg - job registry lookup tool",
	Long: `jobreg looks up the entries a job registry holds for a proxy subject and
prints them as ClassAds or through printf-style templates.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l

		if err := config.LoadEnvFile(envFile); err != nil {
			return scan.Errorf(scan.KindUsage, "%w", err)
		}

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		c, err := config.LoadConfig(path)
		if err != nil {
			// A broken config file is not fatal: the environment and
			// defaults still locate the registry.
			logger.Warn("Ignoring config file", zap.String("path", path), zap.Error(err))
			c = config.DefaultConfig()
		}
		cfg = c
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath   string
	envFile      string
	registryFile string
	verbose      bool

	logger = zap.NewNop()
	cfg    = config.DefaultConfig()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.jobreg/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this dotenv file")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "Registry file (overrides config and "+config.EnvRegistryFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(subjectsCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	_ = logger.Sync()
	os.Exit(scan.ExitCode(err))
}

// newLogger builds the stderr logger. Diagnostics are for operators reading
// a terminal, so the console encoder is used without timestamps.
func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.TimeKey = ""
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.DisableStacktrace = true
	zcfg.Sampling = nil
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Named("jobreg"), nil
}

// reportError prints err the way the registry tools always have: lookup
// misses plainly, everything else with an ERROR prefix.
func reportError(w io.Writer, err error) {
	if scan.IsKind(err, scan.KindLookupMiss) {
		fmt.Fprintf(w, "%s: %v\n", rootCmd.Name(), err)
		return
	}
	fmt.Fprintf(w, "ERROR %s: %v\n", rootCmd.Name(), err)
}

// registryPath resolves the registry location: --registry, then the
// environment, then the config file, then $HOME.
func registryPath() string {
	if registryFile != "" {
		return registryFile
	}
	return cfg.RegistryPath()
}

// openRegistry opens the existing registry for reading.
func openRegistry() (*store.Store, error) {
	path := registryPath()
	logger.Debug("Opening job registry", zap.String("path", path))
	reg, err := store.Open(path)
	if err != nil {
		return nil, scan.Errorf(scan.KindResource, "error initialising job registry: %w", err)
	}
	return reg, nil
}
