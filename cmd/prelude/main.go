package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mstanton/prelude"
	"github.com/mstanton/prelude/internal/ledger"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "prelude",
	Short:         "Incremental autoload aggregation for Risor bundle trees",
	Long:          "Prelude scans bundle scripts for //prelude:autoload cookies and keeps two consolidated, compiled autoload artifacts in sync with them.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	// No Run; prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: prelude.yaml in the working directory)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.String("state-dir", "", "directory holding the artifacts and build ledger")
	pf.String("lib-root", "", "first-party script root")
	pf.StringArray("bundle-root", nil, "bundle root directory (can be repeated)")
	pf.StringArray("extra-root", nil, "extra trusted resolution root (can be repeated)")
	pf.StringSlice("disabled", nil, "disabled bundle names")

	for _, key := range []string{"state-dir", "lib-root", "bundle-root", "extra-root", "disabled"} {
		cobra.CheckErr(viper.BindPFlag(key, pf.Lookup(key)))
	}

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
}

func initConfig() error {
	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
	} else {
		viper.SetConfigName("prelude")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "prelude"))
		}
	}
	viper.SetEnvPrefix("PRELUDE")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if flagConfig == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "prelude"})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func pipelineConfig() (prelude.Config, error) {
	cfg := prelude.Config{
		StateDir:    viper.GetString("state-dir"),
		LibRoot:     viper.GetString("lib-root"),
		BundleRoots: viper.GetStringSlice("bundle-root"),
		ExtraRoots:  viper.GetStringSlice("extra-root"),
		Disabled:    viper.GetStringSlice("disabled"),
		Interactive: isatty(),
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolving default state dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".local", "state", "prelude")
	}
	abs, err := filepath.Abs(cfg.StateDir)
	if err != nil {
		return cfg, fmt.Errorf("resolving state dir %q: %w", cfg.StateDir, err)
	}
	cfg.StateDir = abs
	return cfg, nil
}

func isatty() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// newPipeline builds a Pipeline with the ledger attached. The ledger is
// optional; a failure to open it degrades to an unrecorded run.
func newPipeline(logger *log.Logger) (*prelude.Pipeline, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", cfg.StateDir, err)
	}

	opts := []prelude.Option{prelude.WithLogger(logger)}
	if led, err := openLedger(cfg.StateDir); err != nil {
		logger.Warn("build ledger unavailable", "err", err)
	} else {
		opts = append(opts, prelude.WithLedger(led))
	}
	return prelude.New(cfg, opts...)
}

func openLedger(stateDir string) (*ledger.Ledger, error) {
	led, err := ledger.Open(filepath.Join(stateDir, "builds.db"))
	if err != nil {
		return nil, err
	}
	if err := led.Migrate(); err != nil {
		led.Close()
		return nil, err
	}
	return led, nil
}
