package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nixdex/internal/config"
	"nixdex/internal/logging"
	"nixdex/internal/query"
	"nixdex/internal/store"
)

var (
	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "nixdex",
	Short:         "Fast local search over nixpkgs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(logging.Config{
			Level:       cfg.LogLevel,
			Development: cfg.LogDev,
		})
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		logger = l
		logger.Debug("loaded config", zap.String("index", cfg.Index), zap.String("store_dir", cfg.StoreDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String(config.KeyConfig, "", "config file (default $XDG_CONFIG_HOME/nixdex/config.yaml)")
	pf.StringP(config.KeyIndex, "i", "", "index path (default $XDG_DATA_HOME/nixdex-index.sqlite)")
	pf.String(config.KeyStoreDir, "", "store directory used for presence checks (default /nix/store)")
	pf.String(config.KeyLogLevel, "", "log level: debug, info, warn, error (default warn)")
	pf.Bool(config.KeyLogDev, false, "human-readable development logs")
}

// openEngine opens the configured index read-only.
func openEngine() (*query.Engine, *store.Reader, error) {
	r, err := store.OpenReadOnly(cfg.Index)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return nil, nil, fmt.Errorf("%w\nRun 'nixdex index' first to build the index", err)
		}
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	return query.New(r, query.OSPresence(cfg.StoreDir)), r, nil
}
