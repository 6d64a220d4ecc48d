package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nixdex/internal/config"
	"nixdex/internal/index"
	"nixdex/internal/registry"
)

var flagOutput string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the package index from nixpkgs or a cached registry",
	Long: `Build the package index.

With --nixpkgs, nix-env evaluates the given nixpkgs and the raw output is
optionally cached at --registry. With only --registry, the cached dump is
indexed directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := registry.NewSource(registryOptions())
		if err != nil {
			return fmt.Errorf("%w: pass --nixpkgs or --registry", err)
		}

		output := flagOutput
		if output == "" {
			output = cfg.Index
		}
		idx, err := index.New(index.Config{Output: output, Logger: logger.Logger})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexing %s...\n", src.Describe())
		stats, err := idx.Build(src)
		if err != nil {
			return err
		}
		printStats(out, idx.Output(), stats)
		return nil
	},
}

func registryOptions() registry.Options {
	return registry.Options{
		Nixpkgs:   cfg.Nixpkgs,
		Config:    cfg.NixpkgsConfig,
		CachePath: cfg.Registry,
		Evaluator: cfg.Evaluator,
	}
}

func printStats(w io.Writer, output string, stats *index.Stats) {
	fmt.Fprintf(w, "\nDone in %s\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Index:     %s\n", output)
	fmt.Fprintf(w, "  Packages:  %d total, %d indexed, %d skipped\n", stats.Total, stats.Indexed, stats.Skipped)
	fmt.Fprintf(w, "  Flags:     %d broken, %d insecure, %d unfree\n", stats.Broken, stats.Insecure, stats.Unfree)
}

func init() {
	f := indexCmd.Flags()
	f.StringVarP(&flagOutput, "output", "o", "", "where to write the index (default: --index)")
	f.StringP(config.KeyNixpkgs, "n", "", "nixpkgs location passed to nix-env as -I nixpkgs=...")
	f.StringP(config.KeyRegistry, "r", "", "registry JSON cache; written after evaluation, read when --nixpkgs is unset")
	f.StringP(config.KeyNixpkgsConfig, "c", "", "nix expression passed as the nixpkgs config argument")
	f.String(config.KeyEvaluator, "", "evaluator command (default nix-env)")
	rootCmd.AddCommand(indexCmd)
}
