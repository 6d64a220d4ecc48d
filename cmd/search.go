package cmd

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"nixdex/internal/config"
	"nixdex/internal/query"
	"nixdex/internal/store"
)

var (
	flagExact bool
	flagJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the package index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, r, err := openEngine()
		if err != nil {
			return err
		}
		defer r.Close()

		results, err := search(engine, args[0], flagExact, query.Options{
			Limit:         cfg.NumResults,
			FilterPresent: cfg.FilterBuilt,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		return writeTable(cmd.OutOrStdout(), results)
	},
}

func search(e *query.Engine, q string, exact bool, opts query.Options) ([]store.Package, error) {
	if !exact {
		return e.Fuzzy(q, opts)
	}
	p, err := e.Exact(q)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return []store.Package{}, nil
	}
	return []store.Package{*p}, nil
}

func writeJSON(w io.Writer, pkgs []store.Package) error {
	data, err := sonic.Marshal(pkgs)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeTable(w io.Writer, pkgs []store.Package) error {
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{p.Attribute, store.Deref(p.Version), store.Deref(p.Description)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers("attribute", "version", "description").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func init() {
	f := searchCmd.Flags()
	f.IntP(config.KeyNumResults, "n", config.DefaultNumResults, "number of results to return")
	f.BoolVar(&flagExact, "exact", false, "look up an exact attribute instead of fuzzy matching")
	f.Bool(config.KeyFilterBuilt, false, "only return packages whose store path exists locally")
	f.BoolVar(&flagJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}
