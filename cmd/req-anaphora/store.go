// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/req-anaphora/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query and export stored runs",
	Long: `Store reads the SQLite index database that resolve and run write
to. Use subcommands to list runs, search candidates, or export a run.`,
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs stored.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %8s  %8s  %6s\n", "Run", "Finished", "Contexts", "Rows", "Failed")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 86))
		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%-36s  %-20s  %8d  %8d  %6d\n",
				r.ID, r.FinishedAt.Format("2006-01-02 15:04:05"), r.Contexts, r.Rows, r.Failed)
		}
		return nil
	},
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search stored candidates with full-text search and filters",
	Long: `Retrieve searches stored candidate rows using FTS5 full-text search
over the context and antecedent text, a pronoun filter, a run filter, or
a combination of them.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.Query == "" && opts.Pronoun == "" && opts.RunID == "" {
		return fmt.Errorf("query or filter required: provide a search query, --pronoun, or --run")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	results, err := st.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-8s  %-24s  %s\n", "Id", "Pronoun", "Antecedent", "Context")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-16s  %-8s  %-24s  %s\n",
			truncate(r.ID, 16), r.Pronoun, truncate(r.Antecedent, 24), truncate(r.Context, 46))
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored run to YAML or JSON",
	Long: `Export writes a run (the latest unless --run is given) with its
per-context outcomes and candidate rows to index/export.yaml or
index/export.json under the data directory.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch format {
	case "yaml", "":
		path, err = st.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = st.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.NewStore(cfg.Store)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	pronoun, _ := cmd.Flags().GetString("pronoun")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Pronoun:    pronoun,
		RunID:      runID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("data-dir", "data", "base directory for the index database")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	for _, c := range []*cobra.Command{storeRetrieveCmd, storeExportCmd} {
		c.Flags().String("query", "", "full-text search over context and antecedent")
		c.Flags().String("pronoun", "", "filter by pronoun")
		c.Flags().String("run", "", "filter by run id")
	}
	storeRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeRunsCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
