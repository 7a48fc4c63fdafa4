// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/req-anaphora/internal/pipeline"
	"github.com/pdiddy/req-anaphora/internal/store"
	"github.com/pdiddy/req-anaphora/internal/table"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [sentences.csv]",
	Short: "Build the candidate antecedent table",
	Long: `Resolve annotates each distinct sentence, locates its pronouns, and
writes one row per candidate antecedent to output/resolved_anaphora.csv.
Every pronoun occurrence gets a dataset-wide unique id shared by all of
its rows. The run is stored in the index database unless --no-store is
given.

The input defaults to processed_data/ambiguous_intents.csv and is read
from the Sentence column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	input := ""
	if len(args) > 0 {
		input = args[0]
	} else {
		_, input, _ = pipeline.Paths(cfg.Output)
	}
	column, _ := cmd.Flags().GetString("sentence-column")
	sentences, err := table.ReadColumn(input, column)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Logger: logger}
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		deps.Store = st
	}

	deps.Annotator, err = newAnnotator(cfg.Annotator, deps.Store)
	if err != nil {
		return err
	}

	res, err := pipeline.Resolve(cmd.Context(), cfg, sentences, deps, os.Stdout)
	if err != nil {
		return err
	}
	if res.Report.HasFailures() {
		return fmt.Errorf("%d context(s) failed annotation", res.Report.Failed)
	}
	return nil
}

func addAnnotatorFlags(cmd *cobra.Command) {
	cmd.Flags().String("annotator", "http", "annotator backend: http or container")
	cmd.Flags().String("annotator-endpoint", "", "annotation service URL for the http backend")
	cmd.Flags().String("image", "", "annotator image for the container backend")
	cmd.Flags().String("model", "", "language model passed to the annotator")
	cmd.Flags().Int("workers", 4, "sentences annotated concurrently")
	cmd.Flags().Duration("sentence-timeout", 0, "limit for one annotation call (0 = config default)")
	cmd.Flags().Bool("cache", true, "reuse annotations stored in the index database")
	cmd.Flags().StringSlice("pronouns", nil, "pronoun vocabulary (default: built-in English set)")
	cmd.Flags().Bool("subject-nouns", false, "also propose subject nouns outside noun chunks")
	cmd.Flags().String("data-dir", "data", "base directory for the index database")
	cmd.Flags().String("output-dir", "output", "directory for the candidate table")
	cmd.Flags().Bool("no-store", false, "do not store the run in the index database")
}

func init() {
	addAnnotatorFlags(resolveCmd)
	resolveCmd.Flags().String("processed-dir", "processed_data", "directory holding the intent tables")
	resolveCmd.Flags().String("sentence-column", table.SentenceColumn, "input column holding sentences")

	rootCmd.AddCommand(resolveCmd)
}
