// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/req-anaphora/internal/intent"
	"github.com/pdiddy/req-anaphora/internal/pipeline"
	"github.com/pdiddy/req-anaphora/internal/store"
	"github.com/pdiddy/req-anaphora/internal/table"
)

var runCmd = &cobra.Command{
	Use:   "run <requirements.xlsx|requirements.csv>",
	Short: "Classify requirements and build the candidate table",
	Long: `Run chains classify and resolve: it labels every requirement,
writes the intent tables, and builds the candidate antecedent table from
the sentences labelled ambiguous.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	classifier, err := intent.NewHTTPClassifier(cfg.Classifier, &http.Client{Timeout: cfg.Classifier.Timeout})
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Classifier: classifier, Logger: logger}
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

	res, err := pipeline.Run(cmd.Context(), cfg, args[0], deps, os.Stdout)
	if err != nil {
		return err
	}
	if failed := res.Classify.Summary.Failed + res.Resolve.Report.Failed; failed > 0 {
		return fmt.Errorf("%d sentence(s) failed", failed)
	}
	return nil
}

func init() {
	addAnnotatorFlags(runCmd)
	runCmd.Flags().String("classifier-endpoint", "", "intent classifier prediction URL")
	runCmd.Flags().String("column", table.RequirementsColumn, "input column holding requirement text")
	runCmd.Flags().String("processed-dir", "processed_data", "directory for the intent tables")

	rootCmd.AddCommand(runCmd)
}
