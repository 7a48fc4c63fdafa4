// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/req-anaphora/internal/intent"
	"github.com/pdiddy/req-anaphora/internal/pipeline"
	"github.com/pdiddy/req-anaphora/internal/table"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <requirements.xlsx|requirements.csv>",
	Short: "Label requirement sentences by intent",
	Long: `Classify reads requirement sentences from a column of a CSV or Excel
file, labels each one with the intent classifier, and writes
processed_data/all_intents.csv and processed_data/ambiguous_intents.csv.
Sentences the classifier cannot label are recorded with intent "error".`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sentences, err := table.ReadColumn(args[0], cfg.Classifier.Column)
	if err != nil {
		return err
	}

	classifier, err := intent.NewHTTPClassifier(cfg.Classifier, &http.Client{Timeout: cfg.Classifier.Timeout})
	if err != nil {
		return err
	}

	_, err = pipeline.Classify(cmd.Context(), cfg, sentences, pipeline.Deps{
		Classifier: classifier,
		Logger:     logger,
	}, os.Stdout)
	return err
}

func init() {
	classifyCmd.Flags().String("classifier-endpoint", "", "intent classifier prediction URL")
	classifyCmd.Flags().String("column", table.RequirementsColumn, "input column holding requirement text")
	classifyCmd.Flags().String("processed-dir", "processed_data", "directory for the intent tables")

	rootCmd.AddCommand(classifyCmd)
}
