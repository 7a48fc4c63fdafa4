// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains the stages: read requirements, classify intent,
// write the intent tables, build the candidate table from the ambiguous
// sentences, write it and persist the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/req-anaphora/internal/anaphora"
	"github.com/pdiddy/req-anaphora/internal/annotate"
	"github.com/pdiddy/req-anaphora/internal/dataset"
	"github.com/pdiddy/req-anaphora/internal/intent"
	"github.com/pdiddy/req-anaphora/internal/store"
	"github.com/pdiddy/req-anaphora/internal/table"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Output file names.
const (
	AllIntentsFile       = "all_intents.csv"
	AmbiguousIntentsFile = "ambiguous_intents.csv"
	CandidatesFile       = "resolved_anaphora.csv"

	defaultProcessedDir = "processed_data"
	defaultOutputDir    = "output"
)

// Deps holds the collaborators a run needs. Store may be nil, in which case
// runs are not persisted.
type Deps struct {
	Classifier intent.Classifier
	Annotator  annotate.Annotator
	Store      *store.Store
	Logger     *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Paths returns the intent and candidate table locations for cfg.
func Paths(cfg types.OutputConfig) (allIntents, ambiguous, candidates string) {
	processed := cfg.ProcessedDir
	if processed == "" {
		processed = defaultProcessedDir
	}
	output := cfg.OutputDir
	if output == "" {
		output = defaultOutputDir
	}
	return filepath.Join(processed, AllIntentsFile),
		filepath.Join(processed, AmbiguousIntentsFile),
		filepath.Join(output, CandidatesFile)
}

// ClassifyResult holds the outcome of the classification stage.
type ClassifyResult struct {
	Records   []types.IntentRecord
	Ambiguous []types.IntentRecord
	Summary   intent.Summary
}

// Classify labels sentences and writes both intent tables.
func Classify(ctx context.Context, cfg types.PipelineConfig, sentences []string, deps Deps, w io.Writer) (ClassifyResult, error) {
	if deps.Classifier == nil {
		return ClassifyResult{}, errors.New("no classifier configured")
	}
	records, summary, err := intent.ClassifyAll(ctx, deps.Classifier, sentences, w, deps.logger())
	if err != nil {
		return ClassifyResult{}, err
	}
	res := ClassifyResult{Records: records, Ambiguous: intent.Ambiguous(records), Summary: summary}

	allPath, ambPath, _ := Paths(cfg.Output)
	if err := table.WriteFile(allPath, func(w io.Writer) error { return table.WriteIntents(w, res.Records) }); err != nil {
		return res, err
	}
	if err := table.WriteFile(ambPath, func(w io.Writer) error { return table.WriteIntents(w, res.Ambiguous) }); err != nil {
		return res, err
	}
	fmt.Fprintf(w, "wrote:   %s (%d rows)\n", allPath, len(res.Records))
	fmt.Fprintf(w, "wrote:   %s (%d rows)\n", ambPath, len(res.Ambiguous))
	return res, nil
}

// ResolveResult holds the outcome of the candidate stage.
type ResolveResult struct {
	Report dataset.Report
	Run    *store.Run
	Path   string
}

// NewBuilder assembles a table builder from cfg.
func NewBuilder(cfg types.PipelineConfig, a annotate.Annotator, logger *zap.Logger) *dataset.Builder {
	vocab := anaphora.DefaultVocabulary()
	if len(cfg.Resolve.Pronouns) > 0 {
		vocab = anaphora.NewVocabulary(cfg.Resolve.Pronouns...)
	}
	return &dataset.Builder{
		Annotator: a,
		Vocab:     vocab,
		Options: dataset.Options{
			Resolve:       anaphora.Options{IncludeSubjectNouns: cfg.Resolve.IncludeSubjectNouns},
			MaxIDAttempts: cfg.Resolve.MaxIDAttempts,
		},
		Workers:         cfg.Annotator.Workers,
		SentenceTimeout: cfg.Annotator.SentenceTimeout,
		Logger:          logger,
	}
}

// Resolve builds the candidate table for sentences, writes it and, when a
// store is configured, persists the run.
func Resolve(ctx context.Context, cfg types.PipelineConfig, sentences []string, deps Deps, w io.Writer) (ResolveResult, error) {
	if deps.Annotator == nil {
		return ResolveResult{}, errors.New("no annotator configured")
	}
	started := time.Now()

	report, err := NewBuilder(cfg, deps.Annotator, deps.logger()).Build(ctx, sentences, w)
	if err != nil {
		return ResolveResult{Report: report}, fmt.Errorf("building candidate table: %w", err)
	}
	res := ResolveResult{Report: report}

	_, _, res.Path = Paths(cfg.Output)
	if err := table.WriteFile(res.Path, func(w io.Writer) error { return table.WriteCandidates(w, report.Rows) }); err != nil {
		return res, err
	}
	fmt.Fprintf(w, "wrote:   %s (%d rows)\n", res.Path, len(report.Rows))

	if deps.Store != nil {
		run, err := deps.Store.SaveRun(ctx, report, started)
		if err != nil {
			return res, fmt.Errorf("saving run: %w", err)
		}
		res.Run = &run
		deps.logger().Info("run stored", zap.String("run", run.ID), zap.Int("rows", run.Rows))
		fmt.Fprintf(w, "stored:  run %s\n", run.ID)
	}
	return res, nil
}

// Result holds the outcome of a full run.
type Result struct {
	Classify ClassifyResult
	Resolve  ResolveResult
}

// Run reads requirement sentences from input, classifies them and builds
// the candidate table from the ambiguous ones.
func Run(ctx context.Context, cfg types.PipelineConfig, input string, deps Deps, w io.Writer) (Result, error) {
	column := cfg.Classifier.Column
	if column == "" {
		column = table.RequirementsColumn
	}
	sentences, err := table.ReadColumn(input, column)
	if err != nil {
		return Result{}, fmt.Errorf("reading requirements: %w", err)
	}
	fmt.Fprintf(w, "read:    %s (%d sentences)\n", input, len(sentences))

	var res Result
	res.Classify, err = Classify(ctx, cfg, sentences, deps, w)
	if err != nil {
		return res, fmt.Errorf("classifying: %w", err)
	}

	res.Resolve, err = Resolve(ctx, cfg, intent.Sentences(res.Classify.Ambiguous), deps, w)
	if err != nil {
		return res, err
	}
	return res, nil
}
