// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intent labels requirement sentences with the intent classifier
// and selects the ambiguous ones for antecedent generation.
package intent

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Classifier assigns an intent label to one sentence.
type Classifier interface {
	Classify(ctx context.Context, sentence string) (string, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, sentence string) (string, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, sentence string) (string, error) {
	return f(ctx, sentence)
}

// Summary holds counts from a classification batch.
type Summary struct {
	Classified int
	Ambiguous  int
	Failed     int
}

// Total returns the number of sentences processed.
func (s Summary) Total() int { return s.Classified + s.Failed }

// HasFailures reports whether any sentence could not be classified.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// ClassifyAll labels every sentence in order. A sentence whose call fails
// is recorded with intent "error" and the batch continues. Only
// cancellation of ctx stops the batch early; the records gathered so far
// are returned with the error.
func ClassifyAll(ctx context.Context, c Classifier, sentences []string, w io.Writer, logger *zap.Logger) ([]types.IntentRecord, Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	records := make([]types.IntentRecord, 0, len(sentences))
	var summary Summary

	for i, s := range sentences {
		if err := ctx.Err(); err != nil {
			return records, summary, fmt.Errorf("classifying sentence %d: %w", i, err)
		}

		label, err := c.Classify(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return records, summary, fmt.Errorf("classifying sentence %d: %w", i, ctx.Err())
			}
			logger.Warn("classification failed", zap.Int("sentence", i), zap.Error(err))
			fmt.Fprintf(w, "failed:  %d (%v)\n", i, err)
			records = append(records, types.IntentRecord{Sentence: s, Intent: types.IntentError})
			summary.Failed++
			continue
		}

		records = append(records, types.IntentRecord{Sentence: s, Intent: label})
		summary.Classified++
		if label == types.IntentAmbiguous {
			summary.Ambiguous++
		}
		logger.Debug("classified", zap.Int("sentence", i), zap.String("intent", label))
	}

	fmt.Fprintf(w, "\nBatch summary: %d classified, %d ambiguous, %d failed (total: %d)\n",
		summary.Classified, summary.Ambiguous, summary.Failed, summary.Total())
	return records, summary, nil
}

// Ambiguous returns the records labelled ambiguous, in input order.
func Ambiguous(records []types.IntentRecord) []types.IntentRecord {
	var out []types.IntentRecord
	for _, r := range records {
		if r.Intent == types.IntentAmbiguous {
			out = append(out, r)
		}
	}
	return out
}

// Sentences returns the sentence column of records.
func Sentences(records []types.IntentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Sentence
	}
	return out
}
