// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/req-anaphora/internal/anaphora"
	"github.com/pdiddy/req-anaphora/internal/annotate"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// ContextStatus is the outcome of processing one context.
type ContextStatus string

const (
	StatusResolved         ContextStatus = "resolved"
	StatusAnnotationFailed ContextStatus = "annotation_failed"
	StatusMalformed        ContextStatus = "malformed"
)

// ContextResult records what happened to one context.
type ContextResult struct {
	Context     types.Context `json:"context" yaml:"context"`
	Status      ContextStatus `json:"status" yaml:"status"`
	Err         error         `json:"-" yaml:"-"`
	Occurrences int           `json:"occurrences" yaml:"occurrences"`
	Rows        int           `json:"rows" yaml:"rows"`
}

// Message returns the failure message, or "" on success.
func (r ContextResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report holds the outcome of a batch build.
type Report struct {
	Contexts    []ContextResult
	Rows        []types.CandidateRow
	IDs         int
	Resolved    int
	Failed      int
	Occurrences int
}

// Total returns the number of contexts processed.
func (r Report) Total() int { return r.Resolved + r.Failed }

// HasFailures reports whether any context could not be processed.
func (r Report) HasFailures() bool { return r.Failed > 0 }

const defaultWorkers = 4

// Builder annotates contexts and assembles the candidate table. Annotation
// runs concurrently across contexts; identifier assignment and row
// emission run serially in context order.
type Builder struct {
	Annotator annotate.Annotator
	Vocab     anaphora.Vocabulary
	Options   Options

	// Workers bounds concurrent annotation calls (default 4).
	Workers int

	// SentenceTimeout bounds each annotation call. Zero means no limit.
	SentenceTimeout time.Duration

	Logger *zap.Logger
}

// Build deduplicates sentences into contexts, annotates them, and returns
// the report with the flattened rows. Per-context annotation failures are
// recorded and skipped. Build returns an error only for identifier
// exhaustion or cancellation of ctx; the partial report is returned with
// it.
func (b *Builder) Build(ctx context.Context, sentences []string, w io.Writer) (Report, error) {
	if b.Annotator == nil {
		return Report{}, errors.New("builder has no annotator")
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	vocab := b.Vocab
	if vocab == nil {
		vocab = anaphora.DefaultVocabulary()
	}

	contexts := Contexts(sentences)
	parsed, errs := b.annotateAll(ctx, contexts)
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("annotating contexts: %w", err)
	}

	table := NewTable(vocab, b.Options)
	var report Report

	for i, c := range contexts {
		result := ContextResult{Context: c}

		err := errs[i]
		if err == nil {
			var stats ContextStats
			stats, err = table.Add(c, parsed[i])
			if errors.Is(err, ErrIdentifierExhausted) {
				report.finish(table)
				return report, err
			}
			result.Occurrences, result.Rows = stats.Occurrences, stats.Rows
		}

		switch {
		case err == nil:
			result.Status = StatusResolved
			report.Resolved++
			report.Occurrences += result.Occurrences
			fmt.Fprintf(w, "resolved: %d (%d pronouns, %d candidates)\n", c.Index, result.Occurrences, result.Rows)
		case annotate.IsMalformed(err):
			result.Status, result.Err = StatusMalformed, err
			report.Failed++
			logger.Error("malformed annotation", zap.Int("context", c.Index), zap.Error(err))
			fmt.Fprintf(w, "failed:  %d (%v)\n", c.Index, err)
		default:
			result.Status, result.Err = StatusAnnotationFailed, err
			report.Failed++
			logger.Warn("annotation failed", zap.Int("context", c.Index), zap.Error(err))
			fmt.Fprintf(w, "failed:  %d (%v)\n", c.Index, err)
		}
		report.Contexts = append(report.Contexts, result)
	}

	report.finish(table)
	fmt.Fprintf(w, "\nBatch summary: %d resolved, %d failed, %d pronouns, %d rows (total: %d)\n",
		report.Resolved, report.Failed, report.Occurrences, len(report.Rows), report.Total())
	return report, nil
}

func (r *Report) finish(t *Table) {
	r.Rows = t.Rows()
	r.IDs = t.IDs()
}

// annotateAll annotates every context with at most Workers calls in
// flight. Failures are returned per context and never cancel siblings.
func (b *Builder) annotateAll(ctx context.Context, contexts []types.Context) ([]*types.Sentence, []error) {
	parsed := make([]*types.Sentence, len(contexts))
	errs := make([]error, len(contexts))

	workers := b.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range contexts {
		if ctx.Err() != nil {
			errs[i] = annotate.Wrap(c.Text, ctx.Err())
			continue
		}
		g.Go(func() error {
			actx := ctx
			if b.SentenceTimeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(ctx, b.SentenceTimeout)
				defer cancel()
			}
			s, err := b.Annotator.Annotate(actx, c.Text)
			if err != nil {
				errs[i] = annotate.Wrap(c.Text, err)
				return nil
			}
			parsed[i] = s
			return nil
		})
	}
	g.Wait()
	return parsed, errs
}
