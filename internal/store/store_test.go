// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/req-anaphora/internal/annotate"
	"github.com/pdiddy/req-anaphora/internal/dataset"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const (
	aliceCtx  = "Alice and Bob say they agree."
	systemCtx = "The system logs the user. It restarts."
)

func sampleReport() dataset.Report {
	return dataset.Report{
		Contexts: []dataset.ContextResult{
			{Context: types.Context{Index: 0, Text: aliceCtx}, Status: dataset.StatusResolved, Occurrences: 1, Rows: 3},
			{Context: types.Context{Index: 1, Text: "Unparseable."}, Status: dataset.StatusAnnotationFailed, Err: errors.New("parser crashed")},
			{Context: types.Context{Index: 2, Text: systemCtx}, Status: dataset.StatusResolved, Occurrences: 1, Rows: 2},
		},
		Rows: []types.CandidateRow{
			{ID: "0-they-0", Context: aliceCtx, Pronoun: "they", Position: 4, Antecedent: "Alice"},
			{ID: "0-they-0", Context: aliceCtx, Pronoun: "they", Position: 4, Antecedent: "Alice and Bob"},
			{ID: "0-they-0", Context: aliceCtx, Pronoun: "they", Position: 4, Antecedent: "Bob"},
			{ID: "2-It-0", Context: systemCtx, Pronoun: "It", Position: 6, Antecedent: "The system"},
			{ID: "2-It-0", Context: systemCtx, Pronoun: "It", Position: 6, Antecedent: "the user"},
		},
		IDs:         2,
		Resolved:    2,
		Failed:      1,
		Occurrences: 2,
	}
}

func antecedents(results []QueryResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Antecedent)
	}
	return out
}

// --- annotations ---

func TestAnnotationCache(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, ok, err := s.LookupAnnotation(ctx, "It fails.")
	require.NoError(t, err)
	assert.False(t, ok)

	ws := " "
	sent := &types.Sentence{
		Text: "It fails.",
		Tokens: []types.Token{
			{Text: "It", Index: 0, POS: "PRON", Tag: "PRP", Dep: "nsubj", Whitespace: &ws},
			{Text: "fails", Index: 1, POS: "VERB", Tag: "VBZ", Dep: "ROOT"},
		},
		Chunks: []types.Span{{Start: 0, End: 1}},
	}
	require.NoError(t, s.SaveAnnotation(ctx, "It fails.", sent))
	require.NoError(t, s.SaveAnnotation(ctx, "It fails.", sent))

	got, ok, err := s.LookupAnnotation(ctx, "It fails.")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sent, got)
}

func TestStoreServesCachedAnnotator(t *testing.T) {
	s := testStore(t)
	calls := 0
	next := annotate.Func(func(_ context.Context, text string) (*types.Sentence, error) {
		calls++
		return &types.Sentence{
			Text:   text,
			Tokens: []types.Token{{Text: "It", Index: 0, POS: "PRON", Tag: "PRP"}},
		}, nil
	})
	a := annotate.NewCachedAnnotator(next, s, nil)

	for i := 0; i < 2; i++ {
		_, err := a.Annotate(context.Background(), "It")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

// --- runs ---

func TestSaveRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run, err := s.SaveRun(ctx, sampleReport(), started)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Contexts)
	assert.Equal(t, 5, run.Rows)
	assert.Equal(t, 2, run.IDs)
	assert.Equal(t, 1, run.Failed)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.True(t, latest.StartedAt.Equal(started))

	results, err := s.ContextResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, dataset.StatusAnnotationFailed, results[1].Status)
	assert.Equal(t, "parser crashed", results[1].Message())
	assert.Empty(t, results[0].Message())
}

func TestLatestRunEmpty(t *testing.T) {
	_, err := testStore(t).LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestSaveRunEmptyReport(t *testing.T) {
	s := testStore(t)
	run, err := s.SaveRun(context.Background(), dataset.Report{}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, run.Rows)

	got, err := s.Retrieve(context.Background(), QueryOptions{RunID: run.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- retrieve ---

func TestRetrieve(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	first, err := s.SaveRun(ctx, sampleReport(), time.Now())
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, sampleReport(), time.Now())
	require.NoError(t, err)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{
			name: "run in emission order",
			opts: QueryOptions{RunID: first.ID},
			want: []string{"Alice", "Alice and Bob", "Bob", "The system", "the user"},
		},
		{
			name: "pronoun filter ignores case",
			opts: QueryOptions{RunID: first.ID, Pronoun: "it"},
			want: []string{"The system", "the user"},
		},
		{
			name: "full text over context",
			opts: QueryOptions{RunID: first.ID, Query: "restarts"},
			want: []string{"The system", "the user"},
		},
		{
			name: "max results",
			opts: QueryOptions{RunID: first.ID, MaxResults: 2},
			want: []string{"Alice", "Alice and Bob"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Retrieve(ctx, tt.opts)
			require.NoError(t, err)
			if tt.opts.Query != "" {
				assert.ElementsMatch(t, tt.want, antecedents(got))
				return
			}
			assert.Equal(t, tt.want, antecedents(got))
		})
	}

	all, err := s.Retrieve(ctx, QueryOptions{Pronoun: "they"})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

// --- export ---

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run, err := s.SaveRun(ctx, sampleReport(), time.Now())
	require.NoError(t, err)

	path, err := s.ExportYAML(ctx, QueryOptions{})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc Export
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, run.ID, doc.Run.ID)
	assert.Len(t, doc.Candidates, 5)
	require.Len(t, doc.Contexts, 3)
	assert.Equal(t, "parser crashed", doc.Contexts[1].Error)

	path, err = s.ExportJSON(ctx, QueryOptions{Pronoun: "It"})
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)

	doc = Export{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Candidates, 2)
	assert.Equal(t, "2-It-0", doc.Candidates[0].ID)
}

func TestExportErrors(t *testing.T) {
	s := testStore(t)
	_, err := s.ExportJSON(context.Background(), QueryOptions{})
	assert.ErrorIs(t, err, ErrNoRuns)

	_, err = s.SaveRun(context.Background(), sampleReport(), time.Now())
	require.NoError(t, err)
	_, err = s.ExportYAML(context.Background(), QueryOptions{RunID: "missing"})
	assert.Error(t, err)
}
