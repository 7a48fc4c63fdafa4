// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/req-anaphora/internal/dataset"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Run        Run                  `json:"run" yaml:"run"`
	Contexts   []ExportContext      `json:"contexts" yaml:"contexts"`
	Candidates []types.CandidateRow `json:"candidates" yaml:"candidates"`
}

// ExportContext is a per-context outcome in an export.
type ExportContext struct {
	Index  int                   `json:"index" yaml:"index"`
	Text   string                `json:"text" yaml:"text"`
	Status dataset.ContextStatus `json:"status" yaml:"status"`
	Rows   int                   `json:"rows" yaml:"rows"`
	Error  string                `json:"error,omitempty" yaml:"error,omitempty"`
}

const exportLimit = 1_000_000

// ExportYAML writes a run to dataDir/index/export.yaml and returns the
// path. Filters follow Retrieve; an empty RunID selects the latest run.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.exportDocument(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes a run to dataDir/index/export.json and returns the
// path. Filters follow Retrieve; an empty RunID selects the latest run.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.exportDocument(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dataDir, indexDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportDocument(ctx context.Context, opts QueryOptions) (*Export, error) {
	run, err := s.resolveRun(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}
	opts.RunID = run.ID
	opts.MaxResults = exportLimit

	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	contexts, err := s.ContextResults(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	doc := &Export{Run: run, Candidates: make([]types.CandidateRow, len(results))}
	for i, r := range results {
		doc.Candidates[i] = r.CandidateRow
	}
	for _, c := range contexts {
		doc.Contexts = append(doc.Contexts, ExportContext{
			Index:  c.Context.Index,
			Text:   c.Context.Text,
			Status: c.Status,
			Rows:   c.Rows,
			Error:  c.Message(),
		})
	}
	return doc, nil
}

func (s *Store) resolveRun(ctx context.Context, runID string) (Run, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	if runID == "" {
		return runs[0], nil
	}
	for _, r := range runs {
		if r.ID == runID {
			return r, nil
		}
	}
	return Run{}, fmt.Errorf("run %s not found", runID)
}
