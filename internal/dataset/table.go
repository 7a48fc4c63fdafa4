// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset turns a collection of requirement sentences into the flat
// candidate table: one row per (pronoun occurrence, candidate antecedent),
// each occurrence carrying a dataset-wide unique identifier.
package dataset

import (
	"fmt"

	"github.com/pdiddy/req-anaphora/internal/anaphora"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Options configures table assembly.
type Options struct {
	Resolve anaphora.Options

	// MaxIDAttempts bounds identifier disambiguation for one occurrence.
	MaxIDAttempts int
}

// ParsedContext is a context together with its annotation. A nil Sentence
// marks a context whose annotation failed; it contributes no occurrences.
type ParsedContext struct {
	Context  types.Context
	Sentence *types.Sentence
}

// Contexts deduplicates sentences by exact string equality and indexes them
// in order of first appearance.
func Contexts(sentences []string) []types.Context {
	seen := make(map[string]bool, len(sentences))
	var out []types.Context
	for _, s := range sentences {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, types.Context{Index: len(out), Text: s})
	}
	return out
}

// Table accumulates candidate rows across contexts. It owns the used-id set
// and the disambiguation counter, so every context of a dataset must go
// through the same Table, in context order.
type Table struct {
	vocab anaphora.Vocabulary
	opts  Options
	ids   *IDAssigner
	rows  []types.CandidateRow
}

// NewTable returns an empty table for the given pronoun vocabulary.
func NewTable(vocab anaphora.Vocabulary, opts Options) *Table {
	return &Table{
		vocab: vocab,
		opts:  opts,
		ids:   NewIDAssigner(opts.MaxIDAttempts),
	}
}

// ContextStats counts what one context added to the table.
type ContextStats struct {
	Occurrences int
	Rows        int
}

// Add locates the pronouns of s, assigns each occurrence an identifier and
// appends one row per candidate antecedent. An occurrence without
// candidates still consumes its identifier. A nil sentence adds nothing.
func (t *Table) Add(c types.Context, s *types.Sentence) (ContextStats, error) {
	var stats ContextStats
	if s == nil {
		return stats, nil
	}
	if err := s.Validate(); err != nil {
		return stats, fmt.Errorf("context %d: %w", c.Index, err)
	}

	for _, p := range anaphora.LocatePronouns(s, t.vocab) {
		id, err := t.ids.Next(c.Index, p.Text)
		if err != nil {
			return stats, err
		}
		stats.Occurrences++
		for _, span := range anaphora.ResolveCandidates(s, p, t.opts.Resolve) {
			t.rows = append(t.rows, types.CandidateRow{
				ID:         id,
				Context:    c.Text,
				Pronoun:    p.Text,
				Position:   p.Index,
				Antecedent: s.SpanText(span),
			})
			stats.Rows++
		}
	}
	return stats, nil
}

// Rows returns the rows added so far, grouped by identifier in emission
// order.
func (t *Table) Rows() []types.CandidateRow { return t.rows }

// IDs returns the number of identifiers registered, including those of
// occurrences with no candidate rows.
func (t *Table) IDs() int { return t.ids.Len() }

// BuildTable runs every context through a fresh Table in order and returns
// the concatenated rows. An empty context list yields an empty table.
func BuildTable(contexts []ParsedContext, vocab anaphora.Vocabulary, opts Options) ([]types.CandidateRow, error) {
	t := NewTable(vocab, opts)
	for _, pc := range contexts {
		if _, err := t.Add(pc.Context, pc.Sentence); err != nil {
			return nil, err
		}
	}
	return t.Rows(), nil
}
