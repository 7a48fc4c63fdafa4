// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// QueryOptions holds parameters for candidate queries.
type QueryOptions struct {
	// Query is an FTS5 match expression over context and antecedent text.
	Query string

	// Pronoun filters by pronoun text, compared case-insensitively.
	Pronoun string

	// RunID restricts results to one run. Empty searches every run.
	RunID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// QueryResult is a stored candidate row with the run it belongs to.
type QueryResult struct {
	types.CandidateRow `yaml:",inline"`
	RunID              string `json:"run_id" yaml:"run_id"`
}

// Retrieve queries stored candidates. Full-text queries are ranked by
// relevance; otherwise rows come back in emission order within each run.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.run_id, c.id, c.context, c.pronoun, c.position, c.antecedent
			FROM candidates_fts
			JOIN candidates c ON c.rowid = candidates_fts.rowid
			WHERE candidates_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.run_id, c.id, c.context, c.pronoun, c.position, c.antecedent
			FROM candidates c
			WHERE 1=1`)
	}

	if opts.RunID != "" {
		qb.WriteString(` AND c.run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.Pronoun != "" {
		qb.WriteString(` AND lower(c.pronoun) = lower(?)`)
		args = append(args, opts.Pronoun)
	}

	if useFTS {
		qb.WriteString(` ORDER BY candidates_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.run_id, c.ord`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var qr QueryResult
		if err := rows.Scan(&qr.RunID, &qr.ID, &qr.Context, &qr.Pronoun, &qr.Position, &qr.Antecedent); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}
