// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anaphora

import "github.com/pdiddy/req-anaphora/pkg/types"

// Options tunes candidate generation.
type Options struct {
	// IncludeSubjectNouns adds every subject noun before the pronoun as a
	// one-token candidate, after the chunk-derived candidates.
	IncludeSubjectNouns bool
}

// ResolveCandidates returns the candidate antecedent spans for pronoun p in
// s. Only noun chunks ending at or before the pronoun qualify. One-token
// chunks must be a NOUN or PROPN. Two chunks separated by a single
// coordinating conjunction also yield their merged span. When the same
// phrase text recurs, only its latest occurrence is kept, at the end of the
// result.
//
// The sentence is assumed valid (see types.Sentence.Validate).
func ResolveCandidates(s *types.Sentence, p types.Token, opts Options) []types.Span {
	if s == nil {
		return nil
	}
	set := newCandidateSet()
	add := func(span types.Span) {
		set.put(Fold(s.SpanText(span)), span)
	}

	for k, chunk := range s.Chunks {
		if chunk.End > p.Index {
			continue
		}
		if chunk.Len() == 1 && !s.Tokens[chunk.Start].IsNominal() {
			continue
		}
		add(chunk)

		if k+1 >= len(s.Chunks) {
			continue
		}
		next := s.Chunks[k+1]
		if next.Start-chunk.End != 1 || !s.Tokens[chunk.End].IsCoordinatingConjunction() {
			continue
		}
		// The merged span must also end before the pronoun ("Alice and she").
		if next.End > p.Index {
			continue
		}
		add(types.Span{Start: chunk.Start, End: next.End})
	}

	if opts.IncludeSubjectNouns {
		for _, tok := range s.Tokens {
			if tok.Index >= p.Index {
				break
			}
			if tok.IsSubjectNoun() {
				add(types.Span{Start: tok.Index, End: tok.Index + 1})
			}
		}
	}

	return set.spans()
}

// Resolution pairs a pronoun occurrence with its candidate spans.
type Resolution struct {
	Pronoun    types.Token
	Candidates []types.Span
}

// ResolveSentence locates every pronoun in s and resolves each of them.
func ResolveSentence(s *types.Sentence, vocab Vocabulary, opts Options) []Resolution {
	pronouns := LocatePronouns(s, vocab)
	out := make([]Resolution, 0, len(pronouns))
	for _, p := range pronouns {
		out = append(out, Resolution{
			Pronoun:    p,
			Candidates: ResolveCandidates(s, p, opts),
		})
	}
	return out
}
