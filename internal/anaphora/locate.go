// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anaphora

import "github.com/pdiddy/req-anaphora/pkg/types"

// LocatePronouns returns the tokens of s that are tagged as pronouns and
// whose lowercased text is in vocab, in sentence order. Each token position
// appears at most once; repeated pronoun text at different positions is
// kept.
func LocatePronouns(s *types.Sentence, vocab Vocabulary) []types.Token {
	if s == nil {
		return nil
	}
	var out []types.Token
	seen := make(map[int]bool)
	for _, tok := range s.Tokens {
		if !tok.IsPronounTagged() || !vocab.Contains(tok.Text) {
			continue
		}
		if seen[tok.Index] {
			continue
		}
		seen[tok.Index] = true
		out = append(out, tok)
	}
	return out
}
