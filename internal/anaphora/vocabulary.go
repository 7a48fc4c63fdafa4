// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anaphora locates pronouns in annotated sentences and generates
// the ordered set of candidate antecedent noun phrases for each of them.
package anaphora

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lowercases s for case-insensitive comparison of pronouns and
// noun-phrase text.
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Vocabulary is a set of lowercase pronoun forms.
type Vocabulary map[string]struct{}

// NewVocabulary builds a vocabulary from words, lowercasing each entry.
// Duplicates collapse.
func NewVocabulary(words ...string) Vocabulary {
	v := make(Vocabulary, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		v[Fold(w)] = struct{}{}
	}
	return v
}

// defaultPronouns covers first, second and third person, singular and
// plural, in subject, object, possessive and reflexive case.
var defaultPronouns = []string{
	"i", "me", "my", "mine", "myself",
	"you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself",
	"she", "her", "hers", "herself",
	"it", "its", "itself",
	"we", "us", "our", "ours", "ourselves",
	"they", "them", "their", "theirs", "themselves",
}

// DefaultVocabulary returns the built-in English pronoun vocabulary.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(defaultPronouns...)
}

// Contains reports whether word, compared case-insensitively, is in v.
func (v Vocabulary) Contains(word string) bool {
	_, ok := v[Fold(word)]
	return ok
}

// Words returns the vocabulary entries in sorted order.
func (v Vocabulary) Words() []string {
	out := make([]string, 0, len(v))
	for w := range v {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
