// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the req-anaphora
// pipeline: annotated sentences, contexts, intent records, candidate rows
// and configuration.
package types

import (
	"fmt"
	"strings"
)

// Coarse part-of-speech and fine tag values the candidate rules depend on.
const (
	POSNoun       = "NOUN"
	POSProperNoun = "PROPN"
	POSCoordConj  = "CCONJ"

	TagPronounMarker = "PRP"
	TagCoordConj     = "CC"

	DepSubjectMarker = "subj"
)

// Token is one word of an annotated sentence.
type Token struct {
	// Text is the surface form as it appears in the sentence.
	Text string `json:"text" yaml:"text"`

	// Index is the zero-based position of the token in the sentence.
	Index int `json:"i" yaml:"i"`

	// POS is the coarse universal part of speech (NOUN, PROPN, VERB, CCONJ).
	POS string `json:"pos" yaml:"pos"`

	// Tag is the fine-grained tag (PRP, PRP$, NN, CC).
	Tag string `json:"tag" yaml:"tag"`

	// Dep is the dependency relation to the head token (nsubj, dobj).
	Dep string `json:"dep" yaml:"dep"`

	// Whitespace is the trailing whitespace after the token, when the
	// annotator reports it. Nil means unknown and a single space is assumed.
	Whitespace *string `json:"whitespace,omitempty" yaml:"whitespace,omitempty"`
}

// IsPronounTagged reports whether the fine tag marks a personal or
// possessive pronoun.
func (t Token) IsPronounTagged() bool {
	return strings.Contains(t.Tag, TagPronounMarker)
}

// IsNominal reports whether the coarse POS is NOUN or PROPN.
func (t Token) IsNominal() bool {
	return t.POS == POSNoun || t.POS == POSProperNoun
}

// IsSubjectNoun reports whether the token is a common noun in a subject
// relation.
func (t Token) IsSubjectNoun() bool {
	return t.POS == POSNoun && strings.Contains(t.Dep, DepSubjectMarker)
}

// IsCoordinatingConjunction reports whether the token joins two
// coordinated phrases. Annotators that only emit universal tags mark it
// with CCONJ instead of CC.
func (t Token) IsCoordinatingConjunction() bool {
	return t.Tag == TagCoordConj || (t.Tag == "" && t.POS == POSCoordConj)
}

// Span is a half-open range [Start, End) of token indices.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of tokens the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Sentence is an annotated sentence: its tokens plus the base noun chunks
// recognised by the annotator, sorted by start and non-overlapping.
type Sentence struct {
	Text   string  `json:"text" yaml:"text"`
	Tokens []Token `json:"tokens" yaml:"tokens"`
	Chunks []Span  `json:"noun_chunks" yaml:"noun_chunks"`
}

// SpanText returns the surface text of span. Token whitespace is honoured
// when the annotator supplied it; otherwise tokens are joined by a single
// space.
func (s *Sentence) SpanText(span Span) string {
	var b strings.Builder
	for i := span.Start; i < span.End; i++ {
		tok := s.Tokens[i]
		b.WriteString(tok.Text)
		if i == span.End-1 {
			break
		}
		if tok.Whitespace != nil {
			b.WriteString(*tok.Whitespace)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// MalformedChunkError reports a sentence whose tokens or noun chunks break
// the ordering invariants the candidate rules rely on.
type MalformedChunkError struct {
	Chunk  int
	Span   Span
	Reason string
}

func (e *MalformedChunkError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("malformed sentence: %s", e.Reason)
	}
	return fmt.Sprintf("malformed noun chunk %d [%d,%d): %s", e.Chunk, e.Span.Start, e.Span.End, e.Reason)
}

// Validate checks that token indices match their positions and that noun
// chunks are non-empty, in range, sorted by start and non-overlapping.
func (s *Sentence) Validate() error {
	for i, tok := range s.Tokens {
		if tok.Index != i {
			return &MalformedChunkError{
				Chunk:  -1,
				Reason: fmt.Sprintf("token %q at position %d has index %d", tok.Text, i, tok.Index),
			}
		}
	}

	prevEnd := 0
	for i, c := range s.Chunks {
		switch {
		case c.Start < 0 || c.End > len(s.Tokens):
			return &MalformedChunkError{Chunk: i, Span: c, Reason: fmt.Sprintf("out of range for %d tokens", len(s.Tokens))}
		case c.Len() <= 0:
			return &MalformedChunkError{Chunk: i, Span: c, Reason: "empty span"}
		case c.Start < prevEnd:
			return &MalformedChunkError{Chunk: i, Span: c, Reason: fmt.Sprintf("overlaps or precedes previous chunk ending at %d", prevEnd)}
		}
		prevEnd = c.End
	}
	return nil
}
