// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate turns raw sentence text into annotated sentences
// (tokens, tags, dependency labels and noun chunks) by calling an external
// linguistic annotator. Backends share one JSON document format:
//
//	{"text": "...",
//	 "tokens": [{"i": 0, "text": "It", "pos": "PRON", "tag": "PRP", "dep": "nsubj", "whitespace": " "}],
//	 "noun_chunks": [{"start": 0, "end": 1}]}
package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Annotator produces an annotated sentence for text. Implementations must
// be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*types.Sentence, error)
}

// Func adapts a plain function to the Annotator interface.
type Func func(ctx context.Context, text string) (*types.Sentence, error)

// Annotate calls f.
func (f Func) Annotate(ctx context.Context, text string) (*types.Sentence, error) {
	return f(ctx, text)
}

// AnnotationError reports that one sentence could not be annotated.
type AnnotationError struct {
	Text string
	Err  error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotating %q: %v", preview(e.Text), e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// Wrap returns err as an *AnnotationError for text. Nil stays nil and an
// existing AnnotationError is returned unchanged.
func Wrap(text string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AnnotationError
	if errors.As(err, &ae) {
		return err
	}
	return &AnnotationError{Text: text, Err: err}
}

// IsMalformed reports whether err was caused by a sentence that breaks the
// noun-chunk invariants.
func IsMalformed(err error) bool {
	var mce *types.MalformedChunkError
	return errors.As(err, &mce)
}

// Decode reads one annotation document from r and validates it. text fills
// the sentence text when the document omits it.
func Decode(r io.Reader, text string) (*types.Sentence, error) {
	var s types.Sentence
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding annotation: %w", err)
	}
	if s.Text == "" {
		s.Text = text
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func preview(s string) string {
	const max = 60
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
