// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Cache persists annotations keyed by exact sentence text.
type Cache interface {
	LookupAnnotation(ctx context.Context, text string) (*types.Sentence, bool, error)
	SaveAnnotation(ctx context.Context, text string, s *types.Sentence) error
}

// CachedAnnotator answers from the cache when it can and stores every
// fresh annotation. Cache failures are logged and never fail a sentence.
type CachedAnnotator struct {
	next   Annotator
	cache  Cache
	logger *zap.Logger
}

// NewCachedAnnotator wraps next with cache. A nil logger discards logs.
func NewCachedAnnotator(next Annotator, cache Cache, logger *zap.Logger) *CachedAnnotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAnnotator{next: next, cache: cache, logger: logger}
}

// Annotate implements Annotator.
func (c *CachedAnnotator) Annotate(ctx context.Context, text string) (*types.Sentence, error) {
	s, ok, err := c.cache.LookupAnnotation(ctx, text)
	switch {
	case err != nil:
		c.logger.Warn("annotation cache lookup failed", zap.Error(err))
	case ok:
		verr := s.Validate()
		if verr == nil {
			return s, nil
		}
		c.logger.Warn("discarding malformed cached annotation", zap.Error(verr))
	}

	s, err = c.next.Annotate(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveAnnotation(ctx, text, s); err != nil {
		c.logger.Warn("annotation cache write failed", zap.Error(err))
	}
	return s, nil
}
