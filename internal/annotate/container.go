// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/req-anaphora/internal/container"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// DefaultImage is the annotator image used when none is configured. It
// reads one sentence on stdin and writes one annotation document.
const DefaultImage = "spacy-annotator:latest"

// ContainerAnnotator pipes each sentence through an annotator image using
// a docker or podman runtime injected at construction time.
type ContainerAnnotator struct {
	runtime container.Runtime
	image   string
	model   string
}

// NewContainerAnnotator verifies that the image exists locally and returns
// an annotator bound to it.
func NewContainerAnnotator(rt container.Runtime, cfg types.AnnotatorConfig) (*ContainerAnnotator, error) {
	image := cfg.Image
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("annotator image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerAnnotator{runtime: rt, image: image, model: cfg.Model}, nil
}

// Annotate runs the annotator container for text and decodes its output.
func (c *ContainerAnnotator) Annotate(ctx context.Context, text string) (*types.Sentence, error) {
	var env []string
	if c.model != "" {
		env = append(env, "SPACY_MODEL="+c.model)
	}

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, env, strings.NewReader(text), &out); err != nil {
		return nil, Wrap(text, err)
	}
	if out.Len() == 0 {
		return nil, Wrap(text, fmt.Errorf("%s produced empty output", c.image))
	}

	s, err := Decode(&out, text)
	if err != nil {
		return nil, Wrap(text, err)
	}
	return s, nil
}
