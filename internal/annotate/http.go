// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/req-anaphora/internal/httputil"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// HTTPAnnotator posts sentences to a spaCy-style annotation service.
type HTTPAnnotator struct {
	Endpoint   string
	APIKey     string
	Model      string
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

// NewHTTPAnnotator builds an annotator from cfg. The endpoint is required.
func NewHTTPAnnotator(cfg types.AnnotatorConfig, client *http.Client) (*HTTPAnnotator, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("annotator endpoint is required for the %s backend", types.AnnotatorHTTP)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPAnnotator{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Client:     client,
	}, nil
}

type annotateRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Annotate sends text to the service and decodes the returned document.
func (h *HTTPAnnotator) Annotate(ctx context.Context, text string) (*types.Sentence, error) {
	body, err := json.Marshal(annotateRequest{Text: text, Model: h.Model})
	if err != nil {
		return nil, Wrap(text, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Wrap(text, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, h.Client, req, h.MaxRetries)
	if err != nil {
		return nil, Wrap(text, fmt.Errorf("annotator request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, Wrap(text, fmt.Errorf("annotator returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	s, err := Decode(resp.Body, text)
	if err != nil {
		return nil, Wrap(text, err)
	}
	return s, nil
}
