// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/req-anaphora/internal/httputil"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

// HTTPClassifier calls a text-classification prediction endpoint.
type HTTPClassifier struct {
	Endpoint   string
	APIKey     string
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

// NewHTTPClassifier builds a classifier from cfg. The endpoint is required.
func NewHTTPClassifier(cfg types.ClassifierConfig, client *http.Client) (*HTTPClassifier, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("classifier endpoint is required")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClassifier{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Client:     client,
	}, nil
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Intent string `json:"intent"`
}

// Classify implements Classifier.
func (h *HTTPClassifier) Classify(ctx context.Context, sentence string) (string, error) {
	body, err := json.Marshal(classifyRequest{Text: sentence})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
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
		return "", fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("classifier returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding classifier response: %w", err)
	}
	label := strings.TrimSpace(out.Intent)
	if label == "" {
		return "", errors.New("classifier returned an empty intent")
	}
	return label, nil
}
