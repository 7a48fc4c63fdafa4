// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/req-anaphora/internal/httputil"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const itFailsDoc = `{
  "tokens": [
    {"i": 0, "text": "It", "pos": "PRON", "tag": "PRP", "dep": "nsubj", "whitespace": " "},
    {"i": 1, "text": "fails", "pos": "VERB", "tag": "VBZ", "dep": "ROOT", "whitespace": ""},
    {"i": 2, "text": ".", "pos": "PUNCT", "tag": ".", "dep": "punct", "whitespace": ""}
  ],
  "noun_chunks": [{"start": 0, "end": 1}]
}`

const overlappingDoc = `{
  "tokens": [
    {"i": 0, "text": "a", "pos": "DET", "tag": "DT", "dep": "det"},
    {"i": 1, "text": "b", "pos": "NOUN", "tag": "NN", "dep": "nsubj"}
  ],
  "noun_chunks": [{"start": 0, "end": 2}, {"start": 1, "end": 2}]
}`

// --- decode ---

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(itFailsDoc), "It fails.")
	require.NoError(t, err)

	assert.Equal(t, "It fails.", s.Text)
	require.Len(t, s.Tokens, 3)
	assert.Equal(t, "PRP", s.Tokens[0].Tag)
	assert.Equal(t, []types.Span{{Start: 0, End: 1}}, s.Chunks)
	assert.Equal(t, "It fails", s.SpanText(types.Span{Start: 0, End: 2}))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(overlappingDoc), "a b")
	require.Error(t, err)
	assert.True(t, IsMalformed(err))

	_, err = Decode(strings.NewReader("not json"), "x")
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("x", nil))

	base := errors.New("boom")
	err := Wrap("It fails.", base)
	var ae *AnnotationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "It fails.", ae.Text)
	assert.ErrorIs(t, err, base)

	assert.Same(t, err, Wrap("other", err))

	long := strings.Repeat("word ", 40)
	assert.Contains(t, Wrap(long, base).Error(), "...")
}

// --- http ---

func TestHTTPAnnotator(t *testing.T) {
	var got annotateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "req-anaphora/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, itFailsDoc)
	}))
	defer ts.Close()

	a, err := NewHTTPAnnotator(types.AnnotatorConfig{
		Endpoint:   ts.URL,
		APIKey:     "tok",
		Model:      "en_core_web_sm",
		HTTPConfig: types.HTTPConfig{UserAgent: "req-anaphora/test"},
	}, ts.Client())
	require.NoError(t, err)

	s, err := a.Annotate(context.Background(), "It fails.")
	require.NoError(t, err)
	assert.Len(t, s.Tokens, 3)
	assert.Equal(t, annotateRequest{Text: "It fails.", Model: "en_core_web_sm"}, got)
}

func TestHTTPAnnotatorErrors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		malformed bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, "{")
			},
		},
		{
			name: "overlapping chunks",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, overlappingDoc)
			},
			malformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			a, err := NewHTTPAnnotator(types.AnnotatorConfig{Endpoint: ts.URL}, ts.Client())
			require.NoError(t, err)

			_, err = a.Annotate(context.Background(), "It fails.")
			var ae *AnnotationError
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Equal(t, tt.malformed, IsMalformed(err))
		})
	}
}

func TestHTTPAnnotatorRetriesThrottle(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, itFailsDoc)
	}))
	defer ts.Close()

	a, err := NewHTTPAnnotator(types.AnnotatorConfig{Endpoint: ts.URL}, ts.Client())
	require.NoError(t, err)

	_, err = a.Annotate(context.Background(), "It fails.")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHTTPAnnotatorTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	a, err := NewHTTPAnnotator(types.AnnotatorConfig{Endpoint: ts.URL}, ts.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = a.Annotate(ctx, "It fails.")
	var ae *AnnotationError
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPAnnotatorRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPAnnotator(types.AnnotatorConfig{}, nil)
	assert.Error(t, err)
}

// --- container ---

type fakeRuntime struct {
	images map[string]bool
	run    func(ctx context.Context, image string, env []string, stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }
func (f *fakeRuntime) ImageExists(image string) error {
	if f.images[image] {
		return nil
	}
	return fmt.Errorf("image %s not found", image)
}
func (f *fakeRuntime) Run(ctx context.Context, image string, env []string, stdin io.Reader, stdout io.Writer) error {
	return f.run(ctx, image, env, stdin, stdout)
}

func TestContainerAnnotator(t *testing.T) {
	var gotEnv []string
	var gotInput string
	rt := &fakeRuntime{
		images: map[string]bool{DefaultImage: true},
		run: func(_ context.Context, _ string, env []string, stdin io.Reader, stdout io.Writer) error {
			gotEnv = env
			data, _ := io.ReadAll(stdin)
			gotInput = string(data)
			_, err := io.WriteString(stdout, itFailsDoc)
			return err
		},
	}

	a, err := NewContainerAnnotator(rt, types.AnnotatorConfig{Model: "en_core_web_sm"})
	require.NoError(t, err)

	s, err := a.Annotate(context.Background(), "It fails.")
	require.NoError(t, err)
	assert.Len(t, s.Tokens, 3)
	assert.Equal(t, "It fails.", gotInput)
	assert.Equal(t, []string{"SPACY_MODEL=en_core_web_sm"}, gotEnv)
}

func TestContainerAnnotatorMissingImage(t *testing.T) {
	_, err := NewContainerAnnotator(&fakeRuntime{}, types.AnnotatorConfig{Image: "custom:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom:1")
}

func TestContainerAnnotatorFailures(t *testing.T) {
	tests := []struct {
		name string
		run  func(context.Context, string, []string, io.Reader, io.Writer) error
	}{
		{"container error", func(context.Context, string, []string, io.Reader, io.Writer) error {
			return errors.New("exit status 1")
		}},
		{"empty output", func(context.Context, string, []string, io.Reader, io.Writer) error {
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}, run: tt.run}
			a, err := NewContainerAnnotator(rt, types.AnnotatorConfig{})
			require.NoError(t, err)
			_, err = a.Annotate(context.Background(), "It fails.")
			var ae *AnnotationError
			assert.True(t, errors.As(err, &ae))
		})
	}
}

// --- cache ---

type memCache struct {
	mu      sync.Mutex
	docs    map[string]*types.Sentence
	saves   int
	failGet bool
}

func (m *memCache) LookupAnnotation(_ context.Context, text string) (*types.Sentence, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("disk gone")
	}
	s, ok := m.docs[text]
	return s, ok, nil
}

func (m *memCache) SaveAnnotation(_ context.Context, text string, s *types.Sentence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[text] = s
	m.saves++
	return nil
}

func TestCachedAnnotator(t *testing.T) {
	calls := 0
	next := Func(func(_ context.Context, text string) (*types.Sentence, error) {
		calls++
		return Decode(strings.NewReader(itFailsDoc), text)
	})
	cache := &memCache{docs: map[string]*types.Sentence{}}
	a := NewCachedAnnotator(next, cache, nil)

	for i := 0; i < 3; i++ {
		s, err := a.Annotate(context.Background(), "It fails.")
		require.NoError(t, err)
		assert.Len(t, s.Tokens, 3)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.saves)
}

func TestCachedAnnotatorFallsThroughOnCacheError(t *testing.T) {
	calls := 0
	next := Func(func(_ context.Context, text string) (*types.Sentence, error) {
		calls++
		return Decode(strings.NewReader(itFailsDoc), text)
	})
	cache := &memCache{docs: map[string]*types.Sentence{}, failGet: true}

	_, err := NewCachedAnnotator(next, cache, nil).Annotate(context.Background(), "It fails.")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCachedAnnotatorDoesNotCacheFailures(t *testing.T) {
	next := Func(func(_ context.Context, text string) (*types.Sentence, error) {
		return nil, Wrap(text, errors.New("parser crashed"))
	})
	cache := &memCache{docs: map[string]*types.Sentence{}}

	_, err := NewCachedAnnotator(next, cache, nil).Annotate(context.Background(), "It fails.")
	require.Error(t, err)
	assert.Zero(t, cache.saves)
}
