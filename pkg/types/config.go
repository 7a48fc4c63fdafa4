// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that call remote
// services.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on 429/503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnnotatorBackend identifies how sentences are annotated.
type AnnotatorBackend string

const (
	AnnotatorHTTP      AnnotatorBackend = "http"
	AnnotatorContainer AnnotatorBackend = "container"
)

// AnnotatorConfig holds settings for the annotation adapter.
type AnnotatorConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the annotator: http or container.
	Backend AnnotatorBackend `json:"backend" yaml:"backend"`

	// Endpoint is the annotation service URL for the http backend.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is an optional bearer token for the annotation service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image"`

	// Model is the language model name passed to the annotator
	// (e.g. "en_core_web_sm").
	Model string `json:"model" yaml:"model"`

	// SentenceTimeout bounds a single annotation call. A timeout fails that
	// sentence only.
	SentenceTimeout time.Duration `json:"sentence_timeout" yaml:"sentence_timeout"`

	// Workers is the number of sentences annotated concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// Cache enables the SQLite annotation cache.
	Cache bool `json:"cache" yaml:"cache"`
}

// ClassifierConfig holds settings for the intent classifier adapter.
type ClassifierConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the prediction service URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is an optional bearer token for the prediction service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Column is the input table column holding requirement text
	// (default "Requirements").
	Column string `json:"column" yaml:"column"`
}

// ResolveConfig holds settings for candidate antecedent generation.
type ResolveConfig struct {
	// Pronouns is the pronoun vocabulary. Empty uses the built-in English set.
	Pronouns []string `json:"pronouns" yaml:"pronouns"`

	// IncludeSubjectNouns adds subject nouns that are not noun chunks.
	IncludeSubjectNouns bool `json:"include_subject_nouns" yaml:"include_subject_nouns"`

	// MaxIDAttempts bounds the identifier disambiguation search for one
	// pronoun occurrence (default 1,000,000).
	MaxIDAttempts int `json:"max_id_attempts" yaml:"max_id_attempts"`
}

// StoreConfig holds settings for the SQLite run store.
type StoreConfig struct {
	// DataDir is the base directory for the database (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// OutputConfig names the files the pipeline writes.
type OutputConfig struct {
	// ProcessedDir holds the intent tables (default "processed_data").
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir"`

	// OutputDir holds the candidate table (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Annotator  AnnotatorConfig  `json:"annotator" yaml:"annotator"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Resolve    ResolveConfig    `json:"resolve" yaml:"resolve"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}
