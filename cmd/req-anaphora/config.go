// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/req-anaphora/internal/annotate"
	"github.com/pdiddy/req-anaphora/internal/container"
	"github.com/pdiddy/req-anaphora/internal/store"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("annotator.backend", string(types.AnnotatorHTTP))
	v.SetDefault("annotator.endpoint", "")
	v.SetDefault("annotator.api_key", "")
	v.SetDefault("annotator.image", annotate.DefaultImage)
	v.SetDefault("annotator.model", "en_core_web_sm")
	v.SetDefault("annotator.timeout", 30*time.Second)
	v.SetDefault("annotator.user_agent", "req-anaphora/"+version)
	v.SetDefault("annotator.max_retries", 5)
	v.SetDefault("annotator.sentence_timeout", time.Minute)
	v.SetDefault("annotator.workers", 4)
	v.SetDefault("annotator.cache", true)

	v.SetDefault("classifier.endpoint", "")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.column", "Requirements")
	v.SetDefault("classifier.timeout", 30*time.Second)
	v.SetDefault("classifier.user_agent", "req-anaphora/"+version)
	v.SetDefault("classifier.max_retries", 5)

	v.SetDefault("resolve.pronouns", []string{})
	v.SetDefault("resolve.include_subject_nouns", false)
	v.SetDefault("resolve.max_id_attempts", 1_000_000)

	v.SetDefault("store.data_dir", "data")
	v.SetDefault("store.max_results", 20)

	v.SetDefault("output.processed_dir", "processed_data")
	v.SetDefault("output.output_dir", "output")
}

// flagKeys maps command flag names to configuration keys. Flags a command
// does not define are ignored.
var flagKeys = map[string]string{
	"annotator":           "annotator.backend",
	"annotator-endpoint":  "annotator.endpoint",
	"image":               "annotator.image",
	"model":               "annotator.model",
	"workers":             "annotator.workers",
	"sentence-timeout":    "annotator.sentence_timeout",
	"cache":               "annotator.cache",
	"classifier-endpoint": "classifier.endpoint",
	"column":              "classifier.column",
	"pronouns":            "resolve.pronouns",
	"subject-nouns":       "resolve.include_subject_nouns",
	"data-dir":            "store.data_dir",
	"max-results":         "store.max_results",
	"processed-dir":       "output.processed_dir",
	"output-dir":          "output.output_dir",
}

// loadConfig resolves the pipeline configuration for cmd: flags set on the
// command line override the config file and environment, which override
// defaults.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return types.PipelineConfig{}, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	var cfg types.PipelineConfig
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.Squash = true
	})
	if err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Classifier.APIKey = secretDefault(classifierKeySecret, cfg.Classifier.APIKey)
	cfg.Annotator.APIKey = secretDefault(annotatorKeySecret, cfg.Annotator.APIKey)
	return cfg, nil
}

// newAnnotator builds the configured annotator, wrapped with the store's
// annotation cache when enabled and st is not nil.
func newAnnotator(cfg types.AnnotatorConfig, st *store.Store) (annotate.Annotator, error) {
	var (
		a   annotate.Annotator
		err error
	)
	switch cfg.Backend {
	case types.AnnotatorHTTP, "":
		a, err = annotate.NewHTTPAnnotator(cfg, &http.Client{Timeout: cfg.Timeout})
	case types.AnnotatorContainer:
		rt, rerr := container.DetectRuntime()
		if rerr != nil {
			return nil, rerr
		}
		a, err = annotate.NewContainerAnnotator(rt, cfg)
	default:
		return nil, fmt.Errorf("unknown annotator backend %q: use http or container", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Cache && st != nil {
		a = annotate.NewCachedAnnotator(a, st, logger)
	}
	return a, nil
}
