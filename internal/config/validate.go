package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidWeights indicates the hybrid scoring weights are out of range.
	ErrInvalidWeights = errors.New("invalid search weights")

	// ErrInvalidLimit indicates a non-positive default result limit.
	ErrInvalidLimit = errors.New("invalid default limit")

	// ErrEmptyEndpoint indicates a required HTTP endpoint is missing.
	ErrEmptyEndpoint = errors.New("empty endpoint")
)

// Validate checks that the configuration is complete and internally
// consistent.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedder(&cfg.Embedder); err != nil {
		errs = append(errs, err)
	}
	if err := validateReranker(&cfg.Reranker); err != nil {
		errs = append(errs, err)
	}
	if err := validateSearch(&cfg.Search); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateEmbedder(cfg *EmbedderConfig) error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("%w: embedder.endpoint is required", ErrEmptyEndpoint)
	}
	if cfg.MaxChars <= 0 {
		return fmt.Errorf("embedder.max_chars must be positive, got %d", cfg.MaxChars)
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("embedder.max_retries must be positive, got %d", cfg.MaxRetries)
	}
	return nil
}

func validateReranker(cfg *RerankerConfig) error {
	if cfg.Enabled && strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("%w: reranker.endpoint is required when reranker.enabled is true", ErrEmptyEndpoint)
	}
	return nil
}

func validateSearch(cfg *SearchConfig) error {
	if cfg.VectorWeight < 0 || cfg.BM25Weight < 0 {
		return fmt.Errorf("%w: weights must be non-negative, got vector=%.2f bm25=%.2f", ErrInvalidWeights, cfg.VectorWeight, cfg.BM25Weight)
	}
	if cfg.DefaultLimit <= 0 {
		return fmt.Errorf("%w: search.default_limit must be positive, got %d", ErrInvalidLimit, cfg.DefaultLimit)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
