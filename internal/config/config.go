// Package config loads codecontext's configuration: defaults, an optional
// .codecontext/config.yml, and CODECONTEXT_* environment overrides, in that
// priority order (env wins).
package config

// Config is the complete codecontext configuration for one invocation.
type Config struct {
	DataDir  DataDirConfig  `yaml:"data_dir" mapstructure:"data_dir"`
	Embedder EmbedderConfig `yaml:"embedder" mapstructure:"embedder"`
	Reranker RerankerConfig `yaml:"reranker" mapstructure:"reranker"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
}

// DataDirConfig locates the registry/lock/file-metadata JSON documents
// (C7/C8/C9). A relative Path is resolved against the codebase root.
type DataDirConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EmbedderConfig configures the E1 collaborator HTTP client.
type EmbedderConfig struct {
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	MaxChars   int    `yaml:"max_chars" mapstructure:"max_chars"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSec int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// RerankerConfig configures the optional E3 collaborator. Reranking is on
// only when Enabled is true; Enabled with an empty Endpoint fails validation.
type RerankerConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
}

// SearchConfig tunes C12's hybrid scoring.
type SearchConfig struct {
	VectorWeight float64 `yaml:"vector_weight" mapstructure:"vector_weight"`
	BM25Weight   float64 `yaml:"bm25_weight" mapstructure:"bm25_weight"`
	DefaultLimit int     `yaml:"default_limit" mapstructure:"default_limit"`
}

// PathsConfig supplements C2/C3's built-in rules with project-specific
// patterns.
type PathsConfig struct {
	Ignore             []string `yaml:"ignore" mapstructure:"ignore"`
	SupportedLanguages []string `yaml:"supported_languages" mapstructure:"supported_languages"`
}

// Default returns codecontext's built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DataDirConfig{Path: ".codecontext"},
		Embedder: EmbedderConfig{
			Endpoint:   "http://localhost:8121",
			MaxChars:   8000,
			MaxRetries: 3,
			TimeoutSec: 15,
		},
		Reranker: RerankerConfig{
			Endpoint: "",
			Enabled:  false,
		},
		Search: SearchConfig{
			VectorWeight: 0.6,
			BM25Weight:   0.4,
			DefaultLimit: 15,
		},
		Paths: PathsConfig{
			Ignore:             nil,
			SupportedLanguages: nil,
		},
	}
}
