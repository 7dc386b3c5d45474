package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration from defaults, a config file, and environment
// variables, in that priority order (env wins).
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at rootDir, where a
// .codecontext/config.yml may live.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODECONTEXT_*)
// 2. Config file (.codecontext/config.yml or .codecontext/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".codecontext")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CODECONTEXT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("data_dir.path")
	v.BindEnv("embedder.endpoint")
	v.BindEnv("embedder.max_chars")
	v.BindEnv("embedder.max_retries")
	v.BindEnv("embedder.timeout_seconds")
	v.BindEnv("reranker.endpoint")
	v.BindEnv("reranker.enabled")
	v.BindEnv("search.vector_weight")
	v.BindEnv("search.bm25_weight")
	v.BindEnv("search.default_limit")
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("data_dir.path", d.DataDir.Path)

	v.SetDefault("embedder.endpoint", d.Embedder.Endpoint)
	v.SetDefault("embedder.max_chars", d.Embedder.MaxChars)
	v.SetDefault("embedder.max_retries", d.Embedder.MaxRetries)
	v.SetDefault("embedder.timeout_seconds", d.Embedder.TimeoutSec)

	v.SetDefault("reranker.endpoint", d.Reranker.Endpoint)
	v.SetDefault("reranker.enabled", d.Reranker.Enabled)

	v.SetDefault("search.vector_weight", d.Search.VectorWeight)
	v.SetDefault("search.bm25_weight", d.Search.BM25Weight)
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)

	v.SetDefault("paths.ignore", d.Paths.Ignore)
	v.SetDefault("paths.supported_languages", d.Paths.SupportedLanguages)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
