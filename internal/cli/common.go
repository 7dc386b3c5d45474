package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codecontext/codecontext/internal/config"
	"github.com/codecontext/codecontext/internal/embedclient"
	"github.com/codecontext/codecontext/internal/extraction"
	"github.com/codecontext/codecontext/internal/filemeta"
	"github.com/codecontext/codecontext/internal/filter"
	"github.com/codecontext/codecontext/internal/incremental"
	"github.com/codecontext/codecontext/internal/lock"
	"github.com/codecontext/codecontext/internal/orchestrator"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/reranker"
	"github.com/codecontext/codecontext/internal/search"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

// collaborators bundles every component a CLI command needs, built once
// from the loaded configuration.
type collaborators struct {
	cfg          *config.Config
	dataDir      string
	registry     *registry.Registry
	locks        *lock.Service
	embedder     *embedclient.Client
	reranker     *reranker.Client
	store        *vectorstore.Store
	extractor    *extraction.Extractor
	filter       *filter.ContentFilter
	orchestrator *orchestrator.Orchestrator
	incremental  *incremental.Processor
	coordinator  *search.Coordinator
}

func newCollaborators(rootDir string) (*collaborators, error) {
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	dataDir := cfg.DataDir.Path
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(rootDir, dataDir)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	reg, err := registry.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	locks, err := lock.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open lock service: %w", err)
	}

	embedder := embedclient.New(cfg.Embedder.Endpoint,
		embedclient.WithMaxChars(cfg.Embedder.MaxChars),
		embedclient.WithMaxRetries(cfg.Embedder.MaxRetries),
		embedclient.WithTimeout(time.Duration(cfg.Embedder.TimeoutSec)*time.Second),
	)

	var rerankClient *reranker.Client
	if cfg.Reranker.Enabled {
		rerankClient = reranker.New(cfg.Reranker.Endpoint)
	}

	store := vectorstore.New()
	extractor := extraction.NewExtractor()
	cf, err := filter.New(cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("build content filter: %w", err)
	}

	fileMeta := func(canonicalPath string) (*filemeta.Store, error) {
		return filemeta.Open(dataDir, canonicalPath)
	}

	orch := &orchestrator.Orchestrator{
		DataDir:   dataDir,
		Registry:  reg,
		FileMeta:  fileMeta,
		Locks:     locks,
		Filter:    cf,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
	}

	incr := &incremental.Processor{
		Registry:  reg,
		FileMeta:  fileMeta,
		Locks:     locks,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
	}

	coordinator := &search.Coordinator{
		Registry:  reg,
		Sync:      incr,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
		Reranker:  rerankClient,
	}

	return &collaborators{
		cfg:          cfg,
		dataDir:      dataDir,
		registry:     reg,
		locks:        locks,
		embedder:     embedder,
		reranker:     rerankClient,
		store:        store,
		extractor:    extractor,
		filter:       cf,
		orchestrator: orch,
		incremental:  incr,
		coordinator:  coordinator,
	}, nil
}
