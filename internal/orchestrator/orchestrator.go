// Package orchestrator implements C10 (IndexingOrchestrator): the full
// discover → filter → extract → chunk → embed → upsert pipeline, driven by
// a single public operation, IndexCodebase (§4.10).
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codecontext/codecontext/internal/discovery"
	"github.com/codecontext/codecontext/internal/embedclient"
	"github.com/codecontext/codecontext/internal/extraction"
	"github.com/codecontext/codecontext/internal/filemeta"
	"github.com/codecontext/codecontext/internal/filter"
	"github.com/codecontext/codecontext/internal/langdetect"
	"github.com/codecontext/codecontext/internal/lock"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/subchunk"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

// fileBatchSize is the fan-out width for concurrent per-file processing,
// per §4.10 step 5 ("batches of ~10 files processed concurrently").
const fileBatchSize = 10

// uploadBatchSize is the sub-batch width for embedder/vector-store uploads,
// per §4.10 step 7 ("sub-batches of ~10").
const uploadBatchSize = 10

// Options configures one indexCodebase run.
type Options struct {
	ForceReindex             bool
	EnableContentFiltering   bool
	EnableDependencyAnalysis bool
	SupportedLanguages       []string // empty means "all supported"
}

// FileError records a non-fatal per-file failure.
type FileError struct {
	File  string
	Error string
}

// Result is indexCodebase's return value.
type Result struct {
	Success      bool
	Namespace    string
	TotalFiles   int
	TotalChunks  int
	TotalSymbols int
	IndexingTime time.Duration
	Errors       []FileError
}

// Orchestrator wires together C1-C9 and the E1/E2 collaborators to drive a
// full codebase index.
type Orchestrator struct {
	DataDir   string
	Registry  *registry.Registry
	FileMeta  func(canonicalPath string) (*filemeta.Store, error)
	Locks     *lock.Service
	Filter    *filter.ContentFilter
	Extractor *extraction.Extractor
	Embedder  *embedclient.Client
	Store     *vectorstore.Store
}

// IndexCodebase runs the full indexing pipeline for one codebase root.
func (o *Orchestrator) IndexCodebase(ctx context.Context, codebasePath string, opts Options) (*Result, error) {
	start := time.Now()

	canonicalPath, err := filepath.Abs(codebasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve canonical path: %w", err)
	}
	namespace := registry.GenerateNamespace(canonicalPath)

	lockKey := "full:" + canonicalPath
	lockResult, err := o.Locks.Acquire(lockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !lockResult.Acquired {
		return &Result{Success: false, Namespace: namespace, Errors: []FileError{{File: canonicalPath, Error: lockResult.Message}}}, nil
	}
	defer func() {
		if err := o.Locks.Release(lockKey); err != nil {
			log.Printf("Warning: failed to release index lock for %s: %v\n", canonicalPath, err)
		}
	}()

	discoverer, err := discovery.New(canonicalPath, ".codecontext", nil)
	if err != nil {
		return nil, fmt.Errorf("create discoverer: %w", err)
	}
	files, err := discoverer.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	files = filterSupportedLanguages(files, opts.SupportedLanguages)

	if opts.ForceReindex {
		if err := o.Store.ClearNamespace(namespace); err != nil {
			log.Printf("Warning: failed to clear namespace %s before reindex: %v\n", namespace, err)
		}
	}

	meta, err := o.FileMeta(canonicalPath)
	if err != nil {
		return nil, fmt.Errorf("open file metadata store: %w", err)
	}

	chunks, errs, totalSymbols := o.processFiles(ctx, canonicalPath, files, opts)

	subchunked := make([]extraction.Chunk, 0, len(chunks))
	for _, c := range chunks {
		subchunked = append(subchunked, subchunk.Split(subchunk.DefaultConfig, c)...)
	}

	uploaded, uploadErrs := o.uploadChunks(ctx, namespace, subchunked)
	errs = append(errs, uploadErrs...)

	if uploaded > 0 {
		if _, err := o.Registry.Register(canonicalPath); err != nil {
			log.Printf("Warning: failed to register codebase %s: %v\n", canonicalPath, err)
		}
		if err := o.Registry.UpdateLastIndexed(canonicalPath); err != nil {
			log.Printf("Warning: failed to update last-indexed time for %s: %v\n", canonicalPath, err)
		}
		if err := o.saveFileMetadata(meta, canonicalPath, files, subchunked); err != nil {
			log.Printf("Warning: failed to save file metadata for %s: %v\n", canonicalPath, err)
		}
	}

	return &Result{
		Success:      true,
		Namespace:    namespace,
		TotalFiles:   len(files),
		TotalChunks:  uploaded,
		TotalSymbols: totalSymbols,
		IndexingTime: time.Since(start),
		Errors:       errs,
	}, nil
}

func filterSupportedLanguages(files []string, supported []string) []string {
	if len(supported) == 0 {
		return files
	}
	allowed := make(map[string]bool, len(supported))
	for _, lang := range supported {
		allowed[lang] = true
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if allowed[langdetect.Detect(f, nil).Language] {
			out = append(out, f)
		}
	}
	return out
}

// processFiles runs C5+C4 over files in batches of fileBatchSize, fanned
// out with errgroup, per §4.10 step 5.
func (o *Orchestrator) processFiles(ctx context.Context, rootDir string, files []string, opts Options) ([]extraction.Chunk, []FileError, int) {
	var allChunks []extraction.Chunk
	var allErrors []FileError
	totalSymbols := 0

	for start := 0; start < len(files); start += fileBatchSize {
		end := start + fileBatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		type fileResult struct {
			chunks  []extraction.Chunk
			symbols int
			err     *FileError
		}
		results := make([]fileResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, file := range batch {
			i, file := i, file
			g.Go(func() error {
				chunks, symbols, err := o.processOneFile(gctx, rootDir, file, opts)
				if err != nil {
					results[i] = fileResult{err: &FileError{File: file, Error: err.Error()}}
					return nil
				}
				results[i] = fileResult{chunks: chunks, symbols: symbols}
				return nil
			})
		}
		_ = g.Wait()

		for _, r := range results {
			if r.err != nil {
				allErrors = append(allErrors, *r.err)
				continue
			}
			allChunks = append(allChunks, r.chunks...)
			totalSymbols += r.symbols
		}
	}

	return allChunks, allErrors, totalSymbols
}

func (o *Orchestrator) processOneFile(ctx context.Context, rootDir, file string, opts Options) ([]extraction.Chunk, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, 0, fmt.Errorf("read file: %w", err)
	}

	relPath, err := filepath.Rel(rootDir, file)
	if err != nil {
		relPath = file
	}
	relPath = filepath.ToSlash(relPath)

	if opts.EnableContentFiltering && o.Filter != nil {
		decision := o.Filter.ShouldInclude(relPath, content)
		if !decision.Include {
			return nil, 0, nil
		}
	}

	language := langdetect.Detect(file, content).Language
	if !o.Extractor.SupportsLanguage(language) {
		return nil, 0, nil
	}

	result, err := o.Extractor.Extract(language, file, content)
	if err != nil {
		return nil, 0, fmt.Errorf("extract: %w", err)
	}

	chunks := extraction.ChunkFile(extraction.DefaultChunkingConfig, result, file, relPath, content)
	return chunks, len(result.File.Symbols), nil
}

// uploadChunks embeds and upserts chunks in sub-batches of uploadBatchSize.
// A batch that exhausts the embedder's retry budget is skipped and logged,
// not fatal to the overall index (§4.10 step 7).
func (o *Orchestrator) uploadChunks(ctx context.Context, namespace string, chunks []extraction.Chunk) (int, []FileError) {
	uploaded := 0
	var errs []FileError

	for start := 0; start < len(chunks); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := o.Embedder.EmbedBatch(ctx, texts, embedclient.ModePassage)
		if err != nil {
			log.Printf("Warning: embedding batch %d-%d failed after retries, skipping: %v\n", start, end, err)
			for _, c := range batch {
				errs = append(errs, FileError{File: c.FilePath, Error: err.Error()})
			}
			continue
		}

		rows := make([]vectorstore.Row, len(batch))
		for i, c := range batch {
			rows[i] = vectorstore.Row{
				ID: c.ID, Content: c.Content, Embedding: vectors[i],
				FilePath: c.FilePath, RelativePath: c.RelativePath,
				StartLine: c.StartLine, EndLine: c.EndLine, Language: c.Language,
				Symbols: symbolNames(c),
			}
		}
		if err := o.Store.Upsert(ctx, namespace, rows); err != nil {
			log.Printf("Warning: vector store upsert failed for batch %d-%d, skipping: %v\n", start, end, err)
			for _, c := range batch {
				errs = append(errs, FileError{File: c.FilePath, Error: err.Error()})
			}
			continue
		}
		uploaded += len(batch)
	}

	return uploaded, errs
}

func symbolNames(c extraction.Chunk) []string {
	names := make([]string, len(c.Symbols))
	for i, s := range c.Symbols {
		names[i] = s.Name
	}
	return names
}

func (o *Orchestrator) saveFileMetadata(meta *filemeta.Store, rootDir string, files []string, chunks []extraction.Chunk) error {
	chunksByFile := make(map[string][]string)
	for _, c := range chunks {
		chunksByFile[c.RelativePath] = append(chunksByFile[c.RelativePath], c.ID)
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		relPath, err := filepath.Rel(rootDir, file)
		if err != nil {
			relPath = file
		}
		relPath = filepath.ToSlash(relPath)

		meta.Set(filemeta.FileState{
			RelativePath: relPath,
			Hash:         filemeta.HashFile(content),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			ChunkIDs:     chunksByFile[relPath],
		})
	}
	return meta.Save()
}
