// Package incremental implements C11 (FileProcessor): incremental sync
// against an already-indexed codebase, replacing only files that changed
// since the last index (§4.11).
package incremental

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/codecontext/codecontext/internal/discovery"
	"github.com/codecontext/codecontext/internal/embedclient"
	"github.com/codecontext/codecontext/internal/extraction"
	"github.com/codecontext/codecontext/internal/filemeta"
	"github.com/codecontext/codecontext/internal/langdetect"
	"github.com/codecontext/codecontext/internal/lock"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/subchunk"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

// Options configures processIncrementalUpdate.
type Options struct {
	MaxAgeHours float64 // 0 means "use lastIndexedAt instead"
}

// Result is processIncrementalUpdate's return value.
type Result struct {
	Success          bool
	FilesProcessed   int
	ChunksCreated    int
	ChunksDeleted    int
	ProcessingTimeMs int64
	Message          string
}

// Processor drives incremental sync for one codebase, reusing the same
// collaborators as the full orchestrator (C1-C9, E1, E2).
type Processor struct {
	Registry  *registry.Registry
	FileMeta  func(canonicalPath string) (*filemeta.Store, error)
	Locks     *lock.Service
	Extractor *extraction.Extractor
	Embedder  *embedclient.Client
	Store     *vectorstore.Store
}

const uploadBatchSize = 10

// ProcessIncrementalUpdate re-extracts and re-uploads only the files that
// changed since the codebase's last index (or within maxAgeHours, if set),
// and removes chunks for files that were deleted.
func (p *Processor) ProcessIncrementalUpdate(ctx context.Context, codebasePath, namespace string, opts Options) (*Result, error) {
	start := time.Now()

	canonicalPath, err := filepath.Abs(codebasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve canonical path: %w", err)
	}

	lockKey := "incremental:" + canonicalPath
	lockResult, err := p.Locks.Acquire(lockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire incremental lock: %w", err)
	}
	if !lockResult.Acquired {
		return &Result{Success: false, Message: lockResult.Message}, nil
	}
	defer func() {
		if err := p.Locks.Release(lockKey); err != nil {
			log.Printf("Warning: failed to release incremental lock for %s: %v\n", canonicalPath, err)
		}
	}()

	since := p.computeSince(canonicalPath, opts)

	meta, err := p.FileMeta(canonicalPath)
	if err != nil {
		return nil, fmt.Errorf("open file metadata store: %w", err)
	}

	discoverer, err := discovery.New(canonicalPath, ".codecontext", nil)
	if err != nil {
		return nil, fmt.Errorf("create discoverer: %w", err)
	}
	files, err := discoverer.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	candidates := make(map[string]string, len(files))
	for _, f := range files {
		relPath, err := filepath.Rel(canonicalPath, f)
		if err != nil {
			relPath = f
		}
		candidates[filepath.ToSlash(relPath)] = f
	}

	changes, err := meta.DetectChanges(candidates, since)
	if err != nil {
		return nil, fmt.Errorf("detect changes: %w", err)
	}

	filesProcessed := 0
	chunksCreated := 0
	chunksDeleted := 0

	for _, relPath := range append(append([]string{}, changes.Added...), changes.Modified...) {
		absPath := candidates[relPath]
		created, err := p.replaceFile(ctx, meta, canonicalPath, namespace, relPath, absPath)
		if err != nil {
			log.Printf("Warning: failed to process %s during incremental sync: %v\n", relPath, err)
			continue
		}
		filesProcessed++
		chunksCreated += created
	}

	for _, relPath := range changes.Deleted {
		state, ok := meta.Get(relPath)
		if ok && len(state.ChunkIDs) > 0 {
			if err := p.Store.DeleteByIds(ctx, namespace, state.ChunkIDs); err != nil {
				log.Printf("Warning: failed to delete chunks for removed file %s: %v\n", relPath, err)
			}
			chunksDeleted += len(state.ChunkIDs)
		}
		meta.Delete(relPath)
		filesProcessed++
	}

	if err := meta.Save(); err != nil {
		log.Printf("Warning: failed to save file metadata for %s: %v\n", canonicalPath, err)
	}

	if err := p.Registry.UpdateLastIndexed(canonicalPath); err != nil {
		log.Printf("Warning: failed to update lastIndexedAt for %s: %v\n", canonicalPath, err)
	}

	return &Result{
		Success:          true,
		FilesProcessed:   filesProcessed,
		ChunksCreated:    chunksCreated,
		ChunksDeleted:    chunksDeleted,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Message:          fmt.Sprintf("processed %d files", filesProcessed),
	}, nil
}

func (p *Processor) computeSince(canonicalPath string, opts Options) *time.Time {
	if opts.MaxAgeHours > 0 {
		t := time.Now().Add(-time.Duration(opts.MaxAgeHours * float64(time.Hour)))
		return &t
	}
	if entry, ok := p.Registry.Get(canonicalPath); ok && !entry.LastIndexedAt.IsZero() {
		t := entry.LastIndexedAt
		return &t
	}
	epoch := time.Unix(0, 0)
	return &epoch
}

// replaceFile performs the atomic per-file replace of §4.11 step 4:
// upload new chunks first, then delete the old ones only on success, so a
// failed upload never leaves a file with no searchable chunks at all.
func (p *Processor) replaceFile(ctx context.Context, meta *filemeta.Store, rootDir, namespace, relPath, absPath string) (int, error) {
	oldState, hadOldState := meta.Get(relPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}

	language := langdetect.Detect(absPath, content).Language
	if !p.Extractor.SupportsLanguage(language) {
		return 0, nil
	}

	result, err := p.Extractor.Extract(language, absPath, content)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	chunks := extraction.ChunkFile(extraction.DefaultChunkingConfig, result, absPath, relPath, content)
	var allSubChunks []extraction.Chunk
	for _, c := range chunks {
		allSubChunks = append(allSubChunks, subchunk.Split(subchunk.DefaultConfig, c)...)
	}

	newChunkIDs, err := p.uploadChunks(ctx, namespace, allSubChunks)
	if err != nil {
		return 0, fmt.Errorf("upload chunks: %w", err)
	}

	if hadOldState && len(oldState.ChunkIDs) > 0 {
		if err := p.Store.DeleteByIds(ctx, namespace, oldState.ChunkIDs); err != nil {
			log.Printf("Warning: failed to delete stale chunks for %s after successful reupload: %v\n", relPath, err)
		}
	}

	meta.Set(filemeta.FileState{
		RelativePath: relPath,
		Hash:         filemeta.HashFile(content),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		ChunkIDs:     newChunkIDs,
	})

	return len(newChunkIDs), nil
}

func (p *Processor) uploadChunks(ctx context.Context, namespace string, chunks []extraction.Chunk) ([]string, error) {
	var ids []string
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
		vectors, err := p.Embedder.EmbedBatch(ctx, texts, embedclient.ModePassage)
		if err != nil {
			return nil, err
		}

		rows := make([]vectorstore.Row, len(batch))
		for i, c := range batch {
			names := make([]string, len(c.Symbols))
			for j, s := range c.Symbols {
				names[j] = s.Name
			}
			rows[i] = vectorstore.Row{
				ID: c.ID, Content: c.Content, Embedding: vectors[i],
				FilePath: c.FilePath, RelativePath: c.RelativePath,
				StartLine: c.StartLine, EndLine: c.EndLine, Language: c.Language,
				Symbols: names,
			}
			ids = append(ids, c.ID)
		}
		if err := p.Store.Upsert(ctx, namespace, rows); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
