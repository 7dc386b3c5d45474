// Package watchmode implements the supplemented watch mode: a debounced
// fsnotify watcher that triggers a C11 incremental sync whenever source
// files change, instead of requiring a manual re-index.
package watchmode

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce    = 500 * time.Millisecond
	maxWatchedDirs     = 1000
	maxWatchDepth      = 10
)

var skipDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".codecontext": true,
}

// Watcher recursively watches a codebase root and invokes OnChange, debounced,
// whenever files are created, written, or removed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration

	accumulatedMu sync.Mutex
	accumulated   map[string]bool

	timerMu sync.Mutex
	timer   *time.Timer

	dirCount int
}

// New creates a watcher rooted at codebasePath, recursively watching every
// subdirectory except the ones in skipDirNames.
func New(codebasePath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	root, err := filepath.Abs(codebasePath)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve canonical path: %w", err)
	}

	w := &Watcher{
		fsw:         fsw,
		root:        root,
		debounce:    defaultDebounce,
		accumulated: make(map[string]bool),
	}

	if err := w.addRecursively(root, 0); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is cancelled, calling onChange once per debounce
// window after one or more files change. onChange runs synchronously in the
// watch loop, so a slow sync naturally gates the next debounce cycle.
func (w *Watcher) Run(ctx context.Context, onChange func(changedFiles []string)) error {
	defer w.fsw.Close()

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursively(event.Name, 0); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v\n", event.Name, err)
					}
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}

			w.accumulatedMu.Lock()
			w.accumulated[event.Name] = true
			w.accumulatedMu.Unlock()
			w.resetTimer(fireCh)

		case <-fireCh:
			w.accumulatedMu.Lock()
			if len(w.accumulated) == 0 {
				w.accumulatedMu.Unlock()
				continue
			}
			files := make([]string, 0, len(w.accumulated))
			for f := range w.accumulated {
				files = append(files, f)
			}
			w.accumulated = make(map[string]bool)
			w.accumulatedMu.Unlock()
			onChange(files)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) resetTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) addRecursively(dir string, depth int) error {
	if depth > maxWatchDepth {
		return nil
	}
	if skipDirNames[filepath.Base(dir)] {
		return nil
	}
	if w.dirCount >= maxWatchedDirs {
		return fmt.Errorf("directory limit reached: %d directories already watched", w.dirCount)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}
	w.dirCount++

	for _, entry := range entries {
		if !entry.IsDir() || skipDirNames[entry.Name()] {
			continue
		}
		if err := w.addRecursively(filepath.Join(dir, entry.Name()), depth+1); err != nil {
			log.Printf("Warning: %v\n", err)
		}
	}
	return nil
}
