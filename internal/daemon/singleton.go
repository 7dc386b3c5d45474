// Package daemon guards against two MCP server processes serving the same
// data directory concurrently, which would race on the registry and vector
// store's on-disk state.
package daemon

import (
	"path/filepath"

	"github.com/gofrs/flock"
)

// Singleton holds an advisory file lock for one data directory's MCP server.
type Singleton struct {
	lock *flock.Flock
}

// NewSingleton creates a singleton guard for dataDir. The lock is not
// acquired until EnforceSingleton is called.
func NewSingleton(dataDir string) *Singleton {
	return &Singleton{lock: flock.New(filepath.Join(dataDir, "mcp.lock"))}
}

// EnforceSingleton attempts to become the only MCP server for this data
// directory. Returns true if this process won and should continue serving;
// false if another server instance already holds the lock.
func (s *Singleton) EnforceSingleton() (bool, error) {
	return s.lock.TryLock()
}

// Release releases the lock, called on shutdown.
func (s *Singleton) Release() error {
	return s.lock.Unlock()
}
